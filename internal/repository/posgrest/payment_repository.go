package posgrest

import (
	"context"
	"fmt"

	"github.com/jeffleon2/draftea-payment-pipeline/internal/models"
	"gorm.io/gorm"
)

// PaymentRepository stores settled payments. Save is keyed by message_id so a
// redelivered message updates the row it created the first time.
type PaymentRepository struct {
	*repository[models.PaymentRecord]
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{New[models.PaymentRecord](db)}
}

func (r *PaymentRepository) Save(ctx context.Context, record *models.PaymentRecord) error {
	if err := r.Upsert(ctx, record, []string{"message_id"}, models.UpsertColumns); err != nil {
		return fmt.Errorf("upsert payment %s: %w", record.MessageID, err)
	}
	return nil
}

func (r *PaymentRepository) FindByMessageID(ctx context.Context, messageID string) (*models.PaymentRecord, error) {
	return r.FirstBy(ctx, "message_id", messageID)
}

// Ping runs a trivial query to prove the pool can reach the database.
func (r *PaymentRepository) Ping(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec("SELECT 1").Error
}
