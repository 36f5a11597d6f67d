package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jeffleon2/draftea-payment-pipeline/config"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/metrics"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/models"
	"github.com/sirupsen/logrus"
)

// PaymentRepo persists payment records. Save must be an idempotent upsert
// keyed by MessageID.
type PaymentRepo interface {
	Save(ctx context.Context, record *models.PaymentRecord) error
}

// EventPublisher emits lifecycle events to Kafka.
type EventPublisher interface {
	PublishKeyed(ctx context.Context, topic, key string, message interface{}) error
}

// SettlementService is the consumer side: it settles a delivered payment by
// persisting it.
type SettlementService struct {
	Repo               PaymentRepo
	Events             EventPublisher
	Delay              time.Duration
	DefaultCurrency    string
	DefaultDescription string
	now                func() time.Time
}

// NewSettlementService builds the service. events may be nil.
func NewSettlementService(repo PaymentRepo, events EventPublisher, delay time.Duration, cfg config.Payment) *SettlementService {
	return &SettlementService{
		Repo:               repo,
		Events:             events,
		Delay:              delay,
		DefaultCurrency:    cfg.DefaultCurrency,
		DefaultDescription: cfg.DefaultDescription,
		now:                time.Now,
	}
}

// ProcessPayment waits out the simulated settlement delay and persists the
// payment. Cancelling ctx aborts the wait.
func (s *SettlementService) ProcessPayment(ctx context.Context, msg *models.PaymentMessage) error {
	logrus.WithFields(logrus.Fields{
		"payment_id": msg.ID,
		"client_id":  msg.ClientID,
		"amount":     msg.Amount.String(),
	}).Info("Processing payment")

	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return fmt.Errorf("processing payment %s: %w", msg.ID, ctx.Err())
		case <-timer.C:
		}
	}

	return s.SaveToDatabase(ctx, msg)
}

func (s *SettlementService) SaveToDatabase(ctx context.Context, msg *models.PaymentMessage) error {
	record := msg.ToRecord(s.DefaultCurrency, s.DefaultDescription)
	if err := s.Repo.Save(ctx, record); err != nil {
		logrus.Errorf("Error saving payment %s: %s", msg.ID, err.Error())
		return fmt.Errorf("error saving payment %s: %w", msg.ID, err)
	}

	amount, _ := record.Amount.Float64()
	metrics.PaymentAmounts.WithLabelValues(record.Currency).Observe(amount)
	logrus.Infof("Payment %s saved", msg.ID)

	s.notifyPersisted(ctx, msg, record)
	return nil
}

// notifyPersisted never fails the settlement; the row is already committed.
func (s *SettlementService) notifyPersisted(ctx context.Context, msg *models.PaymentMessage, record *models.PaymentRecord) {
	if s.Events == nil {
		return
	}

	event := models.PaymentPersistedEvent{
		ID:          msg.ID,
		RecordID:    record.ID,
		ClientID:    record.ClientID,
		Amount:      record.Amount,
		Currency:    record.Currency,
		Source:      msg.Source,
		PersistedAt: s.now().UTC(),
	}
	if err := s.Events.PublishKeyed(ctx, models.PaymentPersistedTopic, msg.ID, event); err != nil {
		logrus.Warnf("Error publishing %s for %s: %s", models.PaymentPersistedTopic, msg.ID, err.Error())
	}
}
