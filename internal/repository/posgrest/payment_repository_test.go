package posgrest_test

import (
	"context"
	"testing"

	"github.com/jeffleon2/draftea-payment-pipeline/internal/models"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/repository/posgrest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// dryRunDB builds SQL without touching a server and records the last
// statement produced by a create.
func dryRunDB(t *testing.T) (*gorm.DB, *string) {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=postgres dbname=payments sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)

	var captured string
	err = db.Callback().Create().After("gorm:create").Register("test:capture_sql", func(tx *gorm.DB) {
		captured = tx.Statement.SQL.String()
	})
	require.NoError(t, err)
	return db, &captured
}

func TestPaymentRepository_SaveUpsertsOnMessageID(t *testing.T) {
	db, sql := dryRunDB(t)
	repo := posgrest.NewPaymentRepository(db)

	err := repo.Save(context.Background(), &models.PaymentRecord{
		MessageID:   "pay_c1_1792065600000",
		ClientID:    "c1",
		Description: "rent",
		Amount:      decimal.RequireFromString("100.50"),
		Currency:    "BRL",
	})

	require.NoError(t, err)
	assert.Contains(t, *sql, `INSERT INTO "payments"`)
	assert.Contains(t, *sql, `ON CONFLICT ("message_id") DO UPDATE SET`)
	for _, col := range models.UpsertColumns {
		assert.Contains(t, *sql, `"`+col+`"="excluded"."`+col+`"`)
	}
	assert.NotContains(t, *sql, `ON CONFLICT ("id")`)
	assert.NotContains(t, *sql, `"created_at"="excluded"`)
}

func TestPaymentRepository_FindByMessageID(t *testing.T) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=postgres dbname=payments sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)

	var captured string
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:capture_sql", func(tx *gorm.DB) {
		captured = tx.Statement.SQL.String()
	}))

	repo := posgrest.NewPaymentRepository(db)
	_, _ = repo.FindByMessageID(context.Background(), "pay_c1_1")

	assert.Contains(t, captured, `FROM "payments" WHERE message_id = $1`)
}
