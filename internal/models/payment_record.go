package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentRecord is the persisted form of a payment. ID is assigned by the
// store; MessageID carries the producer id and is the upsert conflict key.
type PaymentRecord struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageID   string          `gorm:"column:message_id;size:128;not null;uniqueIndex:ux_payments_message_id" json:"message_id"`
	ClientID    string          `gorm:"column:client_id;size:64;not null;index" json:"client_id"`
	Description string          `gorm:"column:description;size:255" json:"description"`
	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null" json:"amount"`
	Currency    string          `gorm:"column:currency;size:3;not null" json:"currency"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (PaymentRecord) TableName() string {
	return "payments"
}

// UpsertColumns are overwritten when a redelivered message hits an existing row.
var UpsertColumns = []string{"client_id", "description", "amount", "currency", "updated_at"}
