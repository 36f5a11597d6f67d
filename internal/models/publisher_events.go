package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentPersistedTopic = "payments.persisted"
	PaymentsDLQTopic      = "payments.dlq"

	FailureTypeValidation = "validation"
	FailureTypeExhausted  = "retries_exhausted"
)

type PaymentPersistedEvent struct {
	ID          string          `json:"id"`
	RecordID    uint64          `json:"record_id"`
	ClientID    string          `json:"client_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Source      string          `json:"source"`
	PersistedAt time.Time       `json:"persisted_at"`
}

type DLQMessage struct {
	OriginalQueue string    `json:"original_queue"`
	MessageID     string    `json:"message_id"`
	Value         string    `json:"value"`
	Reason        string    `json:"reason"`
	FailureType   string    `json:"failure_type"`
	Timestamp     time.Time `json:"timestamp"`
	Attempts      int       `json:"attempts"`
}
