package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeffleon2/draftea-payment-pipeline/internal/validation"
	"github.com/shopspring/decimal"
)

const (
	SchemaVersion = 1
	MessageType   = "payment.v1"
	ContentType   = "application/json"

	HeaderSchemaVersion = "x-schema-version"
	HeaderAttempt       = "x-attempt"
	HeaderFailureReason = "x-failure-reason"
	HeaderFailureType   = "x-failure-type"
	HeaderOriginalQueue = "x-original-queue"
)

// Amounts are stored as numeric(14,2).
const (
	AmountScale         = 2
	AmountIntegerDigits = 12
)

var maxAmount = decimal.New(1, AmountIntegerDigits)

// ErrInvalidMessage marks payloads that can never be processed: bad JSON,
// schema violations or an unknown schema version. They are dead-lettered
// without retry.
var ErrInvalidMessage = errors.New("invalid payment message")

// PaymentMessage is the wire entity published by the producer. It is
// immutable once published and its ID is the idempotency key on the
// consumer side.
type PaymentMessage struct {
	ID          string          `json:"id" validate:"required,startswith=pay_,max=128"`
	ClientID    string          `json:"clientId" validate:"required,max=64"`
	Amount      decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Currency    string          `json:"currency" validate:"omitempty,len=3,alpha"`
	Description string          `json:"description,omitempty" validate:"max=255"`
	Timestamp   time.Time       `json:"timestamp" validate:"required"`
	Source      string          `json:"source" validate:"required"`
}

func (m *PaymentMessage) Validate() error {
	if err := validation.Default().Struct(m); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidMessage, err.Error())
	}
	return CheckAmount(m.Amount)
}

// CheckAmount rejects amounts the payments table would round or overflow.
func CheckAmount(amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(AmountScale)) {
		return fmt.Errorf("%w: amount %s has more than %d decimal places", ErrInvalidMessage, amount, AmountScale)
	}
	if amount.Abs().GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("%w: amount %s has more than %d integer digits", ErrInvalidMessage, amount, AmountIntegerDigits)
	}
	return nil
}

func (m *PaymentMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// DecodePaymentMessage parses and validates a delivery body. Every failure
// wraps ErrInvalidMessage.
func DecodePaymentMessage(body []byte) (*PaymentMessage, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidMessage)
	}

	var msg PaymentMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMessage, err.Error())
	}

	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

// CheckSchemaVersion accepts a missing header for messages published by
// producers that predate versioning.
func CheckSchemaVersion(headers map[string]interface{}) error {
	raw, ok := headers[HeaderSchemaVersion]
	if !ok {
		return nil
	}
	version, ok := HeaderInt(raw)
	if !ok || version != SchemaVersion {
		return fmt.Errorf("%w: unsupported schema version %v", ErrInvalidMessage, raw)
	}
	return nil
}

// HeaderInt converts the integer encodings an AMQP table may carry.
func HeaderInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	default:
		return 0, false
	}
}

// ToRecord maps the message onto the persisted entity, applying the store
// defaults for optional fields.
func (m *PaymentMessage) ToRecord(defaultCurrency, defaultDescription string) *PaymentRecord {
	currency := m.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	description := m.Description
	if description == "" {
		description = defaultDescription
	}

	return &PaymentRecord{
		MessageID:   m.ID,
		ClientID:    m.ClientID,
		Description: description,
		Amount:      m.Amount,
		Currency:    strings.ToUpper(currency),
	}
}
