package dto

import (
	"strings"
	"time"

	"github.com/jeffleon2/draftea-payment-pipeline/internal/models"
	"github.com/shopspring/decimal"
)

// PaymentRequest is the body of POST /payment.
type PaymentRequest struct {
	ClientID    string          `json:"clientId" validate:"required,max=64"`
	Amount      decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Currency    string          `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	Description string          `json:"description,omitempty" validate:"max=255"`
}

func (p *PaymentRequest) Sanitize() {
	p.ClientID = strings.TrimSpace(p.ClientID)
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	p.Description = strings.TrimSpace(p.Description)
}

// Validate covers what the struct tags cannot express on decimals.
func (p *PaymentRequest) Validate() error {
	return models.CheckAmount(p.Amount)
}

// ToMessage builds the wire message. Currency falls back to defaultCurrency.
func (p *PaymentRequest) ToMessage(id string, createdAt time.Time, source, defaultCurrency string) *models.PaymentMessage {
	currency := p.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	return &models.PaymentMessage{
		ID:          id,
		ClientID:    p.ClientID,
		Amount:      p.Amount,
		Currency:    currency,
		Description: p.Description,
		Timestamp:   createdAt.UTC().Truncate(time.Millisecond),
		Source:      source,
	}
}

// PaymentAck is returned to the caller once the message is handed to the broker.
type PaymentAck struct {
	Success   bool                   `json:"success"`
	Message   string                 `json:"message"`
	PaymentID string                 `json:"paymentId"`
	Data      *models.PaymentMessage `json:"data"`
	Timestamp string                 `json:"timestamp"`
}
