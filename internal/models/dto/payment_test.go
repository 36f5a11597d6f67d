package dto_test

import (
	"testing"
	"time"

	"github.com/jeffleon2/draftea-payment-pipeline/internal/models"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/models/dto"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/validation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	req := &dto.PaymentRequest{ClientID: "  c1 ", Currency: " brl", Description: " rent  "}

	req.Sanitize()

	assert.Equal(t, "c1", req.ClientID)
	assert.Equal(t, "BRL", req.Currency)
	assert.Equal(t, "rent", req.Description)
}

func TestPaymentRequest_Validation(t *testing.T) {
	v := validation.New()

	valid := dto.PaymentRequest{ClientID: "c1", Amount: decimal.NewFromInt(100)}
	assert.NoError(t, v.Struct(valid))

	cases := map[string]dto.PaymentRequest{
		"missing client": {Amount: decimal.NewFromInt(1)},
		"zero amount":    {ClientID: "c1"},
		"negative":       {ClientID: "c1", Amount: decimal.NewFromInt(-5)},
		"bad currency":   {ClientID: "c1", Amount: decimal.NewFromInt(1), Currency: "EURO"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, v.Struct(req))
		})
	}
}

func TestPaymentRequest_ValidateAmountFitsStore(t *testing.T) {
	ok := dto.PaymentRequest{ClientID: "c1", Amount: decimal.RequireFromString("999999999999.99")}
	assert.NoError(t, ok.Validate())

	for _, raw := range []string{"0.001", "123456789012345.67"} {
		req := dto.PaymentRequest{ClientID: "c1", Amount: decimal.RequireFromString(raw)}
		assert.ErrorIs(t, req.Validate(), models.ErrInvalidMessage, raw)
	}
}

func TestToMessage_DefaultsCurrency(t *testing.T) {
	req := &dto.PaymentRequest{ClientID: "c1", Amount: decimal.NewFromInt(100)}
	createdAt := time.Date(2026, 10, 15, 9, 30, 0, 123456789, time.FixedZone("BRT", -3*3600))

	msg := req.ToMessage("pay_c1_1", createdAt, "api-producer", "BRL")

	assert.Equal(t, "pay_c1_1", msg.ID)
	assert.Equal(t, "BRL", msg.Currency)
	assert.Equal(t, "api-producer", msg.Source)
	assert.Equal(t, time.UTC, msg.Timestamp.Location())
	assert.Equal(t, 123000000, msg.Timestamp.Nanosecond())
}
