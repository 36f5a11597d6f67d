package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jeffleon2/draftea-payment-pipeline/config"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/models"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/models/dto"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/service"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/service/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var paymentConfig = config.Payment{
	DefaultCurrency:    "BRL",
	DefaultDescription: "Payment without description",
	Source:             "api-producer",
}

func frozenClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestProcessPayment_Success(t *testing.T) {
	mockPublisher := mocks.NewMockPaymentPublisher(t)
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	paymentService := service.NewPaymentService(mockPublisher, models.NewIDGenerator(frozenClock(now)), paymentConfig)

	ctx := context.Background()
	req := &dto.PaymentRequest{ClientID: " c1 ", Amount: decimal.RequireFromString("100.50")}

	mockPublisher.EXPECT().
		Publish(ctx, mock.AnythingOfType("*models.PaymentMessage")).
		Return(true, nil).
		Once()

	ack, err := paymentService.ProcessPayment(ctx, req)

	require.NoError(t, err)
	assert.True(t, ack.Success)
	assert.Equal(t, "accepted", ack.Message)
	assert.Equal(t, "pay_c1_1792065600000", ack.PaymentID)
	assert.Regexp(t, models.PaymentIDPattern, ack.PaymentID)
	assert.Equal(t, "BRL", ack.Data.Currency)
	assert.Equal(t, "api-producer", ack.Data.Source)
	assert.Equal(t, "2026-10-15T12:00:00Z", ack.Timestamp)
}

func TestProcessPayment_UniqueIDsWithinOneMillisecond(t *testing.T) {
	mockPublisher := mocks.NewMockPaymentPublisher(t)
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	paymentService := service.NewPaymentService(mockPublisher, models.NewIDGenerator(frozenClock(now)), paymentConfig)

	mockPublisher.EXPECT().
		Publish(mock.Anything, mock.Anything).
		Return(true, nil).
		Times(3)

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		ack, err := paymentService.ProcessPayment(context.Background(), &dto.PaymentRequest{ClientID: "c1", Amount: decimal.NewFromInt(1)})
		require.NoError(t, err)
		assert.False(t, seen[ack.PaymentID], "duplicate id %s", ack.PaymentID)
		seen[ack.PaymentID] = true
	}
}

func TestProcessPayment_PublisherError(t *testing.T) {
	mockPublisher := mocks.NewMockPaymentPublisher(t)
	paymentService := service.NewPaymentService(mockPublisher, nil, paymentConfig)

	expectedError := errors.New("amqp channel unavailable")
	mockPublisher.EXPECT().
		Publish(mock.Anything, mock.Anything).
		Return(false, expectedError).
		Once()

	ack, err := paymentService.ProcessPayment(context.Background(), &dto.PaymentRequest{ClientID: "c1", Amount: decimal.NewFromInt(1)})

	assert.Nil(t, ack)
	assert.ErrorIs(t, err, expectedError)
}

func TestProcessPayment_BrokerNack(t *testing.T) {
	mockPublisher := mocks.NewMockPaymentPublisher(t)
	paymentService := service.NewPaymentService(mockPublisher, nil, paymentConfig)

	mockPublisher.EXPECT().
		Publish(mock.Anything, mock.Anything).
		Return(false, nil).
		Once()

	_, err := paymentService.ProcessPayment(context.Background(), &dto.PaymentRequest{ClientID: "c1", Amount: decimal.NewFromInt(1)})

	assert.ErrorIs(t, err, service.ErrPublishRejected)
}

func TestProcessPayment_InvalidRequest(t *testing.T) {
	mockPublisher := mocks.NewMockPaymentPublisher(t)
	paymentService := service.NewPaymentService(mockPublisher, nil, paymentConfig)

	_, err := paymentService.ProcessPayment(context.Background(), &dto.PaymentRequest{ClientID: "c1"})

	assert.ErrorIs(t, err, models.ErrInvalidMessage)
	mockPublisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestProcessPayment_RejectsAmountsTheStoreCannotHold(t *testing.T) {
	for _, raw := range []string{"0.001", "123456789012345.67"} {
		t.Run(raw, func(t *testing.T) {
			mockPublisher := mocks.NewMockPaymentPublisher(t)
			paymentService := service.NewPaymentService(mockPublisher, nil, paymentConfig)

			ack, err := paymentService.ProcessPayment(context.Background(), &dto.PaymentRequest{
				ClientID: "c1",
				Amount:   decimal.RequireFromString(raw),
			})

			assert.Nil(t, ack)
			assert.ErrorIs(t, err, models.ErrInvalidMessage)
			mockPublisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		})
	}
}
