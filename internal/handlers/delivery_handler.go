package handlers

import (
	"context"
	"fmt"

	"github.com/jeffleon2/draftea-payment-pipeline/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

type SettlementProcessor interface {
	ProcessPayment(ctx context.Context, msg *models.PaymentMessage) error
}

// DeliveryHandler turns a broker delivery into a settled payment.
type DeliveryHandler struct {
	Service SettlementProcessor
}

func NewDeliveryHandler(s SettlementProcessor) *DeliveryHandler {
	return &DeliveryHandler{Service: s}
}

// HandleDelivery returns an error wrapping models.ErrInvalidMessage when the
// delivery can never succeed, and any other error when it may on retry.
func (h *DeliveryHandler) HandleDelivery(ctx context.Context, d amqp.Delivery) error {
	if err := models.CheckSchemaVersion(d.Headers); err != nil {
		logrus.Errorf("Rejecting delivery %s: %s", d.MessageId, err.Error())
		return err
	}

	msg, err := models.DecodePaymentMessage(d.Body)
	if err != nil {
		logrus.Errorf("Error parsing payment message %s: %s", d.MessageId, err.Error())
		return err
	}

	if err := h.Service.ProcessPayment(ctx, msg); err != nil {
		return fmt.Errorf("error processing payment %s: %w", msg.ID, err)
	}
	return nil
}
