package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jeffleon2/draftea-payment-pipeline/config"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/metrics"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/models"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/models/dto"
	"github.com/sirupsen/logrus"
)

// ErrPublishRejected is returned when the broker nacks a publish.
var ErrPublishRejected = errors.New("payment publish rejected by broker")

// PaymentPublisher hands a payment message to the broker and reports whether
// the broker accepted it.
type PaymentPublisher interface {
	Publish(ctx context.Context, msg *models.PaymentMessage) (bool, error)
}

// PaymentService is the producer side: it turns a payment request into a
// wire message and publishes it.
type PaymentService struct {
	Publisher       PaymentPublisher
	IDs             *models.IDGenerator
	Source          string
	DefaultCurrency string
}

func NewPaymentService(publisher PaymentPublisher, ids *models.IDGenerator, cfg config.Payment) *PaymentService {
	if ids == nil {
		ids = models.NewIDGenerator(time.Now)
	}
	return &PaymentService{
		Publisher:       publisher,
		IDs:             ids,
		Source:          cfg.Source,
		DefaultCurrency: cfg.DefaultCurrency,
	}
}

// ProcessPayment assigns the payment id, publishes the message and returns
// the acknowledgement for the caller. Nothing is persisted here.
func (s *PaymentService) ProcessPayment(ctx context.Context, req *dto.PaymentRequest) (*dto.PaymentAck, error) {
	req.Sanitize()

	id, createdAt := s.IDs.Next(req.ClientID)
	msg := req.ToMessage(id, createdAt, s.Source, s.DefaultCurrency)
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	accepted, err := s.Publisher.Publish(ctx, msg)
	if err != nil {
		metrics.PaymentsPublished.WithLabelValues("error").Inc()
		logrus.Errorf("Error publishing payment %s: %s", id, err.Error())
		return nil, fmt.Errorf("error publishing payment %s: %w", id, err)
	}
	if !accepted {
		metrics.PaymentsPublished.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: %s", ErrPublishRejected, id)
	}

	metrics.PaymentsPublished.WithLabelValues("accepted").Inc()
	logrus.WithFields(logrus.Fields{
		"payment_id": id,
		"client_id":  msg.ClientID,
	}).Info("Payment sent to queue")

	return &dto.PaymentAck{
		Success:   true,
		Message:   "accepted",
		PaymentID: id,
		Data:      msg,
		Timestamp: msg.Timestamp.Format(time.RFC3339Nano),
	}, nil
}
