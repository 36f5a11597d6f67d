package subscriber

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jeffleon2/draftea-payment-pipeline/config"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/broker"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/metrics"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

var errPublishNacked = errors.New("broker nacked republish")

// Notifier publishes dead-letter events to Kafka.
type Notifier interface {
	PublishKeyed(ctx context.Context, topic, key string, message interface{}) error
}

// Runner supervises broker sessions. *broker.Manager satisfies it.
type Runner interface {
	Run(ctx context.Context, handler broker.Handler) error
}

type DeliveryHandler func(ctx context.Context, d amqp.Delivery) error

// AMQPConsumer drains the payment queue one delivery at a time. Every
// delivery ends in exactly one of: ack after success, republish with a higher
// attempt count, publish to the dead-letter exchange, or nack with requeue
// when neither publish was possible.
type AMQPConsumer struct {
	Runner      Runner
	Notifier    Notifier
	RetryConfig config.RetryConfig

	queue             string
	deadLetter        string
	deadLetterKey     string
	consumerTag       string
	processingTimeout time.Duration
}

// NewAMQPConsumer builds a consumer for topology. notifier may be nil.
func NewAMQPConsumer(runner Runner, topology broker.Topology, cfg config.Worker, notifier Notifier) *AMQPConsumer {
	tag := cfg.ConsumerTag
	if tag == "" {
		tag = "payment-worker-" + uuid.NewString()
	}

	retry := cfg.GetRetryConfig().WithDefaults()
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}

	c := &AMQPConsumer{
		Runner:            runner,
		Notifier:          notifier,
		RetryConfig:       retry,
		queue:             topology.Queue,
		consumerTag:       tag,
		processingTimeout: cfg.ProcessingTimeout,
	}
	if topology.HasDeadLetter() {
		c.deadLetter = topology.DeadLetterExchange
		c.deadLetterKey = topology.DeadLetterRoutingKey()
	}
	return c
}

func (c *AMQPConsumer) ConsumerTag() string {
	return c.consumerTag
}

// Listen blocks until ctx is cancelled or the runner gives up reconnecting.
func (c *AMQPConsumer) Listen(ctx context.Context, handler DeliveryHandler) error {
	return c.Runner.Run(ctx, func(ctx context.Context, ch broker.Channel) error {
		return c.consume(ctx, ch, handler)
	})
}

func (c *AMQPConsumer) consume(ctx context.Context, ch broker.Channel, handler DeliveryHandler) error {
	deliveries, err := ch.Consume(c.queue, c.consumerTag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}
	logrus.Infof("Waiting for messages on %s (consumer %s)", c.queue, c.consumerTag)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				logrus.Warnf("Delivery channel for %s closed", c.queue)
				return nil
			}
			c.processDelivery(ctx, ch, d, handler)
		}
	}
}

func (c *AMQPConsumer) processDelivery(ctx context.Context, ch broker.Channel, d amqp.Delivery, handler DeliveryHandler) {
	start := time.Now()
	defer func() {
		metrics.ProcessingDuration.Observe(time.Since(start).Seconds())
	}()

	attempt := attemptOf(d)
	log := logrus.WithFields(logrus.Fields{
		"message_id":   d.MessageId,
		"delivery_tag": d.DeliveryTag,
		"attempt":      attempt,
		"redelivered":  d.Redelivered,
	})

	hctx, cancel := ctx, context.CancelFunc(func() {})
	if c.processingTimeout > 0 {
		hctx, cancel = context.WithTimeout(ctx, c.processingTimeout)
	}
	err := handler(hctx, d)
	cancel()

	if err == nil {
		if ackErr := d.Ack(false); ackErr != nil {
			log.Errorf("Error acknowledging message: %s", ackErr.Error())
			return
		}
		metrics.PaymentsProcessed.WithLabelValues(metrics.OutcomeAcked).Inc()
		log.Info("Message processed")
		return
	}

	if ctx.Err() != nil {
		log.Warnf("Shutting down with message in flight: %s", err.Error())
		c.requeue(d, log)
		return
	}

	switch {
	case errors.Is(err, models.ErrInvalidMessage):
		c.sendToDeadLetter(ctx, ch, d, attempt, models.FailureTypeValidation, err, log)
	case attempt >= c.RetryConfig.MaxAttempts:
		c.sendToDeadLetter(ctx, ch, d, attempt, models.FailureTypeExhausted, err, log)
	default:
		c.retryLater(ctx, ch, d, attempt, err, log)
	}
}

func (c *AMQPConsumer) retryLater(ctx context.Context, ch broker.Channel, d amqp.Delivery, attempt int, cause error, log *logrus.Entry) {
	delay := c.RetryConfig.Backoff(attempt - 1)
	log.Warnf("Processing failed (attempt %d/%d): %s. Retrying in %v", attempt, c.RetryConfig.MaxAttempts, cause.Error(), delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		c.requeue(d, log)
		return
	case <-timer.C:
	}

	if err := publishConfirmed(ctx, ch, "", c.queue, republishing(d, attempt+1, nil)); err != nil {
		log.Errorf("Error scheduling retry: %s", err.Error())
		c.requeue(d, log)
		return
	}
	if err := d.Ack(false); err != nil {
		// the retry copy is already queued; a redelivered original is absorbed by the upsert
		log.Errorf("Error acknowledging retried message: %s", err.Error())
	}
	metrics.PaymentsProcessed.WithLabelValues(metrics.OutcomeRetried).Inc()
}

func (c *AMQPConsumer) sendToDeadLetter(ctx context.Context, ch broker.Channel, d amqp.Delivery, attempt int, failureType string, cause error, log *logrus.Entry) {
	if c.deadLetter == "" {
		log.Errorf("No dead-letter exchange configured, requeueing: %s", cause.Error())
		c.requeue(d, log)
		return
	}

	headers := amqp.Table{
		models.HeaderFailureReason: truncate(cause.Error(), 255),
		models.HeaderFailureType:   failureType,
		models.HeaderOriginalQueue: c.queue,
	}
	if err := publishConfirmed(ctx, ch, c.deadLetter, c.deadLetterKey, republishing(d, attempt, headers)); err != nil {
		log.Errorf("Error publishing to dead-letter exchange: %s", err.Error())
		c.requeue(d, log)
		return
	}
	if err := d.Ack(false); err != nil {
		log.Errorf("Error acknowledging dead-lettered message: %s", err.Error())
	}

	metrics.PaymentsProcessed.WithLabelValues(metrics.OutcomeDeadLettered).Inc()
	log.Errorf("Message dead-lettered (%s): %s", failureType, cause.Error())
	c.notifyDeadLetter(ctx, d, attempt, failureType, cause)
}

func (c *AMQPConsumer) requeue(d amqp.Delivery, log *logrus.Entry) {
	if err := d.Nack(false, true); err != nil {
		log.Errorf("Error requeueing message: %s", err.Error())
		return
	}
	metrics.PaymentsProcessed.WithLabelValues(metrics.OutcomeRequeued).Inc()
}

func (c *AMQPConsumer) notifyDeadLetter(ctx context.Context, d amqp.Delivery, attempt int, failureType string, cause error) {
	if c.Notifier == nil {
		return
	}

	event := models.DLQMessage{
		OriginalQueue: c.queue,
		MessageID:     d.MessageId,
		Value:         string(d.Body),
		Reason:        cause.Error(),
		FailureType:   failureType,
		Timestamp:     time.Now().UTC(),
		Attempts:      attempt,
	}
	if err := c.Notifier.PublishKeyed(ctx, models.PaymentsDLQTopic, d.MessageId, event); err != nil {
		logrus.Warnf("Failed to send message to DLQ topic: %v", err)
	}
}

// publishConfirmed publishes and, on a confirm-mode channel, waits for the
// broker's verdict.
func publishConfirmed(ctx context.Context, ch broker.Channel, exchange, key string, msg amqp.Publishing) error {
	confirmation, err := ch.PublishWithDeferredConfirmWithContext(ctx, exchange, key, false, false, msg)
	if err != nil {
		return err
	}
	if confirmation == nil {
		return nil
	}
	acked, err := confirmation.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !acked {
		return errPublishNacked
	}
	return nil
}

// republishing copies d into a persistent publishing carrying the given
// attempt number and any extra headers.
func republishing(d amqp.Delivery, attempt int, extra amqp.Table) amqp.Publishing {
	headers := make(amqp.Table, len(d.Headers)+len(extra)+1)
	for k, v := range d.Headers {
		headers[k] = v
	}
	for k, v := range extra {
		headers[k] = v
	}
	headers[models.HeaderAttempt] = int32(attempt)

	return amqp.Publishing{
		Headers:         headers,
		ContentType:     d.ContentType,
		ContentEncoding: d.ContentEncoding,
		DeliveryMode:    amqp.Persistent,
		Priority:        d.Priority,
		CorrelationId:   d.CorrelationId,
		MessageId:       d.MessageId,
		Timestamp:       d.Timestamp,
		Type:            d.Type,
		AppId:           d.AppId,
		Body:            d.Body,
	}
}

// attemptOf reads the x-attempt header; deliveries without one are first
// attempts.
func attemptOf(d amqp.Delivery) int {
	n, ok := models.HeaderInt(d.Headers[models.HeaderAttempt])
	if !ok || n < 1 {
		return 1
	}
	return n
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
