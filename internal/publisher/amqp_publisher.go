package publisher

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/broker"
	"github.com/jeffleon2/draftea-payment-pipeline/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// ChannelProvider hands out the current broker channel. *broker.Manager
// satisfies it.
type ChannelProvider interface {
	Channel() (broker.Channel, error)
}

type AMQPPublisher struct {
	channels   ChannelProvider
	exchange   string
	routingKey string
	confirms   bool
}

func NewAMQPPublisher(channels ChannelProvider, topology broker.Topology, confirms bool) *AMQPPublisher {
	return &AMQPPublisher{
		channels:   channels,
		exchange:   topology.Exchange,
		routingKey: topology.RoutingKey,
		confirms:   confirms,
	}
}

// Publish sends msg as a persistent message. The returned bool is the
// broker's verdict when confirms are enabled and true once the frame is
// written otherwise. broker.ErrChannelUnavailable is returned untouched.
func (p *AMQPPublisher) Publish(ctx context.Context, msg *models.PaymentMessage) (bool, error) {
	ch, err := p.channels.Channel()
	if err != nil {
		return false, err
	}

	body, err := msg.Encode()
	if err != nil {
		return false, fmt.Errorf("error marshaling message: %w", err)
	}

	publishing := amqp.Publishing{
		Headers: amqp.Table{
			models.HeaderSchemaVersion: int32(models.SchemaVersion),
			models.HeaderAttempt:       int32(1),
		},
		ContentType:   models.ContentType,
		DeliveryMode:  amqp.Persistent,
		MessageId:     msg.ID,
		CorrelationId: uuid.NewString(),
		Timestamp:     msg.Timestamp,
		Type:          models.MessageType,
		AppId:         msg.Source,
		Body:          body,
	}

	if !p.confirms {
		if err := ch.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, publishing); err != nil {
			return false, fmt.Errorf("publish %s: %w", msg.ID, err)
		}
		return true, nil
	}

	confirmation, err := ch.PublishWithDeferredConfirmWithContext(ctx, p.exchange, p.routingKey, false, false, publishing)
	if err != nil {
		return false, fmt.Errorf("publish %s: %w", msg.ID, err)
	}
	// nil when the channel is not in confirm mode
	if confirmation == nil {
		return true, nil
	}

	acked, err := confirmation.WaitContext(ctx)
	if err != nil {
		return false, fmt.Errorf("waiting confirm for %s: %w", msg.ID, err)
	}
	if !acked {
		logrus.Warnf("Broker nacked payment %s", msg.ID)
	}
	return acked, nil
}
