package broker

import (
	"fmt"

	"github.com/jeffleon2/draftea-payment-pipeline/config"
)

// Topology names the durable exchange/queue pair of the payment flow and its
// dead-letter pair. Declaring it is idempotent, so producer and consumer both
// declare it on every new channel.
type Topology struct {
	Exchange           string
	ExchangeKind       string
	Queue              string
	RoutingKey         string
	DeadLetterExchange string
	DeadLetterQueue    string
}

func NewTopology(cfg config.AMQP) Topology {
	return Topology{
		Exchange:           cfg.Exchange,
		ExchangeKind:       "direct",
		Queue:              cfg.Queue,
		RoutingKey:         cfg.RoutingKey,
		DeadLetterExchange: cfg.DeadLetterExchange,
		DeadLetterQueue:    cfg.DeadLetterQueue,
	}
}

// DeadLetterRoutingKey binds the dead-letter queue to its exchange.
func (t Topology) DeadLetterRoutingKey() string {
	return t.Queue
}

func (t Topology) HasDeadLetter() bool {
	return t.DeadLetterExchange != "" && t.DeadLetterQueue != ""
}

func (t Topology) Declare(ch Channel) error {
	kind := t.ExchangeKind
	if kind == "" {
		kind = "direct"
	}

	if err := ch.ExchangeDeclare(t.Exchange, kind, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", t.Exchange, err)
	}
	if _, err := ch.QueueDeclare(t.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", t.Queue, err)
	}
	if err := ch.QueueBind(t.Queue, t.RoutingKey, t.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s to %s: %w", t.Queue, t.Exchange, err)
	}

	if !t.HasDeadLetter() {
		return nil
	}

	if err := ch.ExchangeDeclare(t.DeadLetterExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", t.DeadLetterExchange, err)
	}
	if _, err := ch.QueueDeclare(t.DeadLetterQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", t.DeadLetterQueue, err)
	}
	if err := ch.QueueBind(t.DeadLetterQueue, t.DeadLetterRoutingKey(), t.DeadLetterExchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s to %s: %w", t.DeadLetterQueue, t.DeadLetterExchange, err)
	}
	return nil
}
