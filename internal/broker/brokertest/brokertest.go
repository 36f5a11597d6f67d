// Package brokertest provides an in-memory AMQP broker that satisfies the
// broker.Connection and broker.Channel interfaces. It models exchanges,
// queues, direct bindings, prefetch, manual acknowledgement and requeue on
// channel loss closely enough to drive the producer and worker end to end.
package brokertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/jeffleon2/draftea-payment-pipeline/internal/broker"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Message is a publication as the broker received it.
type Message struct {
	Exchange    string
	RoutingKey  string
	Publishing  amqp.Publishing
	Redelivered bool
}

type ExchangeInfo struct {
	Kind    string
	Durable bool
}

type QueueInfo struct {
	Durable   bool
	Ready     int
	Consumers int
}

type binding struct {
	queue    string
	key      string
	exchange string
}

type queue struct {
	name      string
	durable   bool
	ready     []Message
	consumers []*consumer
	next      int
}

type consumer struct {
	tag        string
	queue      string
	ch         *Channel
	autoAck    bool
	deliveries chan amqp.Delivery
}

type unacked struct {
	queue string
	msg   Message
}

type Broker struct {
	mu sync.Mutex

	exchanges map[string]ExchangeInfo
	queues    map[string]*queue
	bindings  []binding
	conns     []*Connection
	published []Message

	dials         int
	failDials     int
	dialErr       error
	publishErr    error
	nackPublishes int
	acks          int
	nacks         int
	delivered     int
	maxInFlight   int
	ctagSeq       int
}

func New() *Broker {
	return &Broker{
		exchanges: map[string]ExchangeInfo{},
		queues:    map[string]*queue{},
	}
}

// FailNextDials makes the next n dials return err.
func (b *Broker) FailNextDials(n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failDials = n
	b.dialErr = err
}

// SetPublishError makes every publish fail with err until reset with nil.
func (b *Broker) SetPublishError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.publishErr = err
}

// NackNextPublishes makes the broker nack the next n publishes made on
// confirm-mode channels. Nacked messages are not routed.
func (b *Broker) NackNextPublishes(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nackPublishes = n
}

// Dial matches broker.Dialer.
func (b *Broker) Dial(string) (broker.Connection, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.dials++
	if b.failDials > 0 {
		b.failDials--
		err := b.dialErr
		if err == nil {
			err = &amqp.Error{Code: amqp.ConnectionForced, Reason: "dial refused"}
		}
		return nil, err
	}

	conn := &Connection{broker: b}
	b.conns = append(b.conns, conn)
	return conn, nil
}

// DropConnections simulates the broker going away: every open connection
// receives a CONNECTION_FORCED error and all unacked messages are requeued.
func (b *Broker) DropConnections() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, conn := range b.conns {
		if !conn.closed {
			conn.closeLocked(&amqp.Error{Code: amqp.ConnectionForced, Reason: "CONNECTION_FORCED - broker forced connection closure", Server: true, Recover: true})
		}
	}
	b.conns = nil
}

// Inject places a message straight onto a queue, bypassing exchanges.
func (b *Broker) Inject(queueName string, p amqp.Publishing) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	q, ok := b.queues[queueName]
	if !ok {
		return notFound("queue", queueName)
	}
	q.ready = append(q.ready, Message{RoutingKey: queueName, Publishing: p})
	b.dispatchLocked()
	return nil
}

func (b *Broker) Dials() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dials
}

func (b *Broker) Acks() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.acks
}

func (b *Broker) Nacks() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nacks
}

// Deliveries counts every delivery handed to a consumer, redeliveries included.
func (b *Broker) Deliveries() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.delivered
}

// MaxInFlight is the highest number of unacknowledged deliveries any single
// channel held at once.
func (b *Broker) MaxInFlight() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.maxInFlight
}

func (b *Broker) Published() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Message, len(b.published))
	copy(out, b.published)
	return out
}

// Messages returns the ready messages of a queue in delivery order.
func (b *Broker) Messages(queueName string) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	q, ok := b.queues[queueName]
	if !ok {
		return nil
	}
	out := make([]Message, len(q.ready))
	copy(out, q.ready)
	return out
}

func (b *Broker) QueueDepth(queueName string) int {
	return len(b.Messages(queueName))
}

// Unacked counts deliveries awaiting acknowledgement across all channels.
func (b *Broker) Unacked() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, conn := range b.conns {
		for _, ch := range conn.channels {
			n += len(ch.unacked)
		}
	}
	return n
}

func (b *Broker) Exchange(name string) (ExchangeInfo, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	info, ok := b.exchanges[name]
	return info, ok
}

func (b *Broker) Queue(name string) (QueueInfo, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	q, ok := b.queues[name]
	if !ok {
		return QueueInfo{}, false
	}
	return QueueInfo{Durable: q.durable, Ready: len(q.ready), Consumers: len(q.consumers)}, true
}

func (b *Broker) Bound(queueName, key, exchange string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, bd := range b.bindings {
		if bd == (binding{queue: queueName, key: key, exchange: exchange}) {
			return true
		}
	}
	return false
}

func (b *Broker) routeLocked(exchange, key string) ([]*queue, error) {
	if exchange == "" {
		q, ok := b.queues[key]
		if !ok {
			return nil, nil
		}
		return []*queue{q}, nil
	}
	if _, ok := b.exchanges[exchange]; !ok {
		return nil, notFound("exchange", exchange)
	}

	var out []*queue
	for _, bd := range b.bindings {
		if bd.exchange == exchange && bd.key == key {
			if q, ok := b.queues[bd.queue]; ok {
				out = append(out, q)
			}
		}
	}
	return out, nil
}

// dispatchLocked hands ready messages to consumers round robin, honouring
// each channel's prefetch window and the delivery buffer.
func (b *Broker) dispatchLocked() {
	for _, q := range b.queues {
		for len(q.ready) > 0 {
			c := q.pick()
			if c == nil {
				break
			}
			msg := q.ready[0]
			q.ready = q.ready[1:]
			b.deliverLocked(q, c, msg)
		}
	}
}

func (q *queue) pick() *consumer {
	for i := 0; i < len(q.consumers); i++ {
		c := q.consumers[(q.next+i)%len(q.consumers)]
		if c.ch.closed || len(c.deliveries) == cap(c.deliveries) {
			continue
		}
		if !c.autoAck && c.ch.prefetch > 0 && len(c.ch.unacked) >= c.ch.prefetch {
			continue
		}
		q.next = (q.next + i + 1) % len(q.consumers)
		return c
	}
	return nil
}

func (b *Broker) deliverLocked(q *queue, c *consumer, msg Message) {
	ch := c.ch
	ch.nextTag++
	tag := ch.nextTag

	if !c.autoAck {
		ch.unacked[tag] = unacked{queue: q.name, msg: msg}
		if len(ch.unacked) > b.maxInFlight {
			b.maxInFlight = len(ch.unacked)
		}
	}
	b.delivered++

	p := msg.Publishing
	c.deliveries <- amqp.Delivery{
		Acknowledger:    ch,
		Headers:         copyTable(p.Headers),
		ContentType:     p.ContentType,
		ContentEncoding: p.ContentEncoding,
		DeliveryMode:    p.DeliveryMode,
		Priority:        p.Priority,
		CorrelationId:   p.CorrelationId,
		ReplyTo:         p.ReplyTo,
		Expiration:      p.Expiration,
		MessageId:       p.MessageId,
		Timestamp:       p.Timestamp,
		Type:            p.Type,
		UserId:          p.UserId,
		AppId:           p.AppId,
		ConsumerTag:     c.tag,
		DeliveryTag:     tag,
		Redelivered:     msg.Redelivered,
		Exchange:        msg.Exchange,
		RoutingKey:      msg.RoutingKey,
		Body:            append([]byte(nil), p.Body...),
	}
}

// requeueLocked puts a message back at the head of its queue.
func (b *Broker) requeueLocked(u unacked) {
	q, ok := b.queues[u.queue]
	if !ok {
		return
	}
	u.msg.Redelivered = true
	q.ready = append([]Message{u.msg}, q.ready...)
}

type Connection struct {
	broker   *Broker
	channels []*Channel
	notify   []chan *amqp.Error
	closed   bool
}

func (c *Connection) Channel() (broker.Channel, error) {
	b := c.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if c.closed {
		return nil, amqp.ErrClosed
	}
	ch := &Channel{broker: b, conn: c, unacked: map[uint64]unacked{}}
	c.channels = append(c.channels, ch)
	return ch, nil
}

func (c *Connection) NotifyClose(receiver chan *amqp.Error) chan *amqp.Error {
	b := c.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if c.closed {
		close(receiver)
		return receiver
	}
	c.notify = append(c.notify, receiver)
	return receiver
}

func (c *Connection) Close() error {
	b := c.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if c.closed {
		return amqp.ErrClosed
	}
	c.closeLocked(nil)
	return nil
}

func (c *Connection) closeLocked(reason *amqp.Error) {
	c.closed = true
	for _, ch := range c.channels {
		if !ch.closed {
			ch.closeLocked()
		}
	}
	for _, n := range c.notify {
		if reason != nil {
			select {
			case n <- reason:
			default:
			}
		}
		close(n)
	}
	c.notify = nil
	c.broker.dispatchLocked()
}

type Channel struct {
	broker    *Broker
	conn      *Connection
	prefetch  int
	confirm   bool
	closed    bool
	nextTag   uint64
	unacked   map[uint64]unacked
	consumers []*consumer
}

func (ch *Channel) ExchangeDeclare(name, kind string, durable, _, _, _ bool, _ amqp.Table) error {
	b := ch.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch.closed {
		return amqp.ErrClosed
	}
	want := ExchangeInfo{Kind: kind, Durable: durable}
	if existing, ok := b.exchanges[name]; ok {
		if existing != want {
			return preconditionFailed("exchange", name)
		}
		return nil
	}
	b.exchanges[name] = want
	return nil
}

func (ch *Channel) QueueDeclare(name string, durable, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	b := ch.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch.closed {
		return amqp.Queue{}, amqp.ErrClosed
	}
	q, ok := b.queues[name]
	if ok && q.durable != durable {
		return amqp.Queue{}, preconditionFailed("queue", name)
	}
	if !ok {
		q = &queue{name: name, durable: durable}
		b.queues[name] = q
	}
	return amqp.Queue{Name: name, Messages: len(q.ready), Consumers: len(q.consumers)}, nil
}

func (ch *Channel) QueueBind(name, key, exchange string, _ bool, _ amqp.Table) error {
	b := ch.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch.closed {
		return amqp.ErrClosed
	}
	if _, ok := b.queues[name]; !ok {
		return notFound("queue", name)
	}
	if _, ok := b.exchanges[exchange]; !ok {
		return notFound("exchange", exchange)
	}
	bd := binding{queue: name, key: key, exchange: exchange}
	for _, existing := range b.bindings {
		if existing == bd {
			return nil
		}
	}
	b.bindings = append(b.bindings, bd)
	return nil
}

func (ch *Channel) Qos(prefetchCount, _ int, _ bool) error {
	b := ch.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch.closed {
		return amqp.ErrClosed
	}
	ch.prefetch = prefetchCount
	return nil
}

func (ch *Channel) Confirm(bool) error {
	b := ch.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch.closed {
		return amqp.ErrClosed
	}
	ch.confirm = true
	return nil
}

func (ch *Channel) Consume(queueName, consumerTag string, autoAck, _, _, _ bool, _ amqp.Table) (<-chan amqp.Delivery, error) {
	b := ch.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch.closed {
		return nil, amqp.ErrClosed
	}
	q, ok := b.queues[queueName]
	if !ok {
		return nil, notFound("queue", queueName)
	}
	if consumerTag == "" {
		b.ctagSeq++
		consumerTag = fmt.Sprintf("ctag-%d", b.ctagSeq)
	}

	c := &consumer{tag: consumerTag, queue: queueName, ch: ch, autoAck: autoAck, deliveries: make(chan amqp.Delivery, 128)}
	q.consumers = append(q.consumers, c)
	ch.consumers = append(ch.consumers, c)
	b.dispatchLocked()
	return c.deliveries, nil
}

func (ch *Channel) PublishWithContext(ctx context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b := ch.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch.closed {
		return amqp.ErrClosed
	}
	if b.publishErr != nil {
		return b.publishErr
	}

	targets, err := b.routeLocked(exchange, key)
	if err != nil {
		return err
	}

	m := Message{Exchange: exchange, RoutingKey: key, Publishing: msg}
	b.published = append(b.published, m)
	for _, q := range targets {
		q.ready = append(q.ready, m)
	}
	b.dispatchLocked()
	return nil
}

// PublishWithDeferredConfirmWithContext publishes synchronously. On a
// confirm-mode channel the returned confirmation is already settled; a nacked
// publish is not routed.
func (ch *Channel) PublishWithDeferredConfirmWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) (broker.Confirmation, error) {
	b := ch.broker
	b.mu.Lock()
	confirming := ch.confirm
	nacked := confirming && b.nackPublishes > 0 && b.publishErr == nil && !ch.closed
	if nacked {
		b.nackPublishes--
	}
	b.mu.Unlock()

	if nacked {
		return confirmation(false), nil
	}
	if err := ch.PublishWithContext(ctx, exchange, key, mandatory, immediate, msg); err != nil {
		return nil, err
	}
	if !confirming {
		return nil, nil
	}
	return confirmation(true), nil
}

type confirmation bool

func (c confirmation) WaitContext(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return bool(c), nil
}

func (ch *Channel) Close() error {
	b := ch.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch.closed {
		return amqp.ErrClosed
	}
	ch.closeLocked()
	b.dispatchLocked()
	return nil
}

func (ch *Channel) closeLocked() {
	b := ch.broker
	ch.closed = true

	for _, c := range ch.consumers {
		if q, ok := b.queues[c.queue]; ok {
			q.removeConsumer(c)
		}
		close(c.deliveries)
	}
	ch.consumers = nil

	// walk tags backwards so requeued messages keep their relative order
	for tag := ch.nextTag; tag >= 1; tag-- {
		if u, ok := ch.unacked[tag]; ok {
			b.requeueLocked(u)
		}
	}
	ch.unacked = map[uint64]unacked{}
}

func (q *queue) removeConsumer(c *consumer) {
	for i, qc := range q.consumers {
		if qc == c {
			q.consumers = append(q.consumers[:i], q.consumers[i+1:]...)
			break
		}
	}
	if len(q.consumers) > 0 {
		q.next %= len(q.consumers)
	} else {
		q.next = 0
	}
}

// Ack implements amqp.Acknowledger.
func (ch *Channel) Ack(tag uint64, multiple bool) error {
	b := ch.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	settled, err := ch.settleLocked(tag, multiple)
	if err != nil {
		return err
	}
	b.acks += len(settled)
	b.dispatchLocked()
	return nil
}

// Nack implements amqp.Acknowledger.
func (ch *Channel) Nack(tag uint64, multiple, requeue bool) error {
	b := ch.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	settled, err := ch.settleLocked(tag, multiple)
	if err != nil {
		return err
	}
	b.nacks += len(settled)
	if requeue {
		for i := len(settled) - 1; i >= 0; i-- {
			b.requeueLocked(settled[i])
		}
	}
	b.dispatchLocked()
	return nil
}

// Reject implements amqp.Acknowledger.
func (ch *Channel) Reject(tag uint64, requeue bool) error {
	return ch.Nack(tag, false, requeue)
}

func (ch *Channel) settleLocked(tag uint64, multiple bool) ([]unacked, error) {
	if ch.closed {
		return nil, amqp.ErrClosed
	}
	if _, ok := ch.unacked[tag]; !ok {
		return nil, &amqp.Error{Code: amqp.PreconditionFailed, Reason: fmt.Sprintf("PRECONDITION_FAILED - unknown delivery tag %d", tag)}
	}

	var settled []unacked
	if multiple {
		for t := uint64(1); t <= tag; t++ {
			if u, ok := ch.unacked[t]; ok {
				settled = append(settled, u)
				delete(ch.unacked, t)
			}
		}
		return settled, nil
	}
	settled = append(settled, ch.unacked[tag])
	delete(ch.unacked, tag)
	return settled, nil
}

func copyTable(t amqp.Table) amqp.Table {
	if t == nil {
		return nil
	}
	out := make(amqp.Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

func notFound(kind, name string) *amqp.Error {
	return &amqp.Error{Code: amqp.NotFound, Reason: fmt.Sprintf("NOT_FOUND - no %s '%s'", kind, name)}
}

func preconditionFailed(kind, name string) *amqp.Error {
	return &amqp.Error{Code: amqp.PreconditionFailed, Reason: fmt.Sprintf("PRECONDITION_FAILED - inequivalent arg for %s '%s'", kind, name)}
}
