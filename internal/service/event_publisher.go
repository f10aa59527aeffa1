package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/account-service/internal/queue"
)

// EventPublisher hands account lifecycle events to the broker.  A failing
// publisher never fails the account operation that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.AccountEvent) error
}

// NoopPublisher drops every event.  It is used when events are disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, queue.AccountEvent) error { return nil }

// ErrEventBufferFull is returned by AMQPPublisher.Publish when the broker
// cannot keep up and the event was dropped.
var ErrEventBufferFull = errors.New("event buffer full")

// AMQPPublisher publishes events to a durable RabbitMQ queue from a single
// background goroutine, so a slow or unreachable broker never delays a
// request.  Publish only enqueues; Run drains the buffer.
type AMQPPublisher struct {
	url         string
	queueName   string
	dialTimeout time.Duration
	logger      *zap.Logger
	events      chan queue.AccountEvent

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPPublisher returns a publisher buffering up to 256 events.
func NewAMQPPublisher(url, queueName string, logger *zap.Logger) *AMQPPublisher {
	return &AMQPPublisher{
		url:         url,
		queueName:   queueName,
		dialTimeout: 5 * time.Second,
		logger:      logger.Named("event-publisher"),
		events:      make(chan queue.AccountEvent, 256),
	}
}

// Publish enqueues ev without blocking.
func (p *AMQPPublisher) Publish(_ context.Context, ev queue.AccountEvent) error {
	select {
	case p.events <- ev:
		return nil
	default:
		return ErrEventBufferFull
	}
}

// Run delivers buffered events until ctx is cancelled, then closes the
// broker connection.  Events that cannot be delivered are logged and
// dropped; the next event triggers a fresh connection attempt.
func (p *AMQPPublisher) Run(ctx context.Context) {
	defer p.reset()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-p.events:
			if err := p.send(ctx, ev); err != nil {
				p.logger.Warn("publish failed, event dropped",
					zap.String("type", ev.Type), zap.String("account_id", ev.AccountID), zap.Error(err))
				p.reset()
			}
		}
	}
}

func (p *AMQPPublisher) send(ctx context.Context, ev queue.AccountEvent) error {
	ch, err := p.channel()
	if err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}

	pubCtx, cancel := context.WithTimeout(ctx, p.dialTimeout)
	defer cancel()
	return ch.PublishWithContext(pubCtx,
		"",          // default exchange
		p.queueName, // routing key = queue name
		false,       // mandatory
		false,       // immediate
		pub,
	)
}

// channel returns the open channel, dialing and declaring the queue first
// when there is none.
func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(p.dialTimeout)})
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.queueName, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *AMQPPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}
