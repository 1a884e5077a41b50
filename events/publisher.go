// Package events publishes sale notifications to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"

	"salesdesk/logger"
)

// SaleCreated is published after a sale has been persisted
// Example: {"type": "sale.created", "saleId": 10, "clientId": "1032456789", "total": "23.2", "items": 1, "occurredAt": "..."}
type SaleCreated struct {
	Type       string          `json:"type"`
	SaleID     int64           `json:"saleId"`
	ClientID   string          `json:"clientId"`
	Total      decimal.Decimal `json:"total"`
	Items      int             `json:"items"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// SaleDeleted is published after a sale has been removed
type SaleDeleted struct {
	Type       string    `json:"type"`
	SaleID     int64     `json:"saleId"`
	OccurredAt time.Time `json:"occurredAt"`
}

const (
	TypeSaleCreated = "sale.created"
	TypeSaleDeleted = "sale.deleted"
)

// Publisher sends domain events somewhere. Publishing is best effort.
type Publisher interface {
	Publish(ctx context.Context, event interface{}) error
	Close() error
}

// NoopPublisher drops every event. Used when AMQP_URL is not configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event interface{}) error { return nil }
func (NoopPublisher) Close() error                                        { return nil }

// AMQPPublisher publishes JSON events to a durable queue on the default exchange
type AMQPPublisher struct {
	conn  *amqp.Connection
	mu    sync.Mutex // amqp channels are not safe for concurrent publishing
	ch    *amqp.Channel
	queue string
}

// NewAMQPPublisher dials url and declares the queue
func NewAMQPPublisher(url, queue string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %q: %w", queue, err)
	}

	logger.L().Infow("✅ Events: connected to RabbitMQ", "queue", q.Name)
	return &AMQPPublisher{conn: conn, ch: ch, queue: q.Name}, nil
}

// Publish marshals event to JSON and sends it
func (p *AMQPPublisher) Publish(ctx context.Context, event interface{}) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx,
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close closes the channel and the connection
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// Recorder keeps every published event in memory
type Recorder struct {
	mu     sync.Mutex
	Events []interface{}
}

func (r *Recorder) Publish(ctx context.Context, event interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, event)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Published returns a copy of the recorded events
func (r *Recorder) Published() []interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]interface{}(nil), r.Events...)
}
