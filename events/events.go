// Package events publishes order lifecycle events to a RabbitMQ topic
// exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/hupe1980/grocerymesh/core"
)

const (
	Exchange                = "grocerymesh.events"
	OrderPlacedRoutingKey   = "order.placed.v1"
	StatusChangedRoutingKey = "order.status_changed.v1"
	defaultPublishTimeout   = 3 * time.Second
)

// Publisher receives order lifecycle notifications.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, o core.Order) error
	PublishStatusChanged(ctx context.Context, o core.Order, previous core.OrderStatus) error
}

// Envelope wraps every event payload.
type Envelope struct {
	EventID    string    `json:"eventId"`
	EventType  string    `json:"eventType"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

// OrderPlaced is the payload of order.placed.v1.
type OrderPlaced struct {
	OrderID   string           `json:"orderId"`
	Timestamp time.Time        `json:"timestamp"`
	Items     []core.OrderItem `json:"items"`
	Total     int              `json:"total"`
	Customer  core.Customer    `json:"customer"`
}

// StatusChanged is the payload of order.status_changed.v1.
type StatusChanged struct {
	OrderID  string           `json:"orderId"`
	Previous core.OrderStatus `json:"previous"`
	Status   core.OrderStatus `json:"status"`
}

// Channel is the subset of *amqp.Channel used by AMQPPublisher.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Options configure an AMQPPublisher.
type Options struct {
	Exchange string
	Timeout  time.Duration
	Now      func() time.Time
}

// AMQPPublisher publishes persistent JSON messages to a topic exchange.
type AMQPPublisher struct {
	ch   Channel
	opts Options
}

// Dial connects to url, opens a channel and declares the exchange.
func Dial(url string, optFns ...func(o *Options)) (*AMQPPublisher, *amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	p, err := NewPublisher(ch, optFns...)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return p, conn, nil
}

// NewPublisher declares the exchange on ch so publishing never fails due to
// missing infrastructure.
func NewPublisher(ch Channel, optFns ...func(o *Options)) (*AMQPPublisher, error) {
	opts := Options{Exchange: Exchange, Timeout: defaultPublishTimeout, Now: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}
	if err := ch.ExchangeDeclare(opts.Exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare %s: %w", opts.Exchange, err)
	}
	return &AMQPPublisher{ch: ch, opts: opts}, nil
}

// Close closes the underlying channel.
func (p *AMQPPublisher) Close() error { return p.ch.Close() }

// PublishOrderPlaced emits order.placed.v1.
func (p *AMQPPublisher) PublishOrderPlaced(ctx context.Context, o core.Order) error {
	return p.publish(ctx, OrderPlacedRoutingKey, OrderPlaced{
		OrderID:   o.OrderID,
		Timestamp: o.Timestamp,
		Items:     o.Items,
		Total:     o.Total,
		Customer:  o.Customer,
	})
}

// PublishStatusChanged emits order.status_changed.v1.
func (p *AMQPPublisher) PublishStatusChanged(ctx context.Context, o core.Order, previous core.OrderStatus) error {
	return p.publish(ctx, StatusChangedRoutingKey, StatusChanged{
		OrderID:  o.OrderID,
		Previous: previous,
		Status:   o.Status,
	})
}

func (p *AMQPPublisher) publish(ctx context.Context, routingKey string, data any) error {
	env := Envelope{
		EventID:    uuid.NewString(),
		EventType:  routingKey,
		OccurredAt: p.opts.Now().UTC(),
		Data:       data,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", routingKey, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	if err := p.ch.PublishWithContext(pubCtx, p.opts.Exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    env.EventID,
		Timestamp:    env.OccurredAt,
		Type:         routingKey,
		Body:         body,
	}); err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

// NopPublisher discards all events.
type NopPublisher struct{}

func (NopPublisher) PublishOrderPlaced(context.Context, core.Order) error { return nil }

func (NopPublisher) PublishStatusChanged(context.Context, core.Order, core.OrderStatus) error {
	return nil
}
