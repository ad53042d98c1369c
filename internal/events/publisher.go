// Package events publishes storefront domain events to RabbitMQ. Publishing
// is best effort: failures are logged and returned so callers can ignore them
// without failing the request that produced the event.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// OrderPlacedQueue is the durable queue order events are routed to.
const OrderPlacedQueue = "order.placed"

// DefaultDialTimeout bounds connecting to the broker and the AMQP handshake.
const DefaultDialTimeout = 3 * time.Second

// ErrDisabled is returned when no broker URL is configured.
var ErrDisabled = errors.New("events: broker not configured")

// OrderPlacedEvent is published after an order has been committed.
type OrderPlacedEvent struct {
	OrderID      string `json:"order_id"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	Total        string `json:"total"`
	PaymentMode  string `json:"payment_mode"`
	ItemCount    int    `json:"item_count"`
	IsGuestOrder bool   `json:"is_guest_order"`
	PlacedAt     string `json:"placed_at"`
}

// Publisher publishes order events.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, event OrderPlacedEvent) error
}

// NewPublisher returns a RabbitMQ publisher, or a disabled one when url is empty.
func NewPublisher(url string, logger *zap.Logger) Publisher {
	if url == "" {
		return disabled{}
	}
	return &rabbitPublisher{url: url, dialTimeout: DefaultDialTimeout, logger: logger}
}

type disabled struct{}

func (disabled) PublishOrderPlaced(context.Context, OrderPlacedEvent) error {
	return ErrDisabled
}

// rabbitPublisher dials per publish; order volume is low enough that a
// long-lived channel is not worth the reconnect handling.
type rabbitPublisher struct {
	url         string
	dialTimeout time.Duration
	logger      *zap.Logger
}

func (p *rabbitPublisher) PublishOrderPlaced(ctx context.Context, event OrderPlacedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.publish(ctx, OrderPlacedQueue, body); err != nil {
		p.logger.Warn("publish failed",
			zap.String("queue", OrderPlacedQueue),
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (p *rabbitPublisher) publish(ctx context.Context, queue string, body []byte) error {
	timeout := p.dialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return fmt.Errorf("dial: %w", context.DeadlineExceeded)
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(timeout)})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	return ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}
