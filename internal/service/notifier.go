package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"dentalsupply/internal/events"
	"dentalsupply/internal/mailer"
	"dentalsupply/internal/metrics"
	"dentalsupply/internal/model"
)

// Notification kinds, also used as metric labels.
const (
	notifyGuestWelcome      = "guest_welcome"
	notifyOrderConfirmation = "order_confirmation"
	notifyVerification      = "verification"
)

// Notifier sends the store's transactional emails and order events. Every
// method is best effort: failures are logged and reported, never returned.
type Notifier struct {
	mailer    mailer.Mailer
	composer  mailer.Composer
	publisher events.Publisher
	metrics   *metrics.Collector
	logger    *zap.Logger
}

// NewNotifier creates a new notifier. publisher and metrics may be nil.
func NewNotifier(m mailer.Mailer, composer mailer.Composer, publisher events.Publisher, metrics *metrics.Collector, logger *zap.Logger) *Notifier {
	return &Notifier{
		mailer:    m,
		composer:  composer,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// OrderPlaced emails the customer about order and reports whether the email
// was delivered. A non-empty password selects the welcome email carrying the
// credentials of an account created for this order.
func (n *Notifier) OrderPlaced(ctx context.Context, user *model.User, order *model.Order, password string) bool {
	data := mailer.OrderMail{
		To:      user.Email,
		Name:    user.Name,
		OrderID: order.ID.String(),
		Total:   order.Total,
	}

	kind := notifyOrderConfirmation
	var (
		msg mailer.Message
		err error
	)
	if password != "" {
		kind = notifyGuestWelcome
		msg, err = n.composer.GuestWelcome(data, password)
	} else {
		msg, err = n.composer.OrderConfirmation(data)
	}
	if err == nil {
		err = n.mailer.Send(ctx, msg)
	}

	sent := n.report(kind, err, zap.String("order_id", data.OrderID), zap.String("user_id", user.ID.String()))
	n.publishOrderPlaced(ctx, user, order)
	return sent
}

// Verification emails a sign-up verification code.
func (n *Notifier) Verification(ctx context.Context, user *model.User, code string, ttl time.Duration) bool {
	msg, err := n.composer.Verification(user.Email, user.Name, code, ttl.String())
	if err == nil {
		err = n.mailer.Send(ctx, msg)
	}
	return n.report(notifyVerification, err, zap.String("user_id", user.ID.String()))
}

func (n *Notifier) report(kind string, err error, fields ...zap.Field) bool {
	sent := err == nil
	n.metrics.Notification(kind, sent)
	if sent {
		n.logger.Info("email sent", append(fields, zap.String("kind", kind))...)
		return true
	}
	fields = append(fields, zap.String("kind", kind), zap.Error(err))
	if errors.Is(err, mailer.ErrDisabled) {
		n.logger.Debug("email skipped", fields...)
	} else {
		n.logger.Warn("email failed", fields...)
	}
	return false
}

func (n *Notifier) publishOrderPlaced(ctx context.Context, user *model.User, order *model.Order) {
	if n.publisher == nil {
		return
	}
	event := events.OrderPlacedEvent{
		OrderID:      order.ID.String(),
		UserID:       user.ID.String(),
		Email:        user.Email,
		Total:        order.Total.StringFixed(2),
		PaymentMode:  string(order.PaymentMode),
		ItemCount:    len(order.Items),
		IsGuestOrder: order.IsGuestOrder,
		PlacedAt:     order.CreatedAt.UTC().Format(time.RFC3339),
	}
	if err := n.publisher.PublishOrderPlaced(ctx, event); err != nil && !errors.Is(err, events.ErrDisabled) {
		n.logger.Warn("publish order event", zap.String("order_id", event.OrderID), zap.Error(err))
	}
}
