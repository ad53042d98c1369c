package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "dentalsupply/internal/errors"
	"dentalsupply/internal/metrics"
	"dentalsupply/internal/model"
	"dentalsupply/internal/repository"
)

// Requester identifies the signed-in caller of an order operation.
type Requester struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// OrderService handles orders of signed-in customers and order administration.
type OrderService interface {
	Place(ctx context.Context, userID uuid.UUID, in OrderInput) (order *model.Order, emailSent bool, err error)
	Get(ctx context.Context, requester Requester, id string) (*model.Order, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error)
}

type orderService struct {
	orders   repository.OrderRepository
	users    repository.UserRepository
	notifier *Notifier
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orders repository.OrderRepository,
	users repository.UserRepository,
	notifier *Notifier,
	metrics *metrics.Collector,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orders:   orders,
		users:    users,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
	}
}

// Place stores an order for a signed-in user and emails a confirmation.
func (s *orderService) Place(ctx context.Context, userID uuid.UUID, in OrderInput) (*model.Order, bool, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, apperrors.Unauthorized("Account no longer exists")
		}
		return nil, false, fmt.Errorf("find user: %w", err)
	}

	order, err := buildOrder(in)
	if err != nil {
		return nil, false, err
	}
	order.UserID = user.ID
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, false, fmt.Errorf("create order: %w", err)
	}

	s.metrics.OrderPlaced(branchSignedIn)
	s.logger.Info("order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", user.ID.String()),
	)
	return order, s.notifier.OrderPlaced(ctx, user, order, ""), nil
}

// Get returns an order to its owner or an administrator. Other callers get
// NotFound so order ids cannot be probed.
func (s *orderService) Get(ctx context.Context, requester Requester, id string) (*model.Order, error) {
	order, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !requester.IsAdmin && order.UserID != requester.UserID {
		return nil, apperrors.NotFound("Order not found")
	}
	return order, nil
}

func (s *orderService) ListMine(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) ListAll(ctx context.Context) ([]model.Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus moves an order to status. Delivered and cancelled orders are final.
func (s *orderService) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, apperrors.Validation("Unknown order status")
	}
	order, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == status {
		return order, nil
	}
	if order.Status == model.OrderStatusDelivered || order.Status == model.OrderStatusCancelled {
		return nil, apperrors.Validation(fmt.Sprintf("Order is already %s", order.Status))
	}

	if err := s.orders.UpdateStatus(ctx, order.ID, status); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	s.logger.Info("order status changed",
		zap.String("order_id", order.ID.String()),
		zap.String("from", string(order.Status)),
		zap.String("to", string(status)),
	)
	order.Status = status
	return order, nil
}

func (s *orderService) find(ctx context.Context, id string) (*model.Order, error) {
	orderID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, apperrors.NotFound("Order not found")
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Order not found")
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return order, nil
}
