package repository

import (
	"context"

	"gorm.io/gorm"
)

// CheckoutStore runs user resolution and order creation in one transaction.
type CheckoutStore interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context, users UserRepository, orders OrderRepository) error) error
}

type checkoutStore struct {
	db *gorm.DB
}

// NewCheckoutStore creates a new checkout store.
func NewCheckoutStore(db *gorm.DB) CheckoutStore {
	return &checkoutStore{db: db}
}

// WithTransaction executes fn with repositories bound to one database transaction.
func (s *checkoutStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, users UserRepository, orders OrderRepository) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &userRepository{db: tx}, &orderRepository{db: tx})
	})
}
