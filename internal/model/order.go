package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentMode is how the customer pays for an order.
type PaymentMode string

const (
	PaymentModeCOD          PaymentMode = "cod"
	PaymentModeCard         PaymentMode = "card"
	PaymentModeBankTransfer PaymentMode = "bank_transfer"
	PaymentModeUPI          PaymentMode = "upi"
)

// Valid reports whether m is a supported payment mode.
func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentModeCOD, PaymentModeCard, PaymentModeBankTransfer, PaymentModeUPI:
		return true
	}
	return false
}

// OrderStatus represents the fulfilment status of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Address is the shipping address embedded in an order.
type Address struct {
	FullName   string `json:"fullName" gorm:"size:255"`
	Line1      string `json:"line1" gorm:"size:255"`
	Line2      string `json:"line2,omitempty" gorm:"size:255"`
	City       string `json:"city" gorm:"size:120"`
	State      string `json:"state,omitempty" gorm:"size:120"`
	PostalCode string `json:"postalCode" gorm:"size:32"`
	Country    string `json:"country" gorm:"size:120"`
	Phone      string `json:"phone,omitempty" gorm:"size:32"`
}

// Order is a placed order. Every order belongs to exactly one user.
type Order struct {
	ID           uuid.UUID       `json:"_id" gorm:"type:char(36);primaryKey"`
	UserID       uuid.UUID       `json:"user" gorm:"type:char(36);not null;index"`
	Items        []OrderItem     `json:"item" gorm:"foreignKey:OrderID"`
	Address      Address         `json:"address" gorm:"embedded;embeddedPrefix:address_"`
	PaymentMode  PaymentMode     `json:"paymentMode" gorm:"type:varchar(32);not null"`
	Total        decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"`
	IsGuestOrder bool            `json:"isGuestOrder" gorm:"default:false;index"`
	Status       OrderStatus     `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`

	// Relations
	User User `json:"-" gorm:"foreignKey:UserID"`
}

// BeforeCreate sets UUID and default status before creating the record.
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.Status == "" {
		o.Status = OrderStatusPending
	}
	return nil
}

// OrderItem is a single line of an order.
type OrderItem struct {
	ID        uuid.UUID       `json:"_id" gorm:"type:char(36);primaryKey"`
	OrderID   uuid.UUID       `json:"-" gorm:"type:char(36);not null;index"`
	ProductID *uuid.UUID      `json:"productId,omitempty" gorm:"type:char(36);index"`
	Name      string          `json:"name" gorm:"size:255;not null"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
}

// BeforeCreate sets UUID before creating the record.
func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Subtotal is price times quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
