package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "dentalsupply/internal/errors"
	"dentalsupply/internal/metrics"
	"dentalsupply/internal/model"
	"dentalsupply/internal/repository"
)

// Checkout branches, also used as metric labels.
const (
	branchExistingUser = "existing_user"
	branchNewUser      = "new_user"
	branchSignedIn     = "signed_in"
)

const (
	msgGuestOrderNewUser      = "Order placed successfully. An account has been created for you and your login details were sent to your email."
	msgGuestOrderExistingUser = "Order placed successfully on your existing account."
)

// OrderItemInput is one requested order line.
type OrderItemInput struct {
	ProductID string
	Name      string
	Quantity  int
	Price     decimal.Decimal
}

// OrderInput is the order part of a checkout.
type OrderInput struct {
	Items       []OrderItemInput
	Address     model.Address
	PaymentMode model.PaymentMode
	Total       decimal.Decimal
}

// GuestCheckoutInput is a checkout submitted without signing in.
type GuestCheckoutInput struct {
	Name  string
	Email string
	Order OrderInput
}

// CheckoutResult is returned by a successful guest checkout.
type CheckoutResult struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Order     *model.Order      `json:"order"`
	User      model.UserSummary `json:"user"`
	EmailSent bool              `json:"emailSent"`
}

// CheckoutService places orders for customers who did not sign in.
type CheckoutService interface {
	PlaceGuestOrder(ctx context.Context, in GuestCheckoutInput) (*CheckoutResult, error)
}

type checkoutService struct {
	store      repository.CheckoutStore
	passwords  PasswordGenerator
	bcryptCost int
	notifier   *Notifier
	metrics    *metrics.Collector
	logger     *zap.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	store repository.CheckoutStore,
	passwords PasswordGenerator,
	bcryptCost int,
	notifier *Notifier,
	metrics *metrics.Collector,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutService{
		store:      store,
		passwords:  passwords,
		bcryptCost: bcryptCost,
		notifier:   notifier,
		metrics:    metrics,
		logger:     logger,
	}
}

var inputValidator = validator.New()

// placement is the outcome of one checkout transaction.
type placement struct {
	user     *model.User
	order    *model.Order
	password string
	isNew    bool
}

// PlaceGuestOrder resolves the customer by email, creating an account when
// none exists, and stores the order against that account. The generated
// password only ever leaves this function inside the welcome email.
func (s *checkoutService) PlaceGuestOrder(ctx context.Context, in GuestCheckoutInput) (*CheckoutResult, error) {
	name := strings.TrimSpace(in.Name)
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, apperrors.Validation("Customer name is required")
	}
	order, err := buildOrder(in.Order)
	if err != nil {
		return nil, err
	}

	p, err := s.place(ctx, name, email, order)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// A concurrent checkout created the account first; resolve it again
		// as an existing user.
		s.metrics.CheckoutUserConflict()
		s.logger.Info("checkout email taken concurrently, retrying")
		order, err = buildOrder(in.Order)
		if err != nil {
			return nil, err
		}
		p, err = s.place(ctx, name, email, order)
	}
	if err != nil {
		return nil, fmt.Errorf("place guest order: %w", err)
	}

	branch, message := branchExistingUser, msgGuestOrderExistingUser
	if p.isNew {
		branch, message = branchNewUser, msgGuestOrderNewUser
		s.metrics.GuestAccountCreated()
	}
	s.metrics.OrderPlaced(branch)
	s.logger.Info("guest order placed",
		zap.String("order_id", p.order.ID.String()),
		zap.String("user_id", p.user.ID.String()),
		zap.String("branch", branch),
	)

	emailSent := s.notifier.OrderPlaced(ctx, p.user, p.order, p.password)

	return &CheckoutResult{
		Success:   true,
		Message:   message,
		Order:     p.order,
		User:      p.user.Summary(p.isNew),
		EmailSent: emailSent,
	}, nil
}

func (s *checkoutService) place(ctx context.Context, name, email string, order *model.Order) (*placement, error) {
	var p placement
	err := s.store.WithTransaction(ctx, func(ctx context.Context, users repository.UserRepository, orders repository.OrderRepository) error {
		user, err := users.FindByEmail(ctx, email)
		switch {
		case err == nil:
			p.user = user
		case errors.Is(err, gorm.ErrRecordNotFound):
			user, password, err := s.provision(ctx, users, name, email)
			if err != nil {
				return err
			}
			p.user, p.password, p.isNew = user, password, true
		default:
			return fmt.Errorf("find user: %w", err)
		}

		order.UserID = p.user.ID
		order.IsGuestOrder = p.isNew
		if err := orders.Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		p.order = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *checkoutService) provision(ctx context.Context, users repository.UserRepository, name, email string) (*model.User, string, error) {
	password, err := s.passwords.Generate()
	if err != nil {
		return nil, "", fmt.Errorf("generate password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:               name,
		Email:              email,
		PasswordHash:       string(hash),
		IsGuestCreated:     true,
		MustChangePassword: true,
	}
	// A concurrent checkout for the same email surfaces here as
	// gorm.ErrDuplicatedKey.
	if err := users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}
	return user, password, nil
}

// buildOrder validates an order submission and returns an unsaved order.
func buildOrder(in OrderInput) (*model.Order, error) {
	if len(in.Items) == 0 {
		return nil, apperrors.Validation("Order must contain at least one item")
	}
	if !in.PaymentMode.Valid() {
		return nil, apperrors.Validation("Unsupported payment mode")
	}
	if in.Total.IsNegative() {
		return nil, apperrors.Validation("Order total cannot be negative")
	}
	if err := validateAddress(in.Address); err != nil {
		return nil, err
	}

	items := make([]model.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			return nil, apperrors.Validation("Every item needs a name")
		}
		if it.Quantity <= 0 {
			return nil, apperrors.Validation("Item quantity must be positive")
		}
		if it.Price.IsNegative() {
			return nil, apperrors.Validation("Item price cannot be negative")
		}
		item := model.OrderItem{Name: name, Quantity: it.Quantity, Price: it.Price}
		if raw := strings.TrimSpace(it.ProductID); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return nil, apperrors.Validation("Invalid product id")
			}
			item.ProductID = &id
		}
		items = append(items, item)
	}

	return &model.Order{
		Items:       items,
		Address:     in.Address,
		PaymentMode: in.PaymentMode,
		Total:       in.Total,
	}, nil
}

func validateAddress(a model.Address) error {
	if strings.TrimSpace(a.Line1) == "" || strings.TrimSpace(a.City) == "" || strings.TrimSpace(a.Country) == "" {
		return apperrors.Validation("Shipping address requires line1, city and country")
	}
	return nil
}

// normalizeEmail trims and lower-cases an address after checking its syntax.
func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", apperrors.Validation("Email is required")
	}
	if err := inputValidator.Var(email, "email"); err != nil {
		return "", apperrors.Validation("Email is invalid")
	}
	return email, nil
}
