package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"dentalsupply/internal/model"
	"dentalsupply/internal/service"
)

// OrderHandler handles guest checkout and order endpoints.
type OrderHandler struct {
	checkoutService service.CheckoutService
	orderService    service.OrderService
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(checkoutService service.CheckoutService, orderService service.OrderService) *OrderHandler {
	return &OrderHandler{checkoutService: checkoutService, orderService: orderService}
}

// OrderItemRequest is one order line.
type OrderItemRequest struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name" validate:"required"`
	Quantity  int             `json:"quantity" validate:"required,min=1"`
	Price     decimal.Decimal `json:"price"`
}

// OrderInfoRequest is the order part of a checkout.
type OrderInfoRequest struct {
	Item        []OrderItemRequest `json:"item" validate:"required,min=1,dive"`
	Address     model.Address      `json:"address"`
	PaymentMode string             `json:"paymentMode" validate:"required,oneof=cod card bank_transfer upi"`
	Total       decimal.Decimal    `json:"total"`
}

func (r OrderInfoRequest) input() service.OrderInput {
	items := make([]service.OrderItemInput, 0, len(r.Item))
	for _, it := range r.Item {
		items = append(items, service.OrderItemInput{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	return service.OrderInput{
		Items:       items,
		Address:     r.Address,
		PaymentMode: model.PaymentMode(r.PaymentMode),
		Total:       r.Total,
	}
}

// GuestUserInfo identifies the customer of a guest checkout.
type GuestUserInfo struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// GuestOrderRequest is the body of a guest checkout.
type GuestOrderRequest struct {
	UserInfo  GuestUserInfo    `json:"userInfo"`
	OrderInfo OrderInfoRequest `json:"orderInfo"`
}

// StatusRequest changes an order's status.
type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled"`
}

// PlacedOrderResponse is returned to signed-in customers.
type PlacedOrderResponse struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	Order     *model.Order `json:"order"`
	EmailSent bool         `json:"emailSent"`
}

// GuestCheckout godoc
// @Summary Place an order without signing in
// @Description Reuses the account registered to the email or creates one and emails its credentials.
// @Tags orders
// @Accept json
// @Produce json
// @Param request body GuestOrderRequest true "Customer and order"
// @Success 201 {object} service.CheckoutResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /orders/guest [post]
func (h *OrderHandler) GuestCheckout(c echo.Context) error {
	var req GuestOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.checkoutService.PlaceGuestOrder(c.Request().Context(), service.GuestCheckoutInput{
		Name:  req.UserInfo.Name,
		Email: req.UserInfo.Email,
		Order: req.OrderInfo.input(),
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, result)
}

// Place godoc
// @Summary Place an order as the signed-in user
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body OrderInfoRequest true "Order"
// @Success 201 {object} PlacedOrderResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /orders [post]
func (h *OrderHandler) Place(c echo.Context) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return err
	}
	var req OrderInfoRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	order, emailSent, err := h.orderService.Place(c.Request().Context(), claims.UserID, req.input())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, PlacedOrderResponse{
		Success:   true,
		Message:   "Order placed successfully",
		Order:     order,
		EmailSent: emailSent,
	})
}

// ListMine godoc
// @Summary List the signed-in user's orders
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Order
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /orders/my [get]
func (h *OrderHandler) ListMine(c echo.Context) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return err
	}
	orders, err := h.orderService.ListMine(c.Request().Context(), claims.UserID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, orders)
}

// Get godoc
// @Summary Get an order
// @Description Owners see their own orders; administrators see all.
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} model.Order
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /orders/{id} [get]
func (h *OrderHandler) Get(c echo.Context) error {
	claims, err := claimsFrom(c)
	if err != nil {
		return err
	}
	order, err := h.orderService.Get(c.Request().Context(), service.Requester{
		UserID:  claims.UserID,
		IsAdmin: claims.IsAdmin,
	}, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}

// ListAll godoc
// @Summary List all orders
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Order
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /orders [get]
func (h *OrderHandler) ListAll(c echo.Context) error {
	orders, err := h.orderService.ListAll(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, orders)
}

// UpdateStatus godoc
// @Summary Change an order's status
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param request body StatusRequest true "New status"
// @Success 200 {object} model.Order
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	var req StatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	order, err := h.orderService.UpdateStatus(c.Request().Context(), c.Param("id"), model.OrderStatus(req.Status))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, order)
}
