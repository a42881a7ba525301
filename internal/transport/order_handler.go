package transport

import (
	"errors"
	"net/http"
	"time"

	"grocery-api/internal/domain"
	"grocery-api/internal/middleware"
	"grocery-api/internal/repository"
	"grocery-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// checkoutConfirmation is the human-readable message returned with every
// accepted checkout.
const checkoutConfirmation = "Order Received - Thank you!"

// CheckoutItem is one client-supplied line in an explicit checkout
type CheckoutItem struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	UnitPrice float64   `json:"unit_price" validate:"gte=0"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// CheckoutRequest represents the checkout payload. Items are optional:
// when present they override the server-side cart (guest flow), otherwise
// the identity's stored cart is used.
type CheckoutRequest struct {
	Items []CheckoutItem `json:"items" validate:"omitempty,dive"`
}

// CheckoutResponse represents the checkout confirmation
type CheckoutResponse struct {
	Status  string             `json:"status"`
	OrderID string             `json:"order_id"`
	Message string             `json:"message"`
	Total   float64            `json:"total"`
	Items   []domain.OrderItem `json:"items"`
}

// UpdateOrderStatusRequest represents an order status transition
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// CreateOrderRequest represents the authenticated order payload
type CreateOrderRequest struct {
	ScheduledFor *time.Time `json:"scheduled_for" validate:"required"`
	Address      string     `json:"address" validate:"required"`
	Phone        string     `json:"phone" validate:"required"`
	Notes        string     `json:"notes"`
}

// OrderHandler handles HTTP requests for checkout and order reads
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// RegisterRoutes registers checkout behind the identity middleware, the
// order routes behind bearer auth, and the status transition behind the
// admin gate
func (h *OrderHandler) RegisterRoutes(r chi.Router, identityMiddleware, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(identityMiddleware)
		r.Post("/checkout", h.Checkout)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Get("/{orderID}", h.GetOrder)
		r.With(adminMiddleware).Patch("/{orderID}/status", h.UpdateOrderStatus)
	})
}

// Checkout converts the resolved line list into a pending order. An empty
// body is fine; an empty cart is not.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing identity")
		return
	}

	var req CheckoutRequest
	if r.ContentLength > 0 {
		if err := middleware.DecodeAndValidate(r, &req); err != nil {
			h.logger.Debug("Checkout validation failed", zap.Error(err))

			if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
				middleware.RespondWithValidationErrors(w, validationErrors)
				return
			}

			middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	explicit := make([]domain.CartLine, 0, len(req.Items))
	for _, item := range req.Items {
		explicit = append(explicit, domain.CartLine{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}

	order, err := h.orderService.Checkout(r.Context(), identity, explicit)
	if err != nil {
		if errors.Is(err, repository.ErrEmptyCart) {
			middleware.RespondWithError(w, http.StatusBadRequest, "cart is empty")
			return
		}
		if errors.Is(err, service.ErrInvalidQuantity) {
			middleware.RespondWithError(w, http.StatusBadRequest, "quantity must be at least 1")
			return
		}
		h.logger.Error("Checkout failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to checkout")
		return
	}

	h.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.Float64("total", order.Total),
		zap.Int("items", len(order.Items)),
	)

	middleware.RespondWithJSON(w, http.StatusOK, CheckoutResponse{
		Status:  "OK",
		OrderID: order.ID,
		Message: checkoutConfirmation,
		Total:   order.Total,
		Items:   order.Items,
	})
}

// CreateOrder places an order from the caller's server-side cart with
// catalog-derived prices
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, err := h.requireUser(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Create order validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orderService.PlaceOrder(r.Context(), userID, service.OrderDetails{
		ScheduledFor: req.ScheduledFor,
		Address:      req.Address,
		Phone:        req.Phone,
		Notes:        req.Notes,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmptyCart) {
			middleware.RespondWithError(w, http.StatusBadRequest, "cart is empty")
			return
		}
		h.logger.Error("Failed to create order", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create order")
		return
	}

	h.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

// ListOrders returns the caller's orders, or all orders for admins
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := h.requireUser(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orders, err := h.orderService.ListOrders(r.Context(), userID.String(), middleware.IsAdmin(r.Context()))
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

// GetOrder returns one order, owner or admin only
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, err := h.requireUser(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID := chi.URLParam(r, "orderID")

	order, err := h.orderService.GetOrder(r.Context(), orderID, userID.String(), middleware.IsAdmin(r.Context()))
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
			return
		}
		if errors.Is(err, service.ErrOrderAccessDenied) {
			middleware.RespondWithError(w, http.StatusForbidden, "insufficient permissions")
			return
		}
		h.logger.Error("Failed to get order", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get order")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// UpdateOrderStatus applies a status transition, admin only
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrderStatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Order status validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	orderID := chi.URLParam(r, "orderID")

	order, err := h.orderService.AdvanceStatus(r.Context(), orderID, domain.OrderStatus(req.Status))
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
			return
		}
		if errors.Is(err, service.ErrUnknownOrderStatus) || errors.Is(err, repository.ErrInvalidStatusTransition) {
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Failed to update order status", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update order status")
		return
	}

	h.logger.Info("Order status updated",
		zap.String("order_id", order.ID),
		zap.String("status", string(order.Status)),
	)
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) requireUser(r *http.Request) (uuid.UUID, error) {
	userIDStr, ok := middleware.GetUserID(r.Context())
	if !ok {
		return uuid.Nil, errors.New("user not in context")
	}
	return uuid.Parse(userIDStr)
}
