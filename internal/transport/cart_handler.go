package transport

import (
	"errors"
	"net/http"

	"grocery-api/internal/domain"
	"grocery-api/internal/middleware"
	"grocery-api/internal/repository"
	"grocery-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartAddRequest represents the add-to-cart request payload. Name and
// unit price become the line's snapshot on first add.
type CartAddRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	UnitPrice float64   `json:"unit_price" validate:"gte=0"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// CartUpdateRequest represents the update-line request payload. Quantity
// may be zero or negative; that deletes the line.
type CartUpdateRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity"`
}

// CartRemoveRequest represents the remove-line request payload
type CartRemoveRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

// CartHandler handles HTTP requests for cart operations
type CartHandler struct {
	cartService service.CartService
	logger      *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		logger:      logger,
	}
}

// RegisterRoutes registers all cart routes behind the identity middleware
func (h *CartHandler) RegisterRoutes(r chi.Router, identityMiddleware func(http.Handler) http.Handler) {
	r.Route("/cart", func(r chi.Router) {
		r.Use(identityMiddleware)
		r.Get("/", h.GetCart)
		r.Post("/add", h.AddToCart)
		r.Put("/update", h.UpdateCart)
		r.Post("/remove", h.RemoveFromCart)
		r.Delete("/", h.ClearCart)
	})
}

// GetCart returns the identity's cart with a fresh total. An identity that
// never added anything gets an empty cart, not an error.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing identity")
		return
	}

	view, err := h.cartService.Get(r.Context(), identity)
	if err != nil {
		h.logger.Error("Failed to read cart", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to read cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// AddToCart inserts a line or increments an existing one
func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing identity")
		return
	}

	var req CartAddRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Add to cart validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	line := domain.CartLine{
		ProductID: req.ProductID,
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		Quantity:  req.Quantity,
	}

	view, err := h.cartService.Add(r.Context(), identity, line)
	if err != nil {
		if errors.Is(err, service.ErrInvalidQuantity) {
			middleware.RespondWithError(w, http.StatusBadRequest, "quantity must be at least 1")
			return
		}
		h.logger.Error("Failed to add to cart", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to add to cart")
		return
	}

	h.logger.Info("Cart line added",
		zap.String("product_id", req.ProductID.String()),
		zap.Int("quantity", req.Quantity),
	)
	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// UpdateCart overwrites a line's quantity; zero or less deletes the line
func (h *CartHandler) UpdateCart(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing identity")
		return
	}

	var req CartUpdateRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Update cart validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.cartService.Update(r.Context(), identity, req.ProductID, req.Quantity)
	if err != nil {
		if errors.Is(err, repository.ErrCartLineNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not in cart")
			return
		}
		h.logger.Error("Failed to update cart", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// RemoveFromCart deletes a line; removing an absent line succeeds
func (h *CartHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing identity")
		return
	}

	var req CartRemoveRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Remove from cart validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.cartService.Remove(r.Context(), identity, req.ProductID)
	if err != nil {
		h.logger.Error("Failed to remove from cart", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to remove from cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// ClearCart empties the cart entirely
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing identity")
		return
	}

	if err := h.cartService.Clear(r.Context(), identity); err != nil {
		h.logger.Error("Failed to clear cart", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to clear cart")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, service.CartView{Items: []domain.CartLine{}, Total: 0})
}
