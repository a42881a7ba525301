package service

import (
	"context"
	"errors"
	"fmt"

	"grocery-api/internal/domain"
	"grocery-api/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// CartView is the freshly-totaled cart returned by every cart operation.
type CartView struct {
	Items []domain.CartLine `json:"items"`
	Total float64           `json:"total"`
}

// CartService maintains one line-item collection per identity. Reads never
// fail on an absent identity; an unknown identity simply has an empty cart.
type CartService interface {
	Get(ctx context.Context, identity string) (*CartView, error)
	Add(ctx context.Context, identity string, line domain.CartLine) (*CartView, error)
	Update(ctx context.Context, identity string, productID uuid.UUID, quantity int) (*CartView, error)
	Remove(ctx context.Context, identity string, productID uuid.UUID) (*CartView, error)
	Clear(ctx context.Context, identity string) error
}

type cartService struct {
	carts repository.CartRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(carts repository.CartRepository) CartService {
	return &cartService{carts: carts}
}

func (s *cartService) view(ctx context.Context, identity string) (*CartView, error) {
	lines, err := s.carts.Lines(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	return &CartView{Items: lines, Total: domain.CartTotal(lines)}, nil
}

// Get returns the identity's cart and its total
func (s *cartService) Get(ctx context.Context, identity string) (*CartView, error) {
	return s.view(ctx, identity)
}

// Add inserts a line or bumps an existing line's quantity. The snapshot
// name and unit price of an existing line are never overwritten.
func (s *cartService) Add(ctx context.Context, identity string, line domain.CartLine) (*CartView, error) {
	if line.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	if err := s.carts.Add(ctx, identity, line); err != nil {
		return nil, fmt.Errorf("failed to add to cart: %w", err)
	}

	return s.view(ctx, identity)
}

// Update overwrites a line's quantity. A quantity of zero or less deletes
// the line; a missing line is repository.ErrCartLineNotFound.
func (s *cartService) Update(ctx context.Context, identity string, productID uuid.UUID, quantity int) (*CartView, error) {
	if err := s.carts.SetQuantity(ctx, identity, productID, quantity); err != nil {
		if errors.Is(err, repository.ErrCartLineNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update cart: %w", err)
	}

	return s.view(ctx, identity)
}

// Remove deletes a line. Removing a line that is not there is a no-op.
func (s *cartService) Remove(ctx context.Context, identity string, productID uuid.UUID) (*CartView, error) {
	if err := s.carts.Remove(ctx, identity, productID); err != nil {
		return nil, fmt.Errorf("failed to remove from cart: %w", err)
	}

	return s.view(ctx, identity)
}

// Clear empties the identity's cart. Clearing twice is harmless.
func (s *cartService) Clear(ctx context.Context, identity string) error {
	if err := s.carts.Clear(ctx, identity); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
