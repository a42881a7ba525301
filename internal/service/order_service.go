package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"grocery-api/internal/domain"
	"grocery-api/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrOrderAccessDenied  = errors.New("order belongs to another customer")
	ErrUnknownOrderStatus = errors.New("unknown order status")
)

// OrderDetails carries the delivery fields captured on an authenticated
// order.
type OrderDetails struct {
	ScheduledFor *time.Time
	Address      string
	Phone        string
	Notes        string
}

// OrderService converts carts into immutable orders and reads them back.
//
// Checkout serves both identity flavors: when explicit lines are supplied
// (guest carts that never touched the server) they are used verbatim with
// their client prices; otherwise the identity's server-side cart is drained.
// PlaceOrder is the server-trusted variant: it always drains the cart and
// re-derives unit prices from the catalog.
type OrderService interface {
	Checkout(ctx context.Context, identity string, explicit []domain.CartLine) (*domain.Order, error)
	PlaceOrder(ctx context.Context, userID uuid.UUID, details OrderDetails) (*domain.Order, error)
	GetOrder(ctx context.Context, id string, requester string, admin bool) (*domain.Order, error)
	ListOrders(ctx context.Context, requester string, admin bool) ([]*domain.Order, error)
	// AdvanceStatus moves an order through the fulfillment workflow.
	// Transition legality is enforced against the order's current status.
	AdvanceStatus(ctx context.Context, id string, next domain.OrderStatus) (*domain.Order, error)
}

type orderService struct {
	orders repository.OrderRepository
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(orders repository.OrderRepository) OrderService {
	return &orderService{orders: orders}
}

func newOrder(owner string) *domain.Order {
	return &domain.Order{
		ID:        domain.NewOrderID(),
		Owner:     owner,
		Status:    domain.OrderStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// Checkout turns the resolved line list into a persisted pending order and
// clears the source cart. The order and the clear commit together; on any
// failure before that the cart is untouched and no order exists.
func (s *orderService) Checkout(ctx context.Context, identity string, explicit []domain.CartLine) (*domain.Order, error) {
	order := newOrder(identity)

	if len(explicit) > 0 {
		for _, line := range explicit {
			if line.Quantity < 1 {
				return nil, ErrInvalidQuantity
			}
			order.Items = append(order.Items, domain.OrderItem{
				ProductID: line.ProductID,
				Name:      line.Name,
				UnitPrice: line.UnitPrice,
				Quantity:  line.Quantity,
			})
		}
		order.Total = domain.CartTotal(explicit)

		placed, err := s.orders.CreateFromLines(ctx, order)
		if err != nil {
			return nil, fmt.Errorf("failed to place order: %w", err)
		}
		return placed, nil
	}

	placed, err := s.orders.CreateFromCart(ctx, order, false)
	if err != nil {
		if errors.Is(err, repository.ErrEmptyCart) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to place order: %w", err)
	}
	return placed, nil
}

// PlaceOrder drains the user's server-side cart into an order priced from
// the catalog, capturing delivery details.
func (s *orderService) PlaceOrder(ctx context.Context, userID uuid.UUID, details OrderDetails) (*domain.Order, error) {
	order := newOrder(userID.String())
	order.ScheduledFor = details.ScheduledFor
	order.Address = details.Address
	order.Phone = details.Phone
	order.Notes = details.Notes

	placed, err := s.orders.CreateFromCart(ctx, order, true)
	if err != nil {
		if errors.Is(err, repository.ErrEmptyCart) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to place order: %w", err)
	}
	return placed, nil
}

// GetOrder returns a single order. Admins can read anyone's order; a
// customer only their own.
func (s *orderService) GetOrder(ctx context.Context, id string, requester string, admin bool) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if !admin && order.Owner != requester {
		return nil, ErrOrderAccessDenied
	}

	return order, nil
}

// AdvanceStatus validates the target status and applies the transition
func (s *orderService) AdvanceStatus(ctx context.Context, id string, next domain.OrderStatus) (*domain.Order, error) {
	if !next.Valid() {
		return nil, ErrUnknownOrderStatus
	}

	order, err := s.orders.UpdateStatus(ctx, id, next)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) || errors.Is(err, repository.ErrInvalidStatusTransition) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to advance order status: %w", err)
	}
	return order, nil
}

// ListOrders returns the requester's orders, or every order for admins
func (s *orderService) ListOrders(ctx context.Context, requester string, admin bool) ([]*domain.Order, error) {
	if admin {
		orders, err := s.orders.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list orders: %w", err)
		}
		return orders, nil
	}

	orders, err := s.orders.ListByOwner(ctx, requester)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}
