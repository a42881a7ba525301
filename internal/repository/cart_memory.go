package repository

import (
	"context"
	"sync"

	"grocery-api/internal/domain"

	"github.com/google/uuid"
)

// CartDrainer is implemented by cart stores that can atomically snapshot
// and clear an identity's cart in one step. The Postgres store gets the
// same effect from DELETE ... RETURNING inside the checkout transaction.
type CartDrainer interface {
	Drain(ctx context.Context, identity string) ([]domain.CartLine, error)
}

// memoryCart holds one identity's lines behind its own mutex so mutations
// on a single identity serialize without cross-identity contention.
type memoryCart struct {
	mu    sync.Mutex
	lines []domain.CartLine
}

type memoryCartRepository struct {
	mu    sync.RWMutex
	carts map[string]*memoryCart
}

// NewMemoryCartRepository creates an in-process CartRepository. It backs
// single-process deployments and tests; the Postgres implementation is the
// durable one.
func NewMemoryCartRepository() CartRepository {
	return &memoryCartRepository{carts: make(map[string]*memoryCart)}
}

func (r *memoryCartRepository) cart(identity string) *memoryCart {
	r.mu.RLock()
	c, ok := r.carts[identity]
	r.mu.RUnlock()
	if ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok = r.carts[identity]; !ok {
		c = &memoryCart{}
		r.carts[identity] = c
	}
	return c
}

func (r *memoryCartRepository) Lines(ctx context.Context, identity string) ([]domain.CartLine, error) {
	c := r.cart(identity)
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.CartLine, len(c.lines))
	copy(out, c.lines)
	return out, nil
}

func (r *memoryCartRepository) Add(ctx context.Context, identity string, line domain.CartLine) error {
	c := r.cart(identity)
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ProductID == line.ProductID {
			// Existing snapshot wins; only the quantity moves.
			c.lines[i].Quantity += line.Quantity
			return nil
		}
	}
	c.lines = append(c.lines, line)
	return nil
}

func (r *memoryCartRepository) SetQuantity(ctx context.Context, identity string, productID uuid.UUID, quantity int) error {
	c := r.cart(identity)
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			if quantity <= 0 {
				c.lines = append(c.lines[:i], c.lines[i+1:]...)
			} else {
				c.lines[i].Quantity = quantity
			}
			return nil
		}
	}
	return ErrCartLineNotFound
}

func (r *memoryCartRepository) Remove(ctx context.Context, identity string, productID uuid.UUID) error {
	c := r.cart(identity)
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *memoryCartRepository) Clear(ctx context.Context, identity string) error {
	c := r.cart(identity)
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = nil
	return nil
}

// Drain atomically snapshots and empties an identity's cart. A concurrent
// Add lands either before the drain (included in the snapshot) or after it
// (left in the cart); it is never silently dropped.
func (r *memoryCartRepository) Drain(ctx context.Context, identity string) ([]domain.CartLine, error) {
	c := r.cart(identity)
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.lines
	c.lines = nil
	return out, nil
}
