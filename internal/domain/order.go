package domain

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the closed set of order states. An order only ever moves
// forward: pending -> confirmed -> fulfilled, or to cancelled from pending
// or confirmed. Creation always emits pending; later transitions belong to
// the fulfillment workflow.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusFulfilled OrderStatus = "fulfilled"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusFulfilled, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether an order in status s may move to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusConfirmed || next == OrderStatusCancelled
	case OrderStatusConfirmed:
		return next == OrderStatusFulfilled || next == OrderStatusCancelled
	}
	return false
}

// Order is an immutable record of a completed checkout. ID doubles as the
// customer-facing order reference. Total is computed once at creation.
type Order struct {
	ID           string      `json:"id" db:"id"`
	Owner        string      `json:"owner" db:"owner"`
	Status       OrderStatus `json:"status" db:"status"`
	Total        float64     `json:"total" db:"total"`
	ScheduledFor *time.Time  `json:"scheduled_for,omitempty" db:"scheduled_for"`
	Address      string      `json:"address,omitempty" db:"address"`
	Phone        string      `json:"phone,omitempty" db:"phone"`
	Notes        string      `json:"notes,omitempty" db:"notes"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	Items        []OrderItem `json:"items"`
}

// OrderItem is a frozen line within an order. UnitPrice is captured at
// purchase time and never re-derived.
type OrderItem struct {
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Name      string    `json:"name" db:"name"`
	UnitPrice float64   `json:"unit_price" db:"unit_price"`
	Quantity  int       `json:"quantity" db:"quantity"`
}

// NewOrderID generates a customer-facing order identifier: a fixed ORD-
// prefix followed by 10 uppercase hex characters (40 bits of randomness).
// Random rather than sequential so order volume cannot be enumerated.
func NewOrderID() string {
	var b [5]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a
		// UUID-derived token rather than returning an error nobody can act on.
		u := uuid.New()
		copy(b[:], u[:])
	}
	return "ORD-" + strings.ToUpper(hex.EncodeToString(b[:]))
}
