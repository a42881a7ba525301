package domain

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestProperty_StatusTransitionLegality(t *testing.T) {
	legal := map[OrderStatus][]OrderStatus{
		OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
		OrderStatusConfirmed: {OrderStatusFulfilled, OrderStatusCancelled},
		OrderStatusFulfilled: {},
		OrderStatusCancelled: {},
	}

	properties := gopter.NewProperties(nil)

	properties.Property("transitions match the forward-only machine", prop.ForAll(
		func(from OrderStatus, to OrderStatus) bool {
			allowed := false
			for _, next := range legal[from] {
				if next == to {
					allowed = true
				}
			}
			return from.CanTransition(to) == allowed
		},
		gen.OneConstOf(OrderStatusPending, OrderStatusConfirmed, OrderStatusFulfilled, OrderStatusCancelled),
		gen.OneConstOf(OrderStatusPending, OrderStatusConfirmed, OrderStatusFulfilled, OrderStatusCancelled),
	))

	properties.Property("unknown statuses cannot move anywhere", prop.ForAll(
		func(s string) bool {
			status := OrderStatus(s)
			if status.Valid() {
				return true // real status, covered above
			}
			return !status.CanTransition(OrderStatusConfirmed) &&
				!OrderStatusPending.CanTransition(status)
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestStatusValid(t *testing.T) {
	for _, s := range []OrderStatus{OrderStatusPending, OrderStatusConfirmed, OrderStatusFulfilled, OrderStatusCancelled} {
		if !s.Valid() {
			t.Errorf("status %q should be valid", s)
		}
	}
	for _, s := range []OrderStatus{"", "shipped", "delivered", "PENDING"} {
		if s.Valid() {
			t.Errorf("status %q should not be valid", s)
		}
	}
}
