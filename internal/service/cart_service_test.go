package service

import (
	"context"
	"testing"

	"grocery-api/internal/domain"
	"grocery-api/internal/repository"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProperty_AddingSameProductAccumulates(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("repeated adds sum quantities and keep the first snapshot", prop.ForAll(
		func(name string, price float64, qty1 int, qty2 int) bool {
			svc := NewCartService(repository.NewMemoryCartRepository())
			ctx := context.Background()
			identity := uuid.New().String()
			productID := uuid.New()

			_, err := svc.Add(ctx, identity, domain.CartLine{
				ProductID: productID,
				Name:      name,
				UnitPrice: price,
				Quantity:  qty1,
			})
			if err != nil {
				t.Logf("FAIL: first add errored: %v", err)
				return false
			}

			// Second add carries a conflicting snapshot; the stored one wins
			view, err := svc.Add(ctx, identity, domain.CartLine{
				ProductID: productID,
				Name:      name + " changed",
				UnitPrice: price + 0.5,
				Quantity:  qty2,
			})
			if err != nil {
				t.Logf("FAIL: second add errored: %v", err)
				return false
			}

			if len(view.Items) != 1 {
				t.Logf("FAIL: expected 1 line, got %d", len(view.Items))
				return false
			}

			line := view.Items[0]
			if line.Quantity != qty1+qty2 {
				t.Logf("FAIL: quantity %d, want %d", line.Quantity, qty1+qty2)
				return false
			}
			if line.Name != name || line.UnitPrice != price {
				t.Logf("FAIL: snapshot overwritten: %q %f", line.Name, line.UnitPrice)
				return false
			}

			want := domain.RoundPrice(price * float64(qty1+qty2))
			if view.Total != want {
				t.Logf("FAIL: total %f, want %f", view.Total, want)
				return false
			}

			return true
		},
		gen.RegexMatch(`[A-Za-z ]{3,30}`),
		gen.Float64Range(0.01, 999.99),
		gen.IntRange(1, 50),
		gen.IntRange(1, 50),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_TotalIndependentOfInsertionOrder(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("the same lines added in any order produce bit-identical totals", prop.ForAll(
		func(prices []float64) bool {
			if len(prices) == 0 {
				return true
			}

			ctx := context.Background()

			lines := make([]domain.CartLine, len(prices))
			for i, p := range prices {
				lines[i] = domain.CartLine{
					ProductID: uuid.New(),
					Name:      "item",
					UnitPrice: p,
					Quantity:  1 + i%3,
				}
			}

			forward := NewCartService(repository.NewMemoryCartRepository())
			for _, l := range lines {
				if _, err := forward.Add(ctx, "a", l); err != nil {
					return false
				}
			}

			backward := NewCartService(repository.NewMemoryCartRepository())
			for i := len(lines) - 1; i >= 0; i-- {
				if _, err := backward.Add(ctx, "b", lines[i]); err != nil {
					return false
				}
			}

			v1, err := forward.Get(ctx, "a")
			if err != nil {
				return false
			}
			v2, err := backward.Get(ctx, "b")
			if err != nil {
				return false
			}

			if v1.Total != v2.Total {
				t.Logf("FAIL: totals differ: %v vs %v", v1.Total, v2.Total)
				return false
			}

			return true
		},
		gen.SliceOf(gen.Float64Range(0.01, 99.99)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCartTotalExample(t *testing.T) {
	svc := NewCartService(repository.NewMemoryCartRepository())
	ctx := context.Background()
	identity := uuid.New().String()

	_, err := svc.Add(ctx, identity, domain.CartLine{
		ProductID: uuid.New(),
		Name:      "Bananas",
		UnitPrice: 1.99,
		Quantity:  2,
	})
	require.NoError(t, err)

	view, err := svc.Add(ctx, identity, domain.CartLine{
		ProductID: uuid.New(),
		Name:      "Croissants",
		UnitPrice: 5.50,
		Quantity:  1,
	})
	require.NoError(t, err)

	assert.Equal(t, 9.48, view.Total)
}

func TestAddRejectsNonPositiveQuantity(t *testing.T) {
	svc := NewCartService(repository.NewMemoryCartRepository())
	ctx := context.Background()

	line := domain.CartLine{ProductID: uuid.New(), Name: "Milk", UnitPrice: 2.10}

	line.Quantity = 0
	_, err := svc.Add(ctx, "someone", line)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	line.Quantity = -3
	_, err = svc.Add(ctx, "someone", line)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	view, err := svc.Get(ctx, "someone")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestUpdateToZeroDeletesLine(t *testing.T) {
	svc := NewCartService(repository.NewMemoryCartRepository())
	ctx := context.Background()
	identity := uuid.New().String()
	productID := uuid.New()

	_, err := svc.Add(ctx, identity, domain.CartLine{
		ProductID: productID,
		Name:      "Yoghurt",
		UnitPrice: 0.89,
		Quantity:  4,
	})
	require.NoError(t, err)

	view, err := svc.Update(ctx, identity, productID, 0)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Equal(t, 0.0, view.Total)
}

func TestUpdateUnknownProduct(t *testing.T) {
	svc := NewCartService(repository.NewMemoryCartRepository())
	ctx := context.Background()

	_, err := svc.Update(ctx, uuid.New().String(), uuid.New(), 2)
	assert.ErrorIs(t, err, repository.ErrCartLineNotFound)
}

func TestRemoveIsIdempotent(t *testing.T) {
	svc := NewCartService(repository.NewMemoryCartRepository())
	ctx := context.Background()
	identity := uuid.New().String()
	productID := uuid.New()

	_, err := svc.Add(ctx, identity, domain.CartLine{
		ProductID: productID,
		Name:      "Butter",
		UnitPrice: 3.49,
		Quantity:  1,
	})
	require.NoError(t, err)

	view, err := svc.Remove(ctx, identity, productID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)

	// Second removal of the same product is a no-op
	view, err = svc.Remove(ctx, identity, productID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCartsAreIsolatedBetweenIdentities(t *testing.T) {
	svc := NewCartService(repository.NewMemoryCartRepository())
	ctx := context.Background()

	_, err := svc.Add(ctx, "alice", domain.CartLine{
		ProductID: uuid.New(),
		Name:      "Apples",
		UnitPrice: 2.99,
		Quantity:  3,
	})
	require.NoError(t, err)

	view, err := svc.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}
