package repository

import (
	"context"
	"testing"

	"grocery-api/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProperty_CartAddAccumulatesQuantity(t *testing.T) {
	repo := NewCartRepository(testDB)
	ctx := context.Background()

	properties := gopter.NewProperties(nil)

	properties.Property("adding the same product twice sums quantities and keeps the first snapshot", prop.ForAll(
		func(name string, price float64, qty1 int, qty2 int) bool {
			identity := "cart-test-" + uuid.New().String()
			productID := uuid.New()

			err := repo.Add(ctx, identity, domain.CartLine{
				ProductID: productID,
				Name:      name,
				UnitPrice: price,
				Quantity:  qty1,
			})
			if err != nil {
				t.Logf("Failed to add first line: %v", err)
				return false
			}

			// The second add carries a different snapshot; the stored one must win
			err = repo.Add(ctx, identity, domain.CartLine{
				ProductID: productID,
				Name:      name + " renamed",
				UnitPrice: price + 1,
				Quantity:  qty2,
			})
			if err != nil {
				t.Logf("Failed to add second line: %v", err)
				return false
			}

			lines, err := repo.Lines(ctx, identity)
			if err != nil {
				t.Logf("Failed to load lines: %v", err)
				return false
			}

			if len(lines) != 1 {
				t.Logf("Expected 1 line, got %d", len(lines))
				return false
			}

			line := lines[0]
			if line.Quantity != qty1+qty2 {
				t.Logf("Quantity mismatch. Expected %d, got %d", qty1+qty2, line.Quantity)
				return false
			}
			if line.Name != name {
				t.Logf("Snapshot name was overwritten. Expected %s, got %s", name, line.Name)
				return false
			}
			if line.UnitPrice < price-0.01 || line.UnitPrice > price+0.01 {
				t.Logf("Snapshot price was overwritten. Expected %f, got %f", price, line.UnitPrice)
				return false
			}

			_ = repo.Clear(ctx, identity)

			return true
		},
		gen.RegexMatch(`[A-Za-z0-9 ]{3,50}`),
		gen.Float64Range(0.01, 999.99),
		gen.IntRange(1, 20),
		gen.IntRange(1, 20),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCartSetQuantityZeroRemovesLine(t *testing.T) {
	repo := NewCartRepository(testDB)
	ctx := context.Background()

	identity := "cart-test-" + uuid.New().String()
	productID := uuid.New()

	err := repo.Add(ctx, identity, domain.CartLine{
		ProductID: productID,
		Name:      "Bananas",
		UnitPrice: 1.99,
		Quantity:  3,
	})
	require.NoError(t, err)

	err = repo.SetQuantity(ctx, identity, productID, 0)
	require.NoError(t, err)

	lines, err := repo.Lines(ctx, identity)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCartSetQuantityUnknownProduct(t *testing.T) {
	repo := NewCartRepository(testDB)
	ctx := context.Background()

	identity := "cart-test-" + uuid.New().String()

	err := repo.SetQuantity(ctx, identity, uuid.New(), 2)
	assert.ErrorIs(t, err, ErrCartLineNotFound)
}

func TestCartRemoveIsIdempotent(t *testing.T) {
	repo := NewCartRepository(testDB)
	ctx := context.Background()

	identity := "cart-test-" + uuid.New().String()
	productID := uuid.New()

	err := repo.Add(ctx, identity, domain.CartLine{
		ProductID: productID,
		Name:      "Croissants",
		UnitPrice: 5.50,
		Quantity:  1,
	})
	require.NoError(t, err)

	require.NoError(t, repo.Remove(ctx, identity, productID))
	// Removing a product that is already gone succeeds
	require.NoError(t, repo.Remove(ctx, identity, productID))

	lines, err := repo.Lines(ctx, identity)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCartsAreIsolatedPerIdentity(t *testing.T) {
	repo := NewCartRepository(testDB)
	ctx := context.Background()

	first := "cart-test-" + uuid.New().String()
	second := "cart-test-" + uuid.New().String()
	productID := uuid.New()

	err := repo.Add(ctx, first, domain.CartLine{
		ProductID: productID,
		Name:      "Oat Milk",
		UnitPrice: 3.25,
		Quantity:  2,
	})
	require.NoError(t, err)

	lines, err := repo.Lines(ctx, second)
	require.NoError(t, err)
	assert.Empty(t, lines)

	require.NoError(t, repo.Clear(ctx, first))
}
