package repository

import (
	"context"
	"testing"
	"time"

	"grocery-api/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCart(t *testing.T, identity string, lines []domain.CartLine) {
	t.Helper()

	carts := NewCartRepository(testDB)
	for _, line := range lines {
		require.NoError(t, carts.Add(context.Background(), identity, line))
	}
}

func TestCheckoutEmptyCartFails(t *testing.T) {
	repo := NewOrderRepository(testDB)
	ctx := context.Background()

	order := &domain.Order{
		ID:        domain.NewOrderID(),
		Owner:     "order-test-" + uuid.New().String(),
		Status:    domain.OrderStatusPending,
		CreatedAt: time.Now(),
	}

	_, err := repo.CreateFromCart(ctx, order, false)
	assert.ErrorIs(t, err, ErrEmptyCart)

	// Nothing was persisted
	_, err = repo.FindByID(ctx, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCheckoutDrainsCartAtomically(t *testing.T) {
	repo := NewOrderRepository(testDB)
	carts := NewCartRepository(testDB)
	ctx := context.Background()

	identity := "order-test-" + uuid.New().String()
	lines := []domain.CartLine{
		{ProductID: uuid.New(), Name: "Bananas", UnitPrice: 1.99, Quantity: 2},
		{ProductID: uuid.New(), Name: "Croissants", UnitPrice: 5.50, Quantity: 1},
	}
	seedCart(t, identity, lines)

	order := &domain.Order{
		ID:        domain.NewOrderID(),
		Owner:     identity,
		Status:    domain.OrderStatusPending,
		CreatedAt: time.Now(),
	}

	created, err := repo.CreateFromCart(ctx, order, false)
	require.NoError(t, err)

	assert.InDelta(t, 9.48, created.Total, 0.001)
	assert.Len(t, created.Items, 2)

	// The cart is empty once the order exists
	remaining, err := carts.Lines(ctx, identity)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	// The order is durable and carries the snapshot
	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, found.Status)
	assert.InDelta(t, created.Total, found.Total, 0.001)
	assert.Len(t, found.Items, 2)
}

func TestCheckoutRepricesFromCatalog(t *testing.T) {
	orders := NewOrderRepository(testDB)
	products := NewProductRepository(testDB)
	categories := NewCategoryRepository(testDB)
	ctx := context.Background()

	category := &domain.Category{
		ID:        uuid.New(),
		Name:      "Produce " + uuid.New().String(),
		CreatedAt: time.Now(),
	}
	require.NoError(t, categories.Create(ctx, category))

	product := &domain.Product{
		ID:         uuid.New(),
		Name:       "Avocados",
		Price:      2.50,
		CategoryID: category.ID,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	require.NoError(t, products.Create(ctx, product))

	identity := "order-test-" + uuid.New().String()
	// The snapshot price is stale on purpose
	seedCart(t, identity, []domain.CartLine{
		{ProductID: product.ID, Name: "Avocados (old)", UnitPrice: 1.00, Quantity: 4},
	})

	order := &domain.Order{
		ID:        domain.NewOrderID(),
		Owner:     identity,
		Status:    domain.OrderStatusPending,
		CreatedAt: time.Now(),
	}

	created, err := orders.CreateFromCart(ctx, order, true)
	require.NoError(t, err)

	require.Len(t, created.Items, 1)
	assert.Equal(t, "Avocados", created.Items[0].Name)
	assert.InDelta(t, 10.00, created.Total, 0.001)
}

func TestCreateFromLinesClearsCart(t *testing.T) {
	repo := NewOrderRepository(testDB)
	carts := NewCartRepository(testDB)
	ctx := context.Background()

	identity := "order-test-" + uuid.New().String()
	seedCart(t, identity, []domain.CartLine{
		{ProductID: uuid.New(), Name: "Sourdough", UnitPrice: 4.75, Quantity: 1},
	})

	items := []domain.OrderItem{
		{ProductID: uuid.New(), Name: "Eggs", UnitPrice: 3.20, Quantity: 2},
	}
	order := &domain.Order{
		ID:        domain.NewOrderID(),
		Owner:     identity,
		Status:    domain.OrderStatusPending,
		Total:     domain.RoundPrice(6.40),
		Items:     items,
		CreatedAt: time.Now(),
	}

	created, err := repo.CreateFromLines(ctx, order)
	require.NoError(t, err)
	assert.InDelta(t, 6.40, created.Total, 0.001)

	// Any server-side cart for the identity is gone
	remaining, err := carts.Lines(ctx, identity)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestListOrdersByOwner(t *testing.T) {
	repo := NewOrderRepository(testDB)
	ctx := context.Background()

	identity := "order-test-" + uuid.New().String()
	seedCart(t, identity, []domain.CartLine{
		{ProductID: uuid.New(), Name: "Coffee", UnitPrice: 11.00, Quantity: 1},
	})

	order := &domain.Order{
		ID:        domain.NewOrderID(),
		Owner:     identity,
		Status:    domain.OrderStatusPending,
		CreatedAt: time.Now(),
	}
	_, err := repo.CreateFromCart(ctx, order, false)
	require.NoError(t, err)

	mine, err := repo.ListByOwner(ctx, identity)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, order.ID, mine[0].ID)
	assert.Len(t, mine[0].Items, 1)

	other, err := repo.ListByOwner(ctx, "order-test-"+uuid.New().String())
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestUpdateStatusEnforcesTransitions(t *testing.T) {
	repo := NewOrderRepository(testDB)
	ctx := context.Background()

	identity := "order-test-" + uuid.New().String()
	seedCart(t, identity, []domain.CartLine{
		{ProductID: uuid.New(), Name: "Yogurt", UnitPrice: 1.25, Quantity: 4},
	})

	order := &domain.Order{
		ID:        domain.NewOrderID(),
		Owner:     identity,
		Status:    domain.OrderStatusPending,
		CreatedAt: time.Now(),
	}
	_, err := repo.CreateFromCart(ctx, order, false)
	require.NoError(t, err)

	// Pending cannot jump straight to fulfilled
	_, err = repo.UpdateStatus(ctx, order.ID, domain.OrderStatusFulfilled)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	updated, err := repo.UpdateStatus(ctx, order.ID, domain.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, updated.Status)

	updated, err = repo.UpdateStatus(ctx, order.ID, domain.OrderStatusFulfilled)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusFulfilled, updated.Status)

	// Terminal states never move again
	_, err = repo.UpdateStatus(ctx, order.ID, domain.OrderStatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = repo.UpdateStatus(ctx, "ORD-0000000000", domain.OrderStatusConfirmed)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
