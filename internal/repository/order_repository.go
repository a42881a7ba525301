package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"grocery-api/internal/domain"
)

var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrEmptyCart               = errors.New("cart is empty")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

// OrderRepository defines the interface for order data access. The two
// Create variants are the only place in the system where multiple entities
// change together: each one records the order, its items and the cart clear
// in a single transaction, so a failure before commit leaves the cart
// untouched and a committed order is never lost to a half-applied clear.
type OrderRepository interface {
	// CreateFromCart converts order.Owner's current cart into a persisted
	// order. With reprice set, unit prices and names are re-derived from the
	// catalog instead of the cart's add-time snapshots. Fails with
	// ErrEmptyCart (no state mutated) when the cart has no lines.
	CreateFromCart(ctx context.Context, order *domain.Order, reprice bool) (*domain.Order, error)
	// CreateFromLines persists an order whose items the caller supplied
	// (the client-priced guest flow), clearing any server-side cart the
	// owner identity has in the same transaction.
	CreateFromLines(ctx context.Context, order *domain.Order) (*domain.Order, error)
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	ListByOwner(ctx context.Context, owner string) ([]*domain.Order, error)
	ListAll(ctx context.Context) ([]*domain.Order, error)
	// UpdateStatus advances an order through the status machine. It fails
	// with ErrInvalidStatusTransition when the move is not legal from the
	// order's current status.
	UpdateStatus(ctx context.Context, id string, next domain.OrderStatus) (*domain.Order, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// CreateFromCart drains the owner's cart and records the order inside one
// transaction. DELETE ... RETURNING is the atomic snapshot-and-clear: a
// concurrent add serializes either before it (and is part of the order) or
// after it (and stays in the cart for next time).
func (r *orderRepository) CreateFromCart(ctx context.Context, order *domain.Order, reprice bool) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin checkout transaction: %w", err)
	}
	defer tx.Rollback()

	var drainQuery string
	if reprice {
		// Server-trusted pricing: current catalog price and name win over
		// the cart's add-time snapshot.
		drainQuery = `
			DELETE FROM cart_items ci
			USING products p
			WHERE ci.identity = $1 AND p.id = ci.product_id
			RETURNING ci.product_id, p.name, p.price, ci.quantity
		`
	} else {
		drainQuery = `
			DELETE FROM cart_items
			WHERE identity = $1
			RETURNING product_id, name, unit_price, quantity
		`
	}

	rows, err := tx.QueryContext(ctx, drainQuery, order.Owner)
	if err != nil {
		return nil, fmt.Errorf("failed to drain cart: %w", err)
	}

	lines := []domain.CartLine{}
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ProductID, &line.Name, &line.UnitPrice, &line.Quantity); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan drained cart line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("error reading drained cart lines: %w", err)
	}

	if len(lines) == 0 {
		// Rollback via defer; an empty cart mutates nothing.
		return nil, ErrEmptyCart
	}

	order.Items = make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		})
	}
	order.Total = domain.CartTotal(lines)

	if err := r.insertOrder(ctx, tx, order); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit checkout transaction: %w", err)
	}

	return order, nil
}

// CreateFromLines records an order built from caller-supplied items and
// clears any cart the owner identity left behind, in one transaction.
func (r *orderRepository) CreateFromLines(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if len(order.Items) == 0 {
		return nil, ErrEmptyCart
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin checkout transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.insertOrder(ctx, tx, order); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE identity = $1`, order.Owner); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit checkout transaction: %w", err)
	}

	return order, nil
}

func (r *orderRepository) insertOrder(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	query := `
		INSERT INTO orders (id, owner, status, total, scheduled_for, address, phone, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := tx.ExecContext(
		ctx,
		query,
		order.ID,
		order.Owner,
		order.Status,
		order.Total,
		order.ScheduledFor,
		order.Address,
		order.Phone,
		order.Notes,
		order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, name, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, item := range order.Items {
		_, err := tx.ExecContext(ctx, itemQuery, order.ID, item.ProductID, item.Name, item.UnitPrice, item.Quantity)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	return nil
}

// FindByID retrieves an order and its items
func (r *orderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `
		SELECT id, owner, status, total, scheduled_for, address, phone, notes, created_at
		FROM orders
		WHERE id = $1
	`

	order := &domain.Order{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.Owner,
		&order.Status,
		&order.Total,
		&order.ScheduledFor,
		&order.Address,
		&order.Phone,
		&order.Notes,
		&order.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

// UpdateStatus moves an order to its next status. The current status is
// read under FOR UPDATE so two concurrent transitions cannot both pass the
// legality check.
func (r *orderRepository) UpdateStatus(ctx context.Context, id string, next domain.OrderStatus) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin status transaction: %w", err)
	}
	defer tx.Rollback()

	var current domain.OrderStatus
	err = tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to read order status: %w", err)
	}

	if !current.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, current, next)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, next); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit status transaction: %w", err)
	}

	return r.FindByID(ctx, id)
}

// ListByOwner retrieves an identity's orders, newest first
func (r *orderRepository) ListByOwner(ctx context.Context, owner string) ([]*domain.Order, error) {
	query := `
		SELECT id, owner, status, total, scheduled_for, address, phone, notes, created_at
		FROM orders
		WHERE owner = $1
		ORDER BY created_at DESC
	`

	return r.list(ctx, query, owner)
}

// ListAll retrieves every order, newest first. Admin-only at the transport
// layer.
func (r *orderRepository) ListAll(ctx context.Context) ([]*domain.Order, error) {
	query := `
		SELECT id, owner, status, total, scheduled_for, address, phone, notes, created_at
		FROM orders
		ORDER BY created_at DESC
	`

	return r.list(ctx, query)
}

func (r *orderRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order := &domain.Order{}
		err := rows.Scan(
			&order.ID,
			&order.Owner,
			&order.Status,
			&order.Total,
			&order.ScheduledFor,
			&order.Address,
			&order.Phone,
			&order.Notes,
			&order.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	for _, order := range orders {
		if err := r.loadItems(ctx, order); err != nil {
			return nil, err
		}
	}

	return orders, nil
}

func (r *orderRepository) loadItems(ctx context.Context, order *domain.Order) error {
	query := `
		SELECT product_id, name, unit_price, quantity
		FROM order_items
		WHERE order_id = $1
	`

	rows, err := r.db.QueryContext(ctx, query, order.ID)
	if err != nil {
		return fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	items := []domain.OrderItem{}
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.UnitPrice, &item.Quantity); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("error iterating order items: %w", err)
	}

	order.Items = items
	return nil
}
