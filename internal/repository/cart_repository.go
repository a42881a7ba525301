package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"grocery-api/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCartLineNotFound = errors.New("cart line not found")
)

// CartRepository defines the keyed cart store. Every operation is scoped to
// a single opaque identity (a user id or a guest session id); operations on
// the same identity are atomic with respect to each other.
type CartRepository interface {
	// Lines returns the identity's cart lines. An identity with no cart
	// yields an empty slice, never an error.
	Lines(ctx context.Context, identity string) ([]domain.CartLine, error)
	// Add inserts a new line or increments the quantity of an existing one.
	// The name/price snapshot of an existing line is left untouched.
	Add(ctx context.Context, identity string, line domain.CartLine) error
	// SetQuantity overwrites a line's quantity, deleting the line when
	// quantity <= 0. Returns ErrCartLineNotFound if no line exists.
	SetQuantity(ctx context.Context, identity string, productID uuid.UUID, quantity int) error
	// Remove deletes a line. Removing an absent line is a no-op.
	Remove(ctx context.Context, identity string, productID uuid.UUID) error
	// Clear deletes every line the identity owns.
	Clear(ctx context.Context, identity string) error
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a Postgres-backed CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

// Lines retrieves the identity's cart lines ordered by insertion time
func (r *cartRepository) Lines(ctx context.Context, identity string) ([]domain.CartLine, error) {
	query := `
		SELECT product_id, name, unit_price, quantity
		FROM cart_items
		WHERE identity = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart lines: %w", err)
	}
	defer rows.Close()

	lines := []domain.CartLine{}
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ProductID, &line.Name, &line.UnitPrice, &line.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, line)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart lines: %w", err)
	}

	return lines, nil
}

// Add upserts a line in a single statement so two concurrent adds for the
// same product both land. The ON CONFLICT arm only bumps quantity, which
// keeps the first add's name/price snapshot.
func (r *cartRepository) Add(ctx context.Context, identity string, line domain.CartLine) error {
	query := `
		INSERT INTO cart_items (id, identity, product_id, name, unit_price, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (identity, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		uuid.New(),
		identity,
		line.ProductID,
		line.Name,
		line.UnitPrice,
		line.Quantity,
	)

	if err != nil {
		return fmt.Errorf("failed to add cart line: %w", err)
	}

	return nil
}

// SetQuantity overwrites quantity, or deletes the line when the new
// quantity is zero or negative (delete-by-zero, not an error)
func (r *cartRepository) SetQuantity(ctx context.Context, identity string, productID uuid.UUID, quantity int) error {
	var result sql.Result
	var err error

	if quantity <= 0 {
		result, err = r.db.ExecContext(
			ctx,
			`DELETE FROM cart_items WHERE identity = $1 AND product_id = $2`,
			identity, productID,
		)
	} else {
		result, err = r.db.ExecContext(
			ctx,
			`UPDATE cart_items SET quantity = $3 WHERE identity = $1 AND product_id = $2`,
			identity, productID, quantity,
		)
	}

	if err != nil {
		return fmt.Errorf("failed to update cart line: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCartLineNotFound
	}

	return nil
}

// Remove deletes a line if present. Absent lines are ignored so the
// operation is idempotent.
func (r *cartRepository) Remove(ctx context.Context, identity string, productID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE identity = $1 AND product_id = $2`

	if _, err := r.db.ExecContext(ctx, query, identity, productID); err != nil {
		return fmt.Errorf("failed to remove cart line: %w", err)
	}

	return nil
}

// Clear empties the identity's cart
func (r *cartRepository) Clear(ctx context.Context, identity string) error {
	query := `DELETE FROM cart_items WHERE identity = $1`

	if _, err := r.db.ExecContext(ctx, query, identity); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return nil
}
