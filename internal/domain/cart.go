package domain

import (
	"math"

	"github.com/google/uuid"
)

// CartLine is one product entry in an identity's cart. Name and UnitPrice
// are snapshots taken when the line was first added; later catalog price
// changes do not affect them.
type CartLine struct {
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Name      string    `json:"name" db:"name"`
	UnitPrice float64   `json:"unit_price" db:"unit_price"`
	Quantity  int       `json:"quantity" db:"quantity"`
}

// RoundPrice rounds a monetary amount to 2 decimal places, half away from
// zero. Every total in the system goes through this exactly once, at the
// point the total is produced, so identical line sets always yield
// bit-identical totals.
func RoundPrice(v float64) float64 {
	return math.Round(v*100) / 100
}

// CartTotal computes the summed total of a line set, rounded once.
func CartTotal(lines []CartLine) float64 {
	var sum float64
	for _, l := range lines {
		sum += l.UnitPrice * float64(l.Quantity)
	}
	return RoundPrice(sum)
}
