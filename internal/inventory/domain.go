// Package inventory tracks quantity on hand per product. Stock only moves
// through explicit operations: confirmed orders decrement, manual restock
// and adjustments add or correct. Nothing replenishes automatically.
package inventory

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Line is the quantity on hand for one product.
type Line struct {
	ProductID string    `json:"product_id"`
	Quantity  int64     `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Request asks for a quantity of one product.
type Request struct {
	ProductID string
	Quantity  int64
}

// ShortLine describes one product that cannot cover the requested quantity.
type ShortLine struct {
	ProductID string `json:"product_id"`
	Requested int64  `json:"requested"`
	Available int64  `json:"available"`
	Shortfall int64  `json:"shortfall"`
}

// InsufficientStockError carries every short line of a rejected request,
// not just the first, so the caller can trim the whole order at once.
type InsufficientStockError struct {
	Lines []ShortLine
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, len(e.Lines))
	for i, l := range e.Lines {
		parts[i] = fmt.Sprintf("%s short by %d", l.ProductID, l.Shortfall)
	}
	return "inventory: insufficient stock: " + strings.Join(parts, ", ")
}

// ErrInvalidQuantity indicates a zero or negative quantity.
var ErrInvalidQuantity = errors.New("inventory: quantity must be positive")
