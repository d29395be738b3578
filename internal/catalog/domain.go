// Package catalog holds the product list and unit prices. Prices are
// configuration: they change through explicit catalog edits, never as a
// side effect of order processing.
package catalog

import "errors"

// Product is a sellable item with its unit price in whole COP.
type Product struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
}

// ErrProductNotFound indicates an unknown product id.
var ErrProductNotFound = errors.New("catalog: product not found")

// ErrProductExists indicates a duplicate product name.
var ErrProductExists = errors.New("catalog: product already exists")
