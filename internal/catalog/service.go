package catalog

import (
	"context"
	"strings"

	"github.com/andicblue/ventas/internal/rowstore"
	"github.com/andicblue/ventas/internal/shared"
)

// Service reads and extends the product catalog.
type Service struct {
	store rowstore.Store
}

// NewService constructs the catalog service.
func NewService(store rowstore.Store) *Service {
	return &Service{store: store}
}

// List returns every catalog product.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	rows, err := s.store.ReadAll(ctx, rowstore.SheetProducts)
	if err != nil {
		return nil, err
	}
	products := make([]Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, fromRow(row))
	}
	return products, nil
}

// Get looks up a product by id.
func (s *Service) Get(ctx context.Context, productID string) (Product, error) {
	rows, err := s.store.ReadAll(ctx, rowstore.SheetProducts)
	if err != nil {
		return Product{}, err
	}
	for _, row := range rows {
		if row.ID == productID {
			return fromRow(row), nil
		}
	}
	return Product{}, ErrProductNotFound
}

// Add registers a new product. Names are unique, matching the behaviour of
// the inventory sheet it replaces.
func (s *Service) Add(ctx context.Context, name string, unitPrice int64) (Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Product{}, shared.NewValidationError("name", "is required")
	}
	if unitPrice <= 0 {
		return Product{}, shared.NewValidationError("unit_price", "must be positive")
	}
	rows, err := s.store.ReadAll(ctx, rowstore.SheetProducts)
	if err != nil {
		return Product{}, err
	}
	for _, row := range rows {
		if strings.EqualFold(row.Get("name"), name) {
			return Product{}, ErrProductExists
		}
	}
	row := rowstore.NewRow().
		Set("name", name).
		SetInt64("unit_price", unitPrice)
	stored, err := s.store.AppendRow(ctx, rowstore.SheetProducts, row)
	if err != nil {
		return Product{}, err
	}
	return fromRow(stored), nil
}

// Seed inserts the given products when the catalog sheet is empty.
func (s *Service) Seed(ctx context.Context, products []Product) error {
	rows, err := s.store.ReadAll(ctx, rowstore.SheetProducts)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		return nil
	}
	for _, p := range products {
		row := rowstore.NewRow().
			Set("name", p.Name).
			SetInt64("unit_price", p.UnitPrice)
		row.ID = p.ID
		if _, err := s.store.AppendRow(ctx, rowstore.SheetProducts, row); err != nil {
			return err
		}
	}
	return nil
}

func fromRow(row rowstore.Row) Product {
	return Product{
		ID:        row.ID,
		Name:      row.Get("name"),
		UnitPrice: row.Int64("unit_price"),
	}
}
