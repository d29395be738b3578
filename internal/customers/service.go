package customers

import (
	"context"
	"strings"
	"time"

	"github.com/andicblue/ventas/internal/rowstore"
	"github.com/andicblue/ventas/internal/shared"
)

// Service resolves customers against the directory sheet.
type Service struct {
	store rowstore.Store
}

// NewService constructs the directory service.
func NewService(store rowstore.Store) *Service {
	return &Service{store: store}
}

// FindOrCreate looks up a customer by normalized phone. A match returns
// the stored record unchanged, so a typo in the submitted address never
// silently overwrites the one on file. A miss appends a new record.
func (s *Service) FindOrCreate(ctx context.Context, name, phone, address string) (Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Customer{}, shared.NewValidationError("name", "is required")
	}
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return Customer{}, err
	}

	rows, err := s.store.ReadAll(ctx, rowstore.SheetCustomers)
	if err != nil {
		return Customer{}, err
	}
	for _, row := range rows {
		if row.Get("phone") == normalized {
			return fromRow(row), nil
		}
	}

	op := shared.OperatorFromContext(ctx)
	now := time.Now().UTC()
	row := rowstore.NewRow().
		Set("name", name).
		Set("phone", normalized).
		Set("address", strings.TrimSpace(address)).
		Set("created_by", op.Name).
		Set("created_at", now.Format(time.RFC3339))
	stored, err := s.store.AppendRow(ctx, rowstore.SheetCustomers, row)
	if err != nil {
		return Customer{}, err
	}
	return fromRow(stored), nil
}

// Get returns a customer by id.
func (s *Service) Get(ctx context.Context, id string) (Customer, error) {
	rows, err := s.store.ReadAll(ctx, rowstore.SheetCustomers)
	if err != nil {
		return Customer{}, err
	}
	for _, row := range rows {
		if row.ID == id {
			return fromRow(row), nil
		}
	}
	return Customer{}, shared.ErrNotFound
}

// List returns the whole directory.
func (s *Service) List(ctx context.Context) ([]Customer, error) {
	rows, err := s.store.ReadAll(ctx, rowstore.SheetCustomers)
	if err != nil {
		return nil, err
	}
	out := make([]Customer, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

// NormalizePhone strips separators and the +57 country prefix, then
// requires a ten-digit Colombian mobile number.
func NormalizePhone(phone string) (string, error) {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	normalized := digits.String()
	normalized = strings.TrimPrefix(normalized, "57")
	if len(normalized) != 10 || normalized[0] != '3' {
		return "", shared.NewValidationError("phone", "must be a ten-digit mobile number")
	}
	return normalized, nil
}

func fromRow(row rowstore.Row) Customer {
	createdAt, _ := time.Parse(time.RFC3339, row.Get("created_at"))
	return Customer{
		ID:        row.ID,
		Name:      row.Get("name"),
		Phone:     row.Get("phone"),
		Address:   row.Get("address"),
		CreatedBy: row.Get("created_by"),
		CreatedAt: createdAt,
	}
}
