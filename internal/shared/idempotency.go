package shared

import (
	"context"
	"errors"
	"time"

	"github.com/andicblue/ventas/internal/rowstore"
)

// IdempotencyStore persists processed request keys in the row store so a
// re-submitted order (the store appends at least once) is not booked twice.
type IdempotencyStore struct {
	store rowstore.Store
}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore(store rowstore.Store) *IdempotencyStore {
	return &IdempotencyStore{store: store}
}

// ErrIdempotencyConflict indicates a duplicate key.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

// CheckAndInsert ensures key uniqueness per module.
func (s *IdempotencyStore) CheckAndInsert(ctx context.Context, key, module string) error {
	if s == nil {
		return errors.New("idempotency store not initialised")
	}
	if key == "" {
		return errors.New("idempotency key required")
	}
	if module == "" {
		return errors.New("idempotency module required")
	}
	rows, err := s.store.ReadAll(ctx, rowstore.SheetKeys)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if row.Get("key") == key && row.Get("module") == module && row.Get("released") == "" {
			return ErrIdempotencyConflict
		}
	}
	row := rowstore.NewRow().
		Set("key", key).
		Set("module", module).
		Set("created_at", time.Now().UTC().Format(time.RFC3339))
	_, err = s.store.AppendRow(ctx, rowstore.SheetKeys, row)
	return err
}

// Release frees a key after failed processing so the caller may retry.
func (s *IdempotencyStore) Release(ctx context.Context, key, module string) error {
	if s == nil {
		return nil
	}
	rows, err := s.store.ReadAll(ctx, rowstore.SheetKeys)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if row.Get("key") != key || row.Get("module") != module || row.Get("released") != "" {
			continue
		}
		updated := row.Clone().Set("released", time.Now().UTC().Format(time.RFC3339))
		return s.store.UpdateRow(ctx, rowstore.SheetKeys, row.ID, updated)
	}
	return nil
}
