package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/andicblue/ventas/internal/rowstore"
	"github.com/andicblue/ventas/internal/shared"
)

// casRetries bounds re-reads when an out-of-band writer races a locked
// update. Conflicts beyond this surface to the caller.
const casRetries = 3

// Ledger serializes stock movements per product. The row version in the
// store is the source of truth; the lock narrows the race window, the
// compare-and-swap on update closes it.
type Ledger struct {
	store rowstore.Store
	locks shared.Locker
}

// NewLedger constructs the inventory ledger.
func NewLedger(store rowstore.Store, locks shared.Locker) *Ledger {
	return &Ledger{store: store, locks: locks}
}

// Current returns quantity on hand, zero for an unknown product.
func (l *Ledger) Current(ctx context.Context, productID string) (int64, error) {
	row, err := l.find(ctx, productID)
	if err != nil {
		if errors.Is(err, rowstore.ErrRowNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return row.Int64("stock"), nil
}

// CheckAvailability reports whether the product can cover the quantity.
func (l *Ledger) CheckAvailability(ctx context.Context, productID string, quantity int64) (bool, error) {
	if quantity <= 0 {
		return false, ErrInvalidQuantity
	}
	current, err := l.Current(ctx, productID)
	if err != nil {
		return false, err
	}
	return current >= quantity, nil
}

// CheckAll returns every short line for the requested quantities. A nil
// error with no short lines means the whole request is coverable.
func (l *Ledger) CheckAll(ctx context.Context, requests []Request) ([]ShortLine, error) {
	var short []ShortLine
	for _, req := range requests {
		if req.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		current, err := l.Current(ctx, req.ProductID)
		if err != nil {
			return nil, err
		}
		if current < req.Quantity {
			short = append(short, ShortLine{
				ProductID: req.ProductID,
				Requested: req.Quantity,
				Available: current,
				Shortfall: req.Quantity - current,
			})
		}
	}
	return short, nil
}

// Decrement removes quantity from a single product line. The line never
// goes negative; a shortfall rejects the whole call.
func (l *Ledger) Decrement(ctx context.Context, productID string, quantity int64) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	unlock, err := l.locks.Lock(ctx, shared.ProductLockKey(productID))
	if err != nil {
		return err
	}
	defer unlock()
	return l.applyDelta(ctx, productID, -quantity)
}

// DecrementAll applies a multi-line decrement atomically: every product
// lock is taken in a stable order, availability is re-verified under the
// locks, and any failure rolls back lines already applied.
func (l *Ledger) DecrementAll(ctx context.Context, requests []Request) error {
	if len(requests) == 0 {
		return nil
	}
	ordered := make([]Request, len(requests))
	copy(ordered, requests)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ProductID < ordered[j].ProductID })

	unlocks := make([]func(), 0, len(ordered))
	defer func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}()
	for _, req := range ordered {
		unlock, err := l.locks.Lock(ctx, shared.ProductLockKey(req.ProductID))
		if err != nil {
			return err
		}
		unlocks = append(unlocks, unlock)
	}

	// Re-check under the locks: the pre-commit availability check may be
	// stale by now (check-then-act).
	short, err := l.CheckAll(ctx, ordered)
	if err != nil {
		return err
	}
	if len(short) > 0 {
		return &InsufficientStockError{Lines: short}
	}

	applied := make([]Request, 0, len(ordered))
	for _, req := range ordered {
		if err := l.applyDelta(ctx, req.ProductID, -req.Quantity); err != nil {
			l.rollback(ctx, applied)
			return err
		}
		applied = append(applied, req)
	}
	return nil
}

// Restock adds quantity, creating the line on first sight of a product.
func (l *Ledger) Restock(ctx context.Context, productID string, quantity int64) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	unlock, err := l.locks.Lock(ctx, shared.ProductLockKey(productID))
	if err != nil {
		return err
	}
	defer unlock()
	return l.applyDelta(ctx, productID, quantity)
}

// Adjust corrects a line by a positive or negative delta. The corrected
// quantity must remain non-negative.
func (l *Ledger) Adjust(ctx context.Context, productID string, delta int64) error {
	if delta == 0 {
		return ErrInvalidQuantity
	}
	unlock, err := l.locks.Lock(ctx, shared.ProductLockKey(productID))
	if err != nil {
		return err
	}
	defer unlock()
	return l.applyDelta(ctx, productID, delta)
}

// Lines lists every inventory line.
func (l *Ledger) Lines(ctx context.Context) ([]Line, error) {
	rows, err := l.store.ReadAll(ctx, rowstore.SheetInventory)
	if err != nil {
		return nil, err
	}
	lines := make([]Line, 0, len(rows))
	for _, row := range rows {
		updatedAt, _ := time.Parse(time.RFC3339, row.Get("updated_at"))
		lines = append(lines, Line{
			ProductID: row.ID,
			Quantity:  row.Int64("stock"),
			UpdatedAt: updatedAt,
		})
	}
	return lines, nil
}

// applyDelta mutates one line with a bounded compare-and-swap loop.
// Caller holds the product lock.
func (l *Ledger) applyDelta(ctx context.Context, productID string, delta int64) error {
	var lastErr error
	for attempt := 0; attempt < casRetries; attempt++ {
		row, err := l.find(ctx, productID)
		if errors.Is(err, rowstore.ErrRowNotFound) {
			if delta < 0 {
				return &InsufficientStockError{Lines: []ShortLine{{
					ProductID: productID,
					Requested: -delta,
					Shortfall: -delta,
				}}}
			}
			fresh := rowstore.NewRow().
				SetInt64("stock", delta).
				Set("updated_at", time.Now().UTC().Format(time.RFC3339))
			fresh.ID = productID
			_, err = l.store.AppendRow(ctx, rowstore.SheetInventory, fresh)
			return err
		}
		if err != nil {
			return err
		}
		current := row.Int64("stock")
		next := current + delta
		if next < 0 {
			return &InsufficientStockError{Lines: []ShortLine{{
				ProductID: productID,
				Requested: -delta,
				Available: current,
				Shortfall: -next,
			}}}
		}
		updated := row.Clone().
			SetInt64("stock", next).
			Set("updated_at", time.Now().UTC().Format(time.RFC3339))
		err = l.store.UpdateRow(ctx, rowstore.SheetInventory, productID, updated)
		if err == nil {
			return nil
		}
		if !errors.Is(err, rowstore.ErrVersionConflict) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("inventory: product %s: %w", productID, lastErr)
}

func (l *Ledger) rollback(ctx context.Context, applied []Request) {
	for _, req := range applied {
		_ = l.applyDelta(ctx, req.ProductID, req.Quantity)
	}
}

func (l *Ledger) find(ctx context.Context, productID string) (rowstore.Row, error) {
	rows, err := l.store.ReadAll(ctx, rowstore.SheetInventory)
	if err != nil {
		return rowstore.Row{}, err
	}
	for _, row := range rows {
		if row.ID == productID {
			return row, nil
		}
	}
	return rowstore.Row{}, rowstore.ErrRowNotFound
}
