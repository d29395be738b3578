// Package rowstore abstracts the spreadsheet-style backing store as a
// key-value row store with at-least-once append semantics.
package rowstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// Sheet names used across the application.
const (
	SheetProducts  = "products"
	SheetCustomers = "customers"
	SheetInventory = "inventory"
	SheetOrders    = "orders"
	SheetCashFlow  = "cashflow"
	SheetKeys      = "idempotency_keys"
)

// Row is a single record in a sheet. Version carries the optimistic
// concurrency token compared on update.
type Row struct {
	ID      string
	Version int64
	Fields  map[string]string
}

// NewRow builds an empty row ready for appending.
func NewRow() Row {
	return Row{Fields: make(map[string]string)}
}

// Get returns a field value, empty string when absent.
func (r Row) Get(key string) string {
	return r.Fields[key]
}

// Int64 parses a field as int64, zero when absent or malformed.
func (r Row) Int64(key string) int64 {
	v, _ := strconv.ParseInt(r.Fields[key], 10, 64)
	return v
}

// Set stores a string field.
func (r Row) Set(key, value string) Row {
	r.Fields[key] = value
	return r
}

// SetInt64 stores an integer field.
func (r Row) SetInt64(key string, value int64) Row {
	r.Fields[key] = strconv.FormatInt(value, 10)
	return r
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	fields := make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return Row{ID: r.ID, Version: r.Version, Fields: fields}
}

// Store is the contract every backing store must satisfy.
type Store interface {
	// ReadAll returns every row of a sheet in insertion order.
	ReadAll(ctx context.Context, sheet string) ([]Row, error)
	// AppendRow persists a new row. A fresh ID is assigned when the row
	// carries none. The stored row is returned with ID and Version set.
	AppendRow(ctx context.Context, sheet string, row Row) (Row, error)
	// UpdateRow replaces an existing row. The update only commits when
	// row.Version matches the stored version; otherwise
	// ErrVersionConflict is returned and the caller must re-read.
	UpdateRow(ctx context.Context, sheet, rowID string, row Row) error
}

// ErrRowNotFound indicates the requested row does not exist.
var ErrRowNotFound = errors.New("rowstore: row not found")

// ErrVersionConflict indicates a lost optimistic-concurrency race.
var ErrVersionConflict = errors.New("rowstore: row version conflict")

// IOError wraps a store failure that persisted through every retry.
type IOError struct {
	Attempts int
	Err      error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("rowstore: giving up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
