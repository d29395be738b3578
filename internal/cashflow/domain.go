// Package cashflow is the append-only money ledger. Product income and
// delivery income live in disjoint buckets: delivery money passes through
// to the courier and never counts toward the cash in the register.
package cashflow

import (
	"errors"
	"time"
)

// EntryType enumerates ledger entry kinds.
type EntryType string

const (
	// EntryProductIncome is money collected for product lines.
	EntryProductIncome EntryType = "product_income"
	// EntryDeliveryIncome is money collected for delivery fees.
	EntryDeliveryIncome EntryType = "delivery_income"
	// EntryExpense is money out.
	EntryExpense EntryType = "expense"
	// EntryWithdrawal records cash pulled from a transfer account at the
	// ATM. Balance-neutral; kept for traceability.
	EntryWithdrawal EntryType = "withdrawal"
)

// Entry is one immutable ledger row. Corrections happen through new
// offsetting entries, never edits.
type Entry struct {
	ID         string    `json:"id"`
	Date       time.Time `json:"date"`
	Type       EntryType `json:"type"`
	Amount     int64     `json:"amount"`
	Concept    string    `json:"concept"`
	Method     string    `json:"method,omitempty"`
	OrderID    string    `json:"order_id,omitempty"`
	RecordedBy string    `json:"recorded_by"`
}

// Balance is the derived cash position. RealBalance deliberately excludes
// delivery income.
type Balance struct {
	ProductIncome  int64 `json:"product_income"`
	DeliveryIncome int64 `json:"delivery_income"`
	Expenses       int64 `json:"expenses"`
	RealBalance    int64 `json:"real_balance"`
}

// Granularity selects the bucketing of Series.
type Granularity string

const (
	// Weekly buckets by ISO week.
	Weekly Granularity = "week"
	// Monthly buckets by calendar month.
	Monthly Granularity = "month"
)

// ErrInvalidAmount indicates a non-positive amount.
var ErrInvalidAmount = errors.New("cashflow: amount must be positive")

// ErrUnknownEntryType indicates an unrecognised entry type.
var ErrUnknownEntryType = errors.New("cashflow: unknown entry type")
