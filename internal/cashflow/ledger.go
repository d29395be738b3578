package cashflow

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"strings"
	"time"

	"github.com/andicblue/ventas/internal/rowstore"
	"github.com/andicblue/ventas/internal/shared"
)

// Ledger appends and aggregates cash flow entries.
type Ledger struct {
	store rowstore.Store
}

// NewLedger constructs the cash flow ledger.
func NewLedger(store rowstore.Store) *Ledger {
	return &Ledger{store: store}
}

// Post appends one entry. Past entries are never mutated.
func (l *Ledger) Post(ctx context.Context, entry Entry) (Entry, error) {
	switch entry.Type {
	case EntryProductIncome, EntryDeliveryIncome, EntryExpense, EntryWithdrawal:
	default:
		return Entry{}, ErrUnknownEntryType
	}
	if entry.Amount <= 0 {
		return Entry{}, ErrInvalidAmount
	}
	if entry.Date.IsZero() {
		entry.Date = time.Now().UTC()
	}
	if entry.RecordedBy == "" {
		entry.RecordedBy = shared.OperatorFromContext(ctx).Name
	}
	row := rowstore.NewRow().
		Set("date", entry.Date.UTC().Format(time.RFC3339)).
		Set("type", string(entry.Type)).
		SetInt64("amount", entry.Amount).
		Set("concept", entry.Concept).
		Set("method", entry.Method).
		Set("order_id", entry.OrderID).
		Set("recorded_by", entry.RecordedBy)
	stored, err := l.store.AppendRow(ctx, rowstore.SheetCashFlow, row)
	if err != nil {
		return Entry{}, err
	}
	entry.ID = stored.ID
	return entry, nil
}

// Expense posts a money-out entry.
func (l *Ledger) Expense(ctx context.Context, date time.Time, concept string, amount int64) (Entry, error) {
	concept = strings.TrimSpace(concept)
	if concept == "" {
		return Entry{}, shared.NewValidationError("concept", "is required")
	}
	if amount <= 0 {
		return Entry{}, shared.NewValidationError("amount", "must be positive")
	}
	return l.Post(ctx, Entry{Date: date, Type: EntryExpense, Amount: amount, Concept: concept})
}

// Withdrawal records cash pulled from a transfer account. It does not move
// the real balance; it documents where the bills came from.
func (l *Ledger) Withdrawal(ctx context.Context, date time.Time, fromMethod string, amount int64) (Entry, error) {
	if fromMethod == "" {
		return Entry{}, shared.NewValidationError("method", "is required")
	}
	if amount <= 0 {
		return Entry{}, shared.NewValidationError("amount", "must be positive")
	}
	concept := fmt.Sprintf("Retiro desde %s", fromMethod)
	return l.Post(ctx, Entry{Date: date, Type: EntryWithdrawal, Amount: amount, Concept: concept, Method: fromMethod})
}

// Balance derives the cash position from every entry up to asOf
// (zero time means all entries).
func (l *Ledger) Balance(ctx context.Context, asOf time.Time) (Balance, error) {
	entries, err := l.Entries(ctx)
	if err != nil {
		return Balance{}, err
	}
	var bal Balance
	for _, e := range entries {
		if !asOf.IsZero() && e.Date.After(asOf) {
			continue
		}
		switch e.Type {
		case EntryProductIncome:
			bal.ProductIncome += e.Amount
		case EntryDeliveryIncome:
			bal.DeliveryIncome += e.Amount
		case EntryExpense:
			bal.Expenses += e.Amount
		}
	}
	bal.RealBalance = bal.ProductIncome - bal.Expenses
	return bal, nil
}

// IncomeByMethod groups collected income per payment method.
func (l *Ledger) IncomeByMethod(ctx context.Context) (map[string]int64, error) {
	entries, err := l.Entries(ctx)
	if err != nil {
		return nil, err
	}
	totals := make(map[string]int64)
	for _, e := range entries {
		if e.Type != EntryProductIncome && e.Type != EntryDeliveryIncome {
			continue
		}
		method := e.Method
		if method == "" {
			method = "unknown"
		}
		totals[method] += e.Amount
	}
	return totals, nil
}

// Entries lists the ledger sorted by date.
func (l *Ledger) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := l.store.ReadAll(ctx, rowstore.SheetCashFlow)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		date, _ := time.Parse(time.RFC3339, row.Get("date"))
		entries = append(entries, Entry{
			ID:         row.ID,
			Date:       date,
			Type:       EntryType(row.Get("type")),
			Amount:     row.Int64("amount"),
			Concept:    row.Get("concept"),
			Method:     row.Get("method"),
			OrderID:    row.Get("order_id"),
			RecordedBy: row.Get("recorded_by"),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date.Before(entries[j].Date) })
	return entries, nil
}

// Series yields (period, running real balance) pairs in chronological
// order. The sequence is lazy and restartable: ranging over it again
// replays the same periods without touching the store.
func (l *Ledger) Series(ctx context.Context, granularity Granularity) (iter.Seq2[string, int64], error) {
	if granularity != Weekly && granularity != Monthly {
		return nil, shared.NewValidationError("granularity", "must be week or month")
	}
	entries, err := l.Entries(ctx)
	if err != nil {
		return nil, err
	}
	return func(yield func(string, int64) bool) {
		var (
			running int64
			period  string
			open    bool
		)
		for _, e := range entries {
			label := periodLabel(e.Date, granularity)
			if open && label != period {
				if !yield(period, running) {
					return
				}
			}
			period = label
			open = true
			switch e.Type {
			case EntryProductIncome:
				running += e.Amount
			case EntryExpense:
				running -= e.Amount
			}
		}
		if open {
			yield(period, running)
		}
	}, nil
}

func periodLabel(t time.Time, granularity Granularity) string {
	if granularity == Monthly {
		return t.Format("2006-01")
	}
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
