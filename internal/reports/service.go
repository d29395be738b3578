// Package reports aggregates the operational panels: order counts, money
// collected and outstanding, inventory valuation and the weekly balance
// series.
package reports

import (
	"context"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/andicblue/ventas/internal/cashflow"
	"github.com/andicblue/ventas/internal/catalog"
	"github.com/andicblue/ventas/internal/inventory"
	"github.com/andicblue/ventas/internal/orders"
)

// Summary is the dashboard snapshot. Amounts are whole COP; Display holds
// the same figures formatted for the es-CO locale.
type Summary struct {
	OrdersTotal    int              `json:"orders_total"`
	OrdersPending  int              `json:"orders_pending"`
	Collected      int64            `json:"collected"`
	Outstanding    int64            `json:"outstanding"`
	InventoryValue int64            `json:"inventory_value"`
	RealBalance    int64            `json:"real_balance"`
	IncomeByMethod map[string]int64 `json:"income_by_method"`
	Display        SummaryDisplay   `json:"display"`
}

// SummaryDisplay carries locale-formatted amounts.
type SummaryDisplay struct {
	Collected      string `json:"collected"`
	Outstanding    string `json:"outstanding"`
	InventoryValue string `json:"inventory_value"`
	RealBalance    string `json:"real_balance"`
}

// Service derives reports from the other domains' read paths.
type Service struct {
	orders  *orders.Service
	stock   *inventory.Ledger
	catalog *catalog.Service
	cash    *cashflow.Ledger
	cache   *cashflow.SeriesCache
	printer *message.Printer
}

// NewService constructs the reports service. cache may be nil; series
// reads then always recompute.
func NewService(
	ord *orders.Service,
	stock *inventory.Ledger,
	cat *catalog.Service,
	cash *cashflow.Ledger,
	cache *cashflow.SeriesCache,
) *Service {
	return &Service{
		orders:  ord,
		stock:   stock,
		catalog: cat,
		cash:    cash,
		cache:   cache,
		printer: message.NewPrinter(language.MustParse("es-CO")),
	}
}

// Summary computes the dashboard snapshot from current state.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	all, err := s.orders.List(ctx, orders.Filter{})
	if err != nil {
		return Summary{}, err
	}
	var sum Summary
	sum.OrdersTotal = len(all)
	for _, o := range all {
		if o.Status == orders.StatusPending {
			sum.OrdersPending++
		}
		sum.Collected += o.AmountPaid
		sum.Outstanding += o.Outstanding
	}

	lines, err := s.stock.Lines(ctx)
	if err != nil {
		return Summary{}, err
	}
	products, err := s.catalog.List(ctx)
	if err != nil {
		return Summary{}, err
	}
	prices := make(map[string]int64, len(products))
	for _, p := range products {
		prices[p.ID] = p.UnitPrice
	}
	for _, line := range lines {
		sum.InventoryValue += line.Quantity * prices[line.ProductID]
	}

	balance, err := s.cash.Balance(ctx, time.Time{})
	if err != nil {
		return Summary{}, err
	}
	sum.RealBalance = balance.RealBalance

	sum.IncomeByMethod, err = s.cash.IncomeByMethod(ctx)
	if err != nil {
		return Summary{}, err
	}

	sum.Display = SummaryDisplay{
		Collected:      s.formatCOP(sum.Collected),
		Outstanding:    s.formatCOP(sum.Outstanding),
		InventoryValue: s.formatCOP(sum.InventoryValue),
		RealBalance:    s.formatCOP(sum.RealBalance),
	}
	return sum, nil
}

// WeeklySeries returns the cached weekly balance series, recomputing and
// repopulating the cache on a miss.
func (s *Service) WeeklySeries(ctx context.Context) ([]cashflow.SeriesPoint, error) {
	if points, ok := s.cache.Get(ctx, cashflow.Weekly); ok {
		return points, nil
	}
	seq, err := s.cash.Series(ctx, cashflow.Weekly)
	if err != nil {
		return nil, err
	}
	points := cashflow.Materialize(seq)
	_ = s.cache.Set(ctx, cashflow.Weekly, points)
	return points, nil
}

func (s *Service) formatCOP(amount int64) string {
	return s.printer.Sprintf("$ %v", number.Decimal(amount))
}
