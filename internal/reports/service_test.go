package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andicblue/ventas/internal/cashflow"
	"github.com/andicblue/ventas/internal/catalog"
	"github.com/andicblue/ventas/internal/customers"
	"github.com/andicblue/ventas/internal/inventory"
	"github.com/andicblue/ventas/internal/orders"
	"github.com/andicblue/ventas/internal/rowstore"
	"github.com/andicblue/ventas/internal/shared"
)

type fixture struct {
	service *Service
	orders  *orders.Service
	catalog *catalog.Service
	stock   *inventory.Ledger
	cash    *cashflow.Ledger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := rowstore.NewMemory()
	cat := catalog.NewService(store)
	stock := inventory.NewLedger(store, shared.NewKeyedMutex())
	cash := cashflow.NewLedger(store)
	ord := orders.NewService(
		orders.NewRepository(store),
		cat,
		customers.NewService(store),
		stock,
		cash,
		orders.Policy{DeliveryFee: 3000},
		nil,
		nil,
	)
	return &fixture{
		service: NewService(ord, stock, cat, cash, nil),
		orders:  ord,
		catalog: cat,
		stock:   stock,
		cash:    cash,
	}
}

func (f *fixture) seedProduct(t *testing.T, name string, price, stock int64) catalog.Product {
	t.Helper()
	product, err := f.catalog.Add(context.Background(), name, price)
	require.NoError(t, err)
	require.NoError(t, f.stock.Restock(context.Background(), product.ID, stock))
	return product
}

func TestSummaryAggregatesOrdersAndInventory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.seedProduct(t, "Docena Arándanos 125g", 52500, 5)

	_, err := f.orders.Submit(ctx, orders.SubmitOrderRequest{
		CustomerName:  "Marta Rojas",
		CustomerPhone: "3105551234",
		Lines:         []orders.LineRequest{{ProductID: product.ID, Quantity: 2}},
		PaymentMethod: orders.PaymentCash,
		AmountPaid:    108000,
	}, "")
	require.NoError(t, err)

	_, err = f.orders.Submit(ctx, orders.SubmitOrderRequest{
		CustomerName:  "Luis Gómez",
		CustomerPhone: "3001234567",
		Lines:         []orders.LineRequest{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod: orders.PaymentCredit,
	}, "")
	require.NoError(t, err)

	_, err = f.cash.Expense(ctx, time.Now().UTC(), "Abono cultivo", 10000)
	require.NoError(t, err)

	summary, err := f.service.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, summary.OrdersTotal)
	require.Equal(t, 2, summary.OrdersPending)
	require.EqualValues(t, 108000, summary.Collected)
	require.EqualValues(t, 55500, summary.Outstanding)
	// Two units left of a 52,500 product.
	require.EqualValues(t, 105000, summary.InventoryValue)
	// 105,000 product income minus 10,000 expense; delivery stays out.
	require.EqualValues(t, 95000, summary.RealBalance)
	// Includes the delivery portion; the method grouping tracks where the
	// money arrived, not which bucket it belongs to.
	require.EqualValues(t, 108000, summary.IncomeByMethod["cash"])
	require.NotEmpty(t, summary.Display.RealBalance)
}

func TestWeeklySeriesWithoutCacheRecomputes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.cash.Post(ctx, cashflow.Entry{
		Date:   time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC),
		Type:   cashflow.EntryProductIncome,
		Amount: 40000,
	})
	require.NoError(t, err)

	points, err := f.service.WeeklySeries(ctx)
	require.NoError(t, err)
	require.Len(t, points, 1)
	require.Equal(t, "2026-W32", points[0].Period)
	require.EqualValues(t, 40000, points[0].Balance)
}
