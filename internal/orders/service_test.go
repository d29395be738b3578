package orders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/andicblue/ventas/internal/catalog"
	"github.com/andicblue/ventas/internal/cashflow"
	"github.com/andicblue/ventas/internal/customers"
	"github.com/andicblue/ventas/internal/inventory"
	"github.com/andicblue/ventas/internal/rowstore"
	"github.com/andicblue/ventas/internal/shared"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	service *Service
	catalog *catalog.Service
	stock   *inventory.Ledger
	cash    *cashflow.Ledger
	store   *rowstore.Memory
}

func newFixture(t *testing.T, policy Policy) *fixture {
	t.Helper()
	store := rowstore.NewMemory()
	cat := catalog.NewService(store)
	directory := customers.NewService(store)
	stock := inventory.NewLedger(store, shared.NewKeyedMutex())
	cash := cashflow.NewLedger(store)
	repo := NewRepository(store)
	idem := shared.NewIdempotencyStore(store)
	return &fixture{
		service: NewService(repo, cat, directory, stock, cash, policy, idem, nil),
		catalog: cat,
		stock:   stock,
		cash:    cash,
		store:   store,
	}
}

func (f *fixture) seedProduct(t *testing.T, name string, price, stock int64) catalog.Product {
	t.Helper()
	ctx := context.Background()
	product, err := f.catalog.Add(ctx, name, price)
	require.NoError(t, err)
	require.NoError(t, f.stock.Restock(ctx, product.ID, stock))
	return product
}

func TestSubmitCashOrderHappyPath(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Policy{DeliveryFee: 3000})
	product := f.seedProduct(t, "Docena Arándanos 125g", 52500, 5)

	order, err := f.service.Submit(ctx, SubmitOrderRequest{
		CustomerName:  "María Rodríguez",
		CustomerPhone: "300 123 4567",
		Lines:         []LineRequest{{ProductID: product.ID, Quantity: 2}},
		FreeDelivery:  true,
		PaymentMethod: PaymentCash,
		AmountPaid:    105000,
	}, "")
	require.NoError(t, err)
	require.EqualValues(t, 105000, order.ProductTotal)
	require.EqualValues(t, 0, order.DeliveryFee)
	require.EqualValues(t, 105000, order.GrandTotal)
	require.EqualValues(t, 0, order.Outstanding)
	require.Equal(t, StatusPending, order.Status)
	require.NotEmpty(t, order.CustomerID)

	qty, err := f.stock.Current(ctx, product.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3, qty)

	bal, err := f.cash.Balance(ctx, time.Time{})
	require.NoError(t, err)
	require.EqualValues(t, 105000, bal.ProductIncome)
	require.EqualValues(t, 0, bal.DeliveryIncome)
}

func TestSubmitRejectsShortStockUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Policy{DeliveryFee: 3000})
	product := f.seedProduct(t, "Docena Arándanos 125g", 52500, 5)

	_, err := f.service.Submit(ctx, SubmitOrderRequest{
		CustomerName:  "María Rodríguez",
		CustomerPhone: "3001234567",
		Lines:         []LineRequest{{ProductID: product.ID, Quantity: 6}},
		FreeDelivery:  true,
		PaymentMethod: PaymentCash,
		AmountPaid:    315000,
	}, "")
	var stockErr *inventory.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Len(t, stockErr.Lines, 1)
	require.EqualValues(t, 1, stockErr.Lines[0].Shortfall)

	qty, err := f.stock.Current(ctx, product.ID)
	require.NoError(t, err)
	require.EqualValues(t, 5, qty)

	orders, err := f.service.List(ctx, Filter{})
	require.NoError(t, err)
	require.Empty(t, orders)

	entries, err := f.cash.Entries(ctx)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestSubmitListsEveryShortLine(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Policy{DeliveryFee: 3000})
	p1 := f.seedProduct(t, "Docena Arándanos 125g", 52500, 1)
	p2 := f.seedProduct(t, "Bandeja Arándanos 500g", 90000, 2)

	_, err := f.service.Submit(ctx, SubmitOrderRequest{
		CustomerName:  "Pedro Gómez",
		CustomerPhone: "3019876543",
		Lines: []LineRequest{
			{ProductID: p1.ID, Quantity: 3},
			{ProductID: p2.ID, Quantity: 4},
		},
		FreeDelivery:  true,
		PaymentMethod: PaymentCredit,
	}, "")
	var stockErr *inventory.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Len(t, stockErr.Lines, 2)
}

func TestSubmitPartialPaymentSplitsProportionally(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Policy{DeliveryFee: 3000})
	product := f.seedProduct(t, "Media Docena Arándanos", 25000, 10)

	order, err := f.service.Submit(ctx, SubmitOrderRequest{
		CustomerName:  "Luisa Paz",
		CustomerPhone: "3025550100",
		Lines:         []LineRequest{{ProductID: product.ID, Quantity: 2}},
		PaymentMethod: PaymentPartial,
		AmountPaid:    26500,
	}, "")
	require.NoError(t, err)
	require.EqualValues(t, 50000, order.ProductTotal)
	require.EqualValues(t, 3000, order.DeliveryFee)
	require.EqualValues(t, 53000, order.GrandTotal)
	require.EqualValues(t, 26500, order.Outstanding)

	bal, err := f.cash.Balance(ctx, time.Time{})
	require.NoError(t, err)
	require.EqualValues(t, 25000, bal.ProductIncome)
	require.EqualValues(t, 1500, bal.DeliveryIncome)
}

func TestSubmitCreditDefersIncome(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Policy{DeliveryFee: 3000})
	product := f.seedProduct(t, "Media Docena Arándanos", 25000, 10)

	order, err := f.service.Submit(ctx, SubmitOrderRequest{
		CustomerName:  "Ana Ruiz",
		CustomerPhone: "3041112233",
		Lines:         []LineRequest{{ProductID: product.ID, Quantity: 2}},
		PaymentMethod: PaymentCredit,
	}, "")
	require.NoError(t, err)
	require.EqualValues(t, 53000, order.Outstanding)

	entries, err := f.cash.Entries(ctx)
	require.NoError(t, err)
	require.Empty(t, entries)

	// Collect the whole balance later; the deferred income lands split.
	order, err = f.service.RecordPayment(ctx, order.ID, RecordPaymentRequest{Amount: 53000, Method: "transfer"})
	require.NoError(t, err)
	require.EqualValues(t, 0, order.Outstanding)
	require.EqualValues(t, 53000, order.AmountPaid)

	bal, err := f.cash.Balance(ctx, time.Time{})
	require.NoError(t, err)
	require.EqualValues(t, 50000, bal.ProductIncome)
	require.EqualValues(t, 3000, bal.DeliveryIncome)
}

func TestRecordPaymentRejectsOvercollection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Policy{DeliveryFee: 3000})
	product := f.seedProduct(t, "Media Docena Arándanos", 25000, 10)

	order, err := f.service.Submit(ctx, SubmitOrderRequest{
		CustomerName:  "Ana Ruiz",
		CustomerPhone: "3041112233",
		Lines:         []LineRequest{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod: PaymentCredit,
	}, "")
	require.NoError(t, err)

	_, err = f.service.RecordPayment(ctx, order.ID, RecordPaymentRequest{Amount: order.Outstanding + 1})
	require.True(t, shared.IsValidation(err))
}

func TestSubmitPaymentMismatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Policy{DeliveryFee: 3000})
	product := f.seedProduct(t, "Docena Arándanos 125g", 52500, 5)

	cases := []struct {
		name   string
		method PaymentMethod
		paid   int64
	}{
		{"cash underpaid", PaymentCash, 50000},
		{"transfer overpaid", PaymentTransfer, 60000},
		{"credit with cash up front", PaymentCredit, 1000},
		{"partial paying nothing", PaymentPartial, 0},
		{"partial paying everything", PaymentPartial, 55500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.Submit(ctx, SubmitOrderRequest{
				CustomerName:  "María Rodríguez",
				CustomerPhone: "3001234567",
				Lines:         []LineRequest{{ProductID: product.ID, Quantity: 1}},
				PaymentMethod: tc.method,
				AmountPaid:    tc.paid,
			}, "")
			var mismatch *PaymentMismatchError
			require.ErrorAs(t, err, &mismatch)
		})
	}

	// Nothing was booked by any of the rejected submissions.
	qty, err := f.stock.Current(ctx, product.ID)
	require.NoError(t, err)
	require.EqualValues(t, 5, qty)
}

func TestSubmitFreeDeliveryThreshold(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Policy{DeliveryFee: 3000, FreeDeliveryThreshold: 100000})
	product := f.seedProduct(t, "Docena Arándanos 125g", 52500, 10)

	order, err := f.service.Submit(ctx, SubmitOrderRequest{
		CustomerName:  "María Rodríguez",
		CustomerPhone: "3001234567",
		Lines:         []LineRequest{{ProductID: product.ID, Quantity: 2}},
		PaymentMethod: PaymentCash,
		AmountPaid:    105000,
	}, "")
	require.NoError(t, err)
	require.EqualValues(t, 0, order.DeliveryFee)
}

func TestSubmitReusesCustomerByPhone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Policy{DeliveryFee: 3000})
	product := f.seedProduct(t, "Docena Arándanos 125g", 52500, 10)

	first, err := f.service.Submit(ctx, SubmitOrderRequest{
		CustomerName:  "María Rodríguez",
		CustomerPhone: "+57 300 123 4567",
		Lines:         []LineRequest{{ProductID: product.ID, Quantity: 1}},
		FreeDelivery:  true,
		PaymentMethod: PaymentCash,
		AmountPaid:    52500,
	}, "")
	require.NoError(t, err)

	second, err := f.service.Submit(ctx, SubmitOrderRequest{
		CustomerName:  "Maria R.",
		CustomerPhone: "3001234567",
		Lines:         []LineRequest{{ProductID: product.ID, Quantity: 1}},
		FreeDelivery:  true,
		PaymentMethod: PaymentCash,
		AmountPaid:    52500,
	}, "")
	require.NoError(t, err)
	require.Equal(t, first.CustomerID, second.CustomerID)
}

func TestSubmitIdempotencyKeyBlocksDuplicates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Policy{DeliveryFee: 3000})
	product := f.seedProduct(t, "Docena Arándanos 125g", 52500, 10)

	req := SubmitOrderRequest{
		CustomerName:  "María Rodríguez",
		CustomerPhone: "3001234567",
		Lines:         []LineRequest{{ProductID: product.ID, Quantity: 1}},
		FreeDelivery:  true,
		PaymentMethod: PaymentCash,
		AmountPaid:    52500,
	}
	_, err := f.service.Submit(ctx, req, "req-abc")
	require.NoError(t, err)
	_, err = f.service.Submit(ctx, req, "req-abc")
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)

	qty, err := f.stock.Current(ctx, product.ID)
	require.NoError(t, err)
	require.EqualValues(t, 9, qty)
}

func TestConcurrentOrdersLastUnit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Policy{DeliveryFee: 3000})
	product := f.seedProduct(t, "Docena Arándanos 125g", 52500, 1)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		rejects   int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := f.service.Submit(ctx, SubmitOrderRequest{
				CustomerName:  "Cliente",
				CustomerPhone: "3001234567",
				Lines:         []LineRequest{{ProductID: product.ID, Quantity: 1}},
				FreeDelivery:  true,
				PaymentMethod: PaymentCash,
				AmountPaid:    52500,
			}, "")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			var stockErr *inventory.InsufficientStockError
			if errors.As(err, &stockErr) || errors.Is(err, ErrConflict) {
				rejects++
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, successes)
	require.Equal(t, 1, rejects)
	qty, err := f.stock.Current(ctx, product.ID)
	require.NoError(t, err)
	require.EqualValues(t, 0, qty)
}

func TestMarkDeliveredAndListFilter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Policy{DeliveryFee: 3000})
	product := f.seedProduct(t, "Docena Arándanos 125g", 52500, 10)

	order, err := f.service.Submit(ctx, SubmitOrderRequest{
		CustomerName:  "María Rodríguez",
		CustomerPhone: "3001234567",
		Lines:         []LineRequest{{ProductID: product.ID, Quantity: 1}},
		FreeDelivery:  true,
		PaymentMethod: PaymentCash,
		AmountPaid:    52500,
	}, "")
	require.NoError(t, err)

	delivered, err := f.service.MarkDelivered(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDelivered, delivered.Status)

	pending, err := f.service.List(ctx, Filter{Status: StatusPending})
	require.NoError(t, err)
	require.Empty(t, pending)

	done, err := f.service.List(ctx, Filter{Status: StatusDelivered})
	require.NoError(t, err)
	require.Len(t, done, 1)
	require.Equal(t, order.ID, done[0].ID)
}
