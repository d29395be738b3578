package cashflow

import (
	"context"
	"testing"
	"time"

	"github.com/andicblue/ventas/internal/rowstore"
	"github.com/stretchr/testify/require"
)

func newTestLedger() *Ledger {
	return NewLedger(rowstore.NewMemory())
}

func TestRealBalanceExcludesDeliveryIncome(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger()

	_, err := ledger.Post(ctx, Entry{Type: EntryProductIncome, Amount: 52500, Concept: "Pedido", Method: "cash"})
	require.NoError(t, err)
	_, err = ledger.Post(ctx, Entry{Type: EntryDeliveryIncome, Amount: 3000, Concept: "Domicilio", Method: "cash"})
	require.NoError(t, err)
	_, err = ledger.Expense(ctx, time.Now(), "Abono transporte", 10000)
	require.NoError(t, err)

	bal, err := ledger.Balance(ctx, time.Time{})
	require.NoError(t, err)
	require.EqualValues(t, 52500, bal.ProductIncome)
	require.EqualValues(t, 3000, bal.DeliveryIncome)
	require.EqualValues(t, 10000, bal.Expenses)
	require.EqualValues(t, 42500, bal.RealBalance)
}

func TestBalanceAsOfFiltersLaterEntries(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger()

	early := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	_, err := ledger.Post(ctx, Entry{Date: early, Type: EntryProductIncome, Amount: 10000, Concept: "Pedido"})
	require.NoError(t, err)
	_, err = ledger.Post(ctx, Entry{Date: late, Type: EntryExpense, Amount: 4000, Concept: "Gasolina"})
	require.NoError(t, err)

	bal, err := ledger.Balance(ctx, early.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.EqualValues(t, 10000, bal.RealBalance)
}

func TestPostRejectsBadEntries(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger()

	_, err := ledger.Post(ctx, Entry{Type: EntryProductIncome, Amount: 0})
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = ledger.Post(ctx, Entry{Type: "loan", Amount: 100})
	require.ErrorIs(t, err, ErrUnknownEntryType)
	_, err = ledger.Expense(ctx, time.Now(), "", 100)
	require.Error(t, err)
}

func TestWithdrawalIsBalanceNeutral(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger()

	_, err := ledger.Post(ctx, Entry{Type: EntryProductIncome, Amount: 20000, Concept: "Pedido", Method: "transfer"})
	require.NoError(t, err)
	_, err = ledger.Withdrawal(ctx, time.Now(), "transfer", 15000)
	require.NoError(t, err)

	bal, err := ledger.Balance(ctx, time.Time{})
	require.NoError(t, err)
	require.EqualValues(t, 20000, bal.RealBalance)
}

func TestSeriesIsLazyAndRestartable(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger()

	week1 := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)  // W32
	week2 := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC) // W33
	_, err := ledger.Post(ctx, Entry{Date: week1, Type: EntryProductIncome, Amount: 50000, Concept: "Pedido"})
	require.NoError(t, err)
	_, err = ledger.Post(ctx, Entry{Date: week1, Type: EntryExpense, Amount: 10000, Concept: "Insumos"})
	require.NoError(t, err)
	_, err = ledger.Post(ctx, Entry{Date: week2, Type: EntryProductIncome, Amount: 30000, Concept: "Pedido"})
	require.NoError(t, err)
	_, err = ledger.Post(ctx, Entry{Date: week2, Type: EntryDeliveryIncome, Amount: 3000, Concept: "Domicilio"})
	require.NoError(t, err)

	series, err := ledger.Series(ctx, Weekly)
	require.NoError(t, err)

	collect := func() (labels []string, balances []int64) {
		for period, balance := range series {
			labels = append(labels, period)
			balances = append(balances, balance)
		}
		return
	}

	labels, balances := collect()
	require.Equal(t, []string{"2026-W32", "2026-W33"}, labels)
	require.Equal(t, []int64{40000, 70000}, balances)

	// Restartable: a second pass yields the same pairs.
	labels2, balances2 := collect()
	require.Equal(t, labels, labels2)
	require.Equal(t, balances, balances2)
}

func TestIncomeByMethod(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger()

	_, err := ledger.Post(ctx, Entry{Type: EntryProductIncome, Amount: 52500, Concept: "Pedido", Method: "cash"})
	require.NoError(t, err)
	_, err = ledger.Post(ctx, Entry{Type: EntryProductIncome, Amount: 30000, Concept: "Pedido", Method: "transfer"})
	require.NoError(t, err)
	_, err = ledger.Post(ctx, Entry{Type: EntryDeliveryIncome, Amount: 3000, Concept: "Domicilio", Method: "cash"})
	require.NoError(t, err)
	_, err = ledger.Expense(ctx, time.Now(), "Empaques", 5000)
	require.NoError(t, err)

	totals, err := ledger.IncomeByMethod(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 55500, totals["cash"])
	require.EqualValues(t, 30000, totals["transfer"])
	require.Len(t, totals, 2)
}
