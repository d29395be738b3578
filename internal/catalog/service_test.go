package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andicblue/ventas/internal/rowstore"
)

func TestAddAndGetProduct(t *testing.T) {
	svc := NewService(rowstore.NewMemory())
	ctx := context.Background()

	product, err := svc.Add(ctx, "Docena Arándanos 125g", 52500)
	require.NoError(t, err)
	require.NotEmpty(t, product.ID)

	got, err := svc.Get(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, "Docena Arándanos 125g", got.Name)
	require.EqualValues(t, 52500, got.UnitPrice)
}

func TestAddRejectsDuplicateName(t *testing.T) {
	svc := NewService(rowstore.NewMemory())
	ctx := context.Background()

	_, err := svc.Add(ctx, "Kilo Arándanos", 28000)
	require.NoError(t, err)

	_, err = svc.Add(ctx, "kilo arándanos", 30000)
	require.ErrorIs(t, err, ErrProductExists)

	products, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
}

func TestAddValidatesInput(t *testing.T) {
	svc := NewService(rowstore.NewMemory())
	ctx := context.Background()

	_, err := svc.Add(ctx, "  ", 1000)
	require.Error(t, err)

	_, err = svc.Add(ctx, "Bandeja 500g", 0)
	require.Error(t, err)
}

func TestGetUnknownProduct(t *testing.T) {
	svc := NewService(rowstore.NewMemory())

	_, err := svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestSeedOnlyWhenEmpty(t *testing.T) {
	svc := NewService(rowstore.NewMemory())
	ctx := context.Background()

	seed := []Product{
		{Name: "Docena Arándanos 125g", UnitPrice: 52500},
		{Name: "Canastilla Arándanos 125g", UnitPrice: 4500},
	}
	require.NoError(t, svc.Seed(ctx, seed))

	products, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)

	// A second seed must not duplicate rows.
	require.NoError(t, svc.Seed(ctx, seed))
	products, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
}
