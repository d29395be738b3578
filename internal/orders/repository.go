package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/andicblue/ventas/internal/rowstore"
	"github.com/andicblue/ventas/internal/shared"
)

// Repository maps orders onto the orders sheet.
type Repository struct {
	store rowstore.Store
}

// NewRepository constructs the repository.
func NewRepository(store rowstore.Store) *Repository {
	return &Repository{store: store}
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Status       Status
	DeliveryWeek int
}

// Append persists a new order and returns it with its assigned id.
func (r *Repository) Append(ctx context.Context, order Order) (Order, error) {
	lines, err := json.Marshal(order.Lines)
	if err != nil {
		return Order{}, fmt.Errorf("orders: encode lines: %w", err)
	}
	row := rowstore.NewRow().
		Set("customer_id", order.CustomerID).
		Set("customer_name", order.CustomerName).
		Set("lines", string(lines)).
		SetInt64("product_total", order.ProductTotal).
		SetInt64("delivery_fee", order.DeliveryFee).
		SetInt64("grand_total", order.GrandTotal).
		Set("payment_method", string(order.PaymentMethod)).
		SetInt64("amount_paid", order.AmountPaid).
		SetInt64("outstanding", order.Outstanding).
		Set("status", string(order.Status)).
		SetInt64("delivery_week", int64(order.DeliveryWeek)).
		Set("created_by", order.CreatedBy).
		Set("created_at", order.CreatedAt.UTC().Format(time.RFC3339))
	row.ID = order.ID
	stored, err := r.store.AppendRow(ctx, rowstore.SheetOrders, row)
	if err != nil {
		return Order{}, err
	}
	order.ID = stored.ID
	return order, nil
}

// Get returns one order by id.
func (r *Repository) Get(ctx context.Context, id string) (Order, error) {
	row, err := r.findRow(ctx, id)
	if err != nil {
		return Order{}, err
	}
	return fromRow(row)
}

// List returns orders matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Order, error) {
	rows, err := r.store.ReadAll(ctx, rowstore.SheetOrders)
	if err != nil {
		return nil, err
	}
	out := make([]Order, 0, len(rows))
	for _, row := range rows {
		order, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		if filter.DeliveryWeek != 0 && order.DeliveryWeek != filter.DeliveryWeek {
			continue
		}
		out = append(out, order)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// mutate re-reads the order row, applies fn and commits with a bounded
// compare-and-swap loop.
func (r *Repository) mutate(ctx context.Context, id string, fn func(*Order) error) (Order, error) {
	const attempts = 3
	var lastErr error
	for i := 0; i < attempts; i++ {
		row, err := r.findRow(ctx, id)
		if err != nil {
			return Order{}, err
		}
		order, err := fromRow(row)
		if err != nil {
			return Order{}, err
		}
		if err := fn(&order); err != nil {
			return Order{}, err
		}
		updated := row.Clone().
			SetInt64("amount_paid", order.AmountPaid).
			SetInt64("outstanding", order.Outstanding).
			Set("status", string(order.Status))
		err = r.store.UpdateRow(ctx, rowstore.SheetOrders, id, updated)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, rowstore.ErrVersionConflict) {
			return Order{}, err
		}
		lastErr = err
	}
	return Order{}, fmt.Errorf("orders: update %s: %w", id, lastErr)
}

func (r *Repository) findRow(ctx context.Context, id string) (rowstore.Row, error) {
	rows, err := r.store.ReadAll(ctx, rowstore.SheetOrders)
	if err != nil {
		return rowstore.Row{}, err
	}
	for _, row := range rows {
		if row.ID == id {
			return row, nil
		}
	}
	return rowstore.Row{}, shared.ErrNotFound
}

func fromRow(row rowstore.Row) (Order, error) {
	var lines []Line
	if raw := row.Get("lines"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &lines); err != nil {
			return Order{}, fmt.Errorf("orders: decode lines of %s: %w", row.ID, err)
		}
	}
	createdAt, _ := time.Parse(time.RFC3339, row.Get("created_at"))
	return Order{
		ID:            row.ID,
		CustomerID:    row.Get("customer_id"),
		CustomerName:  row.Get("customer_name"),
		Lines:         lines,
		ProductTotal:  row.Int64("product_total"),
		DeliveryFee:   row.Int64("delivery_fee"),
		GrandTotal:    row.Int64("grand_total"),
		PaymentMethod: PaymentMethod(row.Get("payment_method")),
		AmountPaid:    row.Int64("amount_paid"),
		Outstanding:   row.Int64("outstanding"),
		Status:        Status(row.Get("status")),
		DeliveryWeek:  int(row.Int64("delivery_week")),
		CreatedBy:     row.Get("created_by"),
		CreatedAt:     createdAt,
	}, nil
}
