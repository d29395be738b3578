package jobs

import (
	"context"
	"log/slog"
)

// OrderNotifier bridges confirmed orders to the background queue. A
// confirmed order changes the balance series, so the cached copy is
// refreshed out of band. Enqueue failures are logged and swallowed; the
// booked order must not depend on the queue.
type OrderNotifier struct {
	client *Client
	logger *slog.Logger
}

// NewOrderNotifier constructs the notifier.
func NewOrderNotifier(client *Client, logger *slog.Logger) *OrderNotifier {
	return &OrderNotifier{client: client, logger: logger}
}

// OrderConfirmed enqueues a weekly series refresh.
func (n *OrderNotifier) OrderConfirmed(ctx context.Context, orderID string) {
	if n == nil || n.client == nil {
		return
	}
	if _, err := n.client.EnqueueSeriesRefresh(ctx, "week"); err != nil {
		n.logger.Warn("enqueue series refresh",
			slog.String("order_id", orderID),
			slog.Any("error", err))
	}
}
