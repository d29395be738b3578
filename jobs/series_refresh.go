package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/andicblue/ventas/internal/cashflow"
)

// SeriesRefreshJob recomputes a balance series and stores it in the redis
// cache that report reads consult.
type SeriesRefreshJob struct {
	ledger *cashflow.Ledger
	cache  *cashflow.SeriesCache
	logger *slog.Logger
}

// NewSeriesRefreshJob constructs the job.
func NewSeriesRefreshJob(ledger *cashflow.Ledger, cache *cashflow.SeriesCache, logger *slog.Logger) *SeriesRefreshJob {
	return &SeriesRefreshJob{ledger: ledger, cache: cache, logger: logger}
}

// Handle processes TaskTypeSeriesRefresh tasks.
func (j *SeriesRefreshJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SeriesRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	granularity := cashflow.Granularity(payload.Granularity)
	if granularity == "" {
		granularity = cashflow.Weekly
	}
	seq, err := j.ledger.Series(ctx, granularity)
	if err != nil {
		return err
	}
	points := cashflow.Materialize(seq)
	if err := j.cache.Set(ctx, granularity, points); err != nil {
		return err
	}
	j.logger.Info("series cache refreshed",
		slog.String("granularity", string(granularity)),
		slog.Int("points", len(points)))
	return nil
}
