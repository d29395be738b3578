package cashflow

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"time"

	"github.com/redis/go-redis/v9"
)

// SeriesPoint is one materialized point of the running balance series.
type SeriesPoint struct {
	Period  string `json:"period"`
	Balance int64  `json:"balance"`
}

// SeriesCache keeps materialized series in redis so report reads do not
// rescan the ledger. Entries expire; a miss falls back to recomputing.
type SeriesCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSeriesCache constructs the cache.
func NewSeriesCache(client *redis.Client, ttl time.Duration) *SeriesCache {
	return &SeriesCache{client: client, ttl: ttl}
}

func seriesKey(granularity Granularity) string {
	return fmt.Sprintf("ventas:cashflow:series:%s", granularity)
}

// Get returns the cached series, or false on a miss or decode failure.
func (c *SeriesCache) Get(ctx context.Context, granularity Granularity) ([]SeriesPoint, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, seriesKey(granularity)).Bytes()
	if err != nil {
		return nil, false
	}
	var points []SeriesPoint
	if err := json.Unmarshal(raw, &points); err != nil {
		return nil, false
	}
	return points, true
}

// Set stores the series under the granularity key.
func (c *SeriesCache) Set(ctx context.Context, granularity Granularity, points []SeriesPoint) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(points)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, seriesKey(granularity), raw, c.ttl).Err()
}

// Materialize collects the lazy series into cacheable points.
func Materialize(series iter.Seq2[string, int64]) []SeriesPoint {
	var points []SeriesPoint
	for period, balance := range series {
		points = append(points, SeriesPoint{Period: period, Balance: balance})
	}
	return points
}
