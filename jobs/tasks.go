package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSeriesRefresh recomputes and caches a balance series.
	TaskTypeSeriesRefresh = "cashflow:series:refresh"
)

// SeriesRefreshPayload selects the series to recompute.
type SeriesRefreshPayload struct {
	Granularity string `json:"granularity"`
}

// NewSeriesRefreshTask constructs an Asynq task.
func NewSeriesRefreshTask(granularity string) (*asynq.Task, error) {
	data, err := json.Marshal(SeriesRefreshPayload{Granularity: granularity})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSeriesRefresh, data), nil
}
