package rowstore

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// RetryConfig bounds the backoff applied to transient store failures.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryConfig matches the documented defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 4, BaseDelay: 100 * time.Millisecond}
}

// Retrying decorates a Store with bounded retry + exponential backoff on
// transient I/O failures. Domain outcomes (not found, version conflict)
// pass through untouched; exhausted retries surface as *IOError.
type Retrying struct {
	inner Store
	cfg   RetryConfig
}

// NewRetrying wraps the given store.
func NewRetrying(inner Store, cfg RetryConfig) *Retrying {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 100 * time.Millisecond
	}
	return &Retrying{inner: inner, cfg: cfg}
}

func (s *Retrying) ReadAll(ctx context.Context, sheet string) ([]Row, error) {
	var rows []Row
	err := s.retry(ctx, func() error {
		var err error
		rows, err = s.inner.ReadAll(ctx, sheet)
		return err
	})
	return rows, err
}

func (s *Retrying) AppendRow(ctx context.Context, sheet string, row Row) (Row, error) {
	var stored Row
	err := s.retry(ctx, func() error {
		var err error
		stored, err = s.inner.AppendRow(ctx, sheet, row)
		return err
	})
	return stored, err
}

func (s *Retrying) UpdateRow(ctx context.Context, sheet, rowID string, row Row) error {
	return s.retry(ctx, func() error {
		return s.inner.UpdateRow(ctx, sheet, rowID, row)
	})
}

func (s *Retrying) retry(ctx context.Context, op func() error) error {
	var last error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		err := op()
		if err == nil || !retryable(err) {
			return err
		}
		last = err
		if attempt == s.cfg.MaxAttempts {
			break
		}
		delay := s.cfg.BaseDelay << (attempt - 1)
		delay += time.Duration(rand.Int63n(int64(s.cfg.BaseDelay)))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return &IOError{Attempts: s.cfg.MaxAttempts, Err: last}
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, ErrRowNotFound),
		errors.Is(err, ErrVersionConflict),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}
