package rowstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Store used by tests and local development.
type Memory struct {
	mu     sync.Mutex
	sheets map[string][]Row
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{sheets: make(map[string][]Row)}
}

func (s *Memory) ReadAll(_ context.Context, sheet string) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.sheets[sheet]
	out := make([]Row, len(rows))
	for i, row := range rows {
		out[i] = row.Clone()
	}
	return out, nil
}

func (s *Memory) AppendRow(_ context.Context, sheet string, row Row) (Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	for _, existing := range s.sheets[sheet] {
		if existing.ID == row.ID {
			return existing.Clone(), nil
		}
	}
	row.Version = 1
	s.sheets[sheet] = append(s.sheets[sheet], row.Clone())
	return row, nil
}

func (s *Memory) UpdateRow(_ context.Context, sheet, rowID string, row Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.sheets[sheet]
	for i, existing := range rows {
		if existing.ID != rowID {
			continue
		}
		if existing.Version != row.Version {
			return ErrVersionConflict
		}
		updated := row.Clone()
		updated.ID = rowID
		updated.Version = existing.Version + 1
		rows[i] = updated
		return nil
	}
	return ErrRowNotFound
}
