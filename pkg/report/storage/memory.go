package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/clayv/RateGate/pkg/report"
)

// MemoryStorage implements report.Storage using an in-memory map.
// Reports do not survive the process; use it for tests and
// runs that should leave nothing behind.
type MemoryStorage struct {
	reports map[string]*report.Report
	mu      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		reports: make(map[string]*report.Report),
	}
}

// Store persists a copy of the report.
func (s *MemoryStorage) Store(ctx context.Context, r *report.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reportCopy := *r
	s.reports[r.ID] = &reportCopy
	return nil
}

// Get returns a copy of the report with the given ID.
func (s *MemoryStorage) Get(ctx context.Context, id string) (*report.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, report.NewStorageError("memory", "get", fmt.Errorf("%w: %s", report.ErrNotFound, id))
	}
	reportCopy := *r
	return &reportCopy, nil
}

// Query retrieves reports matching the query filters, newest first.
func (s *MemoryStorage) Query(ctx context.Context, query *report.Query) ([]*report.Report, error) {
	s.mu.RLock()
	results := []*report.Report{}
	for _, r := range s.reports {
		if query.Matches(r) {
			reportCopy := *r
			results = append(results, &reportCopy)
		}
	}
	s.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		if !results[i].StartedAt.Equal(results[j].StartedAt) {
			return results[i].StartedAt.After(results[j].StartedAt)
		}
		return results[i].ID < results[j].ID
	})

	if query == nil {
		return results, nil
	}

	start := query.Offset
	if start > len(results) {
		return []*report.Report{}, nil
	}
	results = results[start:]
	if query.Limit > 0 && query.Limit < len(results) {
		results = results[:query.Limit]
	}
	return results, nil
}

// Count returns the number of reports matching the query filters.
func (s *MemoryStorage) Count(ctx context.Context, query *report.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, r := range s.reports {
		if query.Matches(r) {
			count++
		}
	}
	return count, nil
}

// Delete removes reports matching the query filters.
func (s *MemoryStorage) Delete(ctx context.Context, query *report.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, r := range s.reports {
		if query.Matches(r) {
			delete(s.reports, id)
			deleted++
		}
	}
	return deleted, nil
}

// Close releases resources held by the storage backend.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reports = make(map[string]*report.Report)
	return nil
}
