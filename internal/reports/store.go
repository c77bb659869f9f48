// Package reports keeps recent reconciliation reports in memory so the API
// can serve results of asynchronous imports.
package reports

import (
	"errors"
	"time"

	"github.com/dvloznov/bill-reconciler/internal/pipeline"
	"github.com/patrickmn/go-cache"
)

// ErrNotFound is returned for unknown or expired import IDs.
var ErrNotFound = errors.New("report not found")

// Store is a TTL cache of reports keyed by import ID.
type Store struct {
	cache *cache.Cache
}

// NewStore creates a store whose entries expire after ttl.
func NewStore(ttl time.Duration) *Store {
	return &Store{cache: cache.New(ttl, 2*ttl)}
}

// Put stores or replaces the report under its import ID.
func (s *Store) Put(report *pipeline.Report) {
	s.cache.Set(report.ImportID, report, cache.DefaultExpiration)
}

// Get returns the report for importID.
func (s *Store) Get(importID string) (*pipeline.Report, error) {
	v, found := s.cache.Get(importID)
	if !found {
		return nil, ErrNotFound
	}
	return v.(*pipeline.Report), nil
}

// Len is the number of unexpired reports held.
func (s *Store) Len() int {
	return s.cache.ItemCount()
}
