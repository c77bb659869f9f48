package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dvloznov/bill-reconciler/internal/jobs"
)

var errMissingJobID = errors.New("job ID is required")

// Store keeps reconcile jobs in memory, indexed by job and import ID.
// Jobs do not survive a restart; the import ledger in BigQuery is the
// durable record of what was reconciled.
type Store struct {
	mu       sync.RWMutex
	byID     map[string]*jobs.ReconcileStatementJob
	byImport map[string][]string
}

func NewStore() *Store {
	return &Store{
		byID:     make(map[string]*jobs.ReconcileStatementJob),
		byImport: make(map[string][]string),
	}
}

// clone copies the job including its timestamps so callers never share
// memory with the store.
func clone(job *jobs.ReconcileStatementJob) *jobs.ReconcileStatementJob {
	c := *job
	if job.StartedAt != nil {
		t := *job.StartedAt
		c.StartedAt = &t
	}
	if job.CompletedAt != nil {
		t := *job.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

func (s *Store) SaveJob(ctx context.Context, job *jobs.ReconcileStatementJob) error {
	if job.JobID == "" {
		return errMissingJobID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists := s.byID[job.JobID]
	if exists && prev.ImportID != job.ImportID {
		s.unindex(prev)
	}
	if !exists || prev.ImportID != job.ImportID {
		s.byImport[job.ImportID] = append(s.byImport[job.ImportID], job.JobID)
	}
	s.byID[job.JobID] = clone(job)
	return nil
}

func (s *Store) unindex(job *jobs.ReconcileStatementJob) {
	ids := s.byImport[job.ImportID]
	for i, id := range ids {
		if id == job.JobID {
			s.byImport[job.ImportID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(s.byImport[job.ImportID]) == 0 {
		delete(s.byImport, job.ImportID)
	}
}

func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.ReconcileStatementJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.byID[jobID]
	if !ok {
		return nil, jobNotFound(jobID)
	}
	return clone(job), nil
}

// ListJobs returns matching jobs oldest first (ties by job ID) so offset
// pagination is stable. The result is never nil.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.ReconcileStatementJob, error) {
	s.mu.RLock()
	candidates := s.candidates(filter.ImportID)
	result := make([]*jobs.ReconcileStatementJob, 0, len(candidates))
	for _, job := range candidates {
		if filter.Status == "" || job.Status == filter.Status {
			result = append(result, clone(job))
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].JobID < result[j].JobID
	})

	if filter.Offset >= len(result) {
		return result[:0], nil
	}
	result = result[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

// candidates must be called with s.mu held.
func (s *Store) candidates(importID string) []*jobs.ReconcileStatementJob {
	if importID != "" {
		ids := s.byImport[importID]
		out := make([]*jobs.ReconcileStatementJob, 0, len(ids))
		for _, id := range ids {
			out = append(out, s.byID[id])
		}
		return out
	}
	out := make([]*jobs.ReconcileStatementJob, 0, len(s.byID))
	for _, job := range s.byID {
		out = append(out, job)
	}
	return out
}

// UpdateJobStatus sets the status and, for terminal states, the completion
// time. An empty errorMsg leaves any previous error in place.
func (s *Store) UpdateJobStatus(ctx context.Context, jobID string, status jobs.JobStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.byID[jobID]
	if !ok {
		return jobNotFound(jobID)
	}

	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}
	if (status == jobs.JobStatusCompleted || status == jobs.JobStatusFailed) && job.CompletedAt == nil {
		now := time.Now()
		job.CompletedAt = &now
	}
	return nil
}

// StatusCounts returns how many of the given jobs are in each status.
// Unknown IDs are ignored.
func (s *Store) StatusCounts(ids []string) map[jobs.JobStatus]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[jobs.JobStatus]int)
	for _, id := range ids {
		if job, ok := s.byID[id]; ok {
			counts[job.Status]++
		}
	}
	return counts
}

func jobNotFound(jobID string) error {
	return fmt.Errorf("%w: %s", jobs.ErrJobNotFound, jobID)
}

var _ jobs.JobStore = (*Store)(nil)
