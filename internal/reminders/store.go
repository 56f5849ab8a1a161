package reminders

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Store keeps reminder jobs in memory and is safe for concurrent use. It
// hands out copies so callers cannot change stored jobs.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]*Job)}
}

// Create saves job unless a job with its ID exists. It reports whether the
// job was saved.
func (s *Store) Create(ctx context.Context, job *Job) (bool, error) {
	if job.ID == "" {
		return false, fmt.Errorf("Create: job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return false, nil
	}
	cp := *job
	s.jobs[job.ID] = &cp
	return true, nil
}

// Save inserts or replaces job.
func (s *Store) Save(ctx context.Context, job *Job) error {
	if job.ID == "" {
		return fmt.Errorf("Save: job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

// Get returns the job with id.
func (s *Store) Get(ctx context.Context, id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("Get %s: %w", id, ErrNotFound)
	}
	return *job, nil
}

// List returns the jobs matching f, newest due date first.
func (s *Store) List(ctx context.Context, f Filter) []Job {
	s.mu.RLock()
	out := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if f.OwnerID != "" && job.OwnerID != f.OwnerID {
			continue
		}
		if f.Status != "" && job.Status != f.Status {
			continue
		}
		out = append(out, *job)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b Job) int {
		switch {
		case a.DueDate.After(b.DueDate):
			return -1
		case a.DueDate.Before(b.DueDate):
			return 1
		}
		return strings.Compare(a.ID, b.ID)
	})

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []Job{}
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out
}
