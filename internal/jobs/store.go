// Package jobs holds the core job engine: the in-memory store, the derived
// progress computation, and the manager that owns job lifecycles.
package jobs

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/banksythequantLab/songtov/internal/db/models"
)

// Store is the in-memory job store. It is the only state shared across
// jobs; all mutations go through Update, which serializes writes per store
// and recomputes the derived progress after every mutation. Reads return
// deep copies, so callers never observe a job mid-mutation.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
}

// NewStore creates an empty job store
func NewStore() *Store {
	return &Store{jobs: make(map[string]*models.Job)}
}

// Create inserts a new job. It fails if the identifier is already taken.
func (s *Store) Create(job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("%w: %s", ErrJobExists, job.ID)
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

// Get returns a snapshot of the job with the given identifier.
func (s *Store) Get(id string) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return job.Clone(), nil
}

// Update applies mutate to the stored job under the store lock, then
// refreshes the derived progress and the update timestamp. This is the
// single push point for progress: OverallProgress only ever changes here,
// and only upward.
//
// The updated snapshot is returned.
func (s *Store) Update(id string, mutate func(*models.Job) error) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}

	if err := mutate(job); err != nil {
		return nil, err
	}

	if p := ComputeProgress(job); p > job.OverallProgress {
		job.OverallProgress = p
	}
	job.UpdatedAt = time.Now().UTC()

	return job.Clone(), nil
}

// List returns job snapshots, newest first, optionally filtered by status.
// An empty status matches all jobs.
func (s *Store) List(status models.JobStatus, limit, offset int) []*models.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if status != "" && job.Status != status {
			continue
		}
		matched = append(matched, job)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if offset >= len(matched) {
		return nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	out := make([]*models.Job, len(matched))
	for i, job := range matched {
		out[i] = job.Clone()
	}
	return out
}
