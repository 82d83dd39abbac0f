package jobs

import (
	"sort"
	"sync"

	"github.com/forgesyte/forgesyte/internal/apperrors"
)

const defaultCap = 1000

// Store is a bounded, concurrency-safe mapping from job id to Job record.
// All operations are serialized by a single mutex; critical sections are
// kept short by design.
type Store struct {
	mu      sync.Mutex
	jobs    map[string]*Job
	maxSize int
}

// NewStore constructs a Store with the given capacity. A maxSize of 0
// uses the default of 1000.
func NewStore(maxSize int) *Store {
	if maxSize <= 0 {
		maxSize = defaultCap
	}
	return &Store{jobs: make(map[string]*Job), maxSize: maxSize}
}

// Create inserts record, evicting old terminal jobs first if the store is
// at capacity. Fails if id is already present.
func (s *Store) Create(record *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[record.ID]; exists {
		return apperrors.NewWithDetails(apperrors.ErrCodeValidation, "job id already exists", record.ID)
	}

	if len(s.jobs) >= s.maxSize {
		s.evictLocked()
	}

	s.jobs[record.ID] = record
	return nil
}

// evictLocked removes the oldest 20% (minimum one) of DONE/ERROR jobs,
// ordered by created-timestamp ascending. If no eligible jobs exist, it is
// a no-op: the cap is not a hard admission limit.
func (s *Store) evictLocked() {
	var terminal []*Job
	for _, j := range s.jobs {
		if j.Status == StatusDone || j.Status == StatusError {
			terminal = append(terminal, j)
		}
	}
	if len(terminal) == 0 {
		return
	}

	sort.Slice(terminal, func(i, k int) bool { return terminal[i].Created.Before(terminal[k].Created) })

	n := len(terminal) / 5
	if n < 1 {
		n = 1
	}
	if n > len(terminal) {
		n = len(terminal)
	}
	for i := 0; i < n; i++ {
		delete(s.jobs, terminal[i].ID)
	}
}

// Update merges changes into the record for id via fn, returning the
// updated record, or nil if id is unknown.
func (s *Store) Update(id string, fn func(*Job)) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil
	}
	fn(j)
	return j.Clone()
}

// Get returns the record for id, or false if absent.
func (s *Store) Get(id string) (*Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	return j.Clone(), true
}

// List returns records matching the optional status/plugin filters,
// sorted by created-timestamp descending, truncated to limit. limit is
// clamped to [1,200].
func (s *Store) List(status Status, plugin string, limit int) []*Job {
	if limit < 1 {
		limit = 1
	}
	if limit > 200 {
		limit = 200
	}

	s.mu.Lock()
	matches := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		if status != "" && j.Status != status {
			continue
		}
		if plugin != "" && j.Plugin != plugin {
			continue
		}
		matches = append(matches, j.Clone())
	}
	s.mu.Unlock()

	sort.Slice(matches, func(i, k int) bool { return matches[i].Created.After(matches[k].Created) })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
