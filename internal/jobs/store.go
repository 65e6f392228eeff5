// Package jobs keeps profiling jobs in memory until they expire.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/tdprofiler/internal/analysis"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Job is a snapshot of one profiling run. Result is set once the job
// completes and is never modified afterwards.
type Job struct {
	ID          string                   `json:"job_id"`
	Status      Status                   `json:"status"`
	Filename    string                   `json:"filename"`
	SizeBytes   int64                    `json:"file_size_bytes"`
	CreatedAt   time.Time                `json:"created_at"`
	CompletedAt *time.Time               `json:"completed_at,omitempty"`
	Error       string                   `json:"error,omitempty"`
	Result      *analysis.DatasetProfile `json:"result"`
}

// DefaultTTL is how long a job is retained after creation.
const DefaultTTL = time.Hour

// Store is a mutex guarded job table. The zero value is not usable; call
// NewStore.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	ttl  time.Duration
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore returns an empty store. A non-positive ttl selects DefaultTTL.
func NewStore(ttl time.Duration, opts ...Option) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{jobs: make(map[string]*Job), ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// TTL returns the retention period.
func (s *Store) TTL() time.Duration { return s.ttl }

// Create registers a new processing job.
func (s *Store) Create(filename string, size int64) Job {
	j := &Job{
		ID:        uuid.NewString(),
		Status:    StatusProcessing,
		Filename:  filename,
		SizeBytes: size,
		CreatedAt: s.now(),
	}
	s.mu.Lock()
	s.jobs[j.ID] = j
	s.mu.Unlock()
	return *j
}

// Complete stores the profile of a finished job. It reports false when the
// job is unknown or already finished.
func (s *Store) Complete(id string, p *analysis.DatasetProfile) bool {
	return s.finish(id, func(j *Job) {
		j.Status = StatusCompleted
		j.Result = p
	})
}

// Fail marks a job failed with the error text.
func (s *Store) Fail(id string, err error) bool {
	return s.finish(id, func(j *Job) {
		j.Status = StatusFailed
		if err != nil {
			j.Error = err.Error()
		}
	})
}

func (s *Store) finish(id string, apply func(*Job)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok || j.Status != StatusProcessing {
		return false
	}
	now := s.now()
	apply(j)
	j.CompletedAt = &now
	return true
}

// Get returns a copy of the job. Expired jobs are reported missing.
func (s *Store) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok || s.expired(j, s.now()) {
		return Job{}, false
	}
	return *j, true
}

// Len returns the number of stored jobs, expired ones included until swept.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

func (s *Store) expired(j *Job, now time.Time) bool {
	return now.Sub(j.CreatedAt) >= s.ttl
}

// Sweep deletes jobs expired at now and returns how many were removed.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, j := range s.jobs {
		if s.expired(j, now) {
			delete(s.jobs, id)
			n++
		}
	}
	return n
}

// Run sweeps expired jobs every interval until ctx is done. onSweep, when
// not nil, receives the number of removed jobs after each non-empty sweep.
func (s *Store) Run(ctx context.Context, interval time.Duration, onSweep func(int)) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sweep(s.now()); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}
