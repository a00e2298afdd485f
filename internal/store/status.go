// Package store keeps job status for the HTTP service.
package store

import (
	"context"
	"sync"
	"time"
)

// Job states.
const (
	StateQueued     = "queued"
	StateProcessing = "processing"
	StateCompleted  = "completed"
	StateFailed     = "failed"
)

// Status is the recorded state of one conversion job.
type Status struct {
	Status   string         `json:"status"`
	Progress int            `json:"progress"`
	Message  string         `json:"message"`
	Input    string         `json:"input,omitempty"`
	Output   string         `json:"output,omitempty"`
	Start    *time.Time     `json:"start_time,omitempty"`
	End      *time.Time     `json:"end_time,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Done reports whether the job reached a terminal state.
func (s Status) Done() bool { return s.Status == StateCompleted || s.Status == StateFailed }

// StatusStore persists job status by job id.
type StatusStore interface {
	Set(ctx context.Context, jobID string, st Status) error
	Get(ctx context.Context, jobID string) (Status, bool, error)
	Close() error
}

// MemoryStatus is an in-process StatusStore. Entries older than ttl are
// dropped on access.
type MemoryStatus struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	status  Status
	updated time.Time
}

// NewMemoryStatus returns an empty store. A zero ttl keeps entries forever.
func NewMemoryStatus(ttl time.Duration) *MemoryStatus {
	return &MemoryStatus{ttl: ttl, entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStatus) Set(_ context.Context, jobID string, st Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[jobID] = memoryEntry{status: st, updated: s.now()}
	return nil
}

func (s *MemoryStatus) Get(_ context.Context, jobID string) (Status, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[jobID]
	s.mu.RUnlock()
	if !ok {
		return Status{}, false, nil
	}
	if s.ttl > 0 && s.now().Sub(e.updated) > s.ttl {
		s.mu.Lock()
		delete(s.entries, jobID)
		s.mu.Unlock()
		return Status{}, false, nil
	}
	return e.status, true, nil
}

func (s *MemoryStatus) Close() error { return nil }
