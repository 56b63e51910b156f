package task

import (
	"context"
	"sync"
	"time"

	"github.com/pharmasync/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// MemoryStore is an in-process Store. A background janitor evicts tasks
// whose last update is older than the TTL, so a long-lived process does
// not accumulate finished tasks forever.
type MemoryStore struct {
	mu     sync.RWMutex
	tasks  map[string]*Task
	ttl    time.Duration
	logger *zap.Logger
	stop   chan struct{}
	once   sync.Once
}

// NewMemoryStore creates a MemoryStore and starts its eviction janitor.
// Call Close to stop the janitor.
func NewMemoryStore(ttl time.Duration, logger *zap.Logger) *MemoryStore {
	s := &MemoryStore{
		tasks:  make(map[string]*Task),
		ttl:    ttl,
		logger: logger,
		stop:   make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Create registers a new task.
func (s *MemoryStore) Create(_ context.Context, t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[t.ID]; ok {
		return shared.ErrAlreadyExists
	}
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	s.tasks[t.ID] = t
	return nil
}

// Get returns a copy of the task with the given id.
func (s *MemoryStore) Get(_ context.Context, id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *t
	clone.Log = append([]string(nil), t.Log...)
	return &clone, nil
}

// AppendLog appends one line to the task's progress log.
func (s *MemoryStore) AppendLog(_ context.Context, id, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return shared.ErrNotFound
	}
	t.Log = append(t.Log, line)
	t.UpdatedAt = time.Now()
	return nil
}

// SetStatus transitions the task to the given status.
func (s *MemoryStore) SetStatus(_ context.Context, id string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return shared.ErrNotFound
	}
	t.Status = status
	t.UpdatedAt = time.Now()
	return nil
}

// SetReportPath records where the generated report file lives.
func (s *MemoryStore) SetReportPath(_ context.Context, id, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return shared.ErrNotFound
	}
	t.ReportPath = path
	t.UpdatedAt = time.Now()
	return nil
}

// Close stops the eviction janitor.
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *MemoryStore) janitor() {
	interval := s.ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.evictExpired()
		}
	}
}

func (s *MemoryStore) evictExpired() {
	cutoff := time.Now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.tasks {
		// Only terminal tasks expire; a stuck processing task stays
		// visible so its status can still be inspected.
		if t.Status == StatusProcessing {
			continue
		}
		if t.UpdatedAt.Before(cutoff) {
			delete(s.tasks, id)
			s.logger.Debug("evicted expired task", zap.String("task_id", id))
		}
	}
}

var _ Store = (*MemoryStore)(nil)
