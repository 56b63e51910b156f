package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apptask "github.com/pharmasync/backend/internal/application/task"
	"github.com/pharmasync/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "import:task:"

// RedisStore implements the task store on Redis. Each task is one JSON
// value under import:task:<id>. Redis key TTLs take the place of the
// in-memory janitor: processing tasks keep their TTL refreshed on every
// write, terminal tasks keep whatever TTL remains and then expire.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisStore creates a RedisStore with an existing client. The ttl
// bounds how long a task stays queryable after its last update.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{
		client:    client,
		keyPrefix: defaultKeyPrefix,
		ttl:       ttl,
	}
}

// Create registers a new task.
func (s *RedisStore) Create(ctx context.Context, t *apptask.Task) error {
	now := time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	ok, err := s.client.SetNX(ctx, s.key(t.ID), payload, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("store task %s: %w", t.ID, err)
	}
	if !ok {
		return shared.ErrAlreadyExists
	}
	return nil
}

// Get returns the task with the given id, or shared.ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, id string) (*apptask.Task, error) {
	payload, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load task %s: %w", id, err)
	}
	var t apptask.Task
	if err := json.Unmarshal(payload, &t); err != nil {
		return nil, fmt.Errorf("decode task %s: %w", id, err)
	}
	return &t, nil
}

// AppendLog appends one line to the task's progress log.
func (s *RedisStore) AppendLog(ctx context.Context, id, line string) error {
	return s.update(ctx, id, func(t *apptask.Task) {
		t.Log = append(t.Log, line)
	})
}

// SetStatus transitions the task to the given status.
func (s *RedisStore) SetStatus(ctx context.Context, id string, status apptask.Status) error {
	return s.update(ctx, id, func(t *apptask.Task) {
		t.Status = status
	})
}

// SetReportPath records where the generated report file lives.
func (s *RedisStore) SetReportPath(ctx context.Context, id, path string) error {
	return s.update(ctx, id, func(t *apptask.Task) {
		t.ReportPath = path
	})
}

// update applies fn under an optimistic WATCH transaction so concurrent
// log appends from pipeline goroutines do not lose lines.
func (s *RedisStore) update(ctx context.Context, id string, fn func(*apptask.Task)) error {
	key := s.key(id)
	txn := func(tx *redis.Tx) error {
		payload, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return shared.ErrNotFound
		}
		if err != nil {
			return err
		}
		var t apptask.Task
		if err := json.Unmarshal(payload, &t); err != nil {
			return fmt.Errorf("decode task %s: %w", id, err)
		}

		fn(&t)
		t.UpdatedAt = time.Now()

		updated, err := json.Marshal(&t)
		if err != nil {
			return fmt.Errorf("marshal task %s: %w", id, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, s.ttl)
			return nil
		})
		return err
	}

	// Retry a bounded number of times on WATCH conflicts.
	for i := 0; i < 5; i++ {
		err := s.client.Watch(ctx, txn, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("update task %s: too many concurrent modifications", id)
}

func (s *RedisStore) key(id string) string {
	return s.keyPrefix + id
}

var _ apptask.Store = (*RedisStore)(nil)
