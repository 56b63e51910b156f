package task

import (
	"context"
	"time"
)

// Status is the externally observable state of an upload task. A task
// moves from processing to exactly one terminal state; nothing between is
// visible beyond the append-only log.
type Status string

// Task statuses.
const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Task is the state of one background upload run: a terminal status plus
// an ordered, append-only sequence of human-readable log lines, polled by
// status queries.
type Task struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Status     Status    `json:"status"`
	Log        []string  `json:"log"`
	ReportPath string    `json:"report_path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store keeps task state keyed by id. Implementations evict terminal
// tasks after a TTL so the registry cannot grow without bound.
type Store interface {
	// Create registers a new task.
	Create(ctx context.Context, t *Task) error
	// Get returns the task with the given id, or shared.ErrNotFound.
	Get(ctx context.Context, id string) (*Task, error)
	// AppendLog appends one line to the task's progress log.
	AppendLog(ctx context.Context, id, line string) error
	// SetStatus transitions the task to the given status.
	SetStatus(ctx context.Context, id string, status Status) error
	// SetReportPath records where the generated report file lives.
	SetReportPath(ctx context.Context, id, path string) error
}
