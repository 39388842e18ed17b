// Package notify carries task events from the API to the email worker.
//
// The API side only sees Sink. The worker side reads from a Source, runs every
// trigger through Safe and hands it to a Handler. Delivery is at most once from
// the API's point of view and at least once from the worker's: a trigger that
// is dequeued twice produces two emails.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/taskflow-api/internal/models"
)

var (
	ErrQueueClosed = errors.New("notification queue is closed")
	ErrQueueFull   = errors.New("notification queue is full")
)

// Kind names a notification trigger.
type Kind string

const (
	KindAssigned      Kind = "assigned"
	KindStatusChanged Kind = "status_changed"
)

// Trigger is a unit of notification work. It carries ids only; the worker
// resolves the current rows when it handles the trigger.
type Trigger struct {
	ID         uuid.UUID         `json:"id"`
	Kind       Kind              `json:"kind"`
	TaskID     uint64            `json:"task_id"`
	OldStatus  models.TaskStatus `json:"old_status,omitempty"`
	NewStatus  models.TaskStatus `json:"new_status,omitempty"`
	EnqueuedAt time.Time         `json:"enqueued_at"`
}

// Assigned builds the trigger emitted when a task gets an assignee.
func Assigned(taskID uint64) Trigger {
	return Trigger{
		ID:         uuid.New(),
		Kind:       KindAssigned,
		TaskID:     taskID,
		EnqueuedAt: time.Now().UTC(),
	}
}

// StatusChanged builds the trigger emitted when a task's status changes.
func StatusChanged(taskID uint64, oldStatus, newStatus models.TaskStatus) Trigger {
	return Trigger{
		ID:         uuid.New(),
		Kind:       KindStatusChanged,
		TaskID:     taskID,
		OldStatus:  oldStatus,
		NewStatus:  newStatus,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Sink accepts triggers without waiting on delivery.
type Sink interface {
	Enqueue(ctx context.Context, t Trigger) error
}

// Source hands out triggers to workers. Dequeue blocks until a trigger is
// available, ctx is done or the source is closed (ErrQueueClosed).
type Source interface {
	Dequeue(ctx context.Context) (Trigger, error)
}

// Queue is a broker both sides can use.
type Queue interface {
	Sink
	Source
	Ping(ctx context.Context) error
	Close() error
}

// Handler processes one trigger.
type Handler interface {
	Handle(ctx context.Context, t Trigger) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, t Trigger) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, t Trigger) error {
	return f(ctx, t)
}
