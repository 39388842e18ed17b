package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// MemoryQueue is a buffered in-process queue. It serves single-process
// deployments and tests.
type MemoryQueue struct {
	mu       sync.RWMutex
	triggers chan Trigger
	closed   bool
	log      *slog.Logger
}

// NewMemoryQueue creates a queue holding at most size pending triggers.
func NewMemoryQueue(size int, log *slog.Logger) *MemoryQueue {
	return &MemoryQueue{
		triggers: make(chan Trigger, size),
		log:      log,
	}
}

// Enqueue adds a trigger without blocking.
func (q *MemoryQueue) Enqueue(_ context.Context, t Trigger) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.triggers <- t:
		q.log.Debug("trigger enqueued",
			"trigger_id", t.ID,
			"kind", t.Kind,
			"task_id", t.TaskID,
			"queue_len", len(q.triggers),
			"queue_cap", cap(q.triggers))
		return nil
	default:
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(q.triggers))
	}
}

// Dequeue waits for the next trigger.
func (q *MemoryQueue) Dequeue(ctx context.Context) (Trigger, error) {
	select {
	case t, ok := <-q.triggers:
		if !ok {
			return Trigger{}, ErrQueueClosed
		}
		return t, nil
	case <-ctx.Done():
		return Trigger{}, ctx.Err()
	}
}

// Ping reports whether the queue still accepts triggers.
func (q *MemoryQueue) Ping(context.Context) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	return nil
}

// Len returns the number of pending triggers.
func (q *MemoryQueue) Len() int {
	return len(q.triggers)
}

// Close stops accepting triggers. Pending triggers can still be dequeued.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.triggers)
		q.log.Info("notification queue closed")
	}
	return nil
}
