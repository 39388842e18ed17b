package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const (
	handleTimeout = 30 * time.Second
	retryDelay    = time.Second
)

// Worker drains a Source with a fixed number of goroutines.
type Worker struct {
	source      Source
	handler     Handler
	log         *slog.Logger
	concurrency int
}

// NewWorker creates a Worker. concurrency below one is treated as one.
func NewWorker(source Source, handler Handler, log *slog.Logger, concurrency int) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		source:      source,
		handler:     handler,
		log:         log,
		concurrency: concurrency,
	}
}

// Run blocks until ctx is done or the source is closed.
func (w *Worker) Run(ctx context.Context) {
	w.log.Info("notification worker started", "concurrency", w.concurrency)

	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.loop(ctx, id)
		}(i)
	}
	wg.Wait()

	w.log.Info("notification worker stopped")
}

func (w *Worker) loop(ctx context.Context, id int) {
	for {
		t, err := w.source.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) || ctx.Err() != nil {
				return
			}
			w.log.Error("failed to dequeue trigger", "worker", id, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryDelay):
			}
			continue
		}

		w.process(ctx, t)
	}
}

// process handles a trigger that has already left the queue. It runs detached
// from ctx cancellation so shutdown does not abort a half-sent email.
func (w *Worker) process(ctx context.Context, t Trigger) {
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), handleTimeout)
	defer cancel()

	job := Safe(w.log, string(t.Kind), func(ctx context.Context) error {
		return w.handler.Handle(ctx, t)
	})
	if job(hctx) {
		w.log.Debug("trigger handled",
			"trigger_id", t.ID,
			"kind", t.Kind,
			"task_id", t.TaskID)
	}
}
