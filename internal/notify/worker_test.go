package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskflow-api/internal/logger"
)

type recordingHandler struct {
	mu      sync.Mutex
	handled []uint64
}

func (h *recordingHandler) Handle(_ context.Context, t Trigger) error {
	switch t.TaskID {
	case 13:
		return errors.New("unlucky")
	case 66:
		panic("cursed")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, t.TaskID)
	return nil
}

func (h *recordingHandler) ids() []uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]uint64(nil), h.handled...)
}

func TestWorker_SurvivesFailingAndPanickingTriggers(t *testing.T) {
	q := NewMemoryQueue(10, logger.Discard())
	handler := &recordingHandler{}
	ctx := context.Background()

	for _, id := range []uint64{1, 13, 66, 2} {
		require.NoError(t, q.Enqueue(ctx, Assigned(id)))
	}
	require.NoError(t, q.Close())

	NewWorker(q, handler, logger.Discard(), 1).Run(ctx)

	assert.Equal(t, []uint64{1, 2}, handler.ids())
}

func TestWorker_StopsOnContextCancel(t *testing.T) {
	q := NewMemoryQueue(10, logger.Discard())
	handler := &recordingHandler{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		NewWorker(q, handler, logger.Discard(), 3).Run(ctx)
		close(done)
	}()

	require.NoError(t, q.Enqueue(ctx, Assigned(7)))
	require.Eventually(t, func() bool { return len(handler.ids()) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestHandlerFunc(t *testing.T) {
	var got Trigger
	h := HandlerFunc(func(_ context.Context, t Trigger) error {
		got = t
		return nil
	})
	trigger := Assigned(5)
	require.NoError(t, h.Handle(context.Background(), trigger))
	assert.Equal(t, trigger.ID, got.ID)
}
