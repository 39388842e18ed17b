package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gomodule/redigo/redis"
)

// NewRedisPool creates a connection pool for a redis:// URL.
func NewRedisPool(url string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     5,
		IdleTimeout: 240 * time.Second,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialURLContext(ctx, url)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

// RedisQueue keeps triggers in a Redis list. Enqueue hands triggers to an
// in-process outbox and a forwarder pushes them to Redis, so a slow or absent
// broker never blocks the caller.
type RedisQueue struct {
	pool        *redis.Pool
	key         string
	outbox      chan Trigger
	pollTimeout time.Duration
	log         *slog.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewRedisQueue starts the forwarder and returns the queue. outboxSize bounds
// triggers waiting to be pushed.
func NewRedisQueue(pool *redis.Pool, key string, outboxSize int, log *slog.Logger) *RedisQueue {
	q := &RedisQueue{
		pool:        pool,
		key:         key,
		outbox:      make(chan Trigger, outboxSize),
		pollTimeout: time.Second,
		log:         log,
		done:        make(chan struct{}),
	}
	go q.forward()
	return q
}

// Enqueue hands t to the outbox without blocking.
func (q *RedisQueue) Enqueue(_ context.Context, t Trigger) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.outbox <- t:
		return nil
	default:
		return fmt.Errorf("%w: outbox capacity %d reached", ErrQueueFull, cap(q.outbox))
	}
}

func (q *RedisQueue) forward() {
	defer close(q.done)
	for t := range q.outbox {
		if err := q.push(t); err != nil {
			q.log.Error("dispatch failure",
				"trigger_id", t.ID,
				"kind", t.Kind,
				"task_id", t.TaskID,
				"error", err)
		}
	}
}

func (q *RedisQueue) push(t Trigger) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode trigger: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := q.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to get broker connection: %w", err)
	}
	defer conn.Close()

	if _, err := redis.DoContext(conn, ctx, "RPUSH", q.key, payload); err != nil {
		return fmt.Errorf("failed to push trigger: %w", err)
	}
	return nil
}

// Dequeue pops the next trigger, polling with BLPOP until one arrives.
func (q *RedisQueue) Dequeue(ctx context.Context) (Trigger, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Trigger{}, err
		}
		if q.isClosed() {
			return Trigger{}, ErrQueueClosed
		}

		t, ok, err := q.pop(ctx)
		if err != nil {
			return Trigger{}, err
		}
		if ok {
			return t, nil
		}
	}
}

func (q *RedisQueue) pop(ctx context.Context) (Trigger, bool, error) {
	conn, err := q.pool.GetContext(ctx)
	if err != nil {
		return Trigger{}, false, fmt.Errorf("failed to get broker connection: %w", err)
	}
	defer conn.Close()

	seconds := int(q.pollTimeout / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	values, err := redis.ByteSlices(redis.DoContext(conn, ctx, "BLPOP", q.key, seconds))
	if errors.Is(err, redis.ErrNil) {
		return Trigger{}, false, nil
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Trigger{}, false, ctxErr
		}
		return Trigger{}, false, fmt.Errorf("failed to pop trigger: %w", err)
	}
	if len(values) != 2 {
		return Trigger{}, false, fmt.Errorf("unexpected BLPOP reply with %d elements", len(values))
	}

	var t Trigger
	if err := json.Unmarshal(values[1], &t); err != nil {
		q.log.Error("discarding undecodable trigger", "error", err)
		return Trigger{}, false, nil
	}
	return t, true, nil
}

// Ping checks the broker connection.
func (q *RedisQueue) Ping(ctx context.Context) error {
	conn, err := q.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = redis.DoContext(conn, ctx, "PING")
	return err
}

// Close stops accepting triggers and waits for the outbox to drain.
func (q *RedisQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.outbox)
	q.mu.Unlock()

	<-q.done
	return nil
}

func (q *RedisQueue) isClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
