package notify

import (
	"fmt"
	"log/slog"
	"strings"
)

// Open returns the queue named by a broker URL: memory:// for an in-process
// queue, redis:// or rediss:// for a Redis list under key.
func Open(url, key string, size int, log *slog.Logger) (Queue, error) {
	switch {
	case url == "" || strings.HasPrefix(url, "memory://"):
		return NewMemoryQueue(size, log), nil
	case strings.HasPrefix(url, "redis://"), strings.HasPrefix(url, "rediss://"):
		return &pooledRedisQueue{
			RedisQueue: NewRedisQueue(NewRedisPool(url), key, size, log),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported broker url scheme: %s", url)
	}
}

// pooledRedisQueue owns its pool and closes it with the queue.
type pooledRedisQueue struct {
	*RedisQueue
}

func (q *pooledRedisQueue) Close() error {
	if err := q.RedisQueue.Close(); err != nil {
		return err
	}
	return q.pool.Close()
}
