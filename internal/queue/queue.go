// Package queue implements the abstract FIFO spec §4.3 describes, on
// top of Redis lists. Two named queues: usage_events (primary) and
// dead_letter_events (terminal).
package queue

import (
	"context"
	"time"

	"github.com/flexprice/flexprice/internal/redisclient"
	"github.com/redis/go-redis/v9"
)

const (
	UsageEventsQueue     = "usage_events"
	DeadLetterEventsQueue = "dead_letter_events"
)

// Queue is the abstract FIFO contract (§4.3).
type Queue interface {
	Push(ctx context.Context, queue string, payload []byte) error
	PopBlocking(ctx context.Context, queues []string, timeout time.Duration) (queueName string, payload []byte, ok bool, err error)
	PopNoWait(ctx context.Context, queue string) (payload []byte, ok bool, err error)
	Pipeline(ctx context.Context, queue string, payloads [][]byte) error
	Len(ctx context.Context, queue string) (int64, error)
}

// RedisQueue is grounded on brokle-ai-brokle's RedisDB wrapper: a
// single shared *redis.Client, context-scoped calls, no extra pooling
// beyond what go-redis already does.
type RedisQueue struct {
	client *redisclient.Client
}

func New(client *redisclient.Client) Queue {
	return &RedisQueue{client: client}
}

func (q *RedisQueue) Push(ctx context.Context, queue string, payload []byte) error {
	return q.client.LPush(ctx, queue, payload).Err()
}

func (q *RedisQueue) PopBlocking(ctx context.Context, queues []string, timeout time.Duration) (string, []byte, bool, error) {
	result, err := q.client.BRPop(ctx, timeout, queues...).Result()
	if err == redis.Nil {
		return "", nil, false, nil
	}
	if err != nil {
		return "", nil, false, err
	}
	// BRPOP returns [queue, value]
	return result[0], []byte(result[1]), true, nil
}

func (q *RedisQueue) PopNoWait(ctx context.Context, queue string) ([]byte, bool, error) {
	val, err := q.client.RPop(ctx, queue).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(val), true, nil
}

func (q *RedisQueue) Pipeline(ctx context.Context, queue string, payloads [][]byte) error {
	pipe := q.client.Pipeline()
	for _, p := range payloads {
		pipe.LPush(ctx, queue, p)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (q *RedisQueue) Len(ctx context.Context, queue string) (int64, error) {
	return q.client.LLen(ctx, queue).Result()
}
