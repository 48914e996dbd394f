// Package queue moves background jobs between the API and the worker
// through a Redis list.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"roleplaychat/pkg/queue"
)

// WorldStateQueueKey is the Redis list world-state refresh jobs wait on.
const WorldStateQueueKey = "queue:worldstate"

// dequeueTimeout bounds each blocking pop so consumers notice context
// cancellation between polls.
const dequeueTimeout = 5 * time.Second

// Enqueuer is the producer side held by handlers.
type Enqueuer interface {
	EnqueueWorldState(ctx context.Context, job *queue.Job) error
}

// Client produces and consumes jobs on the Redis-backed queue.
type Client struct {
	client *redis.Client
	logger *slog.Logger
}

func NewClient(client *redis.Client, logger *slog.Logger) *Client {
	return &Client{client: client, logger: logger}
}

// EnqueueWorldState pushes a world-state refresh job onto the queue.
func (c *Client) EnqueueWorldState(ctx context.Context, job *queue.Job) error {
	data, err := job.ToJSON()
	if err != nil {
		return fmt.Errorf("serialize job: %w", err)
	}
	if err := c.client.RPush(ctx, WorldStateQueueKey, data).Err(); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}
	c.logger.Debug("enqueued job",
		"job_id", job.JobID,
		"type", job.Type,
		"conversation_id", job.ConversationID,
		"reason", job.Reason)
	return nil
}

// DequeueWorldState blocks until a job is available or ctx ends. It
// returns (nil, nil) when a poll times out without a job, so consumers
// loop on it.
func (c *Client) DequeueWorldState(ctx context.Context) (*queue.Job, error) {
	res, err := c.client.BLPop(ctx, dequeueTimeout, WorldStateQueueKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dequeue job: %w", err)
	}
	// BLPOP returns [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BLPOP reply of length %d", len(res))
	}
	job, err := queue.FromJSON([]byte(res[1]))
	if err != nil {
		return nil, fmt.Errorf("deserialize job: %w", err)
	}
	return job, nil
}

// Depth reports how many jobs are waiting.
func (c *Client) Depth(ctx context.Context) (int64, error) {
	n, err := c.client.LLen(ctx, WorldStateQueueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("queue depth: %w", err)
	}
	return n, nil
}
