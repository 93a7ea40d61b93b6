package jobs

import (
	"context"

	"github.com/hibiken/asynq"
)

// Client submits tasks to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueuePurgeRevocations enqueues an immediate revocation purge.
func (c *Client) EnqueuePurgeRevocations(ctx context.Context, payload PurgeRevocationsPayload) (*asynq.TaskInfo, error) {
	task, err := NewPurgeRevocationsTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task)
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
