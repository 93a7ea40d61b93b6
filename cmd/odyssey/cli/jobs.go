package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-auth/internal/app"
	"github.com/odyssey-erp/odyssey-auth/jobs"
)

// PurgeEnqueuer is the subset of *jobs.Client used by the jobs helpers.
type PurgeEnqueuer interface {
	EnqueuePurgeRevocations(ctx context.Context, payload jobs.PurgeRevocationsPayload) (*asynq.TaskInfo, error)
	Close() error
}

// QueueInspector extends jobs.QueueInspector with resource cleanup.
type QueueInspector interface {
	jobs.QueueInspector
	Close() error
}

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    PurgeEnqueuer
	inspector QueueInspector
}

// NewJobsCLI connects the enqueue and inspect helpers to one Redis endpoint.
func NewJobsCLI(opts asynq.RedisClientOpt) *JobsCLI {
	return &JobsCLI{client: jobs.NewClient(opts), inspector: asynq.NewInspector(opts)}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var errs []error
	if c.inspector != nil {
		errs = append(errs, c.inspector.Close())
	}
	if c.client != nil {
		errs = append(errs, c.client.Close())
	}
	return errors.Join(errs...)
}

// PurgeOptions defines the flags of the jobs purge-revocations command.
type PurgeOptions struct {
	Before string
	// Backend is the configured REVOCATION_BACKEND.
	Backend string
	Stdout  io.Writer
	Stderr  io.Writer
}

// PurgeCommand enqueues a revocation purge and prints the task id.
func (c *JobsCLI) PurgeCommand(ctx context.Context, opts PurgeOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if c == nil || c.client == nil {
		_, _ = fmt.Fprintln(opts.Stderr, "jobs purge-revocations: client not configured")
		return 1
	}
	if !app.RevocationPurgeEnabled(opts.Backend) {
		_, _ = fmt.Fprintf(opts.Stderr, "jobs purge-revocations: revocation backend %q expires records itself; nothing to purge\n", opts.Backend)
		return 1
	}
	var payload jobs.PurgeRevocationsPayload
	if opts.Before != "" {
		before, err := time.Parse(time.RFC3339, opts.Before)
		if err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "jobs purge-revocations: invalid --before %q (expected RFC3339)\n", opts.Before)
			return 1
		}
		if before.After(time.Now()) {
			_, _ = fmt.Fprintf(opts.Stderr, "jobs purge-revocations: --before %q is in the future\n", opts.Before)
			return 1
		}
		payload.Before = before.UTC()
	}
	info, err := c.client.EnqueuePurgeRevocations(ctx, payload)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "jobs purge-revocations: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(opts.Stdout, "enqueued %s on queue %s\n", info.ID, info.Queue)
	return 0
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
}

// InspectQueue reports the queue metrics for the default queue.
func (c *JobsCLI) InspectQueue() (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
	}
	return stats, nil
}

// StatsCommand prints queue statistics in a single line.
func (c *JobsCLI) StatsCommand(out, errOut io.Writer) int {
	stats, err := c.InspectQueue()
	if err != nil {
		_, _ = fmt.Fprintf(errOut, "jobs stats: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(out, "queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
		stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
	return 0
}
