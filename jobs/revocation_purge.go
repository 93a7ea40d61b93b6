package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-auth/internal/jobs"
)

// RevocationPurger deletes revocation records expiring at or before a cut-off.
type RevocationPurger interface {
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// RevocationPurgeJob garbage-collects the PostgreSQL revocation ledger.
type RevocationPurgeJob struct {
	Purger  RevocationPurger
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewRevocationPurgeJob constructs the job handler.
func NewRevocationPurgeJob(purger RevocationPurger, logger *slog.Logger, metrics *jobmetrics.Metrics) *RevocationPurgeJob {
	return &RevocationPurgeJob{
		Purger:  purger,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the purge.
func (j *RevocationPurgeJob) Handle(ctx context.Context, task *asynq.Task) (err error) {
	if j == nil || j.Purger == nil {
		return errors.New("revocation purge: purger not configured")
	}
	var payload PurgeRevocationsPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	// Records for unexpired tokens must survive, so the cut-off never
	// passes the current time.
	now := j.clock()
	before := payload.Before
	if before.IsZero() || before.After(now) {
		before = now
	}

	tracker := j.Metrics.Track(TaskPurgeRevocations)
	defer func() {
		err = tracker.End(err)
	}()

	purged, err := j.Purger.PurgeExpired(ctx, before)
	if err != nil {
		j.log().Error("purge revocations", slog.Time("before", before), slog.Any("error", err))
		return err
	}
	j.Metrics.AddProcessed(TaskPurgeRevocations, purged)
	j.log().Info("purged revocation records", slog.Int64("purged", purged), slog.Time("before", before))
	return nil
}

func (j *RevocationPurgeJob) log() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
