package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPurgeRevocations removes revocation records whose token has expired.
	TaskPurgeRevocations = "auth:revocations:purge"
)

// PurgeRevocationsPayload optionally pins the purge cut-off. A zero Before
// means "now" at execution time.
type PurgeRevocationsPayload struct {
	Before time.Time `json:"before,omitzero"`
}

// NewPurgeRevocationsTask constructs an Asynq task.
func NewPurgeRevocationsTask(payload PurgeRevocationsPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPurgeRevocations, data, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}
