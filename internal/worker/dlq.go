package worker

// Jobs that exhaust their retries land in a dead letter list so an operator
// can inspect or replay them. One Redis list per source queue: dlq:{queue}.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

// DLQEntry is the stored form of a dead-lettered job.
type DLQEntry struct {
	Queue    string          `json:"queue"`
	JobType  string          `json:"job_type"`
	Payload  json.RawMessage `json:"payload"`
	Reason   string          `json:"reason"`
	Attempts int             `json:"attempts"`
	FailedAt time.Time       `json:"failed_at"`
}

// SendToDLQ moves a job that exceeded maxJobAttempts into the dead letter
// list for its queue. Push failures are logged, not returned; by this point
// the job has already been dropped from the live queue.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue string, job Job, reason string) {
	entry := DLQEntry{
		Queue:    queue,
		JobType:  job.Type,
		Payload:  job.Payload,
		Reason:   reason,
		Attempts: job.Attempts,
		FailedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: marshal entry failed")
		return
	}
	if err := rdb.LPush(ctx, DLQPrefix+queue, data).Err(); err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: push failed")
		return
	}

	log.Warn().
		Str("queue", queue).
		Str("job_type", job.Type).
		Str("reason", reason).
		Int("attempts", job.Attempts).
		Msg("dlq: job dead-lettered")
}

// DLQLength reports how many entries sit in a queue's dead letter list.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}
