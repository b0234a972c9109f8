package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mercadito-erp/mercadito-erp/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDebtsOverdueSweep stamps pending debts whose due date passed.
	TaskDebtsOverdueSweep = "debts:overdue_sweep"
)

// OverdueSweepPayload parameterises one sweep run.
type OverdueSweepPayload struct {
	// AsOf overrides the reference time; zero means now.
	AsOf time.Time `json:"asOf"`
}

// NewOverdueSweepTask constructs an Asynq task.
func NewOverdueSweepTask(payload OverdueSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDebtsOverdueSweep, data), nil
}

// OverdueSweepJob marks overdue debts for reporting. The stored status stays
// pending; only overdue_at is stamped, so paying an overdue debt needs no
// special casing.
type OverdueSweepJob struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewOverdueSweepJob builds the job.
func NewOverdueSweepJob(pool *pgxpool.Pool, logger *slog.Logger) *OverdueSweepJob {
	return &OverdueSweepJob{pool: pool, logger: logger}
}

// Handle processes TaskDebtsOverdueSweep tasks.
func (j *OverdueSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload OverdueSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	asOf := payload.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	tag, err := j.pool.Exec(ctx, `
		UPDATE debts
		SET overdue_at = $1
		WHERE status = 'pendiente'
		  AND due_date IS NOT NULL
		  AND due_date < $1
		  AND overdue_at IS NULL`, asOf)
	if err != nil {
		return err
	}
	if j.logger != nil {
		j.logger.Info("overdue sweep",
			slog.Time("as_of", asOf),
			slog.Int64("stamped", tag.RowsAffected()))
	}
	return nil
}

// TaskIdempotencyCleanup prunes old idempotency keys.
const TaskIdempotencyCleanup = "maintenance:idempotency_cleanup"

// IdempotencyCleanupPayload parameterises the retention window.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retentionHours"`
}

// NewIdempotencyCleanupTask constructs an Asynq task.
func NewIdempotencyCleanupTask(payload IdempotencyCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}

// IdempotencyCleanupJob removes processed payment keys past retention.
type IdempotencyCleanupJob struct {
	store  *shared.IdempotencyStore
	logger *slog.Logger
}

// NewIdempotencyCleanupJob builds the job.
func NewIdempotencyCleanupJob(store *shared.IdempotencyStore, logger *slog.Logger) *IdempotencyCleanupJob {
	return &IdempotencyCleanupJob{store: store, logger: logger}
}

// Handle processes TaskIdempotencyCleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload IdempotencyCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	retention := time.Duration(payload.RetentionHours) * time.Hour
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	if err := j.store.Cleanup(ctx, retention); err != nil {
		return err
	}
	if j.logger != nil {
		j.logger.Info("idempotency cleanup", slog.Duration("retention", retention))
	}
	return nil
}
