package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"framestash/internal/logging"
	"framestash/internal/queue"
	"framestash/internal/services"
)

// JobStore is the slice of queue.Store the worker drives.
type JobStore interface {
	NextPending(ctx context.Context) (*queue.Job, error)
	MarkRunning(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, message string) error
	MarkPending(ctx context.Context, id int64) error
	Remove(ctx context.Context, ids ...int64) (int64, error)
	ResetRunning(ctx context.Context) (int64, error)
}

// Processor runs a single job.
type Processor interface {
	Process(ctx context.Context, job *queue.Job) error
}

// Summary reports what a worker run did.
type Summary struct {
	RunID     string
	Completed int
	Failed    int
}

// Worker consumes pending jobs one at a time.
type Worker struct {
	store     JobStore
	processor Processor
	logger    *slog.Logger
}

// NewWorker constructs a worker over store.
func NewWorker(store JobStore, processor Processor, logger *slog.Logger) *Worker {
	return &Worker{
		store:     store,
		processor: processor,
		logger:    logging.NewComponentLogger(logger, "worker"),
	}
}

// RunPending drains the pending list, oldest first. A failing job is marked
// failed and the worker moves on; cancellation stops the run.
func (w *Worker) RunPending(ctx context.Context) (Summary, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	summary := Summary{RunID: runID}
	logger := logging.WithContext(ctx, w.logger)

	if reset, err := w.store.ResetRunning(ctx); err != nil {
		return summary, err
	} else if reset > 0 {
		logger.Warn("jobs left running by an earlier worker returned to pending", logging.Int64("count", reset))
	}

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		job, err := w.store.NextPending(ctx)
		if err != nil {
			return summary, err
		}
		if job == nil {
			logger.Info("queue drained",
				logging.Int("completed", summary.Completed),
				logging.Int("failed", summary.Failed),
			)
			return summary, nil
		}
		if err := w.run(ctx, job); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return summary, err
			}
			summary.Failed++
			continue
		}
		summary.Completed++
	}
}

// RunJob processes one specific job immediately.
func (w *Worker) RunJob(ctx context.Context, job *queue.Job) error {
	if job == nil {
		return services.Wrap(services.ErrValidation, "worker", "run job", "job is nil", nil)
	}
	ctx = services.WithRunID(ctx, uuid.NewString())
	return w.run(ctx, job)
}

func (w *Worker) run(ctx context.Context, job *queue.Job) error {
	ctx = services.WithJobID(ctx, job.ID)
	ctx = services.WithDirection(ctx, job.Direction())
	logger := logging.WithContext(ctx, w.logger)

	if err := w.store.MarkRunning(ctx, job.ID); err != nil {
		return err
	}
	logger.Info("job started",
		logging.String("files", job.DisplayName()),
		logging.Int64("total_bytes", TotalFileSize(job)),
	)

	runErr := w.processor.Process(ctx, job)
	// Status updates use a fresh context so a cancelled run is still recorded.
	persistCtx := context.WithoutCancel(ctx)
	if runErr == nil {
		if _, err := w.store.Remove(persistCtx, job.ID); err != nil {
			return fmt.Errorf("remove finished job %d: %w", job.ID, err)
		}
		logger.Info("job finished")
		return nil
	}

	switch queue.FailureStatus(runErr) {
	case queue.StatusPending:
		logger.Warn("job interrupted", logging.Error(runErr))
		if err := w.store.MarkPending(persistCtx, job.ID); err != nil {
			logger.Error("job status not restored", logging.Error(err))
		}
	default:
		logger.Error("job failed", logging.Error(runErr), logging.String("error_kind", services.Kind(runErr)))
		if err := w.store.MarkFailed(persistCtx, job.ID, runErr.Error()); err != nil {
			logger.Error("job failure not recorded", logging.Error(err))
		}
	}
	return runErr
}
