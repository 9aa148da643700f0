// Package stats measures per-file throughput and keeps a running record of it.
package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"framestash/internal/logging"
	"framestash/internal/queue"
)

// Timer records the start and end of one file's processing.
type Timer struct {
	start time.Time
	end   time.Time
	now   func() time.Time
}

// NewTimer returns a timer driven by clock, or time.Now when clock is nil.
func NewTimer(clock func() time.Time) *Timer {
	if clock == nil {
		clock = time.Now
	}
	return &Timer{now: clock}
}

// Start records the start instant.
func (t *Timer) Start() {
	t.start = t.clock()
	t.end = time.Time{}
}

// Stop records the end instant.
func (t *Timer) Stop() {
	t.end = t.clock()
}

// Elapsed returns end minus start, or the time since start while running.
func (t *Timer) Elapsed() time.Duration {
	if t.start.IsZero() {
		return 0
	}
	end := t.end
	if end.IsZero() {
		end = t.clock()
	}
	if end.Before(t.start) {
		return 0
	}
	return end.Sub(t.start)
}

func (t *Timer) clock() time.Time {
	if t.now == nil {
		return time.Now()
	}
	return t.now()
}

// Speed returns throughput in bytes per second, zero when elapsed is zero.
func Speed(bytes int64, elapsed time.Duration) float64 {
	if elapsed <= 0 || bytes <= 0 {
		return 0
	}
	return float64(bytes) / elapsed.Seconds()
}

// SampleStore persists samples and aggregates them per direction.
type SampleStore interface {
	RecordSample(ctx context.Context, sample queue.Sample) error
	SampleSummaries(ctx context.Context) ([]queue.SampleSummary, error)
}

// Summary is the per-direction record shown by the stats command.
type Summary struct {
	Direction             string
	Count                 int
	TotalBytes            int64
	AverageBytesPerSecond float64
}

// Recorder stores throughput samples once each file finishes.
type Recorder struct {
	store  SampleStore
	logger *slog.Logger
}

// NewRecorder builds a recorder. A nil store makes Record a log-only no-op.
func NewRecorder(store SampleStore, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, logger: logging.NewComponentLogger(logger, "stats")}
}

// Record computes the speed for bytes processed in elapsed and persists it.
func (r *Recorder) Record(ctx context.Context, encode bool, bytes int64, elapsed time.Duration) (queue.Sample, error) {
	direction := queue.DirectionDecode
	if encode {
		direction = queue.DirectionEncode
	}
	sample := queue.Sample{
		Direction:      direction,
		Bytes:          bytes,
		Elapsed:        elapsed,
		BytesPerSecond: Speed(bytes, elapsed),
		RecordedAt:     time.Now(),
	}
	if r == nil {
		return sample, nil
	}
	r.logger.Debug("throughput recorded",
		logging.String(logging.FieldDirection, direction),
		logging.Int64("bytes", bytes),
		logging.Duration("elapsed", elapsed),
		logging.Float64("bytes_per_second", sample.BytesPerSecond),
	)
	if r.store == nil {
		return sample, nil
	}
	if err := r.store.RecordSample(ctx, sample); err != nil {
		return sample, fmt.Errorf("persist %s sample: %w", direction, err)
	}
	return sample, nil
}

// Summaries returns one entry per direction with at least one sample.
func (r *Recorder) Summaries(ctx context.Context) ([]Summary, error) {
	if r == nil || r.store == nil {
		return nil, errors.New("stats recorder has no store")
	}
	rows, err := r.store.SampleSummaries(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]Summary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, Summary(row))
	}
	return summaries, nil
}

// FormatBytes renders a byte count with binary units.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// FormatSpeed renders bytes per second with binary units.
func FormatSpeed(bytesPerSecond float64) string {
	return FormatBytes(int64(bytesPerSecond)) + "/s"
}
