package queue

import (
	"context"
	"fmt"
	"time"
)

// RecordSample stores one throughput measurement.
func (s *Store) RecordSample(ctx context.Context, sample Sample) error {
	recorded := sample.RecordedAt
	if recorded.IsZero() {
		recorded = time.Now()
	}
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO samples (direction, bytes, elapsed_ms, bytes_per_second, recorded_at)
         VALUES (?, ?, ?, ?, ?)`,
		sample.Direction,
		sample.Bytes,
		sample.Elapsed.Milliseconds(),
		sample.BytesPerSecond,
		recorded.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("record sample: %w", err)
	}
	return nil
}

// SampleSummaries aggregates recorded samples per direction, ordered by direction.
func (s *Store) SampleSummaries(ctx context.Context) ([]SampleSummary, error) {
	rows, err := s.db.QueryContext(
		ensureContext(ctx),
		`SELECT direction, COUNT(1), COALESCE(SUM(bytes), 0), COALESCE(AVG(bytes_per_second), 0)
         FROM samples GROUP BY direction ORDER BY direction`,
	)
	if err != nil {
		return nil, fmt.Errorf("summarize samples: %w", err)
	}
	defer rows.Close()

	var summaries []SampleSummary
	for rows.Next() {
		var summary SampleSummary
		if err := rows.Scan(&summary.Direction, &summary.Count, &summary.TotalBytes, &summary.AverageBytesPerSecond); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// ClearSamples deletes every recorded sample.
func (s *Store) ClearSamples(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM samples`)
	if err != nil {
		return 0, fmt.Errorf("clear samples: %w", err)
	}
	return res.RowsAffected()
}
