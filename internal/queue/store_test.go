package queue_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"framestash/internal/queue"
	"framestash/internal/services"
	"framestash/internal/testsupport"
)

func TestNewJobRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job, err := store.NewJob(ctx, []string{"/data/a.bin", " /data/b.bin "}, "/out", true, true)
	if err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}
	if job.ID == 0 {
		t.Fatal("expected job ID to be assigned")
	}

	fetched, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil {
		t.Fatal("expected job to be found")
	}
	if len(fetched.Files) != 2 || fetched.Files[0] != "/data/a.bin" || fetched.Files[1] != "/data/b.bin" {
		t.Fatalf("unexpected files %v", fetched.Files)
	}
	if fetched.OutputDir != "/out" || !fetched.Encode || !fetched.Archive {
		t.Fatalf("unexpected job fields: %#v", fetched)
	}
	if fetched.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %s", fetched.Status)
	}
	if fetched.Direction() != queue.DirectionEncode {
		t.Fatalf("expected encode direction, got %s", fetched.Direction())
	}
	if fetched.CreatedAt.IsZero() || fetched.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be parsed")
	}
}

func TestNewJobDecodeIgnoresArchive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	job, err := store.NewJob(context.Background(), []string{"/videos/a.mkv"}, "/out", false, true)
	if err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}
	if job.Archive {
		t.Fatal("decode jobs never archive")
	}
	if job.Direction() != queue.DirectionDecode {
		t.Fatalf("expected decode direction, got %s", job.Direction())
	}
}

func TestNewJobValidation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if _, err := store.NewJob(ctx, []string{" ", ""}, "/out", true, false); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty files, got %v", err)
	}
	if _, err := store.NewJob(ctx, []string{"/a"}, "", true, false); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty output dir, got %v", err)
	}
}

func TestGetByIDMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	job, err := store.GetByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if job != nil {
		t.Fatalf("expected nil job, got %#v", job)
	}
}

func TestPendingLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.NewJob(t, store, []string{"/a"}, "/out", true)
	second := testsupport.NewJob(t, store, []string{"/b"}, "/out", false)

	next, err := store.NextPending(ctx)
	if err != nil {
		t.Fatalf("NextPending failed: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("expected oldest job %d, got %#v", first.ID, next)
	}

	if err := store.MarkRunning(ctx, first.ID); err != nil {
		t.Fatalf("MarkRunning failed: %v", err)
	}
	next, err = store.NextPending(ctx)
	if err != nil {
		t.Fatalf("NextPending failed: %v", err)
	}
	if next == nil || next.ID != second.ID {
		t.Fatalf("expected second job once first is running, got %#v", next)
	}

	if err := store.MarkFailed(ctx, first.ID, "ffmpeg exploded"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}
	pending, err := store.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected failed and pending jobs listed, got %d", len(pending))
	}
	if pending[0].ID != first.ID || !pending[0].IsFailed() || pending[0].LastError != "ffmpeg exploded" {
		t.Fatalf("unexpected first pending entry %#v", pending[0])
	}

	removed, err := store.Remove(ctx, second.ID)
	if err != nil || removed != 1 {
		t.Fatalf("Remove = %d, %v", removed, err)
	}
	next, err = store.NextPending(ctx)
	if err != nil {
		t.Fatalf("NextPending failed: %v", err)
	}
	if next != nil {
		t.Fatalf("failed jobs are not picked up without retry, got %#v", next)
	}
}

func TestMarkMissingJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	err := store.MarkRunning(context.Background(), 42)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestRetry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		job := testsupport.NewJob(t, store, []string{fmt.Sprintf("/file-%d", i)}, "/out", true)
		if err := store.MarkFailed(ctx, job.ID, "boom"); err != nil {
			t.Fatalf("MarkFailed failed: %v", err)
		}
		ids = append(ids, job.ID)
	}

	count, err := store.Retry(ctx, ids[0])
	if err != nil || count != 1 {
		t.Fatalf("Retry selected = %d, %v", count, err)
	}
	job, err := store.GetByID(ctx, ids[0])
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if job.Status != queue.StatusPending || job.LastError != "" {
		t.Fatalf("expected retried job pending without error, got %#v", job)
	}

	count, err = store.Retry(ctx)
	if err != nil || count != 2 {
		t.Fatalf("Retry all = %d, %v", count, err)
	}
	count, err = store.Retry(ctx)
	if err != nil || count != 0 {
		t.Fatalf("Retry with nothing failed = %d, %v", count, err)
	}
}

func TestResetRunningAndClear(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := testsupport.NewJob(t, store, []string{"/a"}, "/out", true)
	testsupport.NewJob(t, store, []string{"/b"}, "/out", true)
	if err := store.MarkRunning(ctx, job.ID); err != nil {
		t.Fatalf("MarkRunning failed: %v", err)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != 2 || health.Running != 1 || health.Pending != 1 {
		t.Fatalf("unexpected health %#v", health)
	}

	reset, err := store.ResetRunning(ctx)
	if err != nil || reset != 1 {
		t.Fatalf("ResetRunning = %d, %v", reset, err)
	}
	cleared, err := store.Clear(ctx)
	if err != nil || cleared != 2 {
		t.Fatalf("Clear = %d, %v", cleared, err)
	}
	pending, err := store.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty list after clear, got %d", len(pending))
	}
}

func TestSampleSummaries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	samples := []queue.Sample{
		{Direction: queue.DirectionEncode, Bytes: 100, Elapsed: time.Second, BytesPerSecond: 100},
		{Direction: queue.DirectionEncode, Bytes: 300, Elapsed: time.Second, BytesPerSecond: 300},
		{Direction: queue.DirectionDecode, Bytes: 50, Elapsed: 2 * time.Second, BytesPerSecond: 25},
	}
	for _, sample := range samples {
		if err := store.RecordSample(ctx, sample); err != nil {
			t.Fatalf("RecordSample failed: %v", err)
		}
	}

	summaries, err := store.SampleSummaries(ctx)
	if err != nil {
		t.Fatalf("SampleSummaries failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected two directions, got %d", len(summaries))
	}
	decode, encode := summaries[0], summaries[1]
	if decode.Direction != queue.DirectionDecode || decode.Count != 1 || decode.TotalBytes != 50 || decode.AverageBytesPerSecond != 25 {
		t.Fatalf("unexpected decode summary %#v", decode)
	}
	if encode.Direction != queue.DirectionEncode || encode.Count != 2 || encode.TotalBytes != 400 || encode.AverageBytesPerSecond != 200 {
		t.Fatalf("unexpected encode summary %#v", encode)
	}

	cleared, err := store.ClearSamples(ctx)
	if err != nil || cleared != 3 {
		t.Fatalf("ClearSamples = %d, %v", cleared, err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	path := store.Path()
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 999"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := queue.Open(cfg); !errors.Is(err, queue.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestOpenUsesWAL(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	db, err := sql.Open("sqlite", store.Path())
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var mode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("expected wal journal mode, got %q", mode)
	}
}

func TestFailureStatus(t *testing.T) {
	if got := queue.FailureStatus(fmt.Errorf("run: %w", context.Canceled)); got != queue.StatusPending {
		t.Fatalf("cancelled run should return to pending, got %s", got)
	}
	if got := queue.FailureStatus(errors.New("boom")); got != queue.StatusFailed {
		t.Fatalf("expected failed, got %s", got)
	}
}

func TestDisplayName(t *testing.T) {
	job := &queue.Job{Files: []string{"/a/first.bin", "/a/second.bin", "/a/third.bin"}}
	if got := job.DisplayName(); got != "first.bin (+2)" {
		t.Fatalf("DisplayName = %q", got)
	}
	job.Files = job.Files[:1]
	if got := job.DisplayName(); got != "first.bin" {
		t.Fatalf("DisplayName = %q", got)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := queue.ParseStatus(" Failed "); !ok || status != queue.StatusFailed {
		t.Fatalf("ParseStatus = %q %v", status, ok)
	}
	if _, ok := queue.ParseStatus("completed"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
}
