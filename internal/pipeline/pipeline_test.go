package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"framestash/internal/config"
	"framestash/internal/ffmpeg"
	"framestash/internal/pipeline"
	"framestash/internal/queue"
	"framestash/internal/services"
	"framestash/internal/stats"
	"framestash/internal/testsupport"
)

type recordedRun struct {
	cmd        ffmpeg.Command
	inputSize  int64
	inputFound bool
}

type fakeRunner struct {
	runs   []recordedRun
	failOn string
	err    error
	onRun  func(ffmpeg.Command)
}

func (f *fakeRunner) Run(ctx context.Context, cmd ffmpeg.Command) error {
	run := recordedRun{cmd: cmd}
	if info, err := os.Stat(cmd.Input); err == nil {
		run.inputFound = true
		run.inputSize = info.Size()
	}
	f.runs = append(f.runs, run)
	if f.onRun != nil {
		f.onRun(cmd)
	}
	if f.failOn != "" && strings.Contains(cmd.Input, f.failOn) {
		return f.err
	}
	return nil
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	// 64/8 x 64/8 pixels at one bit each is an 8-byte frame.
	return testsupport.NewConfig(t, testsupport.WithGeometry(64, 64, 8), testsupport.WithFFmpegPath("/usr/bin/ffmpeg"))
}

func TestEncodePadsStagedCopy(t *testing.T) {
	cfg := newTestConfig(t)
	base := testsupport.BaseDir(cfg)
	src := filepath.Join(base, "in", "notes.txt")
	testsupport.WriteFile(t, src, 10)
	outDir := filepath.Join(base, "out")

	runner := &fakeRunner{}
	var out bytes.Buffer
	p := pipeline.New(cfg, runner, nil, &out, nil)

	job := &queue.Job{ID: 4, Files: []string{src}, OutputDir: outDir, Encode: true}
	if err := p.Process(context.Background(), job); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(runner.runs) != 1 {
		t.Fatalf("expected one ffmpeg run, got %d", len(runner.runs))
	}
	run := runner.runs[0]
	wantInput := filepath.Join(cfg.Paths.WorkDir, "job-4", "notes.txt")
	if run.cmd.Input != wantInput {
		t.Fatalf("expected staged input %q, got %q", wantInput, run.cmd.Input)
	}
	if !run.inputFound || run.inputSize != 16 {
		t.Fatalf("expected padded 16-byte staged copy during run, got found=%v size=%d", run.inputFound, run.inputSize)
	}
	if run.cmd.Output != filepath.Join(outDir, "notes.mkv") {
		t.Fatalf("unexpected output %q", run.cmd.Output)
	}
	if _, err := os.Stat(wantInput); !os.IsNotExist(err) {
		t.Fatalf("expected staged copy removed, got %v", err)
	}
	if info, err := os.Stat(src); err != nil || info.Size() != 10 {
		t.Fatalf("source file must stay untouched: %v", err)
	}

	want := run.cmd.Text + "\n\n\n" + pipeline.EncodingCompleted + "\n\n\n"
	if out.String() != want {
		t.Fatalf("unexpected output:\n%q\nwant:\n%q", out.String(), want)
	}
}

func TestEncodeWithoutPadding(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Padding.Enabled = false
	base := testsupport.BaseDir(cfg)
	src := filepath.Join(base, "in", "raw.bin")
	testsupport.WriteFile(t, src, 10)

	runner := &fakeRunner{}
	p := pipeline.New(cfg, runner, nil, nil, nil)
	job := &queue.Job{ID: 1, Files: []string{src}, OutputDir: base, Encode: true}
	if err := p.Process(context.Background(), job); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if runner.runs[0].cmd.Input != src || runner.runs[0].inputSize != 10 {
		t.Fatalf("expected original file used unpadded, got %#v", runner.runs[0])
	}
}

func TestEncodeArchivesFiles(t *testing.T) {
	cfg := newTestConfig(t)
	base := testsupport.BaseDir(cfg)
	first := filepath.Join(base, "in", "first.bin")
	second := filepath.Join(base, "in", "second.bin")
	testsupport.WriteFile(t, first, 100)
	testsupport.WriteFile(t, second, 100)

	store := testsupport.MustOpenStore(t, cfg)
	recorder := stats.NewRecorder(store, nil)
	runner := &fakeRunner{}
	var out bytes.Buffer
	p := pipeline.New(cfg, runner, recorder, &out, nil)

	job := &queue.Job{ID: 12, Files: []string{first, second}, OutputDir: base, Encode: true, Archive: true}
	if err := p.Process(context.Background(), job); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(runner.runs) != 1 {
		t.Fatalf("expected archive encoded once, got %d runs", len(runner.runs))
	}
	archivePath := filepath.Join(cfg.Paths.WorkDir, "12-first.zip")
	run := runner.runs[0]
	if run.cmd.Input != archivePath {
		t.Fatalf("expected archive input %q, got %q", archivePath, run.cmd.Input)
	}
	if !run.inputFound || run.inputSize%8 != 0 {
		t.Fatalf("expected archive padded to frame size, got %d", run.inputSize)
	}
	if run.cmd.Output != filepath.Join(base, "12-first.mkv") {
		t.Fatalf("unexpected output %q", run.cmd.Output)
	}
	if _, err := os.Stat(archivePath); !os.IsNotExist(err) {
		t.Fatalf("expected archive deleted after use, got %v", err)
	}
	if strings.Count(out.String(), pipeline.EncodingCompleted) != 1 {
		t.Fatalf("expected one completion marker, got %q", out.String())
	}

	summaries, err := recorder.Summaries(context.Background())
	if err != nil {
		t.Fatalf("Summaries: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Direction != queue.DirectionEncode || summaries[0].TotalBytes != run.inputSize {
		t.Fatalf("unexpected summaries %#v", summaries)
	}
}

func TestEncodeErrorStopsJob(t *testing.T) {
	cfg := newTestConfig(t)
	base := testsupport.BaseDir(cfg)
	first := filepath.Join(base, "in", "first.bin")
	second := filepath.Join(base, "in", "second.bin")
	testsupport.WriteFile(t, first, 8)
	testsupport.WriteFile(t, second, 8)

	boom := services.Wrap(services.ErrExternalTool, "ffmpeg", "run", "exit status 1", nil)
	runner := &fakeRunner{failOn: "first", err: boom}
	var out bytes.Buffer
	p := pipeline.New(cfg, runner, nil, &out, nil)

	job := &queue.Job{ID: 2, Files: []string{first, second}, OutputDir: base, Encode: true}
	err := p.Process(context.Background(), job)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if len(runner.runs) != 1 {
		t.Fatalf("expected encode to stop after first failure, got %d runs", len(runner.runs))
	}
	if strings.Contains(out.String(), pipeline.EncodingCompleted) {
		t.Fatal("completion marker written for failed file")
	}
	if _, statErr := os.Stat(filepath.Join(cfg.Paths.WorkDir, "job-2", "first.bin")); !os.IsNotExist(statErr) {
		t.Fatalf("expected staged copy removed after failure, got %v", statErr)
	}
}

func TestEncodeInvalidGeometry(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.FFmpeg.MacroBlockDimensions = 0
	base := testsupport.BaseDir(cfg)
	src := filepath.Join(base, "in", "a.bin")
	testsupport.WriteFile(t, src, 8)

	runner := &fakeRunner{}
	p := pipeline.New(cfg, runner, nil, nil, nil)
	job := &queue.Job{ID: 3, Files: []string{src}, OutputDir: base, Encode: true}
	if err := p.Process(context.Background(), job); err == nil {
		t.Fatal("expected build error for zero macroblock size")
	}
	if len(runner.runs) != 0 {
		t.Fatalf("expected no ffmpeg run, got %d", len(runner.runs))
	}
}

func TestDecodeRunsEveryFile(t *testing.T) {
	cfg := newTestConfig(t)
	base := testsupport.BaseDir(cfg)
	first := filepath.Join(base, "videos", "a.mkv")
	second := filepath.Join(base, "videos", "b.mkv")
	testsupport.WriteFile(t, first, 64)
	testsupport.WriteFile(t, second, 64)

	runner := &fakeRunner{}
	var out bytes.Buffer
	p := pipeline.New(cfg, runner, nil, &out, nil)
	job := &queue.Job{ID: 5, Files: []string{first, second}, OutputDir: filepath.Join(base, "out")}
	if err := p.Process(context.Background(), job); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(runner.runs) != 2 {
		t.Fatalf("expected two decodes, got %d", len(runner.runs))
	}
	if runner.runs[1].cmd.Output != filepath.Join(base, "out", "b.zip") {
		t.Fatalf("unexpected decode output %q", runner.runs[1].cmd.Output)
	}
	if strings.Count(out.String(), pipeline.DecodingCompleted) != 2 {
		t.Fatalf("expected two decode markers, got %q", out.String())
	}
}

func TestDecodeErrorIsSwallowed(t *testing.T) {
	cfg := newTestConfig(t)
	base := testsupport.BaseDir(cfg)
	first := filepath.Join(base, "videos", "a.mkv")
	second := filepath.Join(base, "videos", "b.mkv")
	testsupport.WriteFile(t, first, 64)
	testsupport.WriteFile(t, second, 64)

	runner := &fakeRunner{failOn: "a.mkv", err: errors.New("exit status 1")}
	p := pipeline.New(cfg, runner, nil, nil, nil)
	job := &queue.Job{ID: 6, Files: []string{first, second}, OutputDir: base}
	if err := p.Process(context.Background(), job); err != nil {
		t.Fatalf("decode errors are logged, not returned: %v", err)
	}
	if len(runner.runs) != 1 {
		t.Fatalf("expected decode loop to stop at first error, got %d runs", len(runner.runs))
	}
}

func TestDecodeCancellationIsReturned(t *testing.T) {
	cfg := newTestConfig(t)
	base := testsupport.BaseDir(cfg)
	src := filepath.Join(base, "videos", "a.mkv")
	testsupport.WriteFile(t, src, 64)

	ctx, cancel := context.WithCancel(context.Background())
	runner := &fakeRunner{failOn: "a.mkv", err: context.Canceled, onRun: func(ffmpeg.Command) { cancel() }}
	p := pipeline.New(cfg, runner, nil, nil, nil)
	job := &queue.Job{ID: 7, Files: []string{src}, OutputDir: base}
	if err := p.Process(ctx, job); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestProcessNilJob(t *testing.T) {
	p := pipeline.New(newTestConfig(t), &fakeRunner{}, nil, nil, nil)
	if err := p.Process(context.Background(), nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTotalFileSize(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	testsupport.WriteFile(t, a, 100)
	testsupport.WriteFile(t, b, 28)

	job := &queue.Job{Files: []string{a, b}}
	if got := pipeline.TotalFileSize(job); got != 128 {
		t.Fatalf("TotalFileSize = %d, want 128", got)
	}
	if got := pipeline.TotalFileSize(nil); got != 0 {
		t.Fatalf("TotalFileSize(nil) = %d", got)
	}
}
