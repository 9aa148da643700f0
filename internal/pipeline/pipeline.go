package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"framestash/internal/archive"
	"framestash/internal/config"
	"framestash/internal/ffmpeg"
	"framestash/internal/fileutil"
	"framestash/internal/logging"
	"framestash/internal/padding"
	"framestash/internal/queue"
	"framestash/internal/services"
	"framestash/internal/stats"
)

// Completion markers written to the output writer after each file.
const (
	EncodingCompleted = "ENCODING COMPLETED"
	DecodingCompleted = "DECODING COMPLETED"
)

const blockSeparator = "\n\n\n"

// CommandRunner executes one built ffmpeg command.
type CommandRunner interface {
	Run(ctx context.Context, cmd ffmpeg.Command) error
}

// Pipeline processes the files of one job.
type Pipeline struct {
	cfg      *config.Config
	runner   CommandRunner
	recorder *stats.Recorder
	out      io.Writer
	logger   *slog.Logger
}

// New constructs a pipeline writing user-facing output to out. Files are
// processed sequentially, so out is never written concurrently.
func New(cfg *config.Config, runner CommandRunner, recorder *stats.Recorder, out io.Writer, logger *slog.Logger) *Pipeline {
	if out == nil {
		out = io.Discard
	}
	return &Pipeline{
		cfg:      cfg,
		runner:   runner,
		recorder: recorder,
		out:      out,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Process runs every file of job. Encode errors stop the job and are
// returned. Decode errors are logged and the job still counts as finished.
func (p *Pipeline) Process(ctx context.Context, job *queue.Job) error {
	if job == nil {
		return services.Wrap(services.ErrValidation, "pipeline", "process", "job is nil", nil)
	}
	ctx = services.WithJobID(ctx, job.ID)
	ctx = services.WithDirection(ctx, job.Direction())
	logger := logging.WithContext(ctx, p.logger)

	if job.Encode {
		return p.encode(ctx, logger, job)
	}
	if err := p.decode(ctx, logger, job); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Error("decode failed", logging.Error(err), logging.String("error_kind", services.Kind(err)))
	}
	return nil
}

func (p *Pipeline) encode(ctx context.Context, logger *slog.Logger, job *queue.Job) error {
	files := job.Files
	archived := false
	if job.Archive {
		packed, err := archive.Pack(job.ID, job.Files, p.cfg.Paths.WorkDir)
		if err != nil {
			return err
		}
		logger.Info("files archived",
			logging.String("archive", packed),
			logging.Int("file_count", len(job.Files)),
		)
		defer p.removeLeftover(logger, packed)
		files = []string{packed}
		archived = true
	}

	frameBytes := padding.FrameBytes(p.cfg.FFmpeg)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		timer := stats.NewTimer(nil)
		timer.Start()

		input := file
		cleanup := func() {}
		if p.cfg.Padding.Enabled && frameBytes > 0 {
			padded, release, err := p.pad(job, file, archived, frameBytes)
			if err != nil {
				return err
			}
			input, cleanup = padded, release
		}

		bytes := fileSize(input)
		err := p.runFile(ctx, logger, ffmpeg.DirectionEncode, input, job.OutputDir)
		cleanup()
		if err != nil {
			return err
		}
		timer.Stop()
		p.record(ctx, logger, true, bytes, timer)
	}
	return nil
}

func (p *Pipeline) decode(ctx context.Context, logger *slog.Logger, job *queue.Job) error {
	for _, file := range job.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		timer := stats.NewTimer(nil)
		timer.Start()

		if err := p.runFile(ctx, logger, ffmpeg.DirectionDecode, file, job.OutputDir); err != nil {
			return err
		}
		timer.Stop()
		p.record(ctx, logger, false, fileSize(file), timer)
	}
	return nil
}

func (p *Pipeline) pad(job *queue.Job, file string, archived bool, frameBytes int64) (string, func(), error) {
	if archived {
		if _, err := padding.Pad(file, frameBytes); err != nil {
			return "", nil, err
		}
		return file, func() {}, nil
	}
	stageDir := filepath.Join(p.cfg.Paths.WorkDir, "job-"+strconv.FormatInt(job.ID, 10))
	staged, err := padding.Stage(file, stageDir, frameBytes)
	if err != nil {
		return "", nil, err
	}
	cleanup := func() {
		_ = fileutil.RemoveIfExists(staged)
		_ = os.Remove(stageDir)
	}
	return staged, cleanup, nil
}

func (p *Pipeline) runFile(ctx context.Context, logger *slog.Logger, direction ffmpeg.Direction, input, outputDir string) error {
	cmd, err := ffmpeg.Build(p.cfg.FFmpeg, direction, input, outputDir)
	if err != nil {
		return err
	}
	logger.Info("running ffmpeg",
		logging.String("input", cmd.Input),
		logging.String("output", cmd.Output),
		logging.Bool("custom", cmd.Custom),
	)

	p.write(cmd.Text + blockSeparator)
	if err := p.runner.Run(ctx, cmd); err != nil {
		return err
	}
	marker := DecodingCompleted
	if direction == ffmpeg.DirectionEncode {
		marker = EncodingCompleted
	}
	p.write(marker + blockSeparator)
	return nil
}

func (p *Pipeline) record(ctx context.Context, logger *slog.Logger, encode bool, bytes int64, timer *stats.Timer) {
	sample, err := p.recorder.Record(ctx, encode, bytes, timer.Elapsed())
	if err != nil {
		logger.Warn("throughput not recorded", logging.Error(err))
		return
	}
	logger.Info("file completed",
		logging.Int64("bytes", sample.Bytes),
		logging.Duration("elapsed", sample.Elapsed),
		logging.String("speed", stats.FormatSpeed(sample.BytesPerSecond)),
	)
}

func (p *Pipeline) removeLeftover(logger *slog.Logger, path string) {
	if err := fileutil.RemoveIfExists(path); err != nil {
		logger.Warn("leftover not removed", logging.String("path", path), logging.Error(err))
	}
}

func (p *Pipeline) write(text string) {
	_, _ = io.WriteString(p.out, text)
}

// TotalFileSize returns the combined size of the job's files.
func TotalFileSize(job *queue.Job) int64 {
	if job == nil {
		return 0
	}
	return fileutil.TotalSize(job.Files)
}

func fileSize(path string) int64 {
	return fileutil.TotalSize([]string{path})
}
