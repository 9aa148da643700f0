package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"framestash/internal/services"
)

// tailLines bounds how much process output is kept for error reports.
const tailLines = 8

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, program string, args []string, onLine func(string)) error
}

// Option configures the runner.
type Option func(*Runner)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(r *Runner) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// Runner executes ffmpeg commands synchronously, forwarding every output line
// to the configured writer.
type Runner struct {
	exec Executor
	out  io.Writer
}

// NewRunner constructs a runner that streams process output to out.
func NewRunner(out io.Writer, opts ...Option) *Runner {
	if out == nil {
		out = io.Discard
	}
	r := &Runner{exec: commandExecutor{}, out: out}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts the command and blocks until it exits. A non-zero exit is
// reported as an external tool error carrying the last output lines.
func (r *Runner) Run(ctx context.Context, cmd Command) error {
	if strings.TrimSpace(cmd.Program) == "" {
		return services.Wrap(services.ErrConfiguration, "ffmpeg", "run", "command has no program", nil)
	}

	tail := newLineTail(tailLines)
	var mu sync.Mutex
	onLine := func(line string) {
		mu.Lock()
		defer mu.Unlock()
		tail.add(line)
		fmt.Fprintln(r.out, line)
	}

	if err := r.exec.Run(ctx, cmd.Program, cmd.Args, onLine); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		message := fmt.Sprintf("%s failed for %s", cmd.Program, cmd.Input)
		if detail := tail.String(); detail != "" {
			message += " (" + detail + ")"
		}
		return services.Wrap(services.ErrExternalTool, "ffmpeg", "run", message, err)
	}
	return nil
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, program string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, program, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if onLine != nil {
				onLine(scanner.Text())
			}
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	wg.Add(2)
	go scan(stdout)
	go scan(stderr)
	wg.Wait()

	if scanErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("scan output: %w", scanErr)
	}

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("exit status %d: %w", exitErr.ExitCode(), err)
		}
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}

// lineTail keeps the most recent non-empty output lines.
type lineTail struct {
	limit int
	lines []string
}

func newLineTail(limit int) *lineTail {
	return &lineTail{limit: limit}
}

func (t *lineTail) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	t.lines = append(t.lines, line)
	if len(t.lines) > t.limit {
		t.lines = t.lines[len(t.lines)-t.limit:]
	}
}

func (t *lineTail) String() string {
	return strings.Join(t.lines, "; ")
}
