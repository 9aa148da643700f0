package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"framestash/internal/config"
	"framestash/internal/pipeline"
	"framestash/internal/queue"
)

// newJobCommand builds "encode" or "decode". The job is enqueued and, unless
// --queue-only is set, run immediately by this process.
func newJobCommand(ctx *commandContext, encode bool) *cobra.Command {
	var outputDir string
	var archiveFiles bool
	var queueOnly bool

	use, short := "decode <video>...", "Decode videos back into files"
	if encode {
		use, short = "encode <file>...", "Encode files into monochrome video"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := absoluteFiles(args)
			if err != nil {
				return err
			}
			target, err := resolveOutputDir(outputDir, files[0])
			if err != nil {
				return err
			}
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create output directory %q: %w", target, err)
			}

			out := cmd.OutOrStdout()
			var job *queue.Job
			if err := ctx.withStore(func(store *queue.Store) error {
				created, err := store.NewJob(cmd.Context(), files, target, encode, archiveFiles)
				job = created
				return err
			}); err != nil {
				return err
			}
			fmt.Fprintf(out, "Queued %s job %d (%s)\n", job.Direction(), job.ID, job.DisplayName())
			if queueOnly {
				return nil
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return ctx.withWorker(out, func(_ *queue.Store, worker *pipeline.Worker) error {
				return worker.RunJob(runCtx, job)
			})
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for output files (default: directory of the first input)")
	cmd.Flags().BoolVar(&queueOnly, "queue-only", false, "Only add the job to the queue; process it later with 'framestash run'")
	if encode {
		cmd.Flags().BoolVarP(&archiveFiles, "archive", "a", false, "Combine all files into one zip archive before encoding")
	}
	return cmd
}

func absoluteFiles(args []string) ([]string, error) {
	files := make([]string, 0, len(args))
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}
		path, err := config.ExpandPath(arg)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", arg, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("input %q is a directory", arg)
		}
		files = append(files, path)
	}
	if len(files) == 0 {
		return nil, errors.New("at least one input file is required")
	}
	return files, nil
}

func resolveOutputDir(flagValue, firstInput string) (string, error) {
	if strings.TrimSpace(flagValue) == "" {
		return filepath.Dir(firstInput), nil
	}
	return config.ExpandPath(flagValue)
}
