package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"framestash/internal/ffmpeg"
)

func newCommandPreviewCommand(ctx *commandContext) *cobra.Command {
	var decode bool
	var outputDir string

	cmd := &cobra.Command{
		Use:   "command <file>",
		Short: "Print the ffmpeg command a job would run for a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			input, err := absoluteFiles(args)
			if err != nil {
				return err
			}
			target, err := resolveOutputDir(outputDir, input[0])
			if err != nil {
				return err
			}

			direction := ffmpeg.DirectionEncode
			if decode {
				direction = ffmpeg.DirectionDecode
			}
			built, err := ffmpeg.Build(resolvedConfig(cfg).FFmpeg, direction, input[0], target)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), built.Text)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&decode, "decode", "d", false, "Show the decode command instead of the encode command")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for output files (default: directory of the input)")
	return cmd
}
