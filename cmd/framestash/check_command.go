package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"framestash/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify ffmpeg and the working directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			results := preflight.RunAll(cfg)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Name, checkLabel(r.Passed, colorize), r.Detail})
			}
			fmt.Fprint(out, renderTable(headers("Check", "Result", "Detail"), rows))
			fmt.Fprintln(out)

			depRows := make([][]string, 0, 1)
			for _, status := range preflight.CheckSystemDeps(cfg) {
				depRows = append(depRows, []string{status.Name, status.Command, yesNo(status.Available), status.Description})
			}
			fmt.Fprint(out, renderTable(headers("Dependency", "Command", "Available", "Used for"), depRows))
			fmt.Fprintln(out)

			return preflight.Failures(results)
		},
	}
}

func checkLabel(passed, colorize bool) string {
	label, color := "FAIL", text.FgRed
	if passed {
		label, color = "OK", text.FgGreen
	}
	if !colorize {
		return label
	}
	return text.Colors{color, text.Bold}.Sprint(label)
}
