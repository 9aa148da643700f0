package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"framestash/internal/archive"
	"framestash/internal/config"
)

func newUnpackCommand(_ *commandContext) *cobra.Command {
	var dest string

	cmd := &cobra.Command{
		Use:         "unpack <archive>",
		Short:       "Extract a decoded archive",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			target := filepath.Dir(source)
			if dest != "" {
				if target, err = config.ExpandPath(dest); err != nil {
					return err
				}
			}
			extracted, err := archive.Unpack(source, target)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, path := range extracted {
				fmt.Fprintln(out, path)
			}
			fmt.Fprintf(out, "Extracted %d file(s) to %s\n", len(extracted), target)
			return nil
		},
	}

	cmd.Flags().StringVar(&dest, "dest", "", "Destination directory (default: next to the archive)")
	return cmd
}
