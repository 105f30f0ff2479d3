package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"omr-scale/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "omrscale %s\n", version.Version)
			fmt.Fprintf(out, "  Go:     %s\n", version.GoVersion())
			fmt.Fprintf(out, "  Commit: %s\n", version.GitCommit)
			fmt.Fprintf(out, "  Built:  %s\n", version.BuildTime)
		},
	}
}
