package main

import (
	"github.com/spf13/cobra"

	"github.com/nlowell/grit/pkg/repo"
)

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset [path...]",
		Short: "Restore staged entries from the last commit",
		Long: `Resets staging entries to match HEAD. With paths, only the named
files (or directory prefixes) are reset; without, the entire staging
area is rebuilt from the HEAD commit. Worktree files are untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			return r.Reset(args)
		},
	}
	return cmd
}
