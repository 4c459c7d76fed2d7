package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nlowell/grit/pkg/repo"
)

func newBranchCmd() *cobra.Command {
	var deleteName string

	cmd := &cobra.Command{
		Use:   "branch [name]",
		Short: "List or create branches",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			if deleteName != "" {
				if err := r.DeleteBranch(deleteName); err != nil {
					return err
				}
				fmt.Printf("Deleted branch %s\n", deleteName)
				return nil
			}

			if len(args) == 1 {
				target, err := r.ResolveRef("HEAD")
				if err != nil {
					return fmt.Errorf("branch: cannot resolve HEAD (no commits yet?): %w", err)
				}
				return r.CreateBranch(args[0], target)
			}

			current, err := r.CurrentBranch()
			if err != nil {
				return err
			}
			branches, err := r.ListBranches()
			if err != nil {
				return err
			}
			for _, b := range branches {
				marker := "  "
				if b == current {
					marker = "* "
				}
				fmt.Println(marker + b)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&deleteName, "delete", "d", "", "delete the named branch")
	return cmd
}
