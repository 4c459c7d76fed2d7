package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nlowell/grit/pkg/repo"
)

func newFsckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fsck",
		Short: "Verify object integrity and connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			issues, err := r.Fsck()
			if err != nil {
				return err
			}
			if len(issues) == 0 {
				fmt.Println("ok")
				return nil
			}
			for _, issue := range issues {
				fmt.Printf("%s: %s\n", shortHash(string(issue.Hash)), issue.Problem)
			}
			return fmt.Errorf("found %d problem(s)", len(issues))
		},
	}
	return cmd
}
