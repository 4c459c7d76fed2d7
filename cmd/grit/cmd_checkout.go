package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nlowell/grit/pkg/repo"
)

func newCheckoutCmd() *cobra.Command {
	var create bool

	cmd := &cobra.Command{
		Use:   "checkout <branch|hash>",
		Short: "Switch branches or restore a commit's tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			target := args[0]
			if create {
				head, err := r.ResolveRef("HEAD")
				if err != nil {
					return fmt.Errorf("checkout -b: cannot resolve HEAD: %w", err)
				}
				if err := r.CreateBranch(target, head); err != nil {
					return err
				}
			}

			if err := r.Checkout(target); err != nil {
				return err
			}
			fmt.Printf("Switched to %s\n", target)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&create, "create", "b", false, "create the branch at HEAD before switching")
	return cmd
}
