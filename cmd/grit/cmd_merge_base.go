package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nlowell/grit/pkg/repo"
)

func newMergeBaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge-base <ref> <ref>",
		Short: "Find the best common ancestor of two commits",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			a, err := r.ResolveRef(args[0])
			if err != nil {
				return err
			}
			b, err := r.ResolveRef(args[1])
			if err != nil {
				return err
			}

			base, err := r.MergeBase(a, b)
			if err != nil {
				return err
			}
			if base == "" {
				return fmt.Errorf("no common ancestor of %s and %s", args[0], args[1])
			}
			fmt.Println(base)
			return nil
		},
	}
}
