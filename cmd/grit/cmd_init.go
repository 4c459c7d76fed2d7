package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nlowell/grit/pkg/repo"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Create an empty grit repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			if path != "." {
				if err := os.MkdirAll(path, 0o755); err != nil {
					return err
				}
			}

			r, err := repo.Init(path)
			if err != nil {
				return err
			}
			fmt.Printf("Initialized empty grit repository in %s\n", r.GritDir)
			return nil
		},
	}
}
