package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nlowell/grit/pkg/repo"
)

func newReflogCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "reflog [ref]",
		Short: "Show the update history of a ref",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			ref := "HEAD"
			if len(args) == 1 {
				ref = args[0]
			}
			entries, err := r.ReadReflog(ref, limit)
			if err != nil {
				return err
			}

			yellow := color.New(color.FgYellow).SprintFunc()
			for i, e := range entries {
				when := time.Unix(e.Timestamp, 0).Format("2006-01-02 15:04:05")
				fmt.Printf("%s %s@{%d}: %s (%s)\n",
					yellow(shortHash(string(e.NewHash))), e.Ref, i, e.Reason, when)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "max-count", "n", 0, "limit the number of entries shown")
	return cmd
}
