package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nlowell/grit/pkg/repo"
)

func newLogCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log [ref]",
		Short: "Show commit history",
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
			start, err := r.ResolveRef(ref)
			if err != nil {
				return err
			}
			if start == "" {
				fmt.Println("no commits yet")
				return nil
			}

			hashColor := color.New(color.FgYellow)

			walk := r.Ancestors(start)
			shown := 0
			for limit <= 0 || shown < limit {
				h, c, err := walk.Next()
				if err != nil {
					return err
				}
				if c == nil {
					break
				}
				hashColor.Printf("commit %s\n", h)
				fmt.Printf("Author: %s\n", c.Author)
				fmt.Printf("Date:   %s\n", time.Unix(c.Timestamp, 0).Format(time.RFC1123))
				if c.Signature != "" {
					fmt.Println("Signed: yes")
				}
				fmt.Printf("\n    %s\n\n", c.Message)
				shown++
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "max-count", "n", 0, "limit the number of commits shown")
	return cmd
}
