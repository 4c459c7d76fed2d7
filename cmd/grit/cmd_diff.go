package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nlowell/grit/pkg/diff"
	"github.com/nlowell/grit/pkg/repo"
)

func newDiffCmd() *cobra.Command {
	var staged bool

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show changes between the working tree, index, and HEAD",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			var diffs []*diff.FileDiff
			if staged {
				diffs, err = r.DiffStaged()
			} else {
				diffs, err = r.DiffWorktree()
			}
			if err != nil {
				return err
			}

			for _, fd := range diffs {
				printColoredDiff(diff.Format(fd))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&staged, "staged", false, "diff the index against HEAD instead of the working tree")
	return cmd
}

func printColoredDiff(text string) {
	del := color.New(color.FgRed)
	ins := color.New(color.FgGreen)
	head := color.New(color.FgCyan)

	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "@@"):
			head.Println(line)
		case strings.HasPrefix(line, "-"):
			del.Println(line)
		case strings.HasPrefix(line, "+"):
			ins.Println(line)
		default:
			fmt.Println(line)
		}
	}
}
