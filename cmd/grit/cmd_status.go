package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nlowell/grit/pkg/repo"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the working tree status",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			branch, err := r.CurrentBranch()
			if err != nil {
				return err
			}
			if branch != "" {
				fmt.Printf("On branch %s\n", branch)
			} else {
				fmt.Println("HEAD detached")
			}

			entries, err := r.Status()
			if err != nil {
				return err
			}

			staged := color.New(color.FgGreen)
			unstaged := color.New(color.FgRed)

			var stagedLines, unstagedLines, untracked []string
			for _, e := range entries {
				switch e.IndexStatus {
				case repo.StatusNew:
					stagedLines = append(stagedLines, "new file:   "+e.Path)
				case repo.StatusModified:
					stagedLines = append(stagedLines, "modified:   "+e.Path)
				case repo.StatusDeleted:
					stagedLines = append(stagedLines, "deleted:    "+e.Path)
				case repo.StatusUntracked:
					untracked = append(untracked, e.Path)
				}
				switch e.WorkStatus {
				case repo.StatusDirty:
					unstagedLines = append(unstagedLines, "modified:   "+e.Path)
				case repo.StatusDeleted:
					unstagedLines = append(unstagedLines, "deleted:    "+e.Path)
				}
			}

			if len(stagedLines) > 0 {
				fmt.Println("\nChanges to be committed:")
				for _, l := range stagedLines {
					staged.Printf("\t%s\n", l)
				}
			}
			if len(unstagedLines) > 0 {
				fmt.Println("\nChanges not staged for commit:")
				for _, l := range unstagedLines {
					unstaged.Printf("\t%s\n", l)
				}
			}
			if len(untracked) > 0 {
				fmt.Println("\nUntracked files:")
				for _, p := range untracked {
					unstaged.Printf("\t%s\n", p)
				}
			}
			if len(stagedLines) == 0 && len(unstagedLines) == 0 && len(untracked) == 0 {
				fmt.Println("nothing to commit, working tree clean")
			}
			return nil
		},
	}
}
