package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nlowell/grit/pkg/repo"
)

func newTagCmd() *cobra.Command {
	var annotate bool
	var message string
	var force bool
	var deleteName string

	cmd := &cobra.Command{
		Use:   "tag [name] [target]",
		Short: "List, create, or delete tags",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			if deleteName != "" {
				if err := r.DeleteTag(deleteName); err != nil {
					return err
				}
				fmt.Printf("Deleted tag %s\n", deleteName)
				return nil
			}

			if len(args) == 0 {
				tags, err := r.ListTags()
				if err != nil {
					return err
				}
				for _, t := range tags {
					fmt.Println(t)
				}
				return nil
			}

			name := args[0]
			targetRef := "HEAD"
			if len(args) == 2 {
				targetRef = args[1]
			}
			target, err := r.ResolveRef(targetRef)
			if err != nil {
				return err
			}

			if annotate {
				if _, err := r.CreateAnnotatedTag(name, target, r.Author(), message, force); err != nil {
					return err
				}
				return nil
			}
			return r.CreateTag(name, target, force)
		},
	}

	cmd.Flags().BoolVarP(&annotate, "annotate", "a", false, "create an annotated tag object")
	cmd.Flags().StringVarP(&message, "message", "m", "", "annotated tag message")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "replace an existing tag")
	cmd.Flags().StringVarP(&deleteName, "delete", "d", "", "delete the named tag")
	return cmd
}
