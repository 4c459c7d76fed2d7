package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nlowell/grit/pkg/object"
	"github.com/nlowell/grit/pkg/repo"
)

func newCatFileCmd() *cobra.Command {
	var showType bool
	var showSize bool

	cmd := &cobra.Command{
		Use:   "cat-file <hash>",
		Short: "Show the type or content of a stored object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			h := object.Hash(args[0])
			if !object.ValidHash(h) {
				// Allow ref names so "grit cat-file HEAD" works.
				resolved, rerr := r.ResolveRef(args[0])
				if rerr != nil {
					return fmt.Errorf("not a valid object name: %s", args[0])
				}
				h = resolved
			}

			objType, data, err := r.Store.Read(h)
			if err != nil {
				return err
			}

			switch {
			case showType:
				fmt.Println(objType)
			case showSize:
				fmt.Println(len(data))
			default:
				os.Stdout.Write(data)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showType, "type", "t", false, "show the object type instead of its content")
	cmd.Flags().BoolVarP(&showSize, "size", "s", false, "show the object size instead of its content")
	return cmd
}
