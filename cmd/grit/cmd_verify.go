package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nlowell/grit/pkg/object"
	"github.com/nlowell/grit/pkg/repo"
)

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [ref]",
		Short: "Verify the signature of a commit",
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
			h, err := r.ResolveRef(ref)
			if err != nil {
				return err
			}
			c, err := r.Store.ReadCommit(h)
			if err != nil {
				return err
			}
			if c.Signature == "" {
				return fmt.Errorf("commit %s is not signed", shortHash(string(h)))
			}

			fingerprint, err := verifyCommitSignature(c.Signature, object.CommitSigningPayload(c))
			if err != nil {
				return fmt.Errorf("commit %s: %w", shortHash(string(h)), err)
			}
			fmt.Printf("good signature on %s (key %s)\n", shortHash(string(h)), fingerprint)
			return nil
		},
	}
	return cmd
}
