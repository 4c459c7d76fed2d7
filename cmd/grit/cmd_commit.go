package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nlowell/grit/pkg/repo"
)

func newCommitCmd() *cobra.Command {
	var message string
	var author string
	var sign bool
	var signingKey string

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Record changes to the repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return fmt.Errorf("commit message is required (-m)")
			}

			r, err := repo.Open(".")
			if err != nil {
				return err
			}

			if author == "" {
				author = r.Author()
			}

			var signer repo.CommitSigner
			if sign {
				s, keyPath, err := newSSHCommitSigner(signingKey)
				if err != nil {
					return err
				}
				signer = s
				fmt.Printf("signing with %s\n", keyPath)
			}

			h, err := r.CommitWithSigner(message, author, signer)
			if err != nil {
				return err
			}

			branch, err := r.CurrentBranch()
			if err != nil || branch == "" {
				branch = "HEAD"
			}
			fmt.Printf("[%s %s] %s\n", branch, shortHash(string(h)), message)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVar(&author, "author", "", "override configured author")
	cmd.Flags().BoolVarP(&sign, "sign", "S", false, "sign the commit with an SSH key")
	cmd.Flags().StringVar(&signingKey, "signing-key", "", "path to the SSH private key used for signing")
	return cmd
}
