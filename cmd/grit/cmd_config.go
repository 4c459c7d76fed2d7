package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nlowell/grit/pkg/repo"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Get and set repository configuration",
	}
	cmd.AddCommand(newConfigUserCmd())
	cmd.AddCommand(newConfigShowCmd())
	return cmd
}

func newConfigUserCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "user <name>",
		Short: "Set the commit author identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			return r.SetUser(args[0], email)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "author email address")
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repo.Open(".")
			if err != nil {
				return err
			}
			cfg, err := r.ReadConfig()
			if err != nil {
				return err
			}
			if cfg.User.Name == "" && cfg.User.Email == "" {
				fmt.Println("no user configured")
				return nil
			}
			fmt.Printf("user.name  = %s\n", cfg.User.Name)
			fmt.Printf("user.email = %s\n", cfg.User.Email)
			return nil
		},
	}
}
