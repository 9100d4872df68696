package main

import (
	"encoding/json"
	"fmt"

	intconfig "dtt/internal/config"
	"dtt/internal/drive"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newAuthCmd(opts *rootOptions) *cobra.Command {
	tokens := func() *drive.TokenStore {
		return drive.NewTokenStore(drive.ConfigFromEnv(intconfig.LoadEnv().Drive), opts.logger().Named("drive"))
	}

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the Google Drive authorization",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "url",
			Short: "Print the consent URL",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), tokens().ConsentURL(uuid.NewString()))
				return nil
			},
		},
		&cobra.Command{
			Use:   "exchange CODE",
			Short: "Store the token for an authorization code",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := tokens().Exchange(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "authorized")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the stored authorization",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(tokens().Status())
			},
		},
		&cobra.Command{
			Use:   "revoke",
			Short: "Revoke and forget the stored token",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := tokens().Revoke(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "revoked")
				return nil
			},
		},
	)
	return cmd
}
