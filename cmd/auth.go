package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAuthCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Verify Airthings API credentials",
	}

	cmd.AddCommand(newAuthCheckCmd(app))

	return cmd
}

func newAuthCheckCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Exchange inventory credentials for an access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inv, err := app.repo.Load(cmd.Context())
			if err != nil {
				return err
			}

			if _, err := app.client.Token(cmd.Context(), inv.Credentials); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Credentials for client %s are valid.\n", inv.Credentials.ClientID)
			return err
		},
	}
}
