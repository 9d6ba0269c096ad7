package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cw",
		Short:         "Cold Watch (cw): poll sensors and push freeze alerts",
		Long:          "cw (Cold Watch) polls Airthings sensors for every room in your inventory, checks temperature, battery, and data freshness against your thresholds, and pushes alerts to an ntfy topic.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(app),
		newInventoryCmd(app),
		newDiscoverCmd(app),
		newAuthCmd(app),
	)

	return rootCmd
}
