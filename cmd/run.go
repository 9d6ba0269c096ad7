package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwdvs/coldwatch/internal/adapters/render/runview"
	"github.com/mwdvs/coldwatch/internal/application"
)

func newRunCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one poll cycle and dispatch alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPollCycle(cmd, app, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func runPollCycle(cmd *cobra.Command, app *app, asJSON bool) error {
	var result application.RunResult

	pollCmd := func(ctx context.Context) error {
		var err error
		result, err = app.poller.Run(ctx)
		return err
	}

	if asJSON {
		if err := pollCmd(cmd.Context()); err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if err := runPollSpinner(cmd.Context(), cmd.ErrOrStderr(), pollCmd); err != nil {
		return err
	}

	rendered, err := runview.RenderRun(result, runview.RenderOptions{Now: app.now()})
	if err != nil {
		return fmt.Errorf("render run result: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
