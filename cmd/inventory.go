package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwdvs/coldwatch/internal/adapters/render/runview"
	"github.com/mwdvs/coldwatch/internal/domain"
)

func newInventoryCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Manage the monitored device inventory",
	}

	cmd.AddCommand(
		newInventoryShowCmd(app),
		newInventoryInitCmd(app),
		newInventoryAddCmd(app),
		newInventorySetThresholdsCmd(app),
	)

	return cmd
}

func newInventoryShowCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show houses, rooms, and thresholds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inv, err := app.repo.Load(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(inventoryDocument{
					Topic:      inv.Topic,
					Thresholds: inv.Thresholds,
					Houses:     inv.Houses,
				})
			}

			rendered, err := runview.RenderInventory(inv, app.repo.Path())
			if err != nil {
				return fmt.Errorf("render inventory: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

// inventoryDocument is the JSON shape of `inventory show --json`. Credentials
// stay out of it.
type inventoryDocument struct {
	Topic      string                              `json:"topic"`
	Thresholds domain.Thresholds                   `json:"thresholds"`
	Houses     map[string]map[string]domain.Device `json:"houses"`
}

func newInventoryInitCmd(app *app) *cobra.Command {
	var topic string
	var clientID string
	var clientSecret string
	var tempFloorF float64
	var batteryFloorPct int
	var freshnessSeconds int
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new inventory file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(app.repo.Path()); err == nil && !force {
				return fmt.Errorf("inventory file %s already exists (use --force to replace it)", app.repo.Path())
			}

			inv := domain.Inventory{
				Houses: map[string]map[string]domain.Device{},
				Credentials: domain.Credentials{
					ClientID:     strings.TrimSpace(clientID),
					ClientSecret: strings.TrimSpace(clientSecret),
				},
				Topic: strings.TrimSpace(topic),
				Thresholds: domain.Thresholds{
					TempFloorF:       tempFloorF,
					BatteryFloorPct:  batteryFloorPct,
					FreshnessSeconds: freshnessSeconds,
				},
			}

			if err := app.repo.Save(cmd.Context(), inv); err != nil {
				return err
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", app.repo.Path())
			return err
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "ntfy topic for alerts")
	cmd.Flags().StringVar(&clientID, "client-id", "", "Airthings API client ID")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "Airthings API client secret")
	cmd.Flags().Float64Var(&tempFloorF, "temp-floor-f", 50.0, "Cold alert floor in Fahrenheit")
	cmd.Flags().IntVar(&batteryFloorPct, "battery-floor", 50, "Battery alert floor in percent")
	cmd.Flags().IntVar(&freshnessSeconds, "freshness-seconds", domain.DefaultFreshnessSeconds, "Maximum sample age in seconds")
	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing inventory file")
	_ = cmd.MarkFlagRequired("topic")
	_ = cmd.MarkFlagRequired("client-id")
	_ = cmd.MarkFlagRequired("client-secret")

	return cmd
}

func newInventoryAddCmd(app *app) *cobra.Command {
	var house string
	var room string
	var deviceID string
	var deviceKind string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a device to a house and room",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inv, err := app.repo.Load(cmd.Context())
			if err != nil {
				return err
			}

			house = strings.TrimSpace(house)
			room = strings.TrimSpace(room)
			if inv.Houses == nil {
				inv.Houses = map[string]map[string]domain.Device{}
			}
			if _, ok := inv.Houses[house]; !ok {
				inv.Houses[house] = map[string]domain.Device{}
			}
			if existing, ok := inv.Houses[house][room]; ok {
				return fmt.Errorf("room %s %s already has device %s", house, room, existing.ID)
			}

			inv.Houses[house][room] = domain.Device{
				ID:   strings.TrimSpace(deviceID),
				Kind: strings.TrimSpace(deviceKind),
			}

			if err := app.repo.Save(cmd.Context(), inv); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s (device %s)\n", house, room, deviceID)
			return err
		},
	}

	cmd.Flags().StringVar(&house, "house", "", "House name")
	cmd.Flags().StringVar(&room, "room", "", "Room name")
	cmd.Flags().StringVar(&deviceID, "device-id", "", "Airthings device serial")
	cmd.Flags().StringVar(&deviceKind, "device-kind", "", "Device kind (e.g. WAVE_PLUS)")
	_ = cmd.MarkFlagRequired("house")
	_ = cmd.MarkFlagRequired("room")
	_ = cmd.MarkFlagRequired("device-id")

	return cmd
}

func newInventorySetThresholdsCmd(app *app) *cobra.Command {
	var tempFloorF float64
	var batteryFloorPct int
	var freshnessSeconds int

	cmd := &cobra.Command{
		Use:   "set-thresholds",
		Short: "Update alert thresholds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("temp-floor-f") &&
				!cmd.Flags().Changed("battery-floor") &&
				!cmd.Flags().Changed("freshness-seconds") {
				return errors.New("set-thresholds requires at least one threshold flag")
			}

			inv, err := app.repo.Load(cmd.Context())
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("temp-floor-f") {
				inv.Thresholds.TempFloorF = tempFloorF
			}
			if cmd.Flags().Changed("battery-floor") {
				inv.Thresholds.BatteryFloorPct = batteryFloorPct
			}
			if cmd.Flags().Changed("freshness-seconds") {
				inv.Thresholds.FreshnessSeconds = freshnessSeconds
			}

			if err := app.repo.Save(cmd.Context(), inv); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Thresholds: temp floor %.2f°F, battery floor %d%%, freshness %ds\n",
				inv.Thresholds.TempFloorF, inv.Thresholds.BatteryFloorPct, inv.Thresholds.FreshnessSeconds)
			return err
		},
	}

	cmd.Flags().Float64Var(&tempFloorF, "temp-floor-f", 0, "Cold alert floor in Fahrenheit")
	cmd.Flags().IntVar(&batteryFloorPct, "battery-floor", 0, "Battery alert floor in percent")
	cmd.Flags().IntVar(&freshnessSeconds, "freshness-seconds", 0, "Maximum sample age in seconds")

	return cmd
}
