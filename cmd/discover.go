package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwdvs/coldwatch/internal/domain"
)

func newDiscoverCmd(app *app) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List devices registered with the Airthings account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			inv, err := app.repo.Load(cmd.Context())
			if err != nil {
				return err
			}

			token, err := app.client.Token(cmd.Context(), inv.Credentials)
			if err != nil {
				return err
			}

			devices, err := app.client.Devices(cmd.Context(), token)
			if err != nil {
				return err
			}

			if len(devices) == 0 {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "No devices registered.")
				return err
			}

			known := knownDeviceIDs(inv)
			added := 0
			for _, device := range devices {
				candidate := domain.Device{ID: device.ID, Kind: device.Kind}

				status := "new"
				if _, ok := known[device.ID]; ok {
					status = "in inventory"
				} else if !candidate.Monitored() {
					status = "not monitored"
				} else if write {
					if mergeDiscoveredDevice(&inv, device) {
						status = "added"
						added++
					} else {
						status = "room occupied, skipped"
					}
				}

				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %-12s %s / %s  [%s]\n",
					device.ID, device.Kind, placementOrDefault(device.House), placementOrDefault(device.Room), status)
			}

			if write && added > 0 {
				if err := app.repo.Save(cmd.Context(), inv); err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added %d device(s) to %s\n", added, app.repo.Path())
				return err
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&write, "write", false, "Add new monitored devices to the inventory")

	return cmd
}

func knownDeviceIDs(inv domain.Inventory) map[string]struct{} {
	known := make(map[string]struct{})
	for _, entry := range inv.Devices() {
		known[entry.Device.ID] = struct{}{}
	}
	return known
}

// mergeDiscoveredDevice places a device under its account-side house and room
// names. An occupied room is left alone.
func mergeDiscoveredDevice(inv *domain.Inventory, device domain.DiscoveredDevice) bool {
	house := placementOrDefault(device.House)
	room := placementOrDefault(device.Room)

	if inv.Houses == nil {
		inv.Houses = map[string]map[string]domain.Device{}
	}
	if _, ok := inv.Houses[house]; !ok {
		inv.Houses[house] = map[string]domain.Device{}
	}
	if _, ok := inv.Houses[house][room]; ok {
		return false
	}

	inv.Houses[house][room] = domain.Device{ID: device.ID, Kind: device.Kind}
	return true
}

func placementOrDefault(name string) string {
	if name == "" {
		return "Unassigned"
	}
	return name
}
