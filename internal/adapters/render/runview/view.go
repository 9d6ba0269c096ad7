// Package runview renders poll cycle results and inventory listings for
// terminal output.
package runview

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mwdvs/coldwatch/internal/application"
	"github.com/mwdvs/coldwatch/internal/domain"
)

type RenderOptions struct {
	Now time.Time
}

// RenderRun formats one poll cycle result, grouped by house.
func RenderRun(result application.RunResult, opts RenderOptions) (string, error) {
	return renderRunView(result, opts, newStyles()), nil
}

// RenderInventory formats the monitored device inventory.
func RenderInventory(inv domain.Inventory, path string) (string, error) {
	return renderInventoryView(inv, path, newStyles()), nil
}

func renderRunView(result application.RunResult, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Cold Watch"),
		s.header.Render(fmt.Sprintf("devices: %d polled, %d failed, %d skipped", len(result.Readings), len(result.Failures), result.Skipped)),
	}

	if len(result.Readings) == 0 && len(result.Failures) == 0 {
		lines = append(lines, s.empty.Render("No monitored devices in inventory."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, house := range runHouses(result) {
		lines = append(lines, s.section.Render(renderHouse(house, result, opts, s)))
	}

	if summary := renderDelivery(result, s); summary != "" {
		lines = append(lines, s.section.Render(summary))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func runHouses(result application.RunResult) []string {
	seen := make(map[string]struct{})
	houses := make([]string, 0, 4)
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		houses = append(houses, name)
	}

	for _, reading := range result.Readings {
		add(reading.House)
	}
	for _, failure := range result.Failures {
		add(failure.House)
	}

	sort.Strings(houses)
	return houses
}

func renderHouse(house string, result application.RunResult, opts RenderOptions, s styles) string {
	parts := []string{s.house.Render(house)}

	for _, reading := range result.Readings {
		if reading.House != house {
			continue
		}
		parts = append(parts, renderReading(reading, opts, s))
	}

	for _, failure := range result.Failures {
		if failure.House != house {
			continue
		}
		parts = append(parts, fmt.Sprintf("  %s %s",
			s.room.Render(failure.Room+":"),
			s.alert.Render("fetch failed: "+failure.Reason)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderReading(reading application.DeviceReading, opts RenderOptions, s styles) string {
	detail := fmt.Sprintf("%.2f°F  humidity %.1f%%  battery %d%%", reading.TempF, reading.HumidityPct, reading.BatteryPct)

	line := fmt.Sprintf("  %s %s", s.room.Render(reading.Room+":"), s.detail.Render(detail))

	if tags := alertTags(reading); tags != "" {
		line += "  " + s.alert.Render(tags)
	} else {
		line += "  " + s.ok.Render("ok")
	}

	if !opts.Now.IsZero() && !reading.CapturedAt.IsZero() {
		age := opts.Now.Sub(reading.CapturedAt).Truncate(time.Second)
		line += "  " + s.meta.Render(fmt.Sprintf("(%s ago)", age))
	}

	return line
}

func alertTags(reading application.DeviceReading) string {
	tags := make([]string, 0, len(reading.Alerts))
	for _, alert := range reading.Alerts {
		tags = append(tags, string(alert))
	}
	return strings.Join(tags, " ")
}

func renderDelivery(result application.RunResult, s styles) string {
	parts := make([]string, 0, 3)
	if result.MessagesSent > 0 {
		parts = append(parts, s.detail.Render(fmt.Sprintf("notifications sent: %d", result.MessagesSent)))
	}
	if result.DeliveryFailures > 0 {
		parts = append(parts, s.warning.Render(fmt.Sprintf("delivery failures: %d", result.DeliveryFailures)))
	}
	if result.DigestSent {
		parts = append(parts, s.detail.Render("weekly digest sent"))
	}

	if len(parts) == 0 {
		return ""
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderInventoryView(inv domain.Inventory, path string, s styles) string {
	lines := []string{
		s.title.Render("Inventory"),
		s.header.Render(path),
		s.header.Render(fmt.Sprintf("topic: %s", inv.Topic)),
		s.header.Render(fmt.Sprintf("thresholds: temp floor %.2f°F, battery floor %d%%, freshness %ds",
			inv.Thresholds.TempFloorF, inv.Thresholds.BatteryFloorPct, inv.Thresholds.FreshnessSeconds)),
	}

	entries := inv.Devices()
	if len(entries) == 0 {
		lines = append(lines, s.empty.Render("No devices configured."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	currentHouse := ""
	var parts []string
	flush := func() {
		if len(parts) > 0 {
			lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, parts...)))
			parts = nil
		}
	}

	for _, entry := range entries {
		if entry.House != currentHouse {
			flush()
			currentHouse = entry.House
			parts = append(parts, s.house.Render(entry.House))
		}

		line := fmt.Sprintf("  %s %s", s.room.Render(entry.Room+":"), s.detail.Render(entry.Device.ID))
		if entry.Device.Kind != "" {
			line += "  " + s.meta.Render(entry.Device.Kind)
		}
		if !entry.Device.Monitored() {
			line += "  " + s.empty.Render("(not monitored)")
		}
		parts = append(parts, line)
	}
	flush()

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
