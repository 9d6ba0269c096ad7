package domain

import (
	"fmt"
	"strings"
)

type AlertKind string

const (
	AlertCold       AlertKind = "cold"
	AlertLowBattery AlertKind = "low_battery"
	AlertStale      AlertKind = "stale"
)

// Alert is a single condition detected for one device during one run. Alerts
// are ephemeral: produced by Evaluate, dispatched or aggregated, then gone.
type Alert struct {
	Kind       AlertKind
	House      string
	Room       string
	TempF      float64
	BatteryPct int
}

// Message renders the push notification body for an individually dispatched
// alert. Stale alerts are never sent individually; see StaleNotice.
func (a Alert) Message() string {
	switch a.Kind {
	case AlertCold:
		return fmt.Sprintf("Brrr it's cold!\n%s %s is %.2f°F.", a.House, a.Room, a.TempF)
	case AlertLowBattery:
		return fmt.Sprintf("Battery Warning!\n%s %s is at %d%%.", a.House, a.Room, a.BatteryPct)
	case AlertStale:
		return staleLine(a)
	default:
		return ""
	}
}

// StaleNotice consolidates all stale alerts from one run into a single
// notification body.
func StaleNotice(alerts []Alert) string {
	lines := make([]string, 0, len(alerts)+1)
	lines = append(lines, "Stale data warning!")
	for _, alert := range alerts {
		lines = append(lines, staleLine(alert))
	}

	return strings.Join(lines, "\n")
}

func staleLine(a Alert) string {
	return fmt.Sprintf("Data for %s %s is stale.", a.House, a.Room)
}
