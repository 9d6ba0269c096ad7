package domain

import (
	"sort"
	"strings"
	"time"
)

// DefaultFreshnessSeconds is applied when the inventory document does not
// configure a freshness threshold.
const DefaultFreshnessSeconds = 3600

// Kinds outside this family (hubs, relays) stay in the inventory but are
// never polled.
const monitoredKindPrefix = "WAVE_"

// Device is a single environmental monitor identified by its vendor serial.
type Device struct {
	ID   string
	Kind string
}

// Monitored reports whether the device belongs to the polled sensor family.
func (d Device) Monitored() bool {
	return strings.HasPrefix(d.Kind, monitoredKindPrefix)
}

// Credentials hold the vendor API client pair. They are opaque to the rest of
// the system and must never appear in logs or rendered output.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// String keeps credential values out of accidental %v/%s formatting.
func (c Credentials) String() string {
	return "credentials(redacted)"
}

// Thresholds configure alert evaluation for every device in the inventory.
type Thresholds struct {
	TempFloorF       float64
	BatteryFloorPct  int
	FreshnessSeconds int
}

func (t Thresholds) Freshness() time.Duration {
	return time.Duration(t.FreshnessSeconds) * time.Second
}

// Inventory is the loaded form of the persisted inventory document: the
// house -> room -> device map plus the run configuration. It is read-only
// once loaded; the polling path never mutates it.
type Inventory struct {
	Houses      map[string]map[string]Device
	Credentials Credentials
	Topic       string
	Thresholds  Thresholds
}

// InventoryEntry is one device together with its place in the house map.
type InventoryEntry struct {
	House  string
	Room   string
	Device Device
}

// Devices returns every inventory entry in sorted house then room order, so
// a run enumerates the map deterministically.
func (inv Inventory) Devices() []InventoryEntry {
	houses := make([]string, 0, len(inv.Houses))
	for house := range inv.Houses {
		houses = append(houses, house)
	}
	sort.Strings(houses)

	var entries []InventoryEntry
	for _, house := range houses {
		rooms := make([]string, 0, len(inv.Houses[house]))
		for room := range inv.Houses[house] {
			rooms = append(rooms, room)
		}
		sort.Strings(rooms)

		for _, room := range rooms {
			entries = append(entries, InventoryEntry{
				House:  house,
				Room:   room,
				Device: inv.Houses[house][room],
			})
		}
	}

	return entries
}

// DiscoveredDevice is one device as reported by the vendor's device listing,
// before it is placed in the inventory.
type DiscoveredDevice struct {
	ID    string
	Kind  string
	House string
	Room  string
}
