package toml

import (
	"fmt"
	"sort"

	"github.com/mwdvs/coldwatch/internal/domain"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version     int                `toml:"version"`
	Topic       string             `toml:"topic"`
	Credentials *credentialsSchema `toml:"credentials"`
	Thresholds  *thresholdsSchema  `toml:"thresholds"`
	Houses      []houseSchema      `toml:"houses,omitempty"`
}

type credentialsSchema struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// Threshold fields are pointers so an absent key is distinguishable from an
// explicit zero: required keys must be present, never guessed.
type thresholdsSchema struct {
	TempFloorF       *float64 `toml:"temperature_f_floor"`
	BatteryFloorPct  *int     `toml:"battery_pct_floor"`
	FreshnessSeconds *int     `toml:"freshness_seconds"`
}

type houseSchema struct {
	Name  string       `toml:"name"`
	Rooms []roomSchema `toml:"rooms"`
}

type roomSchema struct {
	Name       string `toml:"name"`
	DeviceID   string `toml:"device_id"`
	DeviceKind string `toml:"device_kind,omitempty"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("%w: unsupported inventory schema version %d (current %d)", domain.ErrSchemaInvalid, s.Version, currentSchemaVersion)
	}

	return nil
}

// validate enforces the load contract: required top-level keys present,
// house and room names unique within their parent, every declared house
// non-empty, and every room bound to exactly one device.
func (s fileSchema) validate() error {
	if s.Credentials == nil {
		return missingKey("credentials")
	}
	if s.Credentials.ClientID == "" {
		return missingKey("credentials.client_id")
	}
	if s.Credentials.ClientSecret == "" {
		return missingKey("credentials.client_secret")
	}
	if s.Topic == "" {
		return missingKey("topic")
	}
	if s.Thresholds == nil {
		return missingKey("thresholds")
	}
	if s.Thresholds.TempFloorF == nil {
		return missingKey("thresholds.temperature_f_floor")
	}
	if s.Thresholds.BatteryFloorPct == nil {
		return missingKey("thresholds.battery_pct_floor")
	}
	if s.Thresholds.FreshnessSeconds != nil && *s.Thresholds.FreshnessSeconds <= 0 {
		return fmt.Errorf("%w: thresholds.freshness_seconds must be positive", domain.ErrSchemaInvalid)
	}

	seenHouses := make(map[string]struct{}, len(s.Houses))
	for _, house := range s.Houses {
		if house.Name == "" {
			return missingKey("houses.name")
		}
		if _, ok := seenHouses[house.Name]; ok {
			return fmt.Errorf("%w: duplicate house %q", domain.ErrSchemaInvalid, house.Name)
		}
		seenHouses[house.Name] = struct{}{}

		if len(house.Rooms) == 0 {
			return fmt.Errorf("%w: house %q has no rooms", domain.ErrSchemaInvalid, house.Name)
		}

		seenRooms := make(map[string]struct{}, len(house.Rooms))
		for _, room := range house.Rooms {
			if room.Name == "" {
				return missingKey("houses.rooms.name")
			}
			if _, ok := seenRooms[room.Name]; ok {
				return fmt.Errorf("%w: duplicate room %q in house %q", domain.ErrSchemaInvalid, room.Name, house.Name)
			}
			seenRooms[room.Name] = struct{}{}

			if room.DeviceID == "" {
				return fmt.Errorf("%w: room %q in house %q has no device_id", domain.ErrSchemaInvalid, room.Name, house.Name)
			}
		}
	}

	return nil
}

func missingKey(key string) error {
	return fmt.Errorf("%w: missing required key %q", domain.ErrSchemaInvalid, key)
}

func toSchema(inv domain.Inventory) fileSchema {
	tempFloor := inv.Thresholds.TempFloorF
	batteryFloor := inv.Thresholds.BatteryFloorPct
	freshness := inv.Thresholds.FreshnessSeconds
	if freshness == 0 {
		freshness = domain.DefaultFreshnessSeconds
	}

	file := fileSchema{
		Version: currentSchemaVersion,
		Topic:   inv.Topic,
		Credentials: &credentialsSchema{
			ClientID:     inv.Credentials.ClientID,
			ClientSecret: inv.Credentials.ClientSecret,
		},
		Thresholds: &thresholdsSchema{
			TempFloorF:       &tempFloor,
			BatteryFloorPct:  &batteryFloor,
			FreshnessSeconds: &freshness,
		},
	}

	houses := make([]string, 0, len(inv.Houses))
	for house := range inv.Houses {
		houses = append(houses, house)
	}
	sort.Strings(houses)

	for _, house := range houses {
		rooms := make([]string, 0, len(inv.Houses[house]))
		for room := range inv.Houses[house] {
			rooms = append(rooms, room)
		}
		sort.Strings(rooms)

		encoded := houseSchema{Name: house}
		for _, room := range rooms {
			device := inv.Houses[house][room]
			encoded.Rooms = append(encoded.Rooms, roomSchema{
				Name:       room,
				DeviceID:   device.ID,
				DeviceKind: device.Kind,
			})
		}
		file.Houses = append(file.Houses, encoded)
	}

	return file
}

func fromSchema(file fileSchema) domain.Inventory {
	inv := domain.Inventory{
		Houses: make(map[string]map[string]domain.Device, len(file.Houses)),
		Topic:  file.Topic,
	}

	if file.Credentials != nil {
		inv.Credentials = domain.Credentials{
			ClientID:     file.Credentials.ClientID,
			ClientSecret: file.Credentials.ClientSecret,
		}
	}

	if file.Thresholds != nil {
		if file.Thresholds.TempFloorF != nil {
			inv.Thresholds.TempFloorF = *file.Thresholds.TempFloorF
		}
		if file.Thresholds.BatteryFloorPct != nil {
			inv.Thresholds.BatteryFloorPct = *file.Thresholds.BatteryFloorPct
		}
	}
	inv.Thresholds.FreshnessSeconds = domain.DefaultFreshnessSeconds
	if file.Thresholds != nil && file.Thresholds.FreshnessSeconds != nil {
		inv.Thresholds.FreshnessSeconds = *file.Thresholds.FreshnessSeconds
	}

	for _, house := range file.Houses {
		rooms := make(map[string]domain.Device, len(house.Rooms))
		for _, room := range house.Rooms {
			rooms[room.Name] = domain.Device{ID: room.DeviceID, Kind: room.DeviceKind}
		}
		inv.Houses[house.Name] = rooms
	}

	return inv
}
