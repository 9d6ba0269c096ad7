package domain

import "time"

// Sample is the latest reading reported by one device. Samples are fetched
// fresh on every run and never persisted.
type Sample struct {
	CapturedAt   time.Time
	TemperatureC float64
	HumidityPct  float64
	BatteryPct   int
}

func (s Sample) Age(now time.Time) time.Duration {
	return now.Sub(s.CapturedAt)
}
