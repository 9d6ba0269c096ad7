package domain

import (
	"fmt"
	"math"
	"time"
)

// Fahrenheit converts a Celsius reading to Fahrenheit rounded to exactly two
// decimal places, half away from zero.
func Fahrenheit(celsius float64) float64 {
	return math.Round((celsius*9/5+32)*100) / 100
}

// Evaluation is the outcome of checking one sample against the thresholds.
type Evaluation struct {
	TempF      float64
	Stale      bool
	Alerts     []Alert
	ReportLine string
}

// Evaluate maps one device sample to its alert conditions and weekly report
// line. It is pure: the same inputs always yield the same evaluation.
//
// The cold comparison is inclusive (a reading exactly at the floor fires) and
// the battery comparison is strict. Staleness is inclusive of the freshness
// threshold and is independent of the other conditions: a stale sample is
// still evaluated against the thresholds using its stale values.
func Evaluate(house, room string, sample Sample, th Thresholds, now time.Time) Evaluation {
	eval := Evaluation{TempF: Fahrenheit(sample.TemperatureC)}

	if eval.TempF <= th.TempFloorF {
		eval.Alerts = append(eval.Alerts, Alert{
			Kind:  AlertCold,
			House: house,
			Room:  room,
			TempF: eval.TempF,
		})
	}

	if sample.BatteryPct < th.BatteryFloorPct {
		eval.Alerts = append(eval.Alerts, Alert{
			Kind:       AlertLowBattery,
			House:      house,
			Room:       room,
			BatteryPct: sample.BatteryPct,
		})
	}

	if sample.Age(now) >= th.Freshness() {
		eval.Stale = true
		eval.Alerts = append(eval.Alerts, Alert{
			Kind:  AlertStale,
			House: house,
			Room:  room,
		})
	}

	eval.ReportLine = fmt.Sprintf("%s %s is %.2f°F, battery is %d%%", house, room, eval.TempF, sample.BatteryPct)

	return eval
}
