package application

import (
	"context"
	"fmt"
	"time"

	nuts "github.com/vaudience/go-nuts"

	"github.com/mwdvs/coldwatch/internal/domain"
	"github.com/mwdvs/coldwatch/internal/ports"
)

// Poller runs one poll cycle: load inventory, authenticate, fetch and
// evaluate every monitored device, dispatch notifications, and flush the
// weekly digest when the run lands in the report window. All state lives in
// the RunResult of a single call; nothing is shared across runs.
type Poller struct {
	inventory ports.InventoryRepository
	tokens    ports.TokenSource
	samples   ports.SampleSource
	notifier  ports.Notifier
	clock     ports.Clock
}

func NewPoller(inventory ports.InventoryRepository, tokens ports.TokenSource, samples ports.SampleSource, notifier ports.Notifier, clock ports.Clock) *Poller {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Poller{
		inventory: inventory,
		tokens:    tokens,
		samples:   samples,
		notifier:  notifier,
		clock:     clock,
	}
}

// DeviceReading is one successfully fetched and evaluated sample.
type DeviceReading struct {
	House       string
	Room        string
	DeviceID    string
	TempC       float64
	TempF       float64
	HumidityPct float64
	BatteryPct  int
	Stale       bool
	CapturedAt  time.Time
	Alerts      []domain.AlertKind
}

// DeviceFailure records a fetch that failed without affecting its siblings.
type DeviceFailure struct {
	House    string
	Room     string
	DeviceID string
	Reason   string
	Err      error `json:"-"`
}

// RunResult summarizes one poll cycle.
type RunResult struct {
	StartedAt        time.Time
	Readings         []DeviceReading
	Failures         []DeviceFailure
	Skipped          int
	MessagesSent     int
	DeliveryFailures int
	StaleNotified    bool
	DigestWindow     bool
	DigestSent       bool
}

// Run executes a single poll cycle. Inventory load and authentication
// failures are fatal and returned; per-device fetch failures and delivery
// failures are recorded in the result and the run continues.
func (p *Poller) Run(ctx context.Context) (RunResult, error) {
	inv, err := p.inventory.Load(ctx)
	if err != nil {
		return RunResult{}, fmt.Errorf("load inventory: %w", err)
	}

	now := p.clock.Now()
	result := RunResult{
		StartedAt:    now,
		DigestWindow: domain.IsReportWindow(now),
	}

	token, err := p.tokens.Token(ctx, inv.Credentials)
	if err != nil {
		return result, fmt.Errorf("authenticate: %w", err)
	}

	report := &domain.WeeklyReport{}
	var staleAlerts []domain.Alert

	for _, entry := range inv.Devices() {
		if !entry.Device.Monitored() {
			nuts.L.Infof("[Poller] Skipping %s %s: device kind %q is not monitored", entry.House, entry.Room, entry.Device.Kind)
			result.Skipped++
			continue
		}

		sample, err := p.samples.LatestSample(ctx, token, entry.Device.ID)
		if err != nil {
			nuts.L.Errorf("[Poller] Fetch failed for %s %s (device %s): %v", entry.House, entry.Room, entry.Device.ID, err)
			result.Failures = append(result.Failures, DeviceFailure{
				House:    entry.House,
				Room:     entry.Room,
				DeviceID: entry.Device.ID,
				Reason:   err.Error(),
				Err:      err,
			})
			continue
		}

		eval := domain.Evaluate(entry.House, entry.Room, sample, inv.Thresholds, now)

		reading := DeviceReading{
			House:       entry.House,
			Room:        entry.Room,
			DeviceID:    entry.Device.ID,
			TempC:       sample.TemperatureC,
			TempF:       eval.TempF,
			HumidityPct: sample.HumidityPct,
			BatteryPct:  sample.BatteryPct,
			Stale:       eval.Stale,
			CapturedAt:  sample.CapturedAt,
		}
		for _, alert := range eval.Alerts {
			reading.Alerts = append(reading.Alerts, alert.Kind)
		}
		result.Readings = append(result.Readings, reading)

		nuts.L.Infof("[Poller] %s %s: %.2f°F / %.2f°C, humidity %.1f%%, battery %d%%", entry.House, entry.Room, eval.TempF, sample.TemperatureC, sample.HumidityPct, sample.BatteryPct)

		for _, alert := range eval.Alerts {
			if alert.Kind == domain.AlertStale {
				// Stale notices flood if sent per device; they go out
				// once, consolidated, at end of run.
				staleAlerts = append(staleAlerts, alert)
				continue
			}
			p.send(ctx, inv.Topic, alert.Message(), &result)
		}

		report.Append(eval.ReportLine)
	}

	if len(staleAlerts) > 0 {
		result.StaleNotified = p.send(ctx, inv.Topic, domain.StaleNotice(staleAlerts), &result)
	}

	if result.DigestWindow && !report.Empty() {
		result.DigestSent = p.send(ctx, inv.Topic, report.Message(), &result)
	}

	return result, nil
}

// send delivers one message, swallowing delivery failures: a refused push
// must not abort the rest of the run.
func (p *Poller) send(ctx context.Context, topic string, message string, result *RunResult) bool {
	if err := p.notifier.Send(ctx, topic, message); err != nil {
		nuts.L.Errorf("[Poller] Delivery to topic %s failed: %v", topic, err)
		result.DeliveryFailures++
		return false
	}

	result.MessagesSent++
	return true
}
