package application

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwdvs/coldwatch/internal/domain"
)

type fakeInventoryRepository struct {
	inv domain.Inventory
	err error
}

func (f *fakeInventoryRepository) Load(context.Context) (domain.Inventory, error) {
	return f.inv, f.err
}

func (f *fakeInventoryRepository) Save(context.Context, domain.Inventory) error {
	return nil
}

type fakeTokenSource struct {
	token string
	err   error
	calls int
}

func (f *fakeTokenSource) Token(context.Context, domain.Credentials) (string, error) {
	f.calls++
	return f.token, f.err
}

type fakeSampleSource struct {
	samples map[string]domain.Sample
	errs    map[string]error
	fetched []string
}

func (f *fakeSampleSource) LatestSample(_ context.Context, _ string, deviceID string) (domain.Sample, error) {
	f.fetched = append(f.fetched, deviceID)
	if err, ok := f.errs[deviceID]; ok {
		return domain.Sample{}, err
	}
	sample, ok := f.samples[deviceID]
	if !ok {
		return domain.Sample{}, fmt.Errorf("%w: unknown device %s", domain.ErrFetchFailed, deviceID)
	}
	return sample, nil
}

type sentMessage struct {
	topic string
	body  string
}

type fakeNotifier struct {
	err  error
	sent []sentMessage
}

func (f *fakeNotifier) Send(_ context.Context, topic string, message string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{topic: topic, body: message})
	return nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

// A quiet Saturday noon, outside the report window.
var saturdayNoon = time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)

func testInventory() domain.Inventory {
	return domain.Inventory{
		Houses: map[string]map[string]domain.Device{
			"Cabin": {
				"Bedroom": {ID: "dev-1", Kind: "WAVE_PLUS"},
				"Kitchen": {ID: "dev-2", Kind: "WAVE_MINI"},
				"Hallway": {ID: "hub-1", Kind: "HUB"},
			},
			"Lake House": {
				"Den": {ID: "dev-3", Kind: "WAVE_PLUS"},
			},
		},
		Credentials: domain.Credentials{ClientID: "client-123", ClientSecret: "secret-456"},
		Topic:       "cabin-alerts",
		Thresholds:  domain.Thresholds{TempFloorF: 50.0, BatteryFloorPct: 50, FreshnessSeconds: 3600},
	}
}

func freshSample(tempC float64, battery int) domain.Sample {
	return domain.Sample{
		CapturedAt:   saturdayNoon.Add(-5 * time.Minute),
		TemperatureC: tempC,
		HumidityPct:  41.0,
		BatteryPct:   battery,
	}
}

func newTestPoller(repo *fakeInventoryRepository, tokens *fakeTokenSource, samples *fakeSampleSource, notifier *fakeNotifier, now time.Time) *Poller {
	return NewPoller(repo, tokens, samples, notifier, fixedClock{now: now})
}

func TestRunPollsMonitoredDevicesOnly(t *testing.T) {
	repo := &fakeInventoryRepository{inv: testInventory()}
	tokens := &fakeTokenSource{token: "token-abc"}
	samples := &fakeSampleSource{samples: map[string]domain.Sample{
		"dev-1": freshSample(22.45, 84),
		"dev-2": freshSample(20.0, 91),
		"dev-3": freshSample(21.0, 77),
	}}
	notifier := &fakeNotifier{}

	result, err := newTestPoller(repo, tokens, samples, notifier, saturdayNoon).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, tokens.calls)
	assert.Equal(t, []string{"dev-1", "dev-2", "dev-3"}, samples.fetched)
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, result.Readings, 3)
	assert.Empty(t, result.Failures)
	assert.Empty(t, notifier.sent)
	assert.False(t, result.DigestWindow)
}

func TestRunIsolatesSingleFetchFailure(t *testing.T) {
	repo := &fakeInventoryRepository{inv: testInventory()}
	tokens := &fakeTokenSource{token: "token-abc"}
	samples := &fakeSampleSource{
		samples: map[string]domain.Sample{
			"dev-1": freshSample(22.45, 84),
			"dev-3": freshSample(21.0, 77),
		},
		errs: map[string]error{
			"dev-2": fmt.Errorf("%w: device dev-2: status 502", domain.ErrFetchFailed),
		},
	}
	notifier := &fakeNotifier{}

	result, err := newTestPoller(repo, tokens, samples, notifier, saturdayNoon).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"dev-1", "dev-2", "dev-3"}, samples.fetched)
	assert.Len(t, result.Readings, 2)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "dev-2", result.Failures[0].DeviceID)
	assert.ErrorIs(t, result.Failures[0].Err, domain.ErrFetchFailed)
}

func TestRunSendsColdAndBatteryAlertsImmediately(t *testing.T) {
	repo := &fakeInventoryRepository{inv: testInventory()}
	tokens := &fakeTokenSource{token: "token-abc"}
	samples := &fakeSampleSource{samples: map[string]domain.Sample{
		"dev-1": freshSample(4.0, 20),  // cold and low battery
		"dev-2": freshSample(20.0, 91), // healthy
		"dev-3": freshSample(8.0, 84),  // cold only
	}}
	notifier := &fakeNotifier{}

	result, err := newTestPoller(repo, tokens, samples, notifier, saturdayNoon).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, notifier.sent, 3)
	assert.Equal(t, "cabin-alerts", notifier.sent[0].topic)
	assert.Equal(t, "Brrr it's cold!\nCabin Bedroom is 39.20°F.", notifier.sent[0].body)
	assert.Equal(t, "Battery Warning!\nCabin Bedroom is at 20%.", notifier.sent[1].body)
	assert.Equal(t, "Brrr it's cold!\nLake House Den is 46.40°F.", notifier.sent[2].body)
	assert.Equal(t, 3, result.MessagesSent)
}

func TestRunConsolidatesStaleNoticesIntoOneMessage(t *testing.T) {
	repo := &fakeInventoryRepository{inv: testInventory()}
	tokens := &fakeTokenSource{token: "token-abc"}
	stale := domain.Sample{
		CapturedAt:   saturdayNoon.Add(-2 * time.Hour),
		TemperatureC: 21.0,
		HumidityPct:  41.0,
		BatteryPct:   90,
	}
	samples := &fakeSampleSource{samples: map[string]domain.Sample{
		"dev-1": stale,
		"dev-2": freshSample(20.0, 91),
		"dev-3": stale,
	}}
	notifier := &fakeNotifier{}

	result, err := newTestPoller(repo, tokens, samples, notifier, saturdayNoon).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "Stale data warning!\nData for Cabin Bedroom is stale.\nData for Lake House Den is stale.", notifier.sent[0].body)
	assert.True(t, result.StaleNotified)
}

func TestRunFlushesDigestOnlyInsideReportWindow(t *testing.T) {
	// 2026-02-15 is a Sunday.
	tests := []struct {
		name       string
		now        time.Time
		wantDigest bool
	}{
		{name: "sunday 17:00", now: time.Date(2026, 2, 15, 17, 0, 30, 0, time.UTC), wantDigest: true},
		{name: "sunday 16:59", now: time.Date(2026, 2, 15, 16, 59, 0, 0, time.UTC), wantDigest: false},
		{name: "sunday 17:01", now: time.Date(2026, 2, 15, 17, 1, 0, 0, time.UTC), wantDigest: false},
		{name: "wednesday 17:00", now: time.Date(2026, 2, 18, 17, 0, 0, 0, time.UTC), wantDigest: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeInventoryRepository{inv: testInventory()}
			tokens := &fakeTokenSource{token: "token-abc"}
			samples := &fakeSampleSource{samples: map[string]domain.Sample{
				"dev-1": {CapturedAt: tt.now.Add(-5 * time.Minute), TemperatureC: 22.45, HumidityPct: 41.0, BatteryPct: 84},
				"dev-2": {CapturedAt: tt.now.Add(-5 * time.Minute), TemperatureC: 20.0, HumidityPct: 45.0, BatteryPct: 91},
				"dev-3": {CapturedAt: tt.now.Add(-5 * time.Minute), TemperatureC: 21.0, HumidityPct: 50.0, BatteryPct: 77},
			}}
			notifier := &fakeNotifier{}

			result, err := newTestPoller(repo, tokens, samples, notifier, tt.now).Run(context.Background())
			require.NoError(t, err)

			assert.Equal(t, tt.wantDigest, result.DigestSent)
			if !tt.wantDigest {
				assert.Empty(t, notifier.sent)
				return
			}

			require.Len(t, notifier.sent, 1)
			body := notifier.sent[0].body
			assert.True(t, strings.HasPrefix(body, "Weekly Report\n"))
			assert.Contains(t, body, "Cabin Bedroom is 72.41°F, battery is 84%")
			assert.Contains(t, body, "Cabin Kitchen is 68.00°F, battery is 91%")
			assert.Contains(t, body, "Lake House Den is 69.80°F, battery is 77%")
		})
	}
}

func TestRunAbortsWhenAuthenticationFails(t *testing.T) {
	repo := &fakeInventoryRepository{inv: testInventory()}
	tokens := &fakeTokenSource{err: fmt.Errorf("%w: status 401", domain.ErrAuthFailed)}
	samples := &fakeSampleSource{}
	notifier := &fakeNotifier{}

	_, err := newTestPoller(repo, tokens, samples, notifier, saturdayNoon).Run(context.Background())
	require.ErrorIs(t, err, domain.ErrAuthFailed)
	assert.Empty(t, samples.fetched)
	assert.Empty(t, notifier.sent)
}

func TestRunAbortsBeforeAnyNetworkCallOnInvalidSchema(t *testing.T) {
	repo := &fakeInventoryRepository{err: fmt.Errorf("%w: missing required key %q", domain.ErrSchemaInvalid, "credentials")}
	tokens := &fakeTokenSource{token: "token-abc"}
	samples := &fakeSampleSource{}
	notifier := &fakeNotifier{}

	_, err := newTestPoller(repo, tokens, samples, notifier, saturdayNoon).Run(context.Background())
	require.ErrorIs(t, err, domain.ErrSchemaInvalid)
	assert.Zero(t, tokens.calls)
	assert.Empty(t, samples.fetched)
	assert.Empty(t, notifier.sent)
}

func TestRunSwallowsDeliveryFailures(t *testing.T) {
	repo := &fakeInventoryRepository{inv: testInventory()}
	tokens := &fakeTokenSource{token: "token-abc"}
	samples := &fakeSampleSource{samples: map[string]domain.Sample{
		"dev-1": freshSample(4.0, 20),
		"dev-2": freshSample(20.0, 91),
		"dev-3": freshSample(8.0, 84),
	}}
	notifier := &fakeNotifier{err: fmt.Errorf("%w: status 429", domain.ErrDeliveryFailed)}

	result, err := newTestPoller(repo, tokens, samples, notifier, saturdayNoon).Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, result.Readings, 3)
	assert.Equal(t, 3, result.DeliveryFailures)
	assert.Zero(t, result.MessagesSent)
}
