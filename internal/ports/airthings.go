package ports

import (
	"context"

	"github.com/mwdvs/coldwatch/internal/domain"
)

// TokenSource exchanges stored credentials for a bearer token. One exchange
// per run; failures wrap domain.ErrAuthFailed and are run-fatal.
type TokenSource interface {
	Token(ctx context.Context, creds domain.Credentials) (string, error)
}

// SampleSource retrieves the latest sample for one device. Failures wrap
// domain.ErrFetchFailed and are isolated to that device.
type SampleSource interface {
	LatestSample(ctx context.Context, token string, deviceID string) (domain.Sample, error)
}

// DeviceCatalog lists the devices registered to the account, used to build
// or extend the inventory.
type DeviceCatalog interface {
	Devices(ctx context.Context, token string) ([]domain.DiscoveredDevice, error)
}
