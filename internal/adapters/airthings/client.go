package airthings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mwdvs/coldwatch/internal/domain"
	"github.com/mwdvs/coldwatch/internal/ports"
)

const (
	DefaultAccountsURL = "https://accounts-api.airthings.com"
	DefaultAPIURL      = "https://ext-api.airthings.com"

	tokenPath   = "/v1/token"
	devicesPath = "/v1/devices"

	// The API client is provisioned with read-only access to current values.
	tokenScope = "read:device:current_values"

	maxResponseBytes = 1 << 20
)

// Client talks to the Airthings accounts and external APIs. The zero value
// with URLs filled in is ready to use; HTTPClient and RequestTimeout fall
// back to http.DefaultClient and 30s.
type Client struct {
	AccountsURL    string
	APIURL         string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

var (
	_ ports.TokenSource   = (*Client)(nil)
	_ ports.SampleSource  = (*Client)(nil)
	_ ports.DeviceCatalog = (*Client)(nil)
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type latestSamplesResponse struct {
	Data struct {
		Time     int64    `json:"time"`
		Temp     *float64 `json:"temp"`
		Humidity float64  `json:"humidity"`
		Battery  int      `json:"battery"`
	} `json:"data"`
}

type devicesResponse struct {
	Devices []struct {
		ID         string `json:"id"`
		DeviceType string `json:"deviceType"`
		Segment    struct {
			Name string `json:"name"`
		} `json:"segment"`
		Location struct {
			Name string `json:"name"`
		} `json:"location"`
	} `json:"devices"`
}

// Token performs a single client-credentials exchange. The credential pair
// goes out as HTTP basic auth; no token is cached across calls.
func (c *Client) Token(ctx context.Context, creds domain.Credentials) (string, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return "", fmt.Errorf("%w: missing client credentials", domain.ErrAuthFailed)
	}

	endpoint, err := buildAPIURL(c.AccountsURL, tokenPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAuthFailed, err)
	}

	values := url.Values{}
	values.Set("grant_type", "client_credentials")
	values.Set("scope", tokenScope)

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: create token request: %v", domain.ErrAuthFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(creds.ClientID, creds.ClientSecret)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: request token: %v", domain.ErrAuthFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%w: %s", domain.ErrAuthFailed, readErrorBody(resp))
	}

	var payload tokenResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decode token response: %v", domain.ErrAuthFailed, err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("%w: token response missing access token", domain.ErrAuthFailed)
	}

	return payload.AccessToken, nil
}

// LatestSample retrieves the most recent reading for one device. One round
// trip per device; the capture timestamp comes back as unix UTC seconds.
func (c *Client) LatestSample(ctx context.Context, token string, deviceID string) (domain.Sample, error) {
	if deviceID == "" {
		return domain.Sample{}, fmt.Errorf("%w: device id is required", domain.ErrFetchFailed)
	}

	endpoint, err := buildAPIURL(c.APIURL, devicesPath+"/"+url.PathEscape(deviceID)+"/latest-samples")
	if err != nil {
		return domain.Sample{}, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}

	var payload latestSamplesResponse
	if err := c.getJSON(ctx, endpoint, token, &payload); err != nil {
		return domain.Sample{}, fmt.Errorf("%w: device %s: %v", domain.ErrFetchFailed, deviceID, err)
	}
	if payload.Data.Temp == nil || payload.Data.Time == 0 {
		return domain.Sample{}, fmt.Errorf("%w: device %s: sample payload missing required fields", domain.ErrFetchFailed, deviceID)
	}

	return domain.Sample{
		CapturedAt:   time.Unix(payload.Data.Time, 0).UTC(),
		TemperatureC: *payload.Data.Temp,
		HumidityPct:  payload.Data.Humidity,
		BatteryPct:   payload.Data.Battery,
	}, nil
}

// Devices lists every device registered to the account, keyed to the
// dashboard's location and segment names.
func (c *Client) Devices(ctx context.Context, token string) ([]domain.DiscoveredDevice, error) {
	endpoint, err := buildAPIURL(c.APIURL, devicesPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}

	var payload devicesResponse
	if err := c.getJSON(ctx, endpoint, token, &payload); err != nil {
		return nil, fmt.Errorf("%w: list devices: %v", domain.ErrFetchFailed, err)
	}

	devices := make([]domain.DiscoveredDevice, 0, len(payload.Devices))
	for _, device := range payload.Devices {
		devices = append(devices, domain.DiscoveredDevice{
			ID:    device.ID,
			Kind:  device.DeviceType,
			House: device.Location.Name,
			Room:  device.Segment.Name,
		})
	}

	return devices, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, token string, out any) error {
	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return errors.New(readErrorBody(resp))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %v", err)
	}

	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	return context.WithTimeout(ctx, requestTimeout)
}

func readErrorBody(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil || len(strings.TrimSpace(string(body))) == 0 {
		return fmt.Sprintf("status %d", resp.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

func buildAPIURL(baseURL string, path string) (string, error) {
	if baseURL == "" {
		return "", errors.New("api base url is required")
	}
	if path == "" {
		return "", errors.New("api path is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("api base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("api base url host is required")
	}

	endpoint, err := parsed.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse api path: %w", err)
	}
	return endpoint.String(), nil
}
