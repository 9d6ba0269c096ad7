package ntfy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mwdvs/coldwatch/internal/domain"
	"github.com/mwdvs/coldwatch/internal/ports"
)

const DefaultBaseURL = "https://ntfy.sh"

const maxResponseBytes = 1 << 16

// Notifier publishes messages to an ntfy topic. The inventory stores only
// the subscribed topic name; the base URL is prepended here.
type Notifier struct {
	BaseURL        string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

var _ ports.Notifier = (*Notifier)(nil)

func (n *Notifier) Send(ctx context.Context, topic string, message string) error {
	if strings.TrimSpace(topic) == "" {
		return fmt.Errorf("%w: topic is required", domain.ErrDeliveryFailed)
	}
	if message == "" {
		return fmt.Errorf("%w: message is empty", domain.ErrDeliveryFailed)
	}

	baseURL := n.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	endpoint := strings.TrimRight(baseURL, "/") + "/" + topic

	requestCtx, cancel := n.requestContext(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("%w: create request: %v", domain.ErrDeliveryFailed, err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := n.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("%w: perform request: %v", domain.ErrDeliveryFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		return fmt.Errorf("%w: status %d: %s", domain.ErrDeliveryFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}

func (n *Notifier) httpClient() *http.Client {
	if n.HTTPClient != nil {
		return n.HTTPClient
	}
	return http.DefaultClient
}

func (n *Notifier) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := n.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	return context.WithTimeout(ctx, requestTimeout)
}
