package ports

import "context"

// Notifier delivers one push message to a topic. Failures wrap
// domain.ErrDeliveryFailed; callers decide whether delivery is best-effort.
type Notifier interface {
	Send(ctx context.Context, topic string, message string) error
}
