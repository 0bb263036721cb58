package notifier

import "context"

// Notifier delivers a rendered message. Implementations make a single attempt.
type Notifier interface {
	Send(ctx context.Context, text string) error
	Name() string
}
