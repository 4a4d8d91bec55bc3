// Package notifications delivers transactional email for order events.
package notifications

import "context"

// Notifier sends a single transactional message.
type Notifier interface {
	Send(ctx context.Context, to, subject, html string) error
}

// LogNotifier logs instead of sending. It stands in when no email provider
// is configured, so order flows never depend on email being set up.
type LogNotifier struct {
	Logger func(context.Context, string, map[string]any)
}

var _ Notifier = (*LogNotifier)(nil)

// Send records the message through the logger and reports success.
func (n *LogNotifier) Send(ctx context.Context, to, subject, _ string) error {
	if n.Logger != nil {
		n.Logger(ctx, "notifications.logged", map[string]any{
			"to":      to,
			"subject": subject,
		})
	}
	return nil
}
