// Package publisher defines the message publishing contract used for run
// notifications.
package publisher

import "context"

// Publisher sends a JSON-encodable payload to a named topic and returns the
// server-assigned message ID.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}
