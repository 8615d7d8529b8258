package ports

import "royale/internal/app"

// EventPublisher delivers match events to whoever watches a session.
// Implementations fan the events out over their own transport and honor
// per-event recipient lists.
type EventPublisher interface {
	Publish(sessionID string, events []app.Event)
}
