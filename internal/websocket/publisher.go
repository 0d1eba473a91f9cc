package websocket

// EventPublisher pushes session events to a user's connections
type EventPublisher interface {
	// Publish delivers an event to every connection of the user, in call order
	Publish(userID string, event Event)
}

var _ EventPublisher = (*Hub)(nil)

// Publish broadcasts the event to the user's clients
func (h *Hub) Publish(userID string, event Event) {
	h.Broadcast(userID, event)
}

// NoOpPublisher discards events, for sessions without connected clients
type NoOpPublisher struct{}

// Publish does nothing
func (n *NoOpPublisher) Publish(userID string, event Event) {}
