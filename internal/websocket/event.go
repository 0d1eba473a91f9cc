package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to an entity
type EventType string

const (
	EventTypeSynced   EventType = "synced"
	EventTypeError    EventType = "error"
	EventTypeDetached EventType = "detached"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeDocument EntityType = "document"
	EntityTypeSession  EntityType = "session"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "document.synced"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "document"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ErrorPayload is the payload of a document.error event
type ErrorPayload struct {
	Message string `json:"message"`
}

// DocumentSynced creates a document.synced event carrying the latest document
func DocumentSynced(payload interface{}) Event {
	return NewEvent(EventTypeSynced, EntityTypeDocument, payload)
}

// DocumentError creates a document.error event
func DocumentError(err error) Event {
	return NewEvent(EventTypeError, EntityTypeDocument, ErrorPayload{Message: err.Error()})
}

// SessionDetached creates a session.detached event
func SessionDetached() Event {
	return NewEvent(EventTypeDetached, EntityTypeSession, nil)
}
