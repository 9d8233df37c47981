package domain

import "time"

// EventType identifies a component change
type EventType string

const (
	EventTypeComponentCreated EventType = "component.created"
	EventTypeComponentUpdated EventType = "component.updated"
	EventTypeComponentDeleted EventType = "component.deleted"
)

// ComponentEventsTopic is the bus topic carrying every component change
const ComponentEventsTopic = "component.events"

// Event is a component change notification
type Event struct {
	ID          string     `json:"id"`
	Type        EventType  `json:"type"`
	ComponentID string     `json:"componentId"`
	Timestamp   time.Time  `json:"timestamp"`
	Component   *Component `json:"component,omitempty"`
}
