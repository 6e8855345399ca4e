package interfaces

import "context"

// EventType represents different event types in the system
type EventType string

const (
	EventJobQueued    EventType = "job_queued"
	EventJobActive    EventType = "job_active"
	EventJobCompleted EventType = "job_completed"
	EventJobFailed    EventType = "job_failed"
)

// Event represents a system event
type Event struct {
	Type    EventType
	Payload interface{}
}

// EventHandler is a function that handles events
type EventHandler func(ctx context.Context, event Event) error

// EventService manages the in-process pub/sub event bus used to push job
// status transitions to websocket subscribers.
type EventService interface {
	// Subscribe to an event type
	Subscribe(eventType EventType, handler EventHandler) error

	// Publish an event to all subscribers asynchronously
	Publish(ctx context.Context, event Event) error

	// Close shuts down the event service
	Close() error
}
