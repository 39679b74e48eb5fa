package domain

import "encoding/json"

const (
	MeetingCreated    = "meeting-created"
	MeetingSummarized = "meeting-summarized"
	TaskCreated       = "task-created"
	TaskUpdated       = "task-updated"
)

// Event represents a change in the domain model, published to the events queue.
type Event struct {
	ID         string          `json:"id"`
	EntityID   string          `json:"entityId"`
	EntityType string          `json:"entityType"`
	Type       string          `json:"type"`
	Data       json.RawMessage `json:"data,omitempty"`
	Time       int64           `json:"time"`
	UserID     string          `json:"userId"`
}
