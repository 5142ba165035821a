package model

import (
	"time"
)

// EventType classifies a store change notification.
type EventType string

const (
	EventListRefreshed  EventType = "list_refreshed"
	EventActiveChanged  EventType = "active_changed"
	EventMessagePending EventType = "message_pending"
	EventMessageSent    EventType = "message_sent"
	EventMessageFailed  EventType = "message_failed"
	EventProjectChanged EventType = "project_changed"
	EventError          EventType = "error"
)

// ChangeEvent is emitted by the store and the project selector after a state
// transition so a view layer knows to re-render. It carries identifiers only;
// the view reads fresh snapshots through the accessors.
type ChangeEvent struct {
	Type           EventType `json:"type"`
	ConversationID string    `json:"conversation_id,omitempty"`
	MessageID      string    `json:"message_id,omitempty"`
	ProjectID      string    `json:"project_id,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	At             time.Time `json:"at"`
}
