// Package model defines data structures shared by the client core and the
// mock gateway.
package model

import (
	"time"
)

// Conversation is a conversation summary as it appears in the summary list.
type Conversation struct {
	ID             string            `json:"id"`
	UserID         string            `json:"user_id"`
	Title          string            `json:"title,omitempty"`
	ProjectID      string            `json:"project_id,omitempty"`
	Language       string            `json:"language,omitempty"`
	MessageCount   int               `json:"message_count"`
	ProjectContext map[string]string `json:"project_context,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// ConversationDetail is a conversation summary plus its full ordered message
// sequence. At most one detail is loaded as active at a time; loading a new
// one discards the previous detail's messages from memory.
type ConversationDetail struct {
	Conversation
	Messages []Message `json:"messages"`
}

// Clone returns a deep copy of the detail so callers can hand snapshots to a
// view layer without aliasing the store's internal slice.
func (d *ConversationDetail) Clone() *ConversationDetail {
	if d == nil {
		return nil
	}
	out := *d
	out.Messages = make([]Message, len(d.Messages))
	copy(out.Messages, d.Messages)
	return &out
}

// CreateConversationRequest is the request to create a new conversation.
type CreateConversationRequest struct {
	Title     string `json:"title,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
	Language  string `json:"language,omitempty"`
}

// UpdateConversationRequest is the request to update a conversation.
// Nil fields are left unchanged.
type UpdateConversationRequest struct {
	Title     *string `json:"title,omitempty"`
	ProjectID *string `json:"project_id,omitempty"`
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
}
