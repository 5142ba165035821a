package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MessageType tags the kind of content a message carries.
type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeImage    MessageType = "image"
	MessageTypeAudio    MessageType = "audio"
	MessageTypeVideo    MessageType = "video"
	MessageTypeDocument MessageType = "document"
)

// DeliveryStatus is the client-side lifecycle state of an optimistic message.
// Confirmed (server-persisted) messages carry no status.
type DeliveryStatus string

const (
	StatusPending DeliveryStatus = "pending"
	StatusSent    DeliveryStatus = "sent"
	StatusFailed  DeliveryStatus = "failed"
)

// TempIDPrefix namespaces locally generated message ids. The gateway assigns
// UUIDv7 ids, so a prefixed id can never collide with a server id.
const TempIDPrefix = "tmp_"

// NewTempID generates a temporary id for an optimistic message.
func NewTempID() string {
	return TempIDPrefix + uuid.NewString()
}

// Message is a single conversation message. Two flavors share this type:
// confirmed messages returned by the gateway (empty Status), and optimistic
// messages inserted locally at send time (TempIDPrefix id, Status set).
// Status and SendError never cross the wire.
type Message struct {
	ID             string           `json:"id"`
	ConversationID string           `json:"conversation_id"`
	Content        *string          `json:"content"`
	Type           MessageType      `json:"type"`
	IsFromUser     bool             `json:"is_from_user"`
	Files          []FileAttachment `json:"files,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`

	Status    DeliveryStatus `json:"-"`
	SendError string         `json:"-"`
}

// IsOptimistic reports whether the message is client-only, identified by its
// temporary id namespace.
func (m *Message) IsOptimistic() bool {
	return strings.HasPrefix(m.ID, TempIDPrefix)
}

// Text returns the message content, or "" for a nil content.
func (m *Message) Text() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}

// TypeForFile maps an attachment's mime type to a message type. A nil
// attachment means a plain text message.
func TypeForFile(file *FileAttachment) MessageType {
	if file == nil {
		return MessageTypeText
	}
	switch {
	case strings.HasPrefix(file.MimeType, "image/"):
		return MessageTypeImage
	case strings.HasPrefix(file.MimeType, "audio/"):
		return MessageTypeAudio
	case strings.HasPrefix(file.MimeType, "video/"):
		return MessageTypeVideo
	default:
		return MessageTypeDocument
	}
}

// FileAttachment describes a file attached to a message. Upload transport is
// handled elsewhere; only metadata travels with the message.
type FileAttachment struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size,omitempty"`
	URL      string `json:"url,omitempty"`
}

// SendMessageRequest is the request to send a message. ConversationID may be
// empty, in which case the gateway creates a conversation (scoped to
// ProjectID when given) and echoes the new id in the response.
type SendMessageRequest struct {
	ConversationID string          `json:"conversation_id,omitempty"`
	ProjectID      string          `json:"project_id,omitempty"`
	Content        string          `json:"content"`
	File           *FileAttachment `json:"file,omitempty"`
}

// SendMessageResponse is the gateway's reply to a send: the persisted user
// message and the assistant's answer in one round trip.
type SendMessageResponse struct {
	ConversationID   string   `json:"conversation_id"`
	UserMessage      Message  `json:"user_message"`
	AssistantMessage Message  `json:"assistant_message"`
	ToolsUsed        []string `json:"tools_used"`
	ConfidenceScore  float64  `json:"confidence_score"`
	ExecutionTimeMs  int64    `json:"execution_time_ms"`
}
