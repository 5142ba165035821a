// Package gateway defines the Backend Gateway boundary consumed by the
// client core, and its HTTP implementation. The backend itself is a black
// box; everything the core knows about it is this interface.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/openworkbench/chatcore/internal/model"
)

// Gateway is the request/response boundary for conversations, messages,
// projects, and prompt templates. All calls block until the backend answers
// and honor ctx cancellation.
type Gateway interface {
	ListConversations(ctx context.Context) ([]model.Conversation, error)
	GetConversation(ctx context.Context, id string) (*model.ConversationDetail, error)
	CreateConversation(ctx context.Context, req *model.CreateConversationRequest) (*model.Conversation, error)
	UpdateConversation(ctx context.Context, id string, req *model.UpdateConversationRequest) (*model.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error

	SendMessage(ctx context.Context, req *model.SendMessageRequest) (*model.SendMessageResponse, error)

	ListProjects(ctx context.Context) ([]model.Project, error)
	CreateProject(ctx context.Context, req *model.CreateProjectRequest) (*model.Project, error)
	UpdateProject(ctx context.Context, id string, req *model.UpdateProjectRequest) (*model.Project, error)
	DeleteProject(ctx context.Context, id string) error

	ListTemplates(ctx context.Context) ([]model.PromptTemplate, error)
}

// ErrNotFound is returned when the backend reports a missing resource.
var ErrNotFound = errors.New("gateway: not found")

// APIError is a non-2xx backend response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway: %s (status %d)", e.Message, e.StatusCode)
}

// IsNotFound reports whether err represents a missing resource.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}
