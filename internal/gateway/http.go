package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/openworkbench/chatcore/internal/model"
	"github.com/openworkbench/chatcore/pkg/metrics"
)

// HTTPGateway talks to the backend REST API. Safe for concurrent use.
type HTTPGateway struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPGateway creates a gateway client for the given base URL, attaching
// the bearer token to every request.
func NewHTTPGateway(baseURL, token string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (g *HTTPGateway) do(ctx context.Context, op, method, path string, body, out any) error {
	start := time.Now()
	err := g.roundTrip(ctx, method, path, body, out)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordClientRequest(op, status, time.Since(start).Seconds())
	return err
}

func (g *HTTPGateway) roundTrip(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	message := http.StatusText(resp.StatusCode)
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload); err == nil && payload.Error != "" {
		message = payload.Error
	}
	return &APIError{StatusCode: resp.StatusCode, Message: message}
}

// ListConversations fetches all conversation summaries for the current user.
func (g *HTTPGateway) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	var resp model.ListConversationsResponse
	if err := g.do(ctx, "list_conversations", http.MethodGet, "/api/v1/conversations", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Conversations, nil
}

// GetConversation fetches a conversation with its full message sequence.
func (g *HTTPGateway) GetConversation(ctx context.Context, id string) (*model.ConversationDetail, error) {
	var detail model.ConversationDetail
	if err := g.do(ctx, "get_conversation", http.MethodGet, "/api/v1/conversations/"+url.PathEscape(id), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CreateConversation creates a conversation.
func (g *HTTPGateway) CreateConversation(ctx context.Context, req *model.CreateConversationRequest) (*model.Conversation, error) {
	var conv model.Conversation
	if err := g.do(ctx, "create_conversation", http.MethodPost, "/api/v1/conversations", req, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// UpdateConversation persists title or project changes.
func (g *HTTPGateway) UpdateConversation(ctx context.Context, id string, req *model.UpdateConversationRequest) (*model.Conversation, error) {
	var conv model.Conversation
	if err := g.do(ctx, "update_conversation", http.MethodPut, "/api/v1/conversations/"+url.PathEscape(id), req, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// DeleteConversation deletes a conversation.
func (g *HTTPGateway) DeleteConversation(ctx context.Context, id string) error {
	return g.do(ctx, "delete_conversation", http.MethodDelete, "/api/v1/conversations/"+url.PathEscape(id), nil, nil)
}

// SendMessage sends a message and returns the confirmed user/assistant pair.
func (g *HTTPGateway) SendMessage(ctx context.Context, req *model.SendMessageRequest) (*model.SendMessageResponse, error) {
	var resp model.SendMessageResponse
	if err := g.do(ctx, "send_message", http.MethodPost, "/api/v1/messages", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListProjects fetches all projects for the current user.
func (g *HTTPGateway) ListProjects(ctx context.Context) ([]model.Project, error) {
	var resp model.ListProjectsResponse
	if err := g.do(ctx, "list_projects", http.MethodGet, "/api/v1/projects", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Projects, nil
}

// CreateProject creates a project.
func (g *HTTPGateway) CreateProject(ctx context.Context, req *model.CreateProjectRequest) (*model.Project, error) {
	var proj model.Project
	if err := g.do(ctx, "create_project", http.MethodPost, "/api/v1/projects", req, &proj); err != nil {
		return nil, err
	}
	return &proj, nil
}

// UpdateProject updates a project.
func (g *HTTPGateway) UpdateProject(ctx context.Context, id string, req *model.UpdateProjectRequest) (*model.Project, error) {
	var proj model.Project
	if err := g.do(ctx, "update_project", http.MethodPut, "/api/v1/projects/"+url.PathEscape(id), req, &proj); err != nil {
		return nil, err
	}
	return &proj, nil
}

// DeleteProject deletes a project.
func (g *HTTPGateway) DeleteProject(ctx context.Context, id string) error {
	return g.do(ctx, "delete_project", http.MethodDelete, "/api/v1/projects/"+url.PathEscape(id), nil, nil)
}

// ListTemplates fetches the prompt template catalog.
func (g *HTTPGateway) ListTemplates(ctx context.Context) ([]model.PromptTemplate, error) {
	var resp model.ListTemplatesResponse
	if err := g.do(ctx, "list_templates", http.MethodGet, "/api/v1/templates", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Templates, nil
}
