package model

import (
	"time"
)

// Project scopes conversations to a body of work. At most one project is
// active per user at a time.
type Project struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	Name        string            `json:"name"`
	Type        string            `json:"type,omitempty"`
	Stage       string            `json:"stage,omitempty"`
	Description string            `json:"description,omitempty"`
	Goals       string            `json:"goals,omitempty"`
	Context     map[string]string `json:"context,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// CreateProjectRequest is the request to create a project.
type CreateProjectRequest struct {
	Name        string            `json:"name"`
	Type        string            `json:"type,omitempty"`
	Stage       string            `json:"stage,omitempty"`
	Description string            `json:"description,omitempty"`
	Goals       string            `json:"goals,omitempty"`
	Context     map[string]string `json:"context,omitempty"`
}

// UpdateProjectRequest is the request to update a project. Nil fields are
// left unchanged.
type UpdateProjectRequest struct {
	Name        *string           `json:"name,omitempty"`
	Type        *string           `json:"type,omitempty"`
	Stage       *string           `json:"stage,omitempty"`
	Description *string           `json:"description,omitempty"`
	Goals       *string           `json:"goals,omitempty"`
	Context     map[string]string `json:"context,omitempty"`
}

// ListProjectsResponse is the response for listing projects.
type ListProjectsResponse struct {
	Projects []Project `json:"projects"`
	Total    int       `json:"total"`
}
