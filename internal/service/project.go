package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openworkbench/chatcore/internal/model"
	"github.com/openworkbench/chatcore/pkg/logger"
)

// ProjectService handles project storage for the mock gateway.
type ProjectService struct {
	logger *logger.Logger

	mu       sync.RWMutex
	projects map[string]*model.Project
}

// NewProjectService creates a new project service.
func NewProjectService(log *logger.Logger) *ProjectService {
	return &ProjectService{
		logger:   log,
		projects: make(map[string]*model.Project),
	}
}

// Create creates a new project owned by userID.
func (s *ProjectService) Create(ctx context.Context, userID string, req *model.CreateProjectRequest) (*model.Project, error) {
	now := time.Now()

	proj := &model.Project{
		ID:          uuid.Must(uuid.NewV7()).String(),
		UserID:      userID,
		Name:        req.Name,
		Type:        req.Type,
		Stage:       req.Stage,
		Description: req.Description,
		Goals:       req.Goals,
		Context:     req.Context,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	s.projects[proj.ID] = proj
	s.mu.Unlock()

	return proj, nil
}

// List retrieves the caller's projects, oldest first.
func (s *ProjectService) List(ctx context.Context, userID string) (*model.ListProjectsResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var projs []model.Project
	for _, p := range s.projects {
		if p.UserID == userID {
			projs = append(projs, *p)
		}
	}
	sort.Slice(projs, func(i, j int) bool {
		return projs[i].CreatedAt.Before(projs[j].CreatedAt)
	})

	return &model.ListProjectsResponse{
		Projects: projs,
		Total:    len(projs),
	}, nil
}

// Update updates a project in place.
func (s *ProjectService) Update(ctx context.Context, userID, projectID string, req *model.UpdateProjectRequest) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proj, exists := s.projects[projectID]
	if !exists || proj.UserID != userID {
		return nil, ErrNotFound
	}

	if req.Name != nil {
		proj.Name = *req.Name
	}
	if req.Type != nil {
		proj.Type = *req.Type
	}
	if req.Stage != nil {
		proj.Stage = *req.Stage
	}
	if req.Description != nil {
		proj.Description = *req.Description
	}
	if req.Goals != nil {
		proj.Goals = *req.Goals
	}
	if req.Context != nil {
		proj.Context = req.Context
	}
	proj.UpdatedAt = time.Now()

	out := *proj
	return &out, nil
}

// Delete removes a project.
func (s *ProjectService) Delete(ctx context.Context, userID, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	proj, exists := s.projects[projectID]
	if !exists || proj.UserID != userID {
		return ErrNotFound
	}

	delete(s.projects, projectID)
	return nil
}
