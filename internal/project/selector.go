// Package project holds the project list and the active-project pointer that
// scopes new conversations.
package project

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openworkbench/chatcore/internal/gateway"
	"github.com/openworkbench/chatcore/internal/model"
	"github.com/openworkbench/chatcore/internal/prefs"
	"github.com/openworkbench/chatcore/pkg/logger"
)

// ErrUnknownProject is returned by SetActive for an id not in the list.
var ErrUnknownProject = errors.New("project: unknown project id")

// Selector owns the project list and the single active-project pointer.
// The pointer always references a project present in the list, or nothing.
// The pointer is persisted per user so a restart restores the selection.
type Selector struct {
	mu       sync.Mutex
	gw       gateway.Gateway
	prefs    *prefs.Store
	log      *logger.Logger
	userID   string
	onChange func(model.ChangeEvent)

	loaded   bool
	projects []model.Project
	activeID string
	lastErr  string
}

// NewSelector creates a selector for the given user.
func NewSelector(gw gateway.Gateway, pr *prefs.Store, log *logger.Logger, userID string) *Selector {
	return &Selector{
		gw:     gw,
		prefs:  pr,
		log:    log.WithUser(userID),
		userID: userID,
	}
}

// SetOnChange registers a callback invoked after each state transition.
func (s *Selector) SetOnChange(fn func(model.ChangeEvent)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Load fetches the project list once per session and restores the active
// pointer from durable storage. If the stored id no longer resolves, it is
// cleared and the first project (if any) becomes active.
func (s *Selector) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.loaded {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()
	return s.Refresh(ctx)
}

// Refresh refetches the project list on demand, reconciling the active
// pointer against the fresh list.
func (s *Selector) Refresh(ctx context.Context) error {
	projects, err := s.gw.ListProjects(ctx)
	if err != nil {
		s.fail("failed to load projects", err)
		return err
	}

	s.mu.Lock()
	s.projects = projects
	s.loaded = true
	s.lastErr = ""

	stored := s.prefs.ActiveProject(s.userID)
	switch {
	case stored != "" && s.containsLocked(stored):
		s.activeID = stored
	case len(projects) > 0:
		s.activeID = projects[0].ID
		s.persistLocked()
	default:
		s.activeID = ""
		s.persistLocked()
	}
	s.mu.Unlock()

	s.emit(model.ChangeEvent{Type: model.EventProjectChanged, ProjectID: s.ActiveID(), At: time.Now()})
	return nil
}

// Projects returns a copy of the project list.
func (s *Selector) Projects() []model.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Project, len(s.projects))
	copy(out, s.projects)
	return out
}

// Active returns a copy of the active project, or nil when none is set.
func (s *Selector) Active() *model.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.projects {
		if s.projects[i].ID == s.activeID {
			p := s.projects[i]
			return &p
		}
	}
	return nil
}

// ActiveID returns the active project id, or "".
func (s *Selector) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// SetActive selects a project by id, or clears the selection when id is "".
// The choice is persisted so a reload restores it.
func (s *Selector) SetActive(id string) error {
	s.mu.Lock()
	if id != "" && !s.containsLocked(id) {
		s.mu.Unlock()
		return ErrUnknownProject
	}
	s.activeID = id
	s.persistLocked()
	s.mu.Unlock()

	s.emit(model.ChangeEvent{Type: model.EventProjectChanged, ProjectID: id, At: time.Now()})
	return nil
}

// Create creates a project and appends it to the list. The first project a
// user creates becomes active automatically: once any project exists there
// must be an active one.
func (s *Selector) Create(ctx context.Context, req *model.CreateProjectRequest) (*model.Project, error) {
	proj, err := s.gw.CreateProject(ctx, req)
	if err != nil {
		s.fail("failed to create project", err)
		return nil, err
	}

	s.mu.Lock()
	s.projects = append(s.projects, *proj)
	s.lastErr = ""
	if s.activeID == "" {
		s.activeID = proj.ID
		s.persistLocked()
	}
	s.mu.Unlock()

	s.emit(model.ChangeEvent{Type: model.EventProjectChanged, ProjectID: proj.ID, At: time.Now()})
	return proj, nil
}

// Update persists a patch and replaces the list entry in place.
func (s *Selector) Update(ctx context.Context, id string, req *model.UpdateProjectRequest) (*model.Project, error) {
	proj, err := s.gw.UpdateProject(ctx, id, req)
	if err != nil {
		s.fail("failed to update project", err)
		return nil, err
	}

	s.mu.Lock()
	for i := range s.projects {
		if s.projects[i].ID == id {
			s.projects[i] = *proj
			break
		}
	}
	s.lastErr = ""
	s.mu.Unlock()

	s.emit(model.ChangeEvent{Type: model.EventProjectChanged, ProjectID: id, At: time.Now()})
	return proj, nil
}

// Delete removes a project. If it was active, the pointer moves to the first
// remaining project, or clears when none remain.
func (s *Selector) Delete(ctx context.Context, id string) error {
	if err := s.gw.DeleteProject(ctx, id); err != nil {
		s.fail("failed to delete project", err)
		return err
	}

	s.mu.Lock()
	kept := s.projects[:0]
	for _, p := range s.projects {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.projects = kept
	s.lastErr = ""

	if s.activeID == id {
		if len(s.projects) > 0 {
			s.activeID = s.projects[0].ID
		} else {
			s.activeID = ""
		}
		s.persistLocked()
	}
	active := s.activeID
	s.mu.Unlock()

	s.emit(model.ChangeEvent{Type: model.EventProjectChanged, ProjectID: active, At: time.Now()})
	return nil
}

// Err returns the last operation error surfaced to the view layer, or "".
func (s *Selector) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ClearError dismisses the surfaced error.
func (s *Selector) ClearError() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
}

func (s *Selector) containsLocked(id string) bool {
	for i := range s.projects {
		if s.projects[i].ID == id {
			return true
		}
	}
	return false
}

func (s *Selector) persistLocked() {
	if err := s.prefs.SetActiveProject(s.userID, s.activeID); err != nil {
		s.log.Warn("failed to persist active project", zap.Error(err))
	}
}

func (s *Selector) fail(msg string, err error) {
	s.log.Error(msg, zap.Error(err))
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
	s.emit(model.ChangeEvent{Type: model.EventError, Reason: err.Error(), At: time.Now()})
}

func (s *Selector) emit(ev model.ChangeEvent) {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}
