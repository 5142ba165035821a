// Package store implements the client-side conversation state core: the
// summary list, the single active conversation detail, and the optimistic
// lifecycle of sent messages.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/openworkbench/chatcore/internal/gateway"
	"github.com/openworkbench/chatcore/internal/model"
	"github.com/openworkbench/chatcore/internal/prefs"
	"github.com/openworkbench/chatcore/internal/project"
	"github.com/openworkbench/chatcore/pkg/logger"
)

// Status is the coarse lifecycle state of the store.
type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusLoading       Status = "loading"
	StatusReady         Status = "ready"
)

var (
	// ErrNoActiveConversation is returned when an operation needs a loaded
	// active conversation and none matches.
	ErrNoActiveConversation = errors.New("store: no matching active conversation")

	// ErrEmptyMessage is returned when a send carries neither text nor file.
	ErrEmptyMessage = errors.New("store: message needs content or a file")

	// ErrNotOptimistic is returned when a local-only operation targets a
	// server-confirmed message.
	ErrNotOptimistic = errors.New("store: message is not optimistic")

	// ErrSendInFlight is returned when a local delete targets a message whose
	// send has not resolved yet.
	ErrSendInFlight = errors.New("store: send still in flight")
)

// Store mediates all conversation reads and writes against the backend
// gateway. All mutations go through its methods; accessors return copies.
// Blocking operations take a context and may be run on any goroutine;
// completions that arrive after the active conversation changed are
// discarded via epoch checks.
type Store struct {
	mu       sync.Mutex
	gw       gateway.Gateway
	prefs    *prefs.Store
	projects *project.Selector
	log      *logger.Logger
	userID   string
	onChange func(model.ChangeEvent)

	status  Status
	lastErr string

	conversations []model.Conversation
	active        *model.ConversationDetail
	activeEpoch   uint64
}

// New creates a conversation store for the given user. The project selector
// supplies the scope for conversations created without an explicit project.
func New(gw gateway.Gateway, pr *prefs.Store, sel *project.Selector, log *logger.Logger, userID string) *Store {
	return &Store{
		gw:       gw,
		prefs:    pr,
		projects: sel,
		log:      log.WithUser(userID),
		userID:   userID,
		status:   StatusUninitialized,
	}
}

// SetOnChange registers a callback invoked after each state transition.
func (s *Store) SetOnChange(fn func(model.ChangeEvent)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Status returns the store lifecycle state.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Err returns the last surfaced operation error, or "". Send failures are
// not reported here; they live on the failed message itself.
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ClearError dismisses the surfaced error.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
}

// Conversations returns a copy of the summary list, most recent first.
func (s *Store) Conversations() []model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}

// Active returns a deep copy of the active conversation detail, or nil.
func (s *Store) Active() *model.ConversationDetail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active.Clone()
}

// ActiveID returns the active conversation id, or "".
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return ""
	}
	return s.active.ID
}

// RefreshList fetches all conversation summaries and then tries to restore
// the previously active conversation from durable storage. A stored id that
// no longer resolves is cleared and ignored.
func (s *Store) RefreshList(ctx context.Context) error {
	s.mu.Lock()
	s.status = StatusLoading
	s.mu.Unlock()

	convs, err := s.gw.ListConversations(ctx)

	s.mu.Lock()
	s.status = StatusReady
	if err != nil {
		s.lastErr = err.Error()
		s.mu.Unlock()
		s.log.Error("failed to list conversations", zap.Error(err))
		s.emit(model.ChangeEvent{Type: model.EventError, Reason: err.Error(), At: time.Now()})
		return err
	}
	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].CreatedAt.After(convs[j].CreatedAt)
	})
	s.conversations = convs
	s.lastErr = ""
	s.mu.Unlock()

	s.emit(model.ChangeEvent{Type: model.EventListRefreshed, At: time.Now()})

	stored := s.prefs.ActiveConversation(s.userID)
	if stored == "" {
		return nil
	}
	if !s.inList(stored) {
		if err := s.prefs.SetActiveConversation(s.userID, ""); err != nil {
			s.log.Warn("failed to clear stale conversation pref", zap.Error(err))
		}
		return nil
	}
	// Restoring the pointer means loading the detail; a failure here is
	// surfaced like any other fetch error but does not fail the refresh.
	if err := s.SetActive(ctx, stored); err != nil {
		s.log.Warn("failed to restore active conversation", zap.Error(err))
	}
	return nil
}

// SetActive loads the full detail for the given conversation id and makes it
// the active conversation, or clears the active detail when id is "".
// Concurrent calls are last-write-wins: a completion belonging to a
// superseded call is discarded silently.
func (s *Store) SetActive(ctx context.Context, id string) error {
	if id == "" {
		s.mu.Lock()
		s.active = nil
		s.activeEpoch++
		s.mu.Unlock()
		if err := s.prefs.SetActiveConversation(s.userID, ""); err != nil {
			s.log.Warn("failed to clear conversation pref", zap.Error(err))
		}
		s.emit(model.ChangeEvent{Type: model.EventActiveChanged, At: time.Now()})
		return nil
	}

	s.mu.Lock()
	s.activeEpoch++
	epoch := s.activeEpoch
	s.status = StatusLoading
	s.mu.Unlock()

	detail, err := s.gw.GetConversation(ctx, id)

	s.mu.Lock()
	if epoch != s.activeEpoch {
		// A later SetActive won the race; this result is stale.
		s.mu.Unlock()
		return nil
	}
	s.status = StatusReady
	if err != nil {
		s.lastErr = err.Error()
		s.mu.Unlock()
		s.log.Error("failed to load conversation", zap.String("conversation_id", id), zap.Error(err))
		s.emit(model.ChangeEvent{Type: model.EventError, ConversationID: id, Reason: err.Error(), At: time.Now()})
		return err
	}
	s.active = detail
	s.lastErr = ""
	s.mu.Unlock()

	if err := s.prefs.SetActiveConversation(s.userID, id); err != nil {
		s.log.Warn("failed to persist active conversation", zap.Error(err))
	}
	s.emit(model.ChangeEvent{Type: model.EventActiveChanged, ConversationID: id, At: time.Now()})
	return nil
}

// Create creates a conversation and prepends it to the summary list without
// making it active. When no project id is supplied the currently active
// project (if any) scopes the new conversation.
func (s *Store) Create(ctx context.Context, req *model.CreateConversationRequest) (*model.Conversation, error) {
	if req.ProjectID == "" && s.projects != nil {
		req.ProjectID = s.projects.ActiveID()
	}

	conv, err := s.gw.CreateConversation(ctx, req)
	if err != nil {
		s.fail("failed to create conversation", "", err)
		return nil, err
	}

	s.mu.Lock()
	s.conversations = append([]model.Conversation{*conv}, s.conversations...)
	s.lastErr = ""
	s.mu.Unlock()

	s.emit(model.ChangeEvent{Type: model.EventListRefreshed, ConversationID: conv.ID, At: time.Now()})
	return conv, nil
}

// Update persists title or project changes and applies them to the summary
// list entry and, when it is active, to the loaded detail in place.
func (s *Store) Update(ctx context.Context, id string, req *model.UpdateConversationRequest) (*model.Conversation, error) {
	conv, err := s.gw.UpdateConversation(ctx, id, req)
	if err != nil {
		s.fail("failed to update conversation", id, err)
		return nil, err
	}

	s.mu.Lock()
	for i := range s.conversations {
		if s.conversations[i].ID == id {
			s.conversations[i] = *conv
			break
		}
	}
	if s.active != nil && s.active.ID == id {
		messages := s.active.Messages
		s.active.Conversation = *conv
		s.active.Messages = messages
	}
	s.lastErr = ""
	s.mu.Unlock()

	s.emit(model.ChangeEvent{Type: model.EventListRefreshed, ConversationID: id, At: time.Now()})
	return conv, nil
}

// Delete removes a conversation from the backend and the summary list. If it
// was active, the active detail and the durable pointer are cleared.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.gw.DeleteConversation(ctx, id); err != nil {
		s.fail("failed to delete conversation", id, err)
		return err
	}

	s.mu.Lock()
	kept := s.conversations[:0]
	for _, c := range s.conversations {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.conversations = kept
	wasActive := s.active != nil && s.active.ID == id
	if wasActive {
		s.active = nil
		s.activeEpoch++
	}
	s.lastErr = ""
	s.mu.Unlock()

	if wasActive {
		if err := s.prefs.SetActiveConversation(s.userID, ""); err != nil {
			s.log.Warn("failed to clear conversation pref", zap.Error(err))
		}
		s.emit(model.ChangeEvent{Type: model.EventActiveChanged, At: time.Now()})
	}
	s.emit(model.ChangeEvent{Type: model.EventListRefreshed, ConversationID: id, At: time.Now()})
	return nil
}

func (s *Store) inList(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.conversations {
		if s.conversations[i].ID == id {
			return true
		}
	}
	return false
}

func (s *Store) fail(msg, conversationID string, err error) {
	s.log.Error(msg, zap.String("conversation_id", conversationID), zap.Error(err))
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
	s.emit(model.ChangeEvent{Type: model.EventError, ConversationID: conversationID, Reason: err.Error(), At: time.Now()})
}

func (s *Store) emit(ev model.ChangeEvent) {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}
