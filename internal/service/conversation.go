// Package service provides the in-memory business logic behind the mock
// gateway. It stands in for the production backend during development and
// in tests; nothing here survives a process restart.
package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openworkbench/chatcore/internal/model"
	"github.com/openworkbench/chatcore/pkg/logger"
	"github.com/openworkbench/chatcore/pkg/metrics"
)

// ErrNotFound is returned for ids that do not resolve for the caller.
var ErrNotFound = fmt.Errorf("not found")

// ConversationService handles conversation and message storage.
type ConversationService struct {
	logger *logger.Logger

	mu            sync.RWMutex
	conversations map[string]*model.Conversation
	messages      map[string][]model.Message
}

// NewConversationService creates a new conversation service.
func NewConversationService(log *logger.Logger) *ConversationService {
	return &ConversationService{
		logger:        log,
		conversations: make(map[string]*model.Conversation),
		messages:      make(map[string][]model.Message),
	}
}

// Create creates a new conversation owned by userID.
func (s *ConversationService) Create(ctx context.Context, userID string, req *model.CreateConversationRequest) (*model.Conversation, error) {
	now := time.Now()

	conv := &model.Conversation{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    userID,
		Title:     req.Title,
		ProjectID: req.ProjectID,
		Language:  req.Language,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.conversations[conv.ID] = conv
	s.mu.Unlock()

	metrics.ConversationsTotal.WithLabelValues(userID).Inc()
	s.logger.Info("conversation created",
		zap.String("conversation_id", conv.ID),
		zap.String("user_id", userID))

	return conv, nil
}

// Get retrieves a conversation with its full message sequence.
func (s *ConversationService) Get(ctx context.Context, userID, conversationID string) (*model.ConversationDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, err := s.getLocked(userID, conversationID)
	if err != nil {
		return nil, err
	}

	msgs := s.messages[conversationID]
	detail := &model.ConversationDetail{
		Conversation: *conv,
		Messages:     make([]model.Message, len(msgs)),
	}
	copy(detail.Messages, msgs)
	return detail, nil
}

// List retrieves the caller's conversations, most recent first.
func (s *ConversationService) List(ctx context.Context, userID string) (*model.ListConversationsResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var convs []model.Conversation
	for _, conv := range s.conversations {
		if conv.UserID == userID {
			convs = append(convs, *conv)
		}
	}
	sort.Slice(convs, func(i, j int) bool {
		return convs[i].CreatedAt.After(convs[j].CreatedAt)
	})

	return &model.ListConversationsResponse{
		Conversations: convs,
		Total:         len(convs),
	}, nil
}

// Update updates a conversation's title or project association.
func (s *ConversationService) Update(ctx context.Context, userID, conversationID string, req *model.UpdateConversationRequest) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.getLocked(userID, conversationID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		conv.Title = *req.Title
	}
	if req.ProjectID != nil {
		conv.ProjectID = *req.ProjectID
	}
	conv.UpdatedAt = time.Now()

	out := *conv
	return &out, nil
}

// Delete removes a conversation and its messages.
func (s *ConversationService) Delete(ctx context.Context, userID, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getLocked(userID, conversationID); err != nil {
		return err
	}

	delete(s.conversations, conversationID)
	delete(s.messages, conversationID)
	return nil
}

// AppendMessage persists a message and bumps the conversation's counters.
func (s *ConversationService) AppendMessage(ctx context.Context, userID, conversationID string, msg model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, err := s.getLocked(userID, conversationID)
	if err != nil {
		return err
	}

	s.messages[conversationID] = append(s.messages[conversationID], msg)
	conv.MessageCount++
	conv.UpdatedAt = time.Now()
	return nil
}

// History returns up to limit of the most recent messages.
func (s *ConversationService) History(ctx context.Context, userID, conversationID string, limit int) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.getLocked(userID, conversationID); err != nil {
		return nil, err
	}

	msgs := s.messages[conversationID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]model.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// getLocked resolves a conversation for the caller; missing and
// foreign-owned ids are indistinguishable to the client.
func (s *ConversationService) getLocked(userID, conversationID string) (*model.Conversation, error) {
	conv, exists := s.conversations[conversationID]
	if !exists || conv.UserID != userID {
		return nil, ErrNotFound
	}
	return conv, nil
}
