package store

import (
	"context"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/openworkbench/chatcore/internal/model"
	"github.com/openworkbench/chatcore/pkg/metrics"
)

// SendMessage runs one send operation end to end: it appends a pending
// optimistic message to the active conversation before any network call,
// issues the send, and on completion either replaces the optimistic message
// with the confirmed user/assistant pair or marks it failed in place.
//
// An empty conversationID routes through the implicit-create path: a new
// conversation is created (scoped to the active project, title seeded from
// the content), loaded as active, and the send proceeds into it.
//
// The returned id is the optimistic message's temporary id, usable with
// Retry and DeleteOptimistic after a failure.
func (s *Store) SendMessage(ctx context.Context, conversationID, content string, file *model.FileAttachment) (string, error) {
	if content == "" && file == nil {
		return "", ErrEmptyMessage
	}

	if conversationID == "" {
		conv, err := s.Create(ctx, &model.CreateConversationRequest{
			Title: seedTitle(content, file),
		})
		if err != nil {
			return "", err
		}
		if err := s.SetActive(ctx, conv.ID); err != nil {
			return "", err
		}
		conversationID = conv.ID
	}

	tempID := model.NewTempID()
	if err := s.insertPending(conversationID, tempID, content, file); err != nil {
		return "", err
	}
	return tempID, s.resolveSend(ctx, conversationID, tempID, content, file)
}

// Retry re-runs a failed send under the same temporary id so the message is
// updated in place rather than duplicated. The original content and
// attachment are reused.
func (s *Store) Retry(ctx context.Context, tempID string) error {
	s.mu.Lock()
	if s.active == nil {
		s.mu.Unlock()
		return ErrNoActiveConversation
	}
	conversationID := s.active.ID

	var content string
	var file *model.FileAttachment
	found := false
	for i := range s.active.Messages {
		m := &s.active.Messages[i]
		if m.ID == tempID && m.Status == model.StatusFailed {
			content = m.Text()
			if len(m.Files) > 0 {
				f := m.Files[0]
				file = &f
			}
			m.Status = model.StatusPending
			m.SendError = ""
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return ErrNotOptimistic
	}

	metrics.SendRetriesTotal.Inc()
	s.emit(model.ChangeEvent{Type: model.EventMessagePending, ConversationID: conversationID, MessageID: tempID, At: time.Now()})
	return s.resolveSend(ctx, conversationID, tempID, content, file)
}

// DeleteOptimistic removes a failed client-only message from the active
// sequence. No server call is made: the message was never persisted.
// Confirmed messages cannot be deleted this way, and a pending message must
// resolve first so a success cannot land on a removed entry.
func (s *Store) DeleteOptimistic(tempID string) error {
	s.mu.Lock()
	if s.active == nil {
		s.mu.Unlock()
		return ErrNoActiveConversation
	}
	conversationID := s.active.ID

	idx := -1
	for i := range s.active.Messages {
		if s.active.Messages[i].ID == tempID {
			if !s.active.Messages[i].IsOptimistic() {
				s.mu.Unlock()
				return ErrNotOptimistic
			}
			if s.active.Messages[i].Status != model.StatusFailed {
				s.mu.Unlock()
				return ErrSendInFlight
			}
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotOptimistic
	}
	s.active.Messages = append(s.active.Messages[:idx], s.active.Messages[idx+1:]...)
	s.mu.Unlock()

	s.emit(model.ChangeEvent{Type: model.EventActiveChanged, ConversationID: conversationID, MessageID: tempID, At: time.Now()})
	return nil
}

// insertPending appends the optimistic message synchronously, before any
// suspension point, so the caller can render it immediately.
func (s *Store) insertPending(conversationID, tempID, content string, file *model.FileAttachment) error {
	msg := model.Message{
		ID:             tempID,
		ConversationID: conversationID,
		Content:        &content,
		Type:           model.TypeForFile(file),
		IsFromUser:     true,
		CreatedAt:      time.Now(),
		Status:         model.StatusPending,
	}
	if file != nil {
		msg.Files = []model.FileAttachment{*file}
	}

	s.mu.Lock()
	if s.active == nil || s.active.ID != conversationID {
		s.mu.Unlock()
		return ErrNoActiveConversation
	}
	s.active.Messages = append(s.active.Messages, msg)
	s.mu.Unlock()

	s.emit(model.ChangeEvent{Type: model.EventMessagePending, ConversationID: conversationID, MessageID: tempID, At: time.Now()})
	return nil
}

// resolveSend performs the gateway call for a pending message and applies
// the outcome. If the active conversation changed while the call was in
// flight the result is discarded, except that a successful send still
// freshens the conversation's summary entry (it reflects server truth).
func (s *Store) resolveSend(ctx context.Context, conversationID, tempID, content string, file *model.FileAttachment) error {
	resp, err := s.gw.SendMessage(ctx, &model.SendMessageRequest{
		ConversationID: conversationID,
		Content:        content,
		File:           file,
	})

	s.mu.Lock()
	current := s.active != nil && s.active.ID == conversationID

	if err != nil {
		if current {
			for i := range s.active.Messages {
				m := &s.active.Messages[i]
				if m.ID == tempID {
					m.Status = model.StatusFailed
					m.SendError = err.Error()
					break
				}
			}
		}
		s.mu.Unlock()
		metrics.RecordSend("failed")
		s.log.Warn("send failed",
			zap.String("conversation_id", conversationID),
			zap.String("temp_id", tempID),
			zap.Error(err))
		if current {
			s.emit(model.ChangeEvent{Type: model.EventMessageFailed, ConversationID: conversationID, MessageID: tempID, Reason: err.Error(), At: time.Now()})
		}
		return err
	}

	if current {
		// Replace the optimistic message in place with the confirmed pair.
		for i := range s.active.Messages {
			if s.active.Messages[i].ID == tempID {
				tail := append([]model.Message{resp.UserMessage, resp.AssistantMessage}, s.active.Messages[i+1:]...)
				s.active.Messages = append(s.active.Messages[:i], tail...)
				break
			}
		}
		s.active.MessageCount = countConfirmed(s.active.Messages)
		s.active.UpdatedAt = time.Now()
	}
	s.bumpSummaryLocked(conversationID)
	s.mu.Unlock()

	if current {
		metrics.RecordSend("sent")
	} else {
		metrics.RecordSend("stale")
	}
	if current {
		s.emit(model.ChangeEvent{Type: model.EventMessageSent, ConversationID: conversationID, MessageID: resp.UserMessage.ID, At: time.Now()})
	}
	return nil
}

// bumpSummaryLocked reconciles the summary entry after a successful send:
// message count grows by the confirmed pair and the conversation moves to
// the front of the list.
func (s *Store) bumpSummaryLocked(conversationID string) {
	for i := range s.conversations {
		if s.conversations[i].ID == conversationID {
			c := s.conversations[i]
			c.MessageCount += 2
			c.UpdatedAt = time.Now()
			s.conversations = append(s.conversations[:i], s.conversations[i+1:]...)
			s.conversations = append([]model.Conversation{c}, s.conversations...)
			return
		}
	}
}

func countConfirmed(msgs []model.Message) int {
	n := 0
	for i := range msgs {
		if !msgs[i].IsOptimistic() {
			n++
		}
	}
	return n
}


func seedTitle(content string, file *model.FileAttachment) string {
	title := content
	if title == "" && file != nil {
		title = file.Name
	}
	const max = 48
	if len(title) > max {
		// Cut on a rune boundary; a split rune would fail title validation.
		cut := max
		for cut > 0 && !utf8.RuneStart(title[cut]) {
			cut--
		}
		title = title[:cut]
	}
	return title
}
