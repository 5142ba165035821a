package service

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openworkbench/chatcore/internal/llm"
	"github.com/openworkbench/chatcore/internal/model"
	"github.com/openworkbench/chatcore/pkg/logger"
	"github.com/openworkbench/chatcore/pkg/metrics"
)

// historyLimit caps how many prior messages feed the responder.
const historyLimit = 50

// MessageService handles the send operation: persist the user message,
// produce an assistant reply, persist that too, and answer with both.
type MessageService struct {
	conversations *ConversationService
	llmClient     llm.Client
	logger        *logger.Logger
}

// NewMessageService creates a new message service.
func NewMessageService(conversations *ConversationService, llmClient llm.Client, log *logger.Logger) *MessageService {
	return &MessageService{
		conversations: conversations,
		llmClient:     llmClient,
		logger:        log,
	}
}

// Send handles one send round trip. An empty ConversationID creates a new
// conversation first (scoped to req.ProjectID) and echoes its id in the
// response so the caller can detect the implicit creation.
func (s *MessageService) Send(ctx context.Context, userID string, req *model.SendMessageRequest) (*model.SendMessageResponse, error) {
	start := time.Now()

	conversationID := req.ConversationID
	if conversationID == "" {
		conv, err := s.conversations.Create(ctx, userID, &model.CreateConversationRequest{
			Title:     seedTitle(req),
			ProjectID: req.ProjectID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create conversation: %w", err)
		}
		conversationID = conv.ID
	}

	content := req.Content
	userMsg := model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		Content:        &content,
		Type:           model.TypeForFile(req.File),
		IsFromUser:     true,
		CreatedAt:      time.Now(),
	}
	if req.File != nil {
		file := *req.File
		if file.ID == "" {
			file.ID = uuid.Must(uuid.NewV7()).String()
		}
		userMsg.Files = []model.FileAttachment{file}
	}

	if err := s.conversations.AppendMessage(ctx, userID, conversationID, userMsg); err != nil {
		return nil, fmt.Errorf("failed to persist user message: %w", err)
	}
	metrics.MessagesTotal.WithLabelValues(userID, "user").Inc()

	history, err := s.conversations.History(ctx, userID, conversationID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get message history: %w", err)
	}

	chatMessages := make([]llm.ChatMessage, 0, len(history))
	for _, msg := range history {
		role := "assistant"
		if msg.IsFromUser {
			role = "user"
		}
		chatMessages = append(chatMessages, llm.ChatMessage{Role: role, Content: msg.Text()})
	}

	llmStart := time.Now()
	resp, err := s.llmClient.Complete(ctx, &llm.CompletionRequest{
		Messages:  chatMessages,
		MaxTokens: 4096,
	})
	if err != nil {
		metrics.RecordLLM(s.llmClient.Name(), "error", time.Since(llmStart).Seconds(), 0, 0)
		s.logger.Error("responder failed",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
		return nil, fmt.Errorf("assistant reply failed: %w", err)
	}
	metrics.RecordLLM(s.llmClient.Name(), "success", time.Since(llmStart).Seconds(), resp.TokensIn, resp.TokensOut)

	reply := resp.Content
	assistantMsg := model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		Content:        &reply,
		Type:           model.MessageTypeText,
		IsFromUser:     false,
		CreatedAt:      time.Now(),
	}

	if err := s.conversations.AppendMessage(ctx, userID, conversationID, assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to persist assistant message: %w", err)
	}
	metrics.MessagesTotal.WithLabelValues(userID, "assistant").Inc()

	return &model.SendMessageResponse{
		ConversationID:   conversationID,
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		ToolsUsed:        []string{s.llmClient.Name()},
		ConfidenceScore:  confidence(resp),
		ExecutionTimeMs:  time.Since(start).Milliseconds(),
	}, nil
}

func confidence(resp *llm.CompletionResponse) float64 {
	// The mock backend has no real scorer; a truncated reply reads as less
	// confident than a clean stop.
	if resp.StopReason == "max_tokens" || resp.StopReason == "length" {
		return 0.5
	}
	return 0.9
}

func seedTitle(req *model.SendMessageRequest) string {
	title := req.Content
	if title == "" && req.File != nil {
		title = req.File.Name
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
