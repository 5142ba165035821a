package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openworkbench/chatcore/internal/llm"
	"github.com/openworkbench/chatcore/internal/model"
	"github.com/openworkbench/chatcore/pkg/logger"
)

// failingResponder simulates a provider outage.
type failingResponder struct{}

func (f *failingResponder) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return nil, errors.New("provider unavailable")
}

func (f *failingResponder) Name() string     { return "failing" }
func (f *failingResponder) Models() []string { return nil }

func newMessageService(t *testing.T, responder llm.Client) (*MessageService, *ConversationService) {
	t.Helper()
	if responder == nil {
		responder = llm.NewStaticClient()
	}
	convSvc := NewConversationService(logger.Nop())
	return NewMessageService(convSvc, responder, logger.Nop()), convSvc
}

func TestSendPersistsBothMessages(t *testing.T) {
	msgSvc, convSvc := newMessageService(t, nil)
	ctx := context.Background()

	conv, err := convSvc.Create(ctx, "u1", &model.CreateConversationRequest{Title: "chat"})
	require.NoError(t, err)

	resp, err := msgSvc.Send(ctx, "u1", &model.SendMessageRequest{
		ConversationID: conv.ID,
		Content:        "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, conv.ID, resp.ConversationID)
	assert.True(t, resp.UserMessage.IsFromUser)
	assert.False(t, resp.AssistantMessage.IsFromUser)
	assert.Contains(t, resp.AssistantMessage.Text(), "hello")
	assert.Equal(t, []string{"static"}, resp.ToolsUsed)
	assert.GreaterOrEqual(t, resp.ExecutionTimeMs, int64(0))

	detail, err := convSvc.Get(ctx, "u1", conv.ID)
	require.NoError(t, err)
	require.Len(t, detail.Messages, 2)
	assert.Equal(t, 2, detail.MessageCount)
}

func TestSendCreatesConversationWhenNoneGiven(t *testing.T) {
	msgSvc, convSvc := newMessageService(t, nil)
	ctx := context.Background()

	resp, err := msgSvc.Send(ctx, "u1", &model.SendMessageRequest{
		Content:   "start a new thread",
		ProjectID: "proj-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ConversationID)

	detail, err := convSvc.Get(ctx, "u1", resp.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, "start a new thread", detail.Title)
	assert.Equal(t, "proj-1", detail.ProjectID)
}

func TestSendSeedsTitleFromAttachmentName(t *testing.T) {
	msgSvc, convSvc := newMessageService(t, nil)
	ctx := context.Background()

	resp, err := msgSvc.Send(ctx, "u1", &model.SendMessageRequest{
		File: &model.FileAttachment{Name: "quarterly.pdf", MimeType: "application/pdf"},
	})
	require.NoError(t, err)

	detail, err := convSvc.Get(ctx, "u1", resp.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, "quarterly.pdf", detail.Title)
	assert.Equal(t, model.MessageTypeDocument, resp.UserMessage.Type)
	require.Len(t, resp.UserMessage.Files, 1)
	assert.NotEmpty(t, resp.UserMessage.Files[0].ID)
}

func TestSendCapsSeededTitle(t *testing.T) {
	msgSvc, convSvc := newMessageService(t, nil)
	ctx := context.Background()

	resp, err := msgSvc.Send(ctx, "u1", &model.SendMessageRequest{
		Content: strings.Repeat("z", 300),
	})
	require.NoError(t, err)

	detail, err := convSvc.Get(ctx, "u1", resp.ConversationID)
	require.NoError(t, err)
	assert.Len(t, detail.Title, 48)
}

func TestSendSeedsTitleOnRuneBoundary(t *testing.T) {
	msgSvc, convSvc := newMessageService(t, nil)
	ctx := context.Background()

	// The cap falls in the middle of the two-byte rune.
	resp, err := msgSvc.Send(ctx, "u1", &model.SendMessageRequest{
		Content: strings.Repeat("a", 47) + "étude",
	})
	require.NoError(t, err)

	detail, err := convSvc.Get(ctx, "u1", resp.ConversationID)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(detail.Title), "truncation must not split a rune")
	assert.Equal(t, strings.Repeat("a", 47), detail.Title)
}

func TestSendToForeignConversationLooksMissing(t *testing.T) {
	msgSvc, convSvc := newMessageService(t, nil)
	ctx := context.Background()

	conv, err := convSvc.Create(ctx, "u1", &model.CreateConversationRequest{})
	require.NoError(t, err)

	_, err = msgSvc.Send(ctx, "u2", &model.SendMessageRequest{
		ConversationID: conv.ID,
		Content:        "hi",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSendResponderFailureSurfacedAfterUserMessagePersists(t *testing.T) {
	msgSvc, convSvc := newMessageService(t, &failingResponder{})
	ctx := context.Background()

	conv, err := convSvc.Create(ctx, "u1", &model.CreateConversationRequest{})
	require.NoError(t, err)

	_, err = msgSvc.Send(ctx, "u1", &model.SendMessageRequest{
		ConversationID: conv.ID,
		Content:        "hello",
	})
	require.Error(t, err)

	// The user message was persisted before the responder ran.
	detail, err := convSvc.Get(ctx, "u1", conv.ID)
	require.NoError(t, err)
	require.Len(t, detail.Messages, 1)
	assert.True(t, detail.Messages[0].IsFromUser)
}

func TestSendBuildsHistoryForTheResponder(t *testing.T) {
	msgSvc, convSvc := newMessageService(t, nil)
	ctx := context.Background()

	conv, err := convSvc.Create(ctx, "u1", &model.CreateConversationRequest{})
	require.NoError(t, err)

	for _, content := range []string{"one", "two", "three"} {
		_, err := msgSvc.Send(ctx, "u1", &model.SendMessageRequest{
			ConversationID: conv.ID,
			Content:        content,
		})
		require.NoError(t, err)
	}

	// The static responder quotes the latest user turn, proving history
	// ordering reaches the provider intact.
	detail, err := convSvc.Get(ctx, "u1", conv.ID)
	require.NoError(t, err)
	require.Len(t, detail.Messages, 6)
	assert.Contains(t, detail.Messages[5].Text(), "three")
}
