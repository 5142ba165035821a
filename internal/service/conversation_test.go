package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openworkbench/chatcore/internal/model"
	"github.com/openworkbench/chatcore/pkg/logger"
)

func TestConversationCRUD(t *testing.T) {
	svc := NewConversationService(logger.Nop())
	ctx := context.Background()

	conv, err := svc.Create(ctx, "u1", &model.CreateConversationRequest{Title: "hello", Language: "en"})
	require.NoError(t, err)
	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, "u1", conv.UserID)
	assert.Equal(t, "en", conv.Language)

	title := "renamed"
	project := "proj-1"
	updated, err := svc.Update(ctx, "u1", conv.ID, &model.UpdateConversationRequest{Title: &title, ProjectID: &project})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, "proj-1", updated.ProjectID)

	require.NoError(t, svc.Delete(ctx, "u1", conv.ID))
	_, err = svc.Get(ctx, "u1", conv.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOrdersMostRecentFirst(t *testing.T) {
	svc := NewConversationService(logger.Nop())
	ctx := context.Background()

	first, err := svc.Create(ctx, "u1", &model.CreateConversationRequest{Title: "first"})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := svc.Create(ctx, "u1", &model.CreateConversationRequest{Title: "second"})
	require.NoError(t, err)

	resp, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 2, resp.Total)
	assert.Equal(t, second.ID, resp.Conversations[0].ID)
	assert.Equal(t, first.ID, resp.Conversations[1].ID)
}

func TestForeignConversationsAreInvisible(t *testing.T) {
	svc := NewConversationService(logger.Nop())
	ctx := context.Background()

	conv, err := svc.Create(ctx, "u1", &model.CreateConversationRequest{})
	require.NoError(t, err)

	_, err = svc.Get(ctx, "u2", conv.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	err = svc.Delete(ctx, "u2", conv.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	resp, err := svc.List(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Total)
}

func TestAppendMessageBumpsCount(t *testing.T) {
	svc := NewConversationService(logger.Nop())
	ctx := context.Background()

	conv, err := svc.Create(ctx, "u1", &model.CreateConversationRequest{})
	require.NoError(t, err)

	content := "hi"
	msg := model.Message{ID: "m1", ConversationID: conv.ID, Content: &content, IsFromUser: true}
	require.NoError(t, svc.AppendMessage(ctx, "u1", conv.ID, msg))

	detail, err := svc.Get(ctx, "u1", conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.MessageCount)
	require.Len(t, detail.Messages, 1)
}

func TestHistoryHonorsLimit(t *testing.T) {
	svc := NewConversationService(logger.Nop())
	ctx := context.Background()

	conv, err := svc.Create(ctx, "u1", &model.CreateConversationRequest{})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		content := string(rune('a' + i))
		require.NoError(t, svc.AppendMessage(ctx, "u1", conv.ID, model.Message{
			ID: content, ConversationID: conv.ID, Content: &content,
		}))
	}

	history, err := svc.History(ctx, "u1", conv.ID, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "d", history[0].Text(), "limit keeps the most recent messages")
	assert.Equal(t, "e", history[1].Text())
}
