package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticClientQuotesLastUserTurn(t *testing.T) {
	c := NewStaticClient()

	resp, err := c.Complete(context.Background(), &CompletionRequest{
		Messages: []ChatMessage{
			{Role: "user", Content: "first"},
			{Role: "assistant", Content: "reply"},
			{Role: "user", Content: "second"},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Content, "second")
	assert.NotContains(t, resp.Content, "first")
	assert.Equal(t, "end_turn", resp.StopReason)
}

func TestStaticClientTruncatesLongPrompts(t *testing.T) {
	c := NewStaticClient()

	resp, err := c.Complete(context.Background(), &CompletionRequest{
		Messages: []ChatMessage{{Role: "user", Content: strings.Repeat("x", 500)}},
	})
	require.NoError(t, err)
	assert.Less(t, len(resp.Content), 200)
}

func TestStaticClientHandlesAttachmentOnlyTurns(t *testing.T) {
	c := NewStaticClient()

	resp, err := c.Complete(context.Background(), &CompletionRequest{
		Messages: []ChatMessage{{Role: "user", Content: ""}},
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Content, "attachment")
}

func TestNewClientDefaultsToStatic(t *testing.T) {
	c, err := NewClient(Provider("unknown"), "")
	require.NoError(t, err)
	assert.Equal(t, "static", c.Name())
}
