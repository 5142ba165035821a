package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// StaticClient is a canned responder used when no provider key is
// configured. It keeps the mock gateway self-contained: no network, no
// keys, deterministic enough for tests.
type StaticClient struct{}

// NewStaticClient creates a static responder.
func NewStaticClient() *StaticClient {
	return &StaticClient{}
}

// Name returns the provider name.
func (c *StaticClient) Name() string {
	return "static"
}

// Models returns available models.
func (c *StaticClient) Models() []string {
	return []string{"static-echo-1"}
}

// Complete answers with a short acknowledgment quoting the last user turn.
func (c *StaticClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	var lastUser string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			lastUser = req.Messages[i].Content
			break
		}
	}

	prompt := lastUser
	if len(prompt) > 80 {
		prompt = prompt[:80] + "…"
	}
	content := fmt.Sprintf("You said: %q. This is a canned reply from the mock gateway.", prompt)
	if strings.TrimSpace(lastUser) == "" {
		content = "I received your attachment. This is a canned reply from the mock gateway."
	}

	return &CompletionResponse{
		Content:    content,
		Model:      "static-echo-1",
		TokensIn:   len(lastUser) / 4,
		TokensOut:  len(content) / 4,
		StopReason: "end_turn",
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}
