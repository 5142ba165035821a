package service

import (
	"context"

	"github.com/openworkbench/chatcore/internal/model"
)

// Seed loads demo data for a user so a fresh mock gateway has something to
// show: one project and one conversation with a greeting exchange.
func Seed(ctx context.Context, userID string, projects *ProjectService, conversations *ConversationService, messages *MessageService) error {
	proj, err := projects.Create(ctx, userID, &model.CreateProjectRequest{
		Name:        "Getting started",
		Type:        "personal",
		Stage:       "exploring",
		Description: "Demo project seeded by the mock gateway.",
	})
	if err != nil {
		return err
	}

	_, err = messages.Send(ctx, userID, &model.SendMessageRequest{
		ProjectID: proj.ID,
		Content:   "Hello! What can you do?",
	})
	return err
}
