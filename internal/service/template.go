package service

import (
	"context"

	"github.com/openworkbench/chatcore/internal/model"
)

// TemplateService serves the read-only prompt template catalog.
type TemplateService struct {
	templates []model.PromptTemplate
}

// NewTemplateService creates a template service with the builtin catalog.
func NewTemplateService() *TemplateService {
	return &TemplateService{
		templates: []model.PromptTemplate{
			{
				ID:        "tpl_summarize",
				Name:      "Summarize",
				Category:  "writing",
				Content:   "Summarize the following in {{length}} sentences:\n\n{{text}}",
				Variables: []string{"length", "text"},
			},
			{
				ID:        "tpl_brainstorm",
				Name:      "Brainstorm ideas",
				Category:  "ideation",
				Content:   "Give me {{count}} ideas for {{topic}}.",
				Variables: []string{"count", "topic"},
			},
			{
				ID:        "tpl_review",
				Name:      "Review a draft",
				Category:  "writing",
				Content:   "Review this draft and point out weaknesses:\n\n{{text}}",
				Variables: []string{"text"},
			},
		},
	}
}

// List returns the template catalog.
func (s *TemplateService) List(ctx context.Context) (*model.ListTemplatesResponse, error) {
	out := make([]model.PromptTemplate, len(s.templates))
	copy(out, s.templates)
	return &model.ListTemplatesResponse{Templates: out, Total: len(out)}, nil
}
