package model

// PromptTemplate is a reusable prompt offered to the user when composing a
// message. Read-only from the client's perspective.
type PromptTemplate struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Category  string   `json:"category,omitempty"`
	Content   string   `json:"content"`
	Variables []string `json:"variables,omitempty"`
}

// ListTemplatesResponse is the response for listing prompt templates.
type ListTemplatesResponse struct {
	Templates []PromptTemplate `json:"templates"`
	Total     int              `json:"total"`
}
