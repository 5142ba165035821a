package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/openworkbench/chatcore/internal/model"
)

// ValidateSendMessage validates a send request. Empty content is fine when a
// file rides along; neither content nor file is rejected.
func ValidateSendMessage(req *model.SendMessageRequest) error {
	if req.Content == "" && req.File == nil {
		return errors.New("message needs content or a file")
	}
	if len(req.Content) > 100000 { // ~100KB limit
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(req.Content) {
		return errors.New("content must be valid UTF-8")
	}
	if req.File != nil && req.File.Name == "" {
		return errors.New("file needs a name")
	}
	return nil
}

// ValidateID validates a server-assigned resource id.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid id format")
	}
	return nil
}

// ValidateTitle validates a conversation title.
func ValidateTitle(title string) error {
	if len(title) > 256 {
		return errors.New("title exceeds maximum length")
	}
	if !utf8.ValidString(title) {
		return errors.New("title must be valid UTF-8")
	}
	return nil
}

// ValidateProjectName validates a project name.
func ValidateProjectName(name string) error {
	if name == "" {
		return errors.New("project name cannot be empty")
	}
	if len(name) > 128 {
		return errors.New("project name exceeds maximum length")
	}
	if !utf8.ValidString(name) {
		return errors.New("project name must be valid UTF-8")
	}
	return nil
}
