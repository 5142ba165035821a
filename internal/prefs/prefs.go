// Package prefs persists the per-user active pointers (conversation and
// project) across client restarts. The stored ids are advisory: the store
// and selector clear them when they no longer resolve against the backend.
package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store reads and writes one JSON preference file per user under BaseDir.
// The client event loop is the only writer, so no locking is needed beyond
// the atomic rename.
type Store struct {
	// BaseDir is the directory holding preference files.
	BaseDir string
}

type userPrefs struct {
	ActiveConversationID string `json:"active_conversation_id,omitempty"`
	ActiveProjectID      string `json:"active_project_id,omitempty"`
}

// NewStore creates a preference store rooted at baseDir, creating it if
// needed.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create prefs dir: %w", err)
	}
	return &Store{BaseDir: baseDir}, nil
}

// ActiveConversation returns the stored active conversation id for the user,
// or "" if none is stored.
func (s *Store) ActiveConversation(userID string) string {
	return s.load(userID).ActiveConversationID
}

// SetActiveConversation persists the active conversation id for the user.
// An empty id removes the stored key.
func (s *Store) SetActiveConversation(userID, conversationID string) error {
	p := s.load(userID)
	p.ActiveConversationID = conversationID
	return s.save(userID, p)
}

// ActiveProject returns the stored active project id for the user, or "".
func (s *Store) ActiveProject(userID string) string {
	return s.load(userID).ActiveProjectID
}

// SetActiveProject persists the active project id for the user. An empty id
// removes the stored key.
func (s *Store) SetActiveProject(userID, projectID string) error {
	p := s.load(userID)
	p.ActiveProjectID = projectID
	return s.save(userID, p)
}

func (s *Store) path(userID string) string {
	// User ids come from JWT subjects; sanitize anything that is not
	// filename-safe.
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, userID)
	return filepath.Join(s.BaseDir, "prefs_"+safe+".json")
}

func (s *Store) load(userID string) userPrefs {
	var p userPrefs
	data, err := os.ReadFile(s.path(userID))
	if err != nil {
		return p
	}
	// A corrupt file is treated as empty; the ids are advisory anyway.
	_ = json.Unmarshal(data, &p)
	return p
}

func (s *Store) save(userID string, p userPrefs) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode prefs: %w", err)
	}

	path := s.path(userID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write prefs: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace prefs: %w", err)
	}
	return nil
}
