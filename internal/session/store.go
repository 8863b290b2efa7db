package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrNotPersisted is returned when no value is stored for a key.
var ErrNotPersisted = errors.New("not persisted")

const (
	tokenFile     = "token"
	sessionFile   = "session.json"
	watermarkFile = "notifications_seen"
)

// Store persists session state on the local filesystem. Three values exist:
// the bearer token, the serialized session, and the notification read-state
// watermark. Reloading the CLI rehydrates from these files only.
type Store struct {
	baseDir string
}

// NewStore creates a session store rooted at baseDir.
// If baseDir is empty, uses ~/.refconnect/
func NewStore(baseDir string) (*Store, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".refconnect")
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	log.Debug().Str("baseDir", baseDir).Msg("session store initialized")

	return &Store{baseDir: baseDir}, nil
}

// SaveToken persists the bearer token.
func (s *Store) SaveToken(token string) error {
	return s.writeFile(tokenFile, []byte(token))
}

// LoadToken reads the persisted bearer token.
func (s *Store) LoadToken() (string, error) {
	data, err := s.readFile(tokenFile)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// ClearToken removes the persisted token.
func (s *Store) ClearToken() error {
	return s.removeFile(tokenFile)
}

// SaveSession persists the serialized session.
func (s *Store) SaveSession(sess *Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return s.writeFile(sessionFile, data)
}

// LoadSession reads the persisted session.
func (s *Store) LoadSession() (*Session, error) {
	data, err := s.readFile(sessionFile)
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}
	return &sess, nil
}

// ClearSession removes the persisted session.
func (s *Store) ClearSession() error {
	return s.removeFile(sessionFile)
}

// SaveSeenCount persists the notification watermark: the number of
// notification items that had been seen at the last visit.
func (s *Store) SaveSeenCount(count int) error {
	return s.writeFile(watermarkFile, []byte(strconv.Itoa(count)))
}

// LoadSeenCount reads the notification watermark; a missing or unreadable
// value counts as zero.
func (s *Store) LoadSeenCount() int {
	data, err := s.readFile(watermarkFile)
	if err != nil {
		return 0
	}
	count, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || count < 0 {
		return 0
	}
	return count
}

// writeFile writes atomically via a temp file and rename.
func (s *Store) writeFile(name string, data []byte) error {
	path := filepath.Join(s.baseDir, name)
	tempPath := path + ".tmp"

	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save %s: %w", name, err)
	}

	return nil
}

func (s *Store) readFile(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotPersisted
		}
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

func (s *Store) removeFile(name string) error {
	if err := os.Remove(filepath.Join(s.baseDir, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}
