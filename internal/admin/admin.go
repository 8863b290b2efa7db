// Package admin mirrors the user administration surface: listing every
// account and removing one. Post and chat removal already live in their own
// stores; only account management is admin-specific.
package admin

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/refconnect/refconnect-cli/internal/api"
	"github.com/refconnect/refconnect-cli/internal/session"
	"github.com/refconnect/refconnect-cli/internal/wire"
)

// ErrNotAdmin is returned when the current session lacks the admin role.
var ErrNotAdmin = errors.New("admin role required")

// UserSource supplies the current session.
type UserSource interface {
	Current() *session.Session
}

// Store holds the local mirror of the account list. Every operation checks
// the admin role before touching the network; the server enforces it too,
// this just fails fast with a clear error.
type Store struct {
	client *api.Client
	user   UserSource

	mu      sync.Mutex
	users   []wire.Account
	lastErr string
}

// New creates an admin store.
func New(client *api.Client, user UserSource) *Store {
	return &Store{
		client: client,
		user:   user,
	}
}

// Users returns a snapshot of the cached account list.
func (s *Store) Users() []wire.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]wire.Account, len(s.users))
	copy(out, s.users)
	return out
}

// Err returns the last recorded error message, or "".
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ClearErr resets the recorded error message.
func (s *Store) ClearErr() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
}

// Refresh replaces the cache wholesale from GET /Users.
func (s *Store) Refresh(ctx context.Context) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}

	data, err := s.client.GetRaw(ctx, "/Users")
	if err != nil {
		s.recordErr("failed to load users: " + errMessage(err))
		return err
	}

	users, err := wire.DecodeAccountList(data)
	if err != nil {
		s.recordErr("failed to load users: " + err.Error())
		return err
	}

	s.mu.Lock()
	s.users = users
	s.lastErr = ""
	s.mu.Unlock()

	return nil
}

// DeleteUser removes an account. The cache entry goes away only after the
// server confirms.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}

	if err := s.client.Delete(ctx, "/Users/"+userID, nil); err != nil {
		s.recordErr("failed to delete user: " + errMessage(err))
		return err
	}

	s.mu.Lock()
	out := s.users[:0]
	for _, u := range s.users {
		if u.AccountID() != userID {
			out = append(out, u)
		}
	}
	s.users = out
	s.mu.Unlock()

	log.Info().Str("userID", userID).Msg("user deleted")

	return nil
}

func (s *Store) requireAdmin() error {
	current := s.user.Current()
	if current == nil {
		return session.ErrNotAuthenticated
	}
	if !current.IsAdmin() {
		return ErrNotAdmin
	}
	return nil
}

func (s *Store) recordErr(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
	log.Debug().Str("error", msg).Msg("admin store error")
}

func errMessage(err error) string {
	var apiErr *api.Error
	if api.AsError(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
