// Package matches manages scheduled matches and referee delegations.
package matches

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/refconnect/refconnect-cli/internal/api"
	"github.com/refconnect/refconnect-cli/internal/profile"
	"github.com/refconnect/refconnect-cli/internal/session"
	"github.com/refconnect/refconnect-cli/internal/wire"
)

// ErrNotAuthenticated is returned for actions that need a logged-in user.
var ErrNotAuthenticated = errors.New("not authenticated")

// UserSource supplies the current session.
type UserSource interface {
	Current() *session.Session
}

// Store mirrors the match list and performs delegation operations.
type Store struct {
	client   *api.Client
	user     UserSource
	profiles *profile.Cache

	mu      sync.Mutex
	matches []wire.Match
	lastErr string
}

// New creates a match store.
func New(client *api.Client, user UserSource, profiles *profile.Cache) *Store {
	return &Store{client: client, user: user, profiles: profiles}
}

// Matches returns a snapshot of the cached match list.
func (s *Store) Matches() []wire.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]wire.Match, len(s.matches))
	copy(out, s.matches)
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

// Refresh replaces the cache from GET /Matches. Team names are derived from
// the score string on the way in.
func (s *Store) Refresh(ctx context.Context) error {
	var matches []wire.Match
	if err := s.client.Get(ctx, "/Matches", &matches); err != nil {
		s.recordErr("failed to load matches: " + err.Error())
		return err
	}

	for i := range matches {
		matches[i].HomeTeam, matches[i].AwayTeam = wire.ParseScore(matches[i].Score)
	}

	s.mu.Lock()
	s.matches = matches
	s.lastErr = ""
	s.mu.Unlock()

	return nil
}

// Get returns a single match by id.
func (s *Store) Get(ctx context.Context, matchID string) (*wire.Match, error) {
	var m wire.Match
	if err := s.client.Get(ctx, "/Matches/"+matchID, &m); err != nil {
		return nil, err
	}
	m.HomeTeam, m.AwayTeam = wire.ParseScore(m.Score)
	return &m, nil
}

// Create schedules a new match and prepends the server's echo to the cache.
func (s *Store) Create(ctx context.Context, params wire.CreateMatch) (*wire.Match, error) {
	if s.user.Current() == nil {
		return nil, ErrNotAuthenticated
	}

	var created wire.Match
	if err := s.client.Post(ctx, "/Matches", params, &created); err != nil {
		s.recordErr("failed to create match: " + err.Error())
		return nil, err
	}
	created.HomeTeam, created.AwayTeam = wire.ParseScore(created.Score)

	s.mu.Lock()
	s.matches = append([]wire.Match{created}, s.matches...)
	s.mu.Unlock()

	return &created, nil
}

// Update edits a match and patches the cache entry in place.
func (s *Store) Update(ctx context.Context, matchID string, params wire.CreateMatch) (*wire.Match, error) {
	var updated wire.Match
	if err := s.client.Put(ctx, "/Matches/"+matchID, params, &updated); err != nil {
		s.recordErr("failed to update match: " + err.Error())
		return nil, err
	}
	if updated.MatchID == "" {
		updated.MatchID = matchID
	}
	updated.HomeTeam, updated.AwayTeam = wire.ParseScore(updated.Score)

	s.mu.Lock()
	for i := range s.matches {
		if s.matches[i].MatchID == matchID {
			s.matches[i] = updated
			break
		}
	}
	s.mu.Unlock()

	return &updated, nil
}

// Delete removes a match. The cache entry goes away only after the server
// confirms.
func (s *Store) Delete(ctx context.Context, matchID string) error {
	if err := s.client.Delete(ctx, "/Matches/"+matchID, nil); err != nil {
		s.recordErr("failed to delete match: " + err.Error())
		return err
	}

	s.mu.Lock()
	out := s.matches[:0]
	for _, m := range s.matches {
		if m.MatchID != matchID {
			out = append(out, m)
		}
	}
	s.matches = out
	s.mu.Unlock()

	return nil
}

// Delegate assigns userID to matchID in the given role.
func (s *Store) Delegate(ctx context.Context, matchID, userID, role string) (*wire.Assignment, error) {
	if s.user.Current() == nil {
		return nil, ErrNotAuthenticated
	}

	params := wire.CreateAssignment{
		MatchID:     matchID,
		UserID:      userID,
		RoleInMatch: role,
	}

	var created wire.Assignment
	if err := s.client.Post(ctx, "/MatchAssignments", params, &created); err != nil {
		s.recordErr("failed to delegate referee: " + err.Error())
		return nil, err
	}

	log.Debug().Str("matchID", matchID).Str("userID", userID).Str("role", role).Msg("referee delegated")

	return &created, nil
}

// Assignments lists the delegations for a match. The backend only exposes the
// full assignment list, so filtering happens client-side; each row is
// enriched with the referee's profile.
func (s *Store) Assignments(ctx context.Context, matchID string) ([]wire.Assignment, error) {
	var all []wire.Assignment
	if err := s.client.Get(ctx, "/MatchAssignments", &all); err != nil {
		return nil, err
	}

	out := make([]wire.Assignment, 0, len(all))
	for _, a := range all {
		if a.MatchID != matchID {
			continue
		}
		if a.User == nil {
			a.User = s.profiles.Get(ctx, a.UserID)
		}
		out = append(out, a)
	}

	return out, nil
}

// RemoveDelegation deletes an assignment by id.
func (s *Store) RemoveDelegation(ctx context.Context, assignmentID string) error {
	return s.client.Delete(ctx, "/MatchAssignments/"+assignmentID, nil)
}

func (s *Store) recordErr(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
	log.Debug().Str("error", msg).Msg("match store error")
}
