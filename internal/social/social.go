// Package social manages follower relationships and follow requests.
package social

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/refconnect/refconnect-cli/internal/api"
	"github.com/refconnect/refconnect-cli/internal/session"
	"github.com/refconnect/refconnect-cli/internal/wire"
)

// ErrNotAuthenticated is returned for actions that need a logged-in user.
var ErrNotAuthenticated = errors.New("not authenticated")

// FollowStatus is the relationship between the current user and another user.
type FollowStatus string

const (
	StatusFollowing    FollowStatus = "following"
	StatusNotFollowing FollowStatus = "not_following"
)

// UserSource supplies the current session.
type UserSource interface {
	Current() *session.Session
}

// Store performs follow graph operations for the current user.
type Store struct {
	client *api.Client
	user   UserSource

	mu      sync.Mutex
	lastErr string
}

// New creates a social store.
func New(client *api.Client, user UserSource) *Store {
	return &Store{client: client, user: user}
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

// Follow establishes a follower relationship from the current user to userID.
func (s *Store) Follow(ctx context.Context, userID string) error {
	current := s.user.Current()
	if current == nil {
		return ErrNotAuthenticated
	}

	body := wire.Follow{
		FollowerID:  current.UserID,
		FollowingID: userID,
		FollowedAt:  wire.Now(),
	}

	if err := s.client.Post(ctx, "/Follows", body, nil); err != nil {
		return err
	}

	log.Debug().Str("followingID", userID).Msg("followed user")

	return nil
}

// Unfollow removes the relationship. The delete carries the same body shape
// as the create; the backend identifies the row by the id pair.
func (s *Store) Unfollow(ctx context.Context, userID string) error {
	current := s.user.Current()
	if current == nil {
		return ErrNotAuthenticated
	}

	body := wire.Follow{
		FollowerID:  current.UserID,
		FollowingID: userID,
	}

	if err := s.client.Delete(ctx, "/Follows", body); err != nil {
		return err
	}

	log.Debug().Str("followingID", userID).Msg("unfollowed user")

	return nil
}

// SendRequest creates a pending follow request to userID. The request id is
// generated client-side so the caller can cancel before the server echoes
// anything back.
func (s *Store) SendRequest(ctx context.Context, userID string) (*wire.FollowRequest, error) {
	current := s.user.Current()
	if current == nil {
		return nil, ErrNotAuthenticated
	}

	req := wire.FollowRequest{
		FollowRequestID: uuid.New().String(),
		FollowerID:      current.UserID,
		FollowingID:     userID,
		RequestedAt:     wire.Now(),
	}

	if err := s.client.Post(ctx, "/FollowRequests", req, nil); err != nil {
		return nil, err
	}

	return &req, nil
}

// CancelRequest withdraws a pending request the current user sent.
func (s *Store) CancelRequest(ctx context.Context, userID string) error {
	current := s.user.Current()
	if current == nil {
		return ErrNotAuthenticated
	}

	body := wire.FollowRequest{
		FollowerID:  current.UserID,
		FollowingID: userID,
	}

	return s.client.Delete(ctx, "/FollowRequests", body)
}

// Accept approves a pending request addressed to the current user. Failures
// are recorded on the store and reported as false rather than returned.
func (s *Store) Accept(ctx context.Context, req wire.FollowRequest) bool {
	if err := s.client.Post(ctx, "/FollowRequests/Accept", req, nil); err != nil {
		s.recordErr("failed to accept follow request: " + err.Error())
		return false
	}
	return true
}

// Decline rejects a pending request addressed to the current user.
func (s *Store) Decline(ctx context.Context, req wire.FollowRequest) bool {
	if err := s.client.Post(ctx, "/FollowRequests/Decline", req, nil); err != nil {
		s.recordErr("failed to decline follow request: " + err.Error())
		return false
	}
	return true
}

// Followers lists the users following userID. The endpoint returns either
// follow rows or bare profiles depending on the backend version.
func (s *Store) Followers(ctx context.Context, userID string) ([]wire.Follow, error) {
	raw, err := s.client.GetRaw(ctx, "/Follows/"+userID+"/followers")
	if err != nil {
		return nil, err
	}
	return wire.DecodeFollowerList(raw)
}

// Following lists the users userID follows.
func (s *Store) Following(ctx context.Context, userID string) ([]wire.Follow, error) {
	var follows []wire.Follow
	if err := s.client.Get(ctx, "/Follows/"+userID+"/following", &follows); err != nil {
		return nil, err
	}
	return follows, nil
}

// PendingRequests lists follow requests awaiting the current user's decision.
func (s *Store) PendingRequests(ctx context.Context) ([]wire.FollowRequest, error) {
	var reqs []wire.FollowRequest
	if err := s.client.Get(ctx, "/FollowRequests/Pending", &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// Status reports the current user's relationship to userID, derived from the
// user's own following list.
func (s *Store) Status(ctx context.Context, userID string) (FollowStatus, error) {
	current := s.user.Current()
	if current == nil {
		return StatusNotFollowing, ErrNotAuthenticated
	}

	follows, err := s.Following(ctx, current.UserID)
	if err != nil {
		return StatusNotFollowing, err
	}

	for _, f := range follows {
		if f.FollowingID == userID {
			return StatusFollowing, nil
		}
	}

	return StatusNotFollowing, nil
}

func (s *Store) recordErr(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
	log.Debug().Str("error", msg).Msg("social store error")
}
