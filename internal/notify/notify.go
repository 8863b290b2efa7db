// Package notify aggregates notifications client-side. The backend has no
// notifications endpoint; the feed of follow requests, new followers, comments
// and likes is assembled from three independent fetches and an on-disk
// watermark tracks how many items the user has already seen.
package notify

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/refconnect/refconnect-cli/internal/api"
	"github.com/refconnect/refconnect-cli/internal/profile"
	"github.com/refconnect/refconnect-cli/internal/session"
	"github.com/refconnect/refconnect-cli/internal/wire"
)

// ErrNotAuthenticated is returned when no user is logged in.
var ErrNotAuthenticated = errors.New("not authenticated")

// Notification types.
const (
	TypeFollowRequest = "follow_request"
	TypeNewFollower   = "new_follower"
	TypeComment       = "comment"
	TypeLike          = "like"
)

// Actor is the user who triggered a notification.
type Actor struct {
	UserID    string
	Name      string
	AvatarURL string
}

// PostContext identifies the post a comment or like notification refers to.
type PostContext struct {
	PostID      string
	Description string
}

// Item is one aggregated notification.
type Item struct {
	ID          string
	Type        string
	Date        wire.Time
	Actor       Actor
	Content     string
	EntityID    string
	PostContext *PostContext
}

// UserSource supplies the current session.
type UserSource interface {
	Current() *session.Session
}

// Watermarks persists the seen-count watermark between runs.
type Watermarks interface {
	SaveSeenCount(count int) error
	LoadSeenCount() int
}

// Store aggregates and caches notifications for the current user.
type Store struct {
	client     *api.Client
	user       UserSource
	profiles   *profile.Cache
	watermarks Watermarks

	mu    sync.Mutex
	items []Item
}

// New creates a notification store.
func New(client *api.Client, user UserSource, profiles *profile.Cache, watermarks Watermarks) *Store {
	return &Store{
		client:     client,
		user:       user,
		profiles:   profiles,
		watermarks: watermarks,
	}
}

// Items returns a snapshot of the aggregated notifications, newest first.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Unread reports how many items arrived since the last MarkViewed. The
// watermark counts items, so the result can never go negative even if items
// disappear between runs.
func (s *Store) Unread() int {
	s.mu.Lock()
	total := len(s.items)
	s.mu.Unlock()

	unread := total - s.watermarks.LoadSeenCount()
	if unread < 0 {
		return 0
	}
	return unread
}

// MarkViewed moves the watermark to the current item count.
func (s *Store) MarkViewed() {
	s.mu.Lock()
	total := len(s.items)
	s.mu.Unlock()

	if err := s.watermarks.SaveSeenCount(total); err != nil {
		log.Warn().Err(err).Msg("failed to persist notification watermark")
	}
}

// Refresh rebuilds the notification list from three independent sources:
// pending follow requests, the follower list, and activity on the user's own
// posts. A failed source is logged and skipped so one broken endpoint never
// empties the whole feed. The user's own actions are filtered out.
func (s *Store) Refresh(ctx context.Context) error {
	current := s.user.Current()
	if current == nil {
		return ErrNotAuthenticated
	}

	var items []Item

	reqs, err := s.fetchFollowRequests(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("follow request leg failed")
	} else {
		items = append(items, reqs...)
	}

	followers, err := s.fetchFollowers(ctx, current.UserID)
	if err != nil {
		log.Debug().Err(err).Msg("follower leg failed")
	} else {
		items = append(items, followers...)
	}

	activity, err := s.fetchPostActivity(ctx, current.UserID)
	if err != nil {
		log.Debug().Err(err).Msg("post activity leg failed")
	} else {
		items = append(items, activity...)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date.After(items[j].Date.Time)
	})

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()

	return nil
}

func (s *Store) fetchFollowRequests(ctx context.Context) ([]Item, error) {
	var reqs []wire.FollowRequest
	if err := s.client.Get(ctx, "/FollowRequests/Pending", &reqs); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(reqs))
	for _, r := range reqs {
		actor := s.actorFor(ctx, r.FollowerID, r.Follower)
		items = append(items, Item{
			ID:       TypeFollowRequest + ":" + r.FollowRequestID,
			Type:     TypeFollowRequest,
			Date:     r.RequestedAt,
			Actor:    actor,
			Content:  actor.Name + " wants to follow you",
			EntityID: r.FollowRequestID,
		})
	}

	return items, nil
}

func (s *Store) fetchFollowers(ctx context.Context, userID string) ([]Item, error) {
	raw, err := s.client.GetRaw(ctx, "/Follows/"+userID+"/followers")
	if err != nil {
		return nil, err
	}

	follows, err := wire.DecodeFollowerList(raw)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(follows))
	for _, f := range follows {
		actor := s.actorFor(ctx, f.FollowerID, f.Follower)
		items = append(items, Item{
			ID:       TypeNewFollower + ":" + f.FollowerID,
			Type:     TypeNewFollower,
			Date:     f.FollowedAt,
			Actor:    actor,
			Content:  actor.Name + " started following you",
			EntityID: f.FollowerID,
		})
	}

	return items, nil
}

func (s *Store) fetchPostActivity(ctx context.Context, userID string) ([]Item, error) {
	extended, err := s.profiles.Extended(ctx, userID)
	if err != nil {
		return nil, err
	}

	var items []Item
	for _, post := range extended.Posts {
		pc := &PostContext{PostID: post.PostID, Description: post.Description}

		for _, c := range post.Comments {
			if c.UserID == userID {
				continue
			}
			actor := s.actorFor(ctx, c.UserID, c.User)
			items = append(items, Item{
				ID:          TypeComment + ":" + c.CommentID,
				Type:        TypeComment,
				Date:        c.CreatedAt,
				Actor:       actor,
				Content:     c.Content,
				EntityID:    c.CommentID,
				PostContext: pc,
			})
		}

		for _, l := range post.Likes {
			if l.UserID == userID {
				continue
			}
			actor := s.actorFor(ctx, l.UserID, l.User)
			items = append(items, Item{
				ID:          TypeLike + ":" + post.PostID + ":" + l.UserID,
				Type:        TypeLike,
				Date:        l.LikedAt,
				Actor:       actor,
				Content:     actor.Name + " liked your post",
				EntityID:    post.PostID,
				PostContext: pc,
			})
		}
	}

	return items, nil
}

// actorFor builds an Actor from an embedded profile when present, otherwise
// through the profile cache.
func (s *Store) actorFor(ctx context.Context, userID string, embedded *wire.Profile) Actor {
	p := embedded
	if p == nil {
		p = s.profiles.Get(ctx, userID)
	}
	if p == nil {
		return Actor{UserID: userID, Name: "Unknown user"}
	}
	return Actor{
		UserID:    p.ID,
		Name:      p.DisplayName(),
		AvatarURL: p.ProfileImageURL,
	}
}
