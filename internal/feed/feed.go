// Package feed mirrors the post feed: posts with their comments and likes,
// CRUD against the posts endpoints, and optimistic like toggles.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/refconnect/refconnect-cli/internal/api"
	"github.com/refconnect/refconnect-cli/internal/moderation"
	"github.com/refconnect/refconnect-cli/internal/session"
	"github.com/refconnect/refconnect-cli/internal/wire"
)

// Sentinel errors
var (
	// ErrNotAuthenticated is returned for actions that need a logged-in user.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrContentFlagged is returned when moderation rejects the text.
	ErrContentFlagged = errors.New("content flagged by moderation")
)

// ToggleState is the terminal state of an optimistic like/unlike: the local
// flip either survived server confirmation or was rolled back.
type ToggleState int

const (
	ToggleCommitted ToggleState = iota
	ToggleRolledBack
)

// UserSource supplies the current session.
type UserSource interface {
	Current() *session.Session
}

// Store holds the local mirror of the feed. The server is the sole source of
// truth: every mutation either patches the cache from a confirmed response
// or leaves it untouched.
type Store struct {
	client  *api.Client
	user    UserSource
	checker *moderation.Checker

	mu      sync.Mutex
	posts   []wire.Post
	lastErr string
}

// New creates a feed store. checker may be nil to skip moderation.
func New(client *api.Client, user UserSource, checker *moderation.Checker) *Store {
	return &Store{
		client:  client,
		user:    user,
		checker: checker,
	}
}

// Posts returns a snapshot of the cached feed.
func (s *Store) Posts() []wire.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]wire.Post, len(s.posts))
	copy(out, s.posts)
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

// Refresh replaces the cache wholesale from GET /posts and enriches each
// post with its comments. Concurrent refreshes are not coalesced; the last
// response to land wins. A failed comment fetch leaves that post without
// comments rather than failing the refresh.
func (s *Store) Refresh(ctx context.Context) error {
	var posts []wire.Post
	if err := s.client.Get(ctx, "/posts", &posts); err != nil {
		s.recordErr("failed to load posts: " + errMessage(err))
		return err
	}

	for i := range posts {
		var comments []wire.Comment
		if err := s.client.Get(ctx, "/comments/post/"+posts[i].PostID, &comments); err != nil {
			log.Debug().Err(err).Str("postID", posts[i].PostID).Msg("comment fetch failed")
			continue
		}
		posts[i].Comments = comments
	}

	s.mu.Lock()
	s.posts = posts
	s.lastErr = ""
	s.mu.Unlock()

	return nil
}

// Create posts new content and prepends the server's echo to the cache.
// Moderation runs first when a checker is configured.
func (s *Store) Create(ctx context.Context, params wire.CreatePost) (*wire.Post, error) {
	current := s.user.Current()
	if current == nil {
		s.recordErr("user not authenticated")
		return nil, ErrNotAuthenticated
	}
	params.UserID = current.UserID

	if s.checker != nil {
		if res := s.checker.Check(ctx, params.Description); !res.Allowed {
			s.recordErr(res.Reason)
			return nil, ErrContentFlagged
		}
	}

	var created wire.Post
	if err := s.client.Post(ctx, "/posts", params, &created); err != nil {
		s.recordErr("failed to create post: " + errMessage(err))
		return nil, err
	}

	s.mu.Lock()
	s.posts = append([]wire.Post{created}, s.posts...)
	s.mu.Unlock()

	return &created, nil
}

// Delete removes a post. The cache entry goes away only after the server
// confirms.
func (s *Store) Delete(ctx context.Context, postID string) error {
	if err := s.client.Delete(ctx, "/posts/"+postID, nil); err != nil {
		s.recordErr("failed to delete post: " + errMessage(err))
		return err
	}

	s.mu.Lock()
	s.posts = removePost(s.posts, postID)
	s.mu.Unlock()

	return nil
}

// Like optimistically marks the post liked and confirms with the server,
// reverting the flip if the request fails. The cache diverges from server
// state for at most one round trip.
func (s *Store) Like(ctx context.Context, postID string) (ToggleState, error) {
	current := s.user.Current()
	if current == nil {
		return ToggleRolledBack, ErrNotAuthenticated
	}

	like := wire.Like{UserID: current.UserID, PostID: postID, LikedAt: wire.Now()}

	added := s.addLike(postID, current.UserID)

	if err := s.client.Post(ctx, "/Like", like, nil); err != nil {
		if added {
			s.dropLike(postID, current.UserID)
		}
		return ToggleRolledBack, err
	}

	return ToggleCommitted, nil
}

// Unlike is the inverse of Like with the same rollback contract.
func (s *Store) Unlike(ctx context.Context, postID string) (ToggleState, error) {
	current := s.user.Current()
	if current == nil {
		return ToggleRolledBack, ErrNotAuthenticated
	}

	like := wire.Like{UserID: current.UserID, PostID: postID, LikedAt: wire.Now()}

	removed := s.dropLike(postID, current.UserID)

	if err := s.client.Delete(ctx, "/Like", like); err != nil {
		if removed {
			s.addLike(postID, current.UserID)
		}
		return ToggleRolledBack, err
	}

	return ToggleCommitted, nil
}

// IsLiked asks the server whether the current user likes the post. The
// canonical endpoint is POST /Like/exists; backends that reject POST with
// 405 get the GET fallback with query parameters.
func (s *Store) IsLiked(ctx context.Context, postID string) (bool, error) {
	current := s.user.Current()
	if current == nil {
		return false, ErrNotAuthenticated
	}

	like := wire.Like{UserID: current.UserID, PostID: postID, LikedAt: wire.Now()}

	resp, err := s.client.PostRawJSON(ctx, "/Like/exists", mustJSON(like))
	if err != nil {
		if !api.IsStatus(err, http.StatusMethodNotAllowed) {
			return false, err
		}
		resp, err = s.client.GetRaw(ctx, "/Like/exists?postId="+postID+"&userId="+current.UserID)
		if err != nil {
			return false, err
		}
	}

	return wire.Truthy(resp, "exists"), nil
}

// AddComment posts a comment (optionally a reply) and prepends it to the
// owning post's comment list.
func (s *Store) AddComment(ctx context.Context, postID, content, parentCommentID string) (*wire.Comment, error) {
	current := s.user.Current()
	if current == nil {
		return nil, ErrNotAuthenticated
	}

	if s.checker != nil {
		if res := s.checker.Check(ctx, content); !res.Allowed {
			s.recordErr(res.Reason)
			return nil, ErrContentFlagged
		}
	}

	params := wire.CreateComment{
		PostID:          postID,
		Content:         content,
		UserID:          current.UserID,
		ParentCommentID: parentCommentID,
	}

	var created wire.Comment
	if err := s.client.Post(ctx, "/comments", params, &created); err != nil {
		s.recordErr("failed to add comment: " + errMessage(err))
		return nil, err
	}

	s.mu.Lock()
	for i := range s.posts {
		if s.posts[i].PostID == postID {
			s.posts[i].Comments = append([]wire.Comment{created}, s.posts[i].Comments...)
			break
		}
	}
	s.mu.Unlock()

	return &created, nil
}

// UpdateComment edits a comment's content and patches the cache entry.
func (s *Store) UpdateComment(ctx context.Context, commentID, content string) error {
	payload := struct {
		Content string `json:"content"`
	}{Content: content}

	if err := s.client.Put(ctx, "/comments/"+commentID, payload, nil); err != nil {
		s.recordErr("failed to update comment: " + errMessage(err))
		return err
	}

	s.mu.Lock()
	for i := range s.posts {
		for j := range s.posts[i].Comments {
			if s.posts[i].Comments[j].CommentID == commentID {
				s.posts[i].Comments[j].Content = content
			}
		}
	}
	s.mu.Unlock()

	return nil
}

// DeleteComment removes a comment from the server and from every cached post.
func (s *Store) DeleteComment(ctx context.Context, commentID string) error {
	if err := s.client.Delete(ctx, "/comments/"+commentID, nil); err != nil {
		s.recordErr("failed to delete comment: " + errMessage(err))
		return err
	}

	s.mu.Lock()
	for i := range s.posts {
		s.posts[i].Comments = removeComment(s.posts[i].Comments, commentID)
	}
	s.mu.Unlock()

	return nil
}

// addLike records a like for userID on postID in the cache and reports
// whether anything changed. A user with a cached entry already counts as
// liking the post, so a second add is a no-op; the rollback of a failed
// toggle only undoes what the optimistic step actually did.
func (s *Store) addLike(postID, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.posts {
		if s.posts[i].PostID != postID {
			continue
		}
		if hasLike(s.posts[i].Likes, userID) {
			return false
		}
		s.posts[i].LikeCount++
		s.posts[i].Likes = append(s.posts[i].Likes, wire.Like{UserID: userID, PostID: postID, LikedAt: wire.Now()})
		return true
	}
	return false
}

// dropLike is the inverse of addLike.
func (s *Store) dropLike(postID, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.posts {
		if s.posts[i].PostID != postID {
			continue
		}
		if !hasLike(s.posts[i].Likes, userID) {
			return false
		}
		if s.posts[i].LikeCount > 0 {
			s.posts[i].LikeCount--
		}
		s.posts[i].Likes = removeLike(s.posts[i].Likes, userID)
		return true
	}
	return false
}

func (s *Store) recordErr(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
	log.Debug().Str("error", msg).Msg("feed store error")
}

func removePost(posts []wire.Post, postID string) []wire.Post {
	out := posts[:0]
	for _, p := range posts {
		if p.PostID != postID {
			out = append(out, p)
		}
	}
	return out
}

func removeComment(comments []wire.Comment, commentID string) []wire.Comment {
	out := comments[:0]
	for _, c := range comments {
		if c.CommentID != commentID {
			out = append(out, c)
		}
	}
	return out
}

func hasLike(likes []wire.Like, userID string) bool {
	for _, l := range likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

func removeLike(likes []wire.Like, userID string) []wire.Like {
	out := likes[:0]
	for _, l := range likes {
		if l.UserID != userID {
			out = append(out, l)
		}
	}
	return out
}

func errMessage(err error) string {
	var apiErr *api.Error
	if api.AsError(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

func mustJSON(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
