package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refconnect/refconnect-cli/internal/api"
	"github.com/refconnect/refconnect-cli/internal/profile"
	"github.com/refconnect/refconnect-cli/internal/session"
)

type staticUser struct {
	sess *session.Session
}

func (s staticUser) Current() *session.Session { return s.sess }

type memWatermarks struct {
	seen int
}

func (m *memWatermarks) SaveSeenCount(count int) error { m.seen = count; return nil }
func (m *memWatermarks) LoadSeenCount() int            { return m.seen }

func newTestStore(t *testing.T, handler http.Handler) (*Store, *memWatermarks) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := api.New(api.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	user := staticUser{sess: &session.Session{UserID: "me"}}
	marks := &memWatermarks{}

	return New(client, user, profile.NewCache(client), marks), marks
}

func fullHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /FollowRequests/Pending", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"followRequestId":"fr1","followerId":"u1","requestedAt":"2025-01-04T00:00:00Z"}]`))
	})
	mux.HandleFunc("GET /Follows/me/followers", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"followerId":"u2","followingId":"me","followedAt":"2025-01-01T00:00:00Z"}]`))
	})
	mux.HandleFunc("GET /profiles/me/extended", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"id": "me",
			"posts": [{
				"postId": "p1",
				"description": "my post",
				"comments": [
					{"commentId":"c1","postId":"p1","userId":"u3","content":"great call","createdAt":"2025-01-03T00:00:00Z"},
					{"commentId":"c2","postId":"p1","userId":"me","content":"thanks","createdAt":"2025-01-03T01:00:00Z"}
				],
				"likes": [
					{"userId":"u4","postId":"p1","likedAt":"2025-01-02T00:00:00Z"},
					{"userId":"me","postId":"p1","likedAt":"2025-01-02T01:00:00Z"}
				]
			}]
		}`))
	})
	mux.HandleFunc("GET /profiles/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		_, _ = w.Write([]byte(`{"id":"` + id + `","userName":"user-` + id + `"}`))
	})
	return mux
}

func TestStore_Refresh(t *testing.T) {
	t.Run("aggregates and sorts newest first", func(t *testing.T) {
		store, _ := newTestStore(t, fullHandler())

		require.NoError(t, store.Refresh(context.Background()))

		items := store.Items()
		require.Len(t, items, 4)

		types := make([]string, 0, len(items))
		for _, item := range items {
			types = append(types, item.Type)
		}
		assert.Equal(t, []string{TypeFollowRequest, TypeComment, TypeLike, TypeNewFollower}, types)

		// Own actions never show up.
		for _, item := range items {
			assert.NotEqual(t, "me", item.Actor.UserID)
		}

		// Actors are enriched through the profile cache.
		assert.Equal(t, "user-u1", items[0].Actor.Name)

		// Comment and like items carry the post they refer to.
		require.NotNil(t, items[1].PostContext)
		assert.Equal(t, "p1", items[1].PostContext.PostID)
		assert.Equal(t, "my post", items[1].PostContext.Description)
	})

	t.Run("a failed source is skipped", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /FollowRequests/Pending", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		mux.HandleFunc("GET /Follows/me/followers", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"followerId":"u2","followedAt":"2025-01-01T00:00:00Z"}]`))
		})
		mux.HandleFunc("GET /profiles/me/extended", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		mux.HandleFunc("GET /profiles/{id}", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id":"u2"}`))
		})
		store, _ := newTestStore(t, mux)

		require.NoError(t, store.Refresh(context.Background()))

		items := store.Items()
		require.Len(t, items, 1)
		assert.Equal(t, TypeNewFollower, items[0].Type)
	})

	t.Run("requires a session", func(t *testing.T) {
		srv := httptest.NewServer(http.NewServeMux())
		t.Cleanup(srv.Close)

		client, err := api.New(api.Config{BaseURL: srv.URL})
		require.NoError(t, err)

		store := New(client, staticUser{}, profile.NewCache(client), &memWatermarks{})
		assert.ErrorIs(t, store.Refresh(context.Background()), ErrNotAuthenticated)
	})
}

func TestStore_Watermark(t *testing.T) {
	store, marks := newTestStore(t, fullHandler())

	require.NoError(t, store.Refresh(context.Background()))
	assert.Equal(t, 4, store.Unread())

	store.MarkViewed()
	assert.Equal(t, 4, marks.seen)
	assert.Equal(t, 0, store.Unread())

	// Items disappearing between runs never yields a negative count.
	marks.seen = 10
	assert.Equal(t, 0, store.Unread())
}

func TestPoller_Run(t *testing.T) {
	store, _ := newTestStore(t, fullHandler())

	var refreshes atomic.Int32
	poller := NewPoller(store, 20*time.Millisecond)
	poller.OnRefresh = func() { refreshes.Add(1) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		poller.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return refreshes.Load() >= 3
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop on cancel")
	}

	assert.NotEmpty(t, store.Items())
}
