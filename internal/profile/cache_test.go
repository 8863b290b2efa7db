package profile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refconnect/refconnect-cli/internal/api"
	"github.com/refconnect/refconnect-cli/internal/wire"
)

func newTestCache(t *testing.T, handler http.Handler) (*Cache, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := api.New(api.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	return NewCache(client), srv
}

func TestCache_Get(t *testing.T) {
	t.Run("memoizes per id", func(t *testing.T) {
		fetches := 0
		mux := http.NewServeMux()
		mux.HandleFunc("GET /profiles/u1", func(w http.ResponseWriter, r *http.Request) {
			fetches++
			_, _ = w.Write([]byte(`{"id":"u1","userName":"ref1"}`))
		})
		cache, _ := newTestCache(t, mux)

		ctx := context.Background()
		first := cache.Get(ctx, "u1")
		second := cache.Get(ctx, "u1")

		require.NotNil(t, first)
		assert.Equal(t, "ref1", first.UserName)
		assert.Same(t, first, second)
		assert.Equal(t, 1, fetches)
	})

	t.Run("failures are remembered", func(t *testing.T) {
		fetches := 0
		mux := http.NewServeMux()
		mux.HandleFunc("GET /profiles/gone", func(w http.ResponseWriter, r *http.Request) {
			fetches++
			w.WriteHeader(http.StatusNotFound)
		})
		cache, _ := newTestCache(t, mux)

		ctx := context.Background()
		assert.Nil(t, cache.Get(ctx, "gone"))
		assert.Nil(t, cache.Get(ctx, "gone"))
		assert.Equal(t, 1, fetches)
	})

	t.Run("empty id is nil without a request", func(t *testing.T) {
		cache, _ := newTestCache(t, http.NewServeMux())
		assert.Nil(t, cache.Get(context.Background(), ""))
	})
}

func TestCache_Put(t *testing.T) {
	fetches := 0
	mux := http.NewServeMux()
	mux.HandleFunc("GET /profiles/u2", func(w http.ResponseWriter, r *http.Request) {
		fetches++
		_, _ = w.Write([]byte(`{"id":"u2"}`))
	})
	cache, _ := newTestCache(t, mux)

	cache.Put(&wire.Profile{ID: "u2", UserName: "seeded"})

	got := cache.Get(context.Background(), "u2")
	require.NotNil(t, got)
	assert.Equal(t, "seeded", got.UserName)
	assert.Equal(t, 0, fetches)
}

func TestCache_Warm(t *testing.T) {
	fetches := map[string]int{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /profiles/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		fetches[id]++
		_, _ = w.Write([]byte(`{"id":"` + id + `"}`))
	})
	cache, _ := newTestCache(t, mux)

	cache.Warm(context.Background(), []string{"a", "b", "a", "", "b"})

	assert.Equal(t, map[string]int{"a": 1, "b": 1}, fetches)
}

func TestCache_All(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /profiles", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"u1","userName":"ref1"},{"id":"u2","userName":"ref2"}]`))
	})
	profileFetches := 0
	mux.HandleFunc("GET /profiles/{id}", func(w http.ResponseWriter, r *http.Request) {
		profileFetches++
		_, _ = w.Write([]byte(`{}`))
	})
	cache, _ := newTestCache(t, mux)

	all, err := cache.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// The listing seeded the cache.
	got := cache.Get(context.Background(), "u1")
	require.NotNil(t, got)
	assert.Equal(t, "ref1", got.UserName)
	assert.Equal(t, 0, profileFetches)
}

func TestCache_Extended(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("GET /profiles/u1/extended", func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"id":"u1","posts":[{"postId":"p1"}]}`))
	})
	cache, _ := newTestCache(t, mux)

	ctx := context.Background()
	for range 2 {
		ext, err := cache.Extended(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, ext.Posts, 1)
		assert.Equal(t, "p1", ext.Posts[0].PostID)
	}

	// Extended results are never cached.
	assert.Equal(t, 2, calls)
}
