package admin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refconnect/refconnect-cli/internal/api"
	"github.com/refconnect/refconnect-cli/internal/session"
)

type staticUser struct {
	sess *session.Session
}

func (s staticUser) Current() *session.Session { return s.sess }

func asAdmin() staticUser {
	return staticUser{sess: &session.Session{UserID: "me", Role: "admin"}}
}

func asReferee() staticUser {
	return staticUser{sess: &session.Session{UserID: "me", Role: "referee"}}
}

func newTestStore(t *testing.T, handler http.Handler, user UserSource) *Store {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := api.New(api.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	return New(client, user)
}

func TestStore_Refresh(t *testing.T) {
	t.Run("bare array", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /Users", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[
				{"id":"u1","userName":"ana","email":"ana@example.com"},
				{"userId":"u2","userName":"bogdan"}
			]`))
		})
		store := newTestStore(t, mux, asAdmin())

		require.NoError(t, store.Refresh(context.Background()))

		users := store.Users()
		require.Len(t, users, 2)
		assert.Equal(t, "u1", users[0].AccountID())
		assert.Equal(t, "u2", users[1].AccountID())
	})

	t.Run("items envelope", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /Users", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"items":[{"id":"u1","userName":"ana"}]}`))
		})
		store := newTestStore(t, mux, asAdmin())

		require.NoError(t, store.Refresh(context.Background()))
		require.Len(t, store.Users(), 1)
	})

	t.Run("non-admin never reaches the server", func(t *testing.T) {
		requested := false
		mux := http.NewServeMux()
		mux.HandleFunc("GET /Users", func(w http.ResponseWriter, r *http.Request) {
			requested = true
		})
		store := newTestStore(t, mux, asReferee())

		assert.ErrorIs(t, store.Refresh(context.Background()), ErrNotAdmin)
		assert.False(t, requested)
	})

	t.Run("requires a session", func(t *testing.T) {
		store := newTestStore(t, http.NewServeMux(), staticUser{})

		assert.ErrorIs(t, store.Refresh(context.Background()), session.ErrNotAuthenticated)
	})

	t.Run("list failure records the error", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /Users", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		store := newTestStore(t, mux, asAdmin())

		require.Error(t, store.Refresh(context.Background()))
		assert.NotEmpty(t, store.Err())
	})
}

func TestStore_DeleteUser(t *testing.T) {
	t.Run("removes the confirmed account", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /Users", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"id":"u1"},{"userId":"u2"}]`))
		})
		mux.HandleFunc("DELETE /Users/u2", func(w http.ResponseWriter, r *http.Request) {})
		store := newTestStore(t, mux, asAdmin())

		require.NoError(t, store.Refresh(context.Background()))
		require.NoError(t, store.DeleteUser(context.Background(), "u2"))

		users := store.Users()
		require.Len(t, users, 1)
		assert.Equal(t, "u1", users[0].AccountID())
	})

	t.Run("failure keeps the cache entry", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /Users", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"id":"u1"}]`))
		})
		mux.HandleFunc("DELETE /Users/u1", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"errorMessage":"cannot delete the last admin"}`))
		})
		store := newTestStore(t, mux, asAdmin())

		require.NoError(t, store.Refresh(context.Background()))
		require.Error(t, store.DeleteUser(context.Background(), "u1"))

		assert.Len(t, store.Users(), 1)
		assert.Equal(t, "failed to delete user: cannot delete the last admin", store.Err())
	})

	t.Run("non-admin is refused", func(t *testing.T) {
		store := newTestStore(t, http.NewServeMux(), asReferee())

		assert.ErrorIs(t, store.DeleteUser(context.Background(), "u1"), ErrNotAdmin)
	})
}
