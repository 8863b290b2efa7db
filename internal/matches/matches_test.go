package matches

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refconnect/refconnect-cli/internal/api"
	"github.com/refconnect/refconnect-cli/internal/profile"
	"github.com/refconnect/refconnect-cli/internal/session"
	"github.com/refconnect/refconnect-cli/internal/wire"
)

type staticUser struct {
	sess *session.Session
}

func (s staticUser) Current() *session.Session { return s.sess }

func newTestStore(t *testing.T, handler http.Handler) *Store {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := api.New(api.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	user := staticUser{sess: &session.Session{UserID: "me", Role: "admin"}}
	return New(client, user, profile.NewCache(client))
}

func TestStore_Refresh(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /Matches", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"matchId":"m1","score":"Rapid 2 - 1 Steaua","location":"Arena"}]`))
	})
	store := newTestStore(t, mux)

	require.NoError(t, store.Refresh(context.Background()))

	matches := store.Matches()
	require.Len(t, matches, 1)
	assert.Equal(t, "Rapid", matches[0].HomeTeam)
	assert.Equal(t, "Steaua", matches[0].AwayTeam)
	assert.Equal(t, "Rapid 2 - 1 Steaua", matches[0].Score)
}

func TestStore_Create(t *testing.T) {
	var body map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /Matches", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"matchId":"m-new","score":"A 0 - 0 B"}`))
	})
	store := newTestStore(t, mux)

	created, err := store.Create(context.Background(), wire.CreateMatch{
		HomeTeam: "A",
		AwayTeam: "B",
		Location: "Arena",
	})
	require.NoError(t, err)
	assert.Equal(t, "m-new", created.MatchID)
	assert.Equal(t, "A", created.HomeTeam)
	assert.Equal(t, "A", body["homeTeam"])

	require.Len(t, store.Matches(), 1)
}

func TestStore_Delete(t *testing.T) {
	t.Run("removes on success", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("DELETE /Matches/m1", func(w http.ResponseWriter, r *http.Request) {})
		store := newTestStore(t, mux)
		store.matches = []wire.Match{{MatchID: "m1"}, {MatchID: "m2"}}

		require.NoError(t, store.Delete(context.Background(), "m1"))
		require.Len(t, store.Matches(), 1)
		assert.Equal(t, "m2", store.Matches()[0].MatchID)
	})

	t.Run("keeps the entry on failure", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("DELETE /Matches/m1", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})
		store := newTestStore(t, mux)
		store.matches = []wire.Match{{MatchID: "m1"}}

		require.Error(t, store.Delete(context.Background(), "m1"))
		assert.Len(t, store.Matches(), 1)
		assert.NotEmpty(t, store.Err())
	})
}

func TestStore_Delegate(t *testing.T) {
	var body map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /MatchAssignments", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"matchAssignmentId":"a1","matchId":"m1","userId":"ref-2"}`))
	})
	store := newTestStore(t, mux)

	created, err := store.Delegate(context.Background(), "m1", "ref-2", "assistant")
	require.NoError(t, err)
	assert.Equal(t, "a1", created.MatchAssignmentID)

	// The backend binds the role under this exact name.
	assert.Equal(t, "assistant", body["RoleInMatch"])
	assert.Equal(t, "m1", body["matchId"])
}

func TestStore_Assignments(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /MatchAssignments", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"matchAssignmentId":"a1","matchId":"m1","userId":"u1","role":"referee"},
			{"matchAssignmentId":"a2","matchId":"m2","userId":"u2","role":"referee"},
			{"matchAssignmentId":"a3","matchId":"m1","userId":"u3","role":"assistant"}
		]`))
	})
	mux.HandleFunc("GET /profiles/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"` + r.PathValue("id") + `","userName":"ref-` + r.PathValue("id") + `"}`))
	})
	store := newTestStore(t, mux)

	assignments, err := store.Assignments(context.Background(), "m1")
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	assert.Equal(t, "a1", assignments[0].MatchAssignmentID)
	assert.Equal(t, "a3", assignments[1].MatchAssignmentID)

	// Rows are enriched with the referee's profile.
	require.NotNil(t, assignments[0].User)
	assert.Equal(t, "ref-u1", assignments[0].User.UserName)
}

func TestStore_RemoveDelegation(t *testing.T) {
	called := false
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /MatchAssignments/a1", func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	store := newTestStore(t, mux)

	require.NoError(t, store.RemoveDelegation(context.Background(), "a1"))
	assert.True(t, called)
}
