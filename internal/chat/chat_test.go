package chat

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

func loggedIn() staticUser {
	return staticUser{sess: &session.Session{UserID: "me"}}
}

func newTestStore(t *testing.T, handler http.Handler, user UserSource) *Store {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := api.New(api.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	return New(client, user, profile.NewCache(client))
}

func TestStore_Refresh(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /Chats", func(w http.ResponseWriter, r *http.Request) {
		// One camelCase chat, one PascalCase, one with null members.
		_, _ = w.Write([]byte(`[
			{"chatId":"c1","name":"Refs","chatUsers":[{"userId":"me"}]},
			{"ChatId":"c2","Name":"North Region"},
			{"chatId":"c3","chatUsers":null,"messages":null}
		]`))
	})
	store := newTestStore(t, mux, loggedIn())

	require.NoError(t, store.Refresh(context.Background()))

	chats := store.Chats()
	require.Len(t, chats, 3)
	assert.Equal(t, "c2", chats[1].ChatID)
	assert.NotNil(t, chats[2].Members)
	assert.NotNil(t, chats[2].Messages)
}

func TestStore_Select(t *testing.T) {
	t.Run("member gets messages sorted oldest first", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /Chats/c1/is-member/me", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"isMember":true}`))
		})
		mux.HandleFunc("GET /Messages/Chat/c1", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[
				{"messageId":"m2","chatId":"c1","userId":"u1","content":"second","sentAt":"2025-01-02T00:00:00Z"},
				{"messageId":"m1","chatId":"c1","userId":"u2","content":"first","sentAt":"2025-01-01T00:00:00Z"}
			]`))
		})
		mux.HandleFunc("GET /profiles/{id}", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id":"` + r.PathValue("id") + `"}`))
		})
		store := newTestStore(t, mux, loggedIn())

		state, err := store.Select(context.Background(), "c1")
		require.NoError(t, err)
		assert.Equal(t, Member, state)
		assert.Equal(t, Member, store.Membership())

		messages := store.Messages()
		require.Len(t, messages, 2)
		assert.Equal(t, "first", messages[0].Content)
		assert.Equal(t, "second", messages[1].Content)
	})

	t.Run("non-member gets an empty view", func(t *testing.T) {
		messagesFetched := false
		mux := http.NewServeMux()
		mux.HandleFunc("GET /Chats/c1/is-member/me", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`false`))
		})
		mux.HandleFunc("GET /Messages/Chat/c1", func(w http.ResponseWriter, r *http.Request) {
			messagesFetched = true
		})
		store := newTestStore(t, mux, loggedIn())

		state, err := store.Select(context.Background(), "c1")
		require.NoError(t, err)
		assert.Equal(t, NotMember, state)
		assert.Empty(t, store.Messages())
		assert.False(t, messagesFetched)
	})

	t.Run("check failure leaves membership unknown", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /Chats/c1/is-member/me", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})
		store := newTestStore(t, mux, loggedIn())

		state, err := store.Select(context.Background(), "c1")
		require.Error(t, err)
		assert.Equal(t, MembershipUnknown, state)
		assert.NotEmpty(t, store.Err())
	})

	t.Run("requires a session", func(t *testing.T) {
		store := newTestStore(t, http.NewServeMux(), staticUser{})

		_, err := store.Select(context.Background(), "c1")
		assert.ErrorIs(t, err, ErrNotAuthenticated)
	})
}

func TestStore_Send(t *testing.T) {
	t.Run("appends the confirmed message", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /Chats/c1/is-member/me", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`true`))
		})
		mux.HandleFunc("GET /Messages/Chat/c1", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		})
		var body map[string]string
		mux.HandleFunc("POST /Messages", func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			_, _ = w.Write([]byte(`{"messageId":"m-new","chatId":"c1","userId":"me","content":"hello"}`))
		})
		store := newTestStore(t, mux, loggedIn())

		_, err := store.Select(context.Background(), "c1")
		require.NoError(t, err)

		msg, err := store.Send(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, "m-new", msg.MessageID)
		assert.Equal(t, "c1", body["chatId"])
		assert.Equal(t, "me", body["userId"])

		require.Len(t, store.Messages(), 1)
	})

	t.Run("refused outside a membership", func(t *testing.T) {
		store := newTestStore(t, http.NewServeMux(), loggedIn())

		_, err := store.Send(context.Background(), "hello")
		assert.ErrorIs(t, err, ErrNotMember)
	})
}

func TestStore_CreateGroup(t *testing.T) {
	var body map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /Chats/group", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"chatId":"c-new","chatType":"group","name":"North Refs"}`))
	})
	store := newTestStore(t, mux, loggedIn())

	created, err := store.CreateGroup(context.Background(), "North Refs", "regional group", []string{"u1", "u2"})
	require.NoError(t, err)
	assert.Equal(t, "c-new", created.ChatID)

	// The backend validates these exact field names.
	assert.Equal(t, "North Refs", body["GroupName"])
	assert.Equal(t, "regional group", body["Description"])
	assert.Equal(t, []any{"u1", "u2"}, body["InitialUserIds"])

	require.Len(t, store.Chats(), 1)
}

func TestStore_RemoveMember(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /Chats/c1/members/u2", func(w http.ResponseWriter, r *http.Request) {})
	store := newTestStore(t, mux, loggedIn())

	store.mu.Lock()
	store.chats = []wire.Chat{{
		ChatID:  "c1",
		Members: []wire.ChatMember{{UserID: "me"}, {UserID: "u2"}},
	}}
	store.mu.Unlock()

	require.NoError(t, store.RemoveMember(context.Background(), "c1", "u2"))

	chats := store.Chats()
	require.Len(t, chats[0].Members, 1)
	assert.Equal(t, "me", chats[0].Members[0].UserID)
}

func TestStore_Delete(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /Chats/c1", func(w http.ResponseWriter, r *http.Request) {})
	store := newTestStore(t, mux, loggedIn())

	store.mu.Lock()
	store.chats = []wire.Chat{{ChatID: "c1"}}
	store.selected = "c1"
	store.membership = Member
	store.messages = []wire.Message{{MessageID: "m1"}}
	store.mu.Unlock()

	require.NoError(t, store.Delete(context.Background(), "c1"))

	assert.Empty(t, store.Chats())
	assert.Empty(t, store.Selected())
	assert.Equal(t, MembershipUnknown, store.Membership())
	assert.Empty(t, store.Messages())
}

func TestStore_JoinRequests(t *testing.T) {
	t.Run("request to join", func(t *testing.T) {
		var body map[string]string
		mux := http.NewServeMux()
		mux.HandleFunc("POST /ChatJoinRequests", func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			_, _ = w.Write([]byte(`{"chatJoinRequestId":"jr1","chatId":"c1","userId":"me","status":"pending"}`))
		})
		store := newTestStore(t, mux, loggedIn())

		req, err := store.RequestJoin(context.Background(), "c1")
		require.NoError(t, err)
		assert.Equal(t, "jr1", req.ChatJoinRequestID)
		assert.Equal(t, "c1", body["chatId"])
		assert.Equal(t, "me", body["userId"])
	})

	t.Run("owner accepts", func(t *testing.T) {
		accepted := false
		mux := http.NewServeMux()
		mux.HandleFunc("POST /ChatJoinRequests/jr1/accept", func(w http.ResponseWriter, r *http.Request) {
			accepted = true
		})
		store := newTestStore(t, mux, loggedIn())

		require.NoError(t, store.AcceptRequest(context.Background(), "jr1"))
		assert.True(t, accepted)
	})

	t.Run("decline failure is recorded", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /ChatJoinRequests/jr1/decline", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})
		store := newTestStore(t, mux, loggedIn())

		require.Error(t, store.DeclineRequest(context.Background(), "jr1"))
		assert.NotEmpty(t, store.Err())
	})

	t.Run("listings", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("GET /ChatJoinRequests/owner", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"chatJoinRequestId":"jr1"}]`))
		})
		mux.HandleFunc("GET /ChatJoinRequests/chat/c1", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"chatJoinRequestId":"jr2"},{"chatJoinRequestId":"jr3"}]`))
		})
		mux.HandleFunc("GET /ChatJoinRequests/my-requests", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		})
		store := newTestStore(t, mux, loggedIn())

		owner, err := store.OwnerRequests(context.Background())
		require.NoError(t, err)
		assert.Len(t, owner, 1)

		perChat, err := store.ChatRequests(context.Background(), "c1")
		require.NoError(t, err)
		assert.Len(t, perChat, 2)

		mine, err := store.MyRequests(context.Background())
		require.NoError(t, err)
		assert.Empty(t, mine)
	})
}
