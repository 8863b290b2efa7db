package session

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/refconnect/refconnect-cli/internal/api"
	"github.com/refconnect/refconnect-cli/internal/wire"
)

// Manager owns the in-memory session and keeps it in sync with the persisted
// copy. Exactly one expiry timer is live at any time; every login, register
// or rehydration cancels and reschedules it.
type Manager struct {
	store  *Store
	client *api.Client

	mu      sync.Mutex
	current *Session
	token   string
	timer   *time.Timer

	// now is swappable for tests.
	now func() time.Time

	// onExpiry is invoked after an automatic logout (timer fire or 401
	// teardown), outside the manager lock.
	onExpiry func()
}

// NewManager creates a Manager and wires it into the shared client: the
// manager becomes the client's token source, and a 401 on an authenticated
// request tears the session down.
func NewManager(store *Store, client *api.Client) *Manager {
	m := &Manager{
		store:  store,
		client: client,
		now:    time.Now,
	}

	client.SetTokenSource(m.Token)
	client.SetUnauthorizedHook(m.teardown)

	return m
}

// SetExpiryHandler installs a callback run after every automatic logout.
func (m *Manager) SetExpiryHandler(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpiry = fn
}

// Token returns the current bearer token, or "" when logged out.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// Current returns a copy of the current session, or nil when logged out.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	copied := *m.current
	return &copied
}

// Authenticated reports whether a token is held.
func (m *Manager) Authenticated() bool {
	return m.Token() != ""
}

// loginResponse is the shape of /account/login and /account/register.
type loginResponse struct {
	Token string          `json:"token"`
	User  json.RawMessage `json:"user"`
}

// userPayload covers the user object the server sometimes returns alongside
// the token.
type userPayload struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	UserName        string          `json:"userName"`
	FirstName       string          `json:"firstName"`
	LastName        string          `json:"lastName"`
	FullName        string          `json:"fullName"`
	Email           string          `json:"email"`
	Role            string          `json:"role"`
	Roles           wire.StringList `json:"roles"`
	ProfileImageURL string          `json:"profileImageUrl"`
	AvatarURL       string          `json:"avatarUrl"`
	Description     string          `json:"description"`
}

// Login exchanges credentials for a bearer token, derives the session (from
// the returned user object, falling back to token claims), persists both and
// schedules automatic logout at token expiry.
func (m *Manager) Login(ctx context.Context, email, password string) (*Session, error) {
	payload := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var resp loginResponse
	if err := m.client.Post(ctx, "/account/login", payload, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, ErrNoToken
	}

	if err := m.adopt(resp.Token, resp.User); err != nil {
		return nil, err
	}

	log.Info().Str("email", email).Msg("logged in")

	return m.Current(), nil
}

// RegisterParams is the account creation payload.
type RegisterParams struct {
	UserName        string `json:"userName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Description     string `json:"description"`
	ProfileImageURL string `json:"profileImageUrl"`
}

// Register creates the account and then behaves exactly like Login.
func (m *Manager) Register(ctx context.Context, params RegisterParams) (*Session, error) {
	var resp loginResponse
	if err := m.client.Post(ctx, "/account/register", params, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, ErrNoToken
	}

	if err := m.adopt(resp.Token, resp.User); err != nil {
		return nil, err
	}

	// Tokens issued right after registration may carry no name claim yet.
	m.mu.Lock()
	if m.current != nil && m.current.DisplayName == "" {
		m.current.DisplayName = strings.TrimSpace(params.FirstName + " " + params.LastName)
		if err := m.store.SaveSession(m.current); err != nil {
			log.Warn().Err(err).Msg("failed to persist session")
		}
	}
	m.mu.Unlock()

	log.Info().Str("email", params.Email).Msg("registered")

	return m.Current(), nil
}

// UpdateProfileParams is the PUT /Users/{id} payload.
type UpdateProfileParams struct {
	UserName        string `json:"userName"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Description     string `json:"description"`
	ProfileImageURL string `json:"profileImageUrl"`
	IsProfilePublic bool   `json:"isProfilePublic"`
}

// UpdateProfile updates the account and merges the server's view back into
// the session.
func (m *Manager) UpdateProfile(ctx context.Context, params UpdateProfileParams) (*Session, error) {
	current := m.Current()
	if current == nil {
		return nil, ErrNotAuthenticated
	}

	var raw json.RawMessage
	if err := m.client.Put(ctx, "/Users/"+current.UserID, params, &raw); err != nil {
		return nil, err
	}

	// The response is either the user object or an envelope wrapping it.
	var envelope struct {
		User json.RawMessage `json:"user"`
	}
	userRaw := raw
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.User) > 0 {
		userRaw = envelope.User
	}

	var updated userPayload
	if err := json.Unmarshal(userRaw, &updated); err != nil {
		log.Warn().Err(err).Msg("unexpected profile update response")
		return current, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, ErrNotAuthenticated
	}

	if name := displayName(&updated); name != "" {
		m.current.DisplayName = name
	}
	if updated.Email != "" {
		m.current.Email = updated.Email
	}
	if avatar := firstOf(updated.ProfileImageURL, updated.AvatarURL); avatar != "" {
		m.current.AvatarURL = api.NormalizeAssetURL(m.client.BaseURL(), avatar)
	}
	if updated.Description != "" {
		m.current.Bio = updated.Description
	}

	if err := m.store.SaveSession(m.current); err != nil {
		log.Warn().Err(err).Msg("failed to persist session")
	}

	copied := *m.current
	return &copied, nil
}

// Logout clears the in-memory and persisted session and cancels the expiry
// timer. Safe to call when already logged out.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.clearLocked()
	m.mu.Unlock()

	log.Info().Msg("logged out")
}

// Hydrate restores the session from the persisted token and session files.
// It returns true when a session was restored. A persisted token whose
// expiry has already passed is cleared immediately.
func (m *Manager) Hydrate() (bool, error) {
	token, err := m.store.LoadToken()
	if err != nil || token == "" {
		return false, nil
	}

	sess, err := m.store.LoadSession()
	if err != nil {
		// Token but no stored user: derive the user from the claims, the
		// same way a fresh login without a user object would.
		derived, derr := DecodeToken(token)
		if derr != nil {
			m.mu.Lock()
			m.clearLocked()
			m.mu.Unlock()
			return false, derr
		}
		sess = derived
		if err := m.store.SaveSession(sess); err != nil {
			log.Warn().Err(err).Msg("failed to persist derived session")
		}
	}

	if sess.TokenExpiry.IsZero() {
		if derived, derr := DecodeToken(token); derr == nil {
			sess.TokenExpiry = derived.TokenExpiry
		}
	}

	m.mu.Lock()
	m.token = token
	m.current = sess
	m.scheduleExpiryLocked(sess.TokenExpiry)
	restored := m.token != ""
	m.mu.Unlock()

	if restored {
		log.Debug().Str("userID", sess.UserID).Msg("session rehydrated")
	}

	return restored, nil
}

// adopt installs a freshly received token: persists it, derives the session,
// and (re)schedules the expiry timer.
func (m *Manager) adopt(token string, userRaw json.RawMessage) error {
	derived, derr := DecodeToken(token)

	sess := &Session{Role: DefaultRole}
	if derr == nil {
		sess = derived
	}

	if len(userRaw) > 0 {
		var user userPayload
		if err := json.Unmarshal(userRaw, &user); err == nil && user.ID != "" {
			sess.UserID = user.ID
			if name := displayName(&user); name != "" {
				sess.DisplayName = name
			}
			if user.Email != "" {
				sess.Email = user.Email
			}
			if user.Role != "" {
				sess.Role = strings.ToLower(user.Role)
			}
			if len(user.Roles) > 0 {
				sess.Roles = user.Roles
			}
			if avatar := firstOf(user.ProfileImageURL, user.AvatarURL); avatar != "" {
				sess.AvatarURL = api.NormalizeAssetURL(m.client.BaseURL(), avatar)
			}
			if user.Description != "" {
				sess.Bio = user.Description
			}
		}
	}

	if sess.UserID == "" && derr != nil {
		return derr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = token
	m.current = sess

	if err := m.store.SaveToken(token); err != nil {
		log.Warn().Err(err).Msg("failed to persist token")
	}
	if err := m.store.SaveSession(sess); err != nil {
		log.Warn().Err(err).Msg("failed to persist session")
	}

	m.scheduleExpiryLocked(sess.TokenExpiry)

	return nil
}

// scheduleExpiryLocked cancels any live timer and schedules logout at expiry.
// A zero expiry leaves no timer; an expiry in the past logs out immediately.
// Caller holds m.mu.
func (m *Manager) scheduleExpiryLocked(expiry time.Time) {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}

	if expiry.IsZero() {
		return
	}

	remaining := expiry.Sub(m.now())
	if remaining <= 0 {
		log.Debug().Msg("token already expired")
		m.clearLocked()
		return
	}

	m.timer = time.AfterFunc(remaining, m.expire)

	log.Debug().Time("expiry", expiry).Dur("remaining", remaining).Msg("scheduled automatic logout")
}

// expire is the timer callback.
func (m *Manager) expire() {
	log.Info().Msg("token expired, logging out")

	m.mu.Lock()
	m.clearLocked()
	cb := m.onExpiry
	m.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// teardown is the 401 hook. The client only calls it for requests that
// carried a token, so a racing unauthenticated call can never destroy a
// session being hydrated.
func (m *Manager) teardown() {
	m.mu.Lock()
	hadToken := m.token != ""
	if hadToken {
		m.clearLocked()
	}
	cb := m.onExpiry
	m.mu.Unlock()

	if hadToken {
		log.Warn().Msg("server rejected credentials, session cleared")
		if cb != nil {
			cb()
		}
	}
}

// clearLocked wipes memory and disk state and stops the timer.
// Caller holds m.mu.
func (m *Manager) clearLocked() {
	m.current = nil
	m.token = ""

	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}

	if err := m.store.ClearToken(); err != nil {
		log.Warn().Err(err).Msg("failed to clear persisted token")
	}
	if err := m.store.ClearSession(); err != nil {
		log.Warn().Err(err).Msg("failed to clear persisted session")
	}
}

func displayName(u *userPayload) string {
	if u.FirstName != "" || u.LastName != "" {
		return strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	return firstOf(u.Name, u.FullName, u.UserName)
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
