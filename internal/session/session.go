// Package session owns the authenticated user: login and registration against
// the account endpoints, the decoded token claims, durable persistence of the
// session, and the automatic-logout timer tied to token expiry.
package session

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Sentinel errors
var (
	// ErrNoToken is returned when the server response carries no token.
	ErrNoToken = errors.New("no token returned")

	// ErrNotAuthenticated is returned when an operation needs a live session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrInvalidToken is returned when a token cannot be decoded.
	ErrInvalidToken = errors.New("invalid token")
)

// Claim URIs used by ASP.NET identity tokens. The backend emits these
// alongside (or instead of) the standard short claim names.
const (
	claimNameID = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"
	claimName   = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name"
	claimRole   = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"
)

// DefaultRole is assumed when a token carries no role claim.
const DefaultRole = "referee"

// Session is the canonical view of the logged-in user.
type Session struct {
	UserID      string    `json:"id"`
	DisplayName string    `json:"name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Roles       []string  `json:"roles,omitempty"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	TokenExpiry time.Time `json:"tokenExpiry,omitzero"`
}

// IsAdmin reports whether any role claim grants admin access.
func (s *Session) IsAdmin() bool {
	if s == nil {
		return false
	}
	if strings.EqualFold(s.Role, "admin") {
		return true
	}
	for _, role := range s.Roles {
		if strings.EqualFold(role, "admin") {
			return true
		}
	}
	return false
}

// DecodeToken derives a Session from a bearer token's payload without
// verifying the signature. Verification belongs to the server; the client
// only needs the claims for display and for scheduling expiry.
func DecodeToken(token string) (*Session, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	roles := claimStrings(claims, claimRole, "roles", "role")
	role := DefaultRole
	if len(roles) > 0 {
		role = strings.ToLower(roles[0])
	}

	name := claimString(claims, claimName, "name", "fullname", "preferred_username")

	s := &Session{
		UserID:      claimString(claims, claimNameID, "sub", "id"),
		DisplayName: name,
		Email:       claimString(claims, "email"),
		Role:        role,
		Roles:       roles,
	}
	if s.Email == "" {
		s.Email = name
	}

	if exp, ok := claimExpiry(claims); ok {
		s.TokenExpiry = exp
	}

	return s, nil
}

// claimString returns the first present, non-empty string claim.
func claimString(claims jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// claimStrings returns the first present claim as a string list; a scalar
// string claim becomes a one-element list.
func claimStrings(claims jwt.MapClaims, keys ...string) []string {
	for _, key := range keys {
		switch v := claims[key].(type) {
		case string:
			if v != "" {
				return []string{v}
			}
		case []any:
			out := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

// claimExpiry reads the exp claim, which arrives as a number in seconds since
// epoch but has also been seen as a numeric string.
func claimExpiry(claims jwt.MapClaims) (time.Time, bool) {
	switch v := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(v), 0), true
	case string:
		secs, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(secs, 0), true
	}
	return time.Time{}, false
}
