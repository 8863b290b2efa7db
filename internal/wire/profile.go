package wire

import "strings"

// Profile is the canonical user profile as served by /profiles/{id} and
// embedded in posts, comments and likes.
type Profile struct {
	ID              string `json:"id"`
	UserName        string `json:"userName"`
	Email           string `json:"email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	FullName        string `json:"fullName"`
	Description     string `json:"description"`
	ProfileImageURL string `json:"profileImageUrl"`
	IsProfilePublic bool   `json:"isProfilePublic"`
	FollowersCount  int    `json:"followersCount"`
	FollowingCount  int    `json:"followingCount"`
	CreatedAt       Time   `json:"createdAt"`
}

// DisplayName derives a presentable name the same way everywhere: first/last
// name pair when available, then the precomputed full name, then the username.
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.FirstName != "" || p.LastName != "" {
		return strings.TrimSpace(p.FirstName + " " + p.LastName)
	}
	return firstNonEmpty(p.FullName, p.UserName)
}

// Active reports whether the profile belongs to a live account. Deleted
// accounts are renamed by the backend rather than removed.
func (p *Profile) Active() bool {
	if p == nil {
		return false
	}
	if strings.HasPrefix(strings.ToLower(p.UserName), "deleted_") {
		return false
	}
	if strings.EqualFold(p.FirstName, "deleted") && strings.EqualFold(p.LastName, "user") {
		return false
	}
	return true
}

// ExtendedProfile is /profiles/{id}/extended: the profile plus the user's own
// posts with nested comments and likes.
type ExtendedProfile struct {
	Profile
	Posts []Post `json:"posts"`
}
