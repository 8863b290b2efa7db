package wire

import "encoding/json"

// Follow is an established follower relationship. The body of POST /Follows
// and DELETE /Follows uses the same shape without the embedded profile.
type Follow struct {
	FollowerID  string   `json:"followerId"`
	FollowingID string   `json:"followingId"`
	FollowedAt  Time     `json:"followedAt"`
	Follower    *Profile `json:"follower,omitempty"`
}

// FollowRequest is a pending follow request. The id is generated client-side
// when sending a new request.
type FollowRequest struct {
	FollowRequestID string   `json:"followRequestId"`
	FollowerID      string   `json:"followerId"`
	FollowingID     string   `json:"followingId"`
	RequestedAt     Time     `json:"requestedAt"`
	Follower        *Profile `json:"follower,omitempty"`
}

// DecodeFollowerList copes with the two shapes /Follows/{id}/followers has
// been seen returning: follow rows carrying followerId/followedAt, or bare
// profile objects. Entries that decode as neither are dropped.
func DecodeFollowerList(data []byte) ([]Follow, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	out := make([]Follow, 0, len(raw))
	for _, item := range raw {
		var f Follow
		if err := json.Unmarshal(item, &f); err == nil && f.FollowerID != "" {
			out = append(out, f)
			continue
		}

		var p Profile
		if err := json.Unmarshal(item, &p); err == nil && p.ID != "" {
			out = append(out, Follow{FollowerID: p.ID, Follower: &p})
		}
	}

	return out, nil
}
