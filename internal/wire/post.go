package wire

// Post is a feed post. Comments and likes may be absent from the list
// endpoint and filled in by separate fetches.
type Post struct {
	PostID      string    `json:"postId"`
	UserID      string    `json:"userId"`
	LikeCount   int       `json:"likeCount"`
	MediaType   string    `json:"mediaType"`
	MediaURL    string    `json:"mediaUrl"`
	Description string    `json:"description"`
	CreatedAt   Time      `json:"createdAt"`
	User        *Profile  `json:"user,omitempty"`
	Comments    []Comment `json:"comments,omitempty"`
	Likes       []Like    `json:"likes,omitempty"`
}

// CreatePost is the POST /posts payload.
type CreatePost struct {
	MediaType   string `json:"mediaType"`
	MediaURL    string `json:"mediaUrl"`
	Description string `json:"description"`
	UserID      string `json:"userId"`
}

// Comment on a post; ParentCommentID is set for replies.
type Comment struct {
	CommentID       string   `json:"commentId"`
	PostID          string   `json:"postId"`
	UserID          string   `json:"userId"`
	Content         string   `json:"content"`
	CreatedAt       Time     `json:"createdAt"`
	ParentCommentID string   `json:"parentCommentId,omitempty"`
	User            *Profile `json:"user,omitempty"`
}

// CreateComment is the POST /comments payload.
type CreateComment struct {
	PostID          string `json:"postId"`
	Content         string `json:"content"`
	UserID          string `json:"userId"`
	ParentCommentID string `json:"parentCommentId,omitempty"`
}

// Like links a user to a post. The same shape is sent as the body of
// POST /Like, DELETE /Like and POST /Like/exists.
type Like struct {
	UserID  string   `json:"userId"`
	PostID  string   `json:"postId"`
	LikedAt Time     `json:"likedAt"`
	User    *Profile `json:"user,omitempty"`
}
