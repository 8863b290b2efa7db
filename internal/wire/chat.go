package wire

// Chat is a group or direct conversation. Messages is frequently null on the
// list endpoint; NormalizeChat replaces it with an empty slice so callers can
// range without nil checks.
type Chat struct {
	ChatID          string       `json:"chatId"`
	ChatType        string       `json:"chatType"`
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	CreatedAt       Time         `json:"createdAt"`
	CreatedByUserID string       `json:"createdByUserId"`
	Members         []ChatMember `json:"chatUsers"`
	Messages        []Message    `json:"messages"`
}

// ChatMember is a membership row within a chat.
type ChatMember struct {
	ChatUserID string `json:"chatUserId"`
	ChatID     string `json:"chatId"`
	UserID     string `json:"userId"`
	JoinedAt   Time   `json:"joinedAt"`
}

// Message is a single chat message.
type Message struct {
	MessageID string `json:"messageId"`
	ChatID    string `json:"chatId"`
	UserID    string `json:"userId"`
	Content   string `json:"content"`
	SentAt    Time   `json:"sentAt"`
}

// CreateMessage is the POST /Messages payload.
type CreateMessage struct {
	ChatID  string `json:"chatId"`
	Content string `json:"content"`
	UserID  string `json:"userId"`
}

// CreateGroupChat is the POST /Chats/group payload. The backend validates
// GroupName and InitialUserIds under these exact names.
type CreateGroupChat struct {
	GroupName      string   `json:"GroupName"`
	Description    string   `json:"Description,omitempty"`
	InitialUserIDs []string `json:"InitialUserIds"`
}

// UpdateChat is the PUT /Chats/{id} payload; zero-value fields are omitted so
// the backend leaves them unchanged.
type UpdateChat struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// JoinRequest is a pending request to join a group chat.
type JoinRequest struct {
	ChatJoinRequestID  string `json:"chatJoinRequestId"`
	ChatID             string `json:"chatId"`
	ChatName           string `json:"chatName"`
	UserID             string `json:"userId"`
	UserName           string `json:"userName"`
	UserProfilePicture string `json:"userProfilePicture"`
	Status             string `json:"status"`
	RequestedAt        Time   `json:"requestedAt"`
}

// NormalizeChat fixes up a decoded chat in place: nil member and message
// slices become empty so the rest of the code never branches on presence.
func NormalizeChat(c *Chat) {
	if c.Members == nil {
		c.Members = []ChatMember{}
	}
	if c.Messages == nil {
		c.Messages = []Message{}
	}
}
