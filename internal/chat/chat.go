// Package chat manages conversations: the chat list, explicit membership
// checks, messages, and group chat join requests.
//
// Membership is never assumed from the chat list. Selecting a chat runs a
// server-side is-member check first and only fetches messages on a positive
// answer; a negative answer leaves the message view empty so the caller can
// offer a join request instead. There is no push channel, so membership only
// changes on the next explicit check.
package chat

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/refconnect/refconnect-cli/internal/api"
	"github.com/refconnect/refconnect-cli/internal/profile"
	"github.com/refconnect/refconnect-cli/internal/session"
	"github.com/refconnect/refconnect-cli/internal/wire"
)

// Sentinel errors
var (
	// ErrNotAuthenticated is returned for actions that need a logged-in user.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNotMember is returned when a message operation targets a chat the
	// current user is not a member of.
	ErrNotMember = errors.New("not a member of this chat")
)

// MembershipState tracks what the store knows about the current user's
// membership in the selected chat.
type MembershipState int

const (
	MembershipUnknown MembershipState = iota
	MembershipChecking
	Member
	NotMember
)

func (m MembershipState) String() string {
	switch m {
	case MembershipChecking:
		return "checking"
	case Member:
		return "member"
	case NotMember:
		return "not a member"
	default:
		return "unknown"
	}
}

// UserSource supplies the current session.
type UserSource interface {
	Current() *session.Session
}

// Store mirrors the chat list and the currently selected conversation.
type Store struct {
	client   *api.Client
	user     UserSource
	profiles *profile.Cache

	mu         sync.Mutex
	chats      []wire.Chat
	selected   string
	membership MembershipState
	messages   []wire.Message
	lastErr    string
}

// New creates a chat store.
func New(client *api.Client, user UserSource, profiles *profile.Cache) *Store {
	return &Store{client: client, user: user, profiles: profiles}
}

// Chats returns a snapshot of the cached chat list.
func (s *Store) Chats() []wire.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]wire.Chat, len(s.chats))
	copy(out, s.chats)
	return out
}

// Messages returns a snapshot of the selected chat's messages.
func (s *Store) Messages() []wire.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]wire.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Membership returns the membership state for the selected chat.
func (s *Store) Membership() MembershipState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.membership
}

// Selected returns the id of the selected chat, or "".
func (s *Store) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Err returns the last recorded error message, or "".
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ClearErr resets the recorded error message.
func (s *Store) ClearErr() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
}

// Refresh replaces the chat list from GET /Chats.
func (s *Store) Refresh(ctx context.Context) error {
	var chats []wire.Chat
	if err := s.client.Get(ctx, "/Chats", &chats); err != nil {
		s.recordErr("failed to load chats: " + err.Error())
		return err
	}

	for i := range chats {
		wire.NormalizeChat(&chats[i])
	}

	s.mu.Lock()
	s.chats = chats
	s.lastErr = ""
	s.mu.Unlock()

	return nil
}

// Select makes chatID the active conversation. It verifies membership with
// the server before touching messages: members get the full message history
// sorted oldest-first with sender profiles warmed; non-members get an empty
// view and the NotMember state.
func (s *Store) Select(ctx context.Context, chatID string) (MembershipState, error) {
	current := s.user.Current()
	if current == nil {
		return MembershipUnknown, ErrNotAuthenticated
	}

	s.mu.Lock()
	s.selected = chatID
	s.membership = MembershipChecking
	s.messages = nil
	s.mu.Unlock()

	isMember, err := s.isMember(ctx, chatID, current.UserID)
	if err != nil {
		s.setMembership(chatID, MembershipUnknown)
		s.recordErr("membership check failed: " + err.Error())
		return MembershipUnknown, err
	}

	if !isMember {
		s.setMembership(chatID, NotMember)
		return NotMember, nil
	}

	messages, err := s.fetchMessages(ctx, chatID)
	if err != nil {
		s.setMembership(chatID, Member)
		s.recordErr("failed to load messages: " + err.Error())
		return Member, err
	}

	s.mu.Lock()
	if s.selected == chatID {
		s.membership = Member
		s.messages = messages
	}
	s.mu.Unlock()

	return Member, nil
}

func (s *Store) isMember(ctx context.Context, chatID, userID string) (bool, error) {
	raw, err := s.client.GetRaw(ctx, "/Chats/"+chatID+"/is-member/"+userID)
	if err != nil {
		return false, err
	}
	return wire.Truthy(raw, "isMember", "member", "exists"), nil
}

func (s *Store) fetchMessages(ctx context.Context, chatID string) ([]wire.Message, error) {
	var messages []wire.Message
	if err := s.client.Get(ctx, "/Messages/Chat/"+chatID, &messages); err != nil {
		return nil, err
	}

	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].SentAt.Before(messages[j].SentAt.Time)
	})

	senders := make([]string, 0, len(messages))
	for _, m := range messages {
		senders = append(senders, m.UserID)
	}
	s.profiles.Warm(ctx, senders)

	return messages, nil
}

// Send posts a message to the selected chat and appends the server's echo to
// the local view.
func (s *Store) Send(ctx context.Context, content string) (*wire.Message, error) {
	current := s.user.Current()
	if current == nil {
		return nil, ErrNotAuthenticated
	}

	s.mu.Lock()
	chatID := s.selected
	membership := s.membership
	s.mu.Unlock()

	if membership != Member {
		return nil, ErrNotMember
	}

	params := wire.CreateMessage{
		ChatID:  chatID,
		Content: content,
		UserID:  current.UserID,
	}

	var created wire.Message
	if err := s.client.Post(ctx, "/Messages", params, &created); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.selected == chatID {
		s.messages = append(s.messages, created)
	}
	s.mu.Unlock()

	return &created, nil
}

// UpdateMessage edits a message's content and patches the local view.
func (s *Store) UpdateMessage(ctx context.Context, messageID, content string) error {
	payload := struct {
		Content string `json:"content"`
	}{Content: content}

	if err := s.client.Put(ctx, "/Messages/"+messageID, payload, nil); err != nil {
		s.recordErr("failed to update message: " + err.Error())
		return err
	}

	s.mu.Lock()
	for i := range s.messages {
		if s.messages[i].MessageID == messageID {
			s.messages[i].Content = content
			break
		}
	}
	s.mu.Unlock()

	return nil
}

// DeleteMessage removes a message from the server and the local view.
func (s *Store) DeleteMessage(ctx context.Context, messageID string) error {
	if err := s.client.Delete(ctx, "/Messages/"+messageID, nil); err != nil {
		s.recordErr("failed to delete message: " + err.Error())
		return err
	}

	s.mu.Lock()
	out := s.messages[:0]
	for _, m := range s.messages {
		if m.MessageID != messageID {
			out = append(out, m)
		}
	}
	s.messages = out
	s.mu.Unlock()

	return nil
}

// CreateGroup creates a group chat with the given initial members and
// prepends it to the chat list.
func (s *Store) CreateGroup(ctx context.Context, name, description string, memberIDs []string) (*wire.Chat, error) {
	if s.user.Current() == nil {
		return nil, ErrNotAuthenticated
	}

	params := wire.CreateGroupChat{
		GroupName:      name,
		Description:    description,
		InitialUserIDs: memberIDs,
	}

	var created wire.Chat
	if err := s.client.Post(ctx, "/Chats/group", params, &created); err != nil {
		s.recordErr("failed to create group chat: " + err.Error())
		return nil, err
	}
	wire.NormalizeChat(&created)

	s.mu.Lock()
	s.chats = append([]wire.Chat{created}, s.chats...)
	s.mu.Unlock()

	return &created, nil
}

// Update edits a chat's name or description and patches the list entry.
func (s *Store) Update(ctx context.Context, chatID string, params wire.UpdateChat) error {
	if err := s.client.Put(ctx, "/Chats/"+chatID, params, nil); err != nil {
		s.recordErr("failed to update chat: " + err.Error())
		return err
	}

	s.mu.Lock()
	for i := range s.chats {
		if s.chats[i].ChatID != chatID {
			continue
		}
		if params.Name != "" {
			s.chats[i].Name = params.Name
		}
		if params.Description != "" {
			s.chats[i].Description = params.Description
		}
		break
	}
	s.mu.Unlock()

	return nil
}

// Delete removes a chat. A deleted selected chat resets the selection.
func (s *Store) Delete(ctx context.Context, chatID string) error {
	if err := s.client.Delete(ctx, "/Chats/"+chatID, nil); err != nil {
		s.recordErr("failed to delete chat: " + err.Error())
		return err
	}

	s.mu.Lock()
	out := s.chats[:0]
	for _, c := range s.chats {
		if c.ChatID != chatID {
			out = append(out, c)
		}
	}
	s.chats = out
	if s.selected == chatID {
		s.selected = ""
		s.membership = MembershipUnknown
		s.messages = nil
	}
	s.mu.Unlock()

	return nil
}

// RemoveMember kicks a user from a group chat and drops the membership row
// from the list entry.
func (s *Store) RemoveMember(ctx context.Context, chatID, userID string) error {
	if err := s.client.Delete(ctx, "/Chats/"+chatID+"/members/"+userID, nil); err != nil {
		s.recordErr("failed to remove member: " + err.Error())
		return err
	}

	s.mu.Lock()
	for i := range s.chats {
		if s.chats[i].ChatID != chatID {
			continue
		}
		members := s.chats[i].Members[:0]
		for _, m := range s.chats[i].Members {
			if m.UserID != userID {
				members = append(members, m)
			}
		}
		s.chats[i].Members = members
		break
	}
	s.mu.Unlock()

	log.Debug().Str("chatID", chatID).Str("userID", userID).Msg("member removed")

	return nil
}

// setMembership records the state, unless the selection moved on while the
// check was in flight.
func (s *Store) setMembership(chatID string, state MembershipState) {
	s.mu.Lock()
	if s.selected == chatID {
		s.membership = state
	}
	s.mu.Unlock()
}

func (s *Store) recordErr(msg string) {
	s.mu.Lock()
	s.lastErr = msg
	s.mu.Unlock()
	log.Debug().Str("error", msg).Msg("chat store error")
}
