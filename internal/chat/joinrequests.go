package chat

import (
	"context"

	"github.com/refconnect/refconnect-cli/internal/wire"
)

// RequestJoin asks to join a group chat the current user is not a member of.
func (s *Store) RequestJoin(ctx context.Context, chatID string) (*wire.JoinRequest, error) {
	current := s.user.Current()
	if current == nil {
		return nil, ErrNotAuthenticated
	}

	params := struct {
		ChatID string `json:"chatId"`
		UserID string `json:"userId"`
	}{ChatID: chatID, UserID: current.UserID}

	var created wire.JoinRequest
	if err := s.client.Post(ctx, "/ChatJoinRequests", params, &created); err != nil {
		s.recordErr("failed to request to join chat: " + err.Error())
		return nil, err
	}

	return &created, nil
}

// OwnerRequests lists pending join requests across every chat the current
// user owns.
func (s *Store) OwnerRequests(ctx context.Context) ([]wire.JoinRequest, error) {
	var reqs []wire.JoinRequest
	if err := s.client.Get(ctx, "/ChatJoinRequests/owner", &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// ChatRequests lists pending join requests for one chat.
func (s *Store) ChatRequests(ctx context.Context, chatID string) ([]wire.JoinRequest, error) {
	var reqs []wire.JoinRequest
	if err := s.client.Get(ctx, "/ChatJoinRequests/chat/"+chatID, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// MyRequests lists the current user's own outstanding join requests.
func (s *Store) MyRequests(ctx context.Context) ([]wire.JoinRequest, error) {
	var reqs []wire.JoinRequest
	if err := s.client.Get(ctx, "/ChatJoinRequests/my-requests", &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// AcceptRequest approves a join request as the chat owner.
func (s *Store) AcceptRequest(ctx context.Context, requestID string) error {
	if err := s.client.Post(ctx, "/ChatJoinRequests/"+requestID+"/accept", nil, nil); err != nil {
		s.recordErr("failed to accept join request: " + err.Error())
		return err
	}
	return nil
}

// DeclineRequest rejects a join request as the chat owner.
func (s *Store) DeclineRequest(ctx context.Context, requestID string) error {
	if err := s.client.Post(ctx, "/ChatJoinRequests/"+requestID+"/decline", nil, nil); err != nil {
		s.recordErr("failed to decline join request: " + err.Error())
		return err
	}
	return nil
}

// CancelRequest withdraws one of the current user's own join requests.
func (s *Store) CancelRequest(ctx context.Context, requestID string) error {
	return s.client.Delete(ctx, "/ChatJoinRequests/"+requestID, nil)
}
