package commands

import (
	"context"
	"fmt"

	"github.com/refconnect/refconnect-cli/internal/chat"
	"github.com/refconnect/refconnect-cli/internal/wire"
)

type ChatsCmd struct {
	List        ChatListCmd        `cmd:"" help:"List chats"`
	Open        ChatOpenCmd        `cmd:"" help:"Open a chat and show its messages"`
	Send        ChatSendCmd        `cmd:"" help:"Send a message to a chat"`
	CreateGroup ChatCreateGroupCmd `cmd:"" name:"create-group" help:"Create a group chat"`
	Join        ChatJoinCmd        `cmd:"" help:"Request to join a group chat"`
	Requests    ChatRequestsCmd    `cmd:"" help:"List join requests for chats you own"`
	Accept      ChatAcceptCmd      `cmd:"" help:"Accept a join request"`
	Decline     ChatDeclineCmd     `cmd:"" help:"Decline a join request"`
}

type ChatListCmd struct{}

func (c *ChatListCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	if err := env.Chats.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to load chats: %w", err)
	}

	chats := env.Chats.Chats()
	for _, ch := range chats {
		name := ch.Name
		if name == "" {
			name = ch.ChatID
		}
		fmt.Printf("%s  %-8s %-30s %d members\n", ch.ChatID, ch.ChatType, truncate(name, 30), len(ch.Members))
	}
	fmt.Printf("\nTotal chats: %d\n", len(chats))
	return nil
}

type ChatOpenCmd struct {
	ChatID string `arg:"" help:"Chat id"`
}

func (c *ChatOpenCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	state, err := env.Chats.Select(ctx, c.ChatID)
	if err != nil {
		return fmt.Errorf("failed to open chat: %w", err)
	}

	if state != chat.Member {
		fmt.Printf("You are %s of this chat. Use 'chats join %s' to request access.\n", state, c.ChatID)
		return nil
	}

	messages := env.Chats.Messages()
	for _, m := range messages {
		name := env.Profiles.Get(ctx, m.UserID).DisplayName()
		if name == "" {
			name = m.UserID
		}
		fmt.Printf("[%s] %s: %s\n", formatTime(m.SentAt.Time), name, m.Content)
	}
	fmt.Printf("\nTotal messages: %d\n", len(messages))
	return nil
}

type ChatSendCmd struct {
	ChatID  string `arg:"" help:"Chat id"`
	Content string `arg:"" help:"Message text"`
}

func (c *ChatSendCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	state, err := env.Chats.Select(ctx, c.ChatID)
	if err != nil {
		return fmt.Errorf("failed to open chat: %w", err)
	}
	if state != chat.Member {
		return fmt.Errorf("you are %s of this chat", state)
	}

	msg, err := env.Chats.Send(ctx, c.Content)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	fmt.Printf("Sent %s\n", msg.MessageID)
	return nil
}

type ChatCreateGroupCmd struct {
	Name        string   `arg:"" help:"Group name"`
	Members     []string `help:"Initial member user ids"`
	Description string   `help:"Group description"`
}

func (c *ChatCreateGroupCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	created, err := env.Chats.CreateGroup(ctx, c.Name, c.Description, c.Members)
	if err != nil {
		return fmt.Errorf("failed to create group: %w", err)
	}

	fmt.Printf("Group %s created (%s)\n", created.Name, created.ChatID)
	return nil
}

type ChatJoinCmd struct {
	ChatID string `arg:"" help:"Chat id"`
}

func (c *ChatJoinCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	req, err := env.Chats.RequestJoin(ctx, c.ChatID)
	if err != nil {
		return fmt.Errorf("failed to request to join: %w", err)
	}

	fmt.Printf("Join request %s sent\n", req.ChatJoinRequestID)
	return nil
}

type ChatRequestsCmd struct {
	ChatID string `help:"Limit to one chat"`
	Mine   bool   `help:"Show your own outstanding requests instead"`
}

func (c *ChatRequestsCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	var (
		reqs []wire.JoinRequest
		rerr error
	)
	switch {
	case c.Mine:
		reqs, rerr = env.Chats.MyRequests(ctx)
	case c.ChatID != "":
		reqs, rerr = env.Chats.ChatRequests(ctx, c.ChatID)
	default:
		reqs, rerr = env.Chats.OwnerRequests(ctx)
	}
	if rerr != nil {
		return fmt.Errorf("failed to list join requests: %w", rerr)
	}

	for _, r := range reqs {
		fmt.Printf("%s  %s wants to join %s  (%s, %s)\n",
			r.ChatJoinRequestID, r.UserName, r.ChatName, r.Status, formatTime(r.RequestedAt.Time))
	}
	fmt.Printf("\nTotal requests: %d\n", len(reqs))
	return nil
}

type ChatAcceptCmd struct {
	RequestID string `arg:"" help:"Join request id"`
}

func (c *ChatAcceptCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	if err := env.Chats.AcceptRequest(ctx, c.RequestID); err != nil {
		return fmt.Errorf("failed to accept join request: %w", err)
	}

	fmt.Println("Join request accepted")
	return nil
}

type ChatDeclineCmd struct {
	RequestID string `arg:"" help:"Join request id"`
}

func (c *ChatDeclineCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	if err := env.Chats.DeclineRequest(ctx, c.RequestID); err != nil {
		return fmt.Errorf("failed to decline join request: %w", err)
	}

	fmt.Println("Join request declined")
	return nil
}
