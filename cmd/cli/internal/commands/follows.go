package commands

import (
	"context"
	"fmt"

	"github.com/refconnect/refconnect-cli/internal/wire"
)

type FollowsCmd struct {
	Followers FollowersCmd      `cmd:"" help:"List your followers"`
	Following FollowingCmd      `cmd:"" help:"List who you follow"`
	Pending   PendingCmd        `cmd:"" help:"List pending follow requests"`
	Follow    FollowCmd         `cmd:"" help:"Follow a user"`
	Unfollow  UnfollowCmd       `cmd:"" help:"Unfollow a user"`
	Request   FollowRequestCmd  `cmd:"" help:"Send a follow request"`
	Accept    AcceptRequestCmd  `cmd:"" help:"Accept a follow request"`
	Decline   DeclineRequestCmd `cmd:"" help:"Decline a follow request"`
}

type FollowersCmd struct{}

func (f *FollowersCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	sess := env.Sessions.Current()
	if sess == nil {
		return fmt.Errorf("not logged in")
	}

	follows, err := env.Social.Followers(ctx, sess.UserID)
	if err != nil {
		return fmt.Errorf("failed to list followers: %w", err)
	}

	for _, f := range follows {
		printFollowRow(ctx, env, f.FollowerID, f.Follower, f.FollowedAt)
	}
	fmt.Printf("\nTotal followers: %d\n", len(follows))
	return nil
}

type FollowingCmd struct{}

func (f *FollowingCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	sess := env.Sessions.Current()
	if sess == nil {
		return fmt.Errorf("not logged in")
	}

	follows, err := env.Social.Following(ctx, sess.UserID)
	if err != nil {
		return fmt.Errorf("failed to list following: %w", err)
	}

	for _, f := range follows {
		printFollowRow(ctx, env, f.FollowingID, nil, f.FollowedAt)
	}
	fmt.Printf("\nTotal following: %d\n", len(follows))
	return nil
}

type PendingCmd struct{}

func (p *PendingCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	reqs, err := env.Social.PendingRequests(ctx)
	if err != nil {
		return fmt.Errorf("failed to list pending requests: %w", err)
	}

	for _, r := range reqs {
		name := r.Follower.DisplayName()
		if name == "" {
			name = env.Profiles.Get(ctx, r.FollowerID).DisplayName()
		}
		if name == "" {
			name = r.FollowerID
		}
		fmt.Printf("%s  %s  requested %s\n", r.FollowRequestID, name, formatTime(r.RequestedAt.Time))
	}
	fmt.Printf("\nPending requests: %d\n", len(reqs))
	return nil
}

type FollowCmd struct {
	UserID string `arg:"" help:"User to follow"`
}

func (f *FollowCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	if err := env.Social.Follow(ctx, f.UserID); err != nil {
		return fmt.Errorf("failed to follow: %w", err)
	}

	fmt.Println("Following")
	return nil
}

type UnfollowCmd struct {
	UserID string `arg:"" help:"User to unfollow"`
}

func (u *UnfollowCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	if err := env.Social.Unfollow(ctx, u.UserID); err != nil {
		return fmt.Errorf("failed to unfollow: %w", err)
	}

	fmt.Println("Unfollowed")
	return nil
}

type FollowRequestCmd struct {
	UserID string `arg:"" help:"User to request to follow"`
	Cancel bool   `help:"Cancel an outstanding request instead"`
}

func (f *FollowRequestCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	if f.Cancel {
		if err := env.Social.CancelRequest(ctx, f.UserID); err != nil {
			return fmt.Errorf("failed to cancel request: %w", err)
		}
		fmt.Println("Request cancelled")
		return nil
	}

	req, err := env.Social.SendRequest(ctx, f.UserID)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	fmt.Printf("Request %s sent\n", req.FollowRequestID)
	return nil
}

type AcceptRequestCmd struct {
	RequestID string `arg:"" help:"Follow request id"`
}

func (a *AcceptRequestCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	req, err := findPendingRequest(ctx, env, a.RequestID)
	if err != nil {
		return err
	}

	if !env.Social.Accept(ctx, *req) {
		return fmt.Errorf("failed to accept request: %s", env.Social.Err())
	}

	fmt.Println("Request accepted")
	return nil
}

type DeclineRequestCmd struct {
	RequestID string `arg:"" help:"Follow request id"`
}

func (d *DeclineRequestCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	req, err := findPendingRequest(ctx, env, d.RequestID)
	if err != nil {
		return err
	}

	if !env.Social.Decline(ctx, *req) {
		return fmt.Errorf("failed to decline request: %s", env.Social.Err())
	}

	fmt.Println("Request declined")
	return nil
}

func findPendingRequest(ctx context.Context, env *Env, requestID string) (*wire.FollowRequest, error) {
	reqs, err := env.Social.PendingRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	for i := range reqs {
		if reqs[i].FollowRequestID == requestID {
			return &reqs[i], nil
		}
	}
	return nil, fmt.Errorf("no pending request with id %s", requestID)
}

func printFollowRow(ctx context.Context, env *Env, userID string, embedded *wire.Profile, when wire.Time) {
	p := embedded
	if p == nil {
		p = env.Profiles.Get(ctx, userID)
	}
	name := p.DisplayName()
	if name == "" {
		name = userID
	}
	fmt.Printf("%s  %s  since %s\n", userID, name, formatTime(when.Time))
}
