package commands

import (
	"context"
	"fmt"

	"github.com/refconnect/refconnect-cli/internal/session"
)

type ProfileCmd struct {
	Show ProfileShowCmd `cmd:"" default:"1" help:"Show your profile"`
	Edit ProfileEditCmd `cmd:"" help:"Edit your profile"`
}

type ProfileShowCmd struct{}

func (p *ProfileShowCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	sess := env.Sessions.Current()
	if sess == nil {
		fmt.Println("Not logged in")
		return nil
	}

	prof := env.Profiles.Get(ctx, sess.UserID)
	if prof == nil {
		fmt.Printf("User: %s (profile unavailable)\n", sess.DisplayName)
		return nil
	}

	fmt.Printf("User:      %s (@%s)\n", prof.DisplayName(), prof.UserName)
	fmt.Printf("Email:     %s\n", prof.Email)
	if prof.Description != "" {
		fmt.Printf("Bio:       %s\n", prof.Description)
	}
	fmt.Printf("Followers: %d  Following: %d\n", prof.FollowersCount, prof.FollowingCount)
	visibility := "private"
	if prof.IsProfilePublic {
		visibility = "public"
	}
	fmt.Printf("Profile:   %s\n", visibility)
	return nil
}

type ProfileEditCmd struct {
	UserName  string `help:"New username"`
	FirstName string `help:"New first name"`
	LastName  string `help:"New last name"`
	Bio       string `help:"New profile description"`
	Avatar    string `help:"Path to a new profile image to upload" type:"existingfile"`
	Public    *bool  `help:"Profile visibility"`
}

func (p *ProfileEditCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	sess := env.Sessions.Current()
	if sess == nil {
		return session.ErrNotAuthenticated
	}

	// The update endpoint replaces the whole profile, so unset flags keep
	// the current values.
	params := session.UpdateProfileParams{IsProfilePublic: true}
	if prof := env.Profiles.Get(ctx, sess.UserID); prof != nil {
		params = session.UpdateProfileParams{
			UserName:        prof.UserName,
			FirstName:       prof.FirstName,
			LastName:        prof.LastName,
			Description:     prof.Description,
			ProfileImageURL: prof.ProfileImageURL,
			IsProfilePublic: prof.IsProfilePublic,
		}
	}

	if p.UserName != "" {
		params.UserName = p.UserName
	}
	if p.FirstName != "" {
		params.FirstName = p.FirstName
	}
	if p.LastName != "" {
		params.LastName = p.LastName
	}
	if p.Bio != "" {
		params.Description = p.Bio
	}
	if p.Public != nil {
		params.IsProfilePublic = *p.Public
	}
	if p.Avatar != "" {
		url, err := env.Uploader.Upload(ctx, p.Avatar)
		if err != nil {
			return fmt.Errorf("failed to upload profile image: %w", err)
		}
		params.ProfileImageURL = url
	}

	updated, err := env.Sessions.UpdateProfile(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	fmt.Printf("Profile updated for %s\n", updated.DisplayName)
	return nil
}
