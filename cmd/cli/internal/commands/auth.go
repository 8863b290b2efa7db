package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/refconnect/refconnect-cli/internal/session"
)

type LoginCmd struct {
	Email    string `arg:"" help:"Account email"`
	Password string `help:"Account password" required:""`
}

func (l *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	sess, err := env.Sessions.Login(ctx, l.Email, l.Password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Printf("Logged in as %s (%s)\n", sess.DisplayName, sess.Role)
	return nil
}

type RegisterCmd struct {
	Email     string `arg:"" help:"Account email"`
	Password  string `help:"Account password" required:""`
	UserName  string `help:"Username" required:""`
	FirstName string `help:"First name"`
	LastName  string `help:"Last name"`
	Bio       string `help:"Profile description"`
	Avatar    string `help:"Path to a profile image to upload"`
}

func (r *RegisterCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	var avatarURL string
	if r.Avatar != "" {
		avatarURL, err = env.Uploader.Upload(ctx, r.Avatar)
		if err != nil {
			return fmt.Errorf("failed to upload profile image: %w", err)
		}
	}

	sess, err := env.Sessions.Register(ctx, sessionRegisterParams(r, avatarURL))
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	fmt.Printf("Registered and logged in as %s\n", sess.DisplayName)
	return nil
}

func sessionRegisterParams(r *RegisterCmd, avatarURL string) session.RegisterParams {
	return session.RegisterParams{
		UserName:        r.UserName,
		Email:           r.Email,
		Password:        r.Password,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Description:     r.Bio,
		ProfileImageURL: avatarURL,
	}
}

type LogoutCmd struct{}

func (l *LogoutCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	env.Sessions.Logout()
	fmt.Println("Logged out")
	return nil
}

type WhoamiCmd struct{}

func (w *WhoamiCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	sess := env.Sessions.Current()
	if sess == nil {
		fmt.Println("Not logged in")
		return nil
	}

	fmt.Printf("User:  %s\n", sess.DisplayName)
	fmt.Printf("ID:    %s\n", sess.UserID)
	fmt.Printf("Email: %s\n", sess.Email)
	fmt.Printf("Role:  %s\n", sess.Role)
	if len(sess.Roles) > 1 {
		fmt.Printf("Roles: %s\n", strings.Join(sess.Roles, ", "))
	}
	if !sess.TokenExpiry.IsZero() {
		fmt.Printf("Token expires: %s\n", formatTime(sess.TokenExpiry))
	}
	return nil
}
