package commands

import (
	"context"
	"fmt"
)

type AdminCmd struct {
	Users      AdminUsersCmd      `cmd:"" help:"List every account"`
	DeleteUser AdminDeleteUserCmd `cmd:"" name:"delete-user" help:"Delete an account"`
}

type AdminUsersCmd struct{}

func (a *AdminUsersCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	if err := env.Admin.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}

	users := env.Admin.Users()
	if len(users) == 0 {
		fmt.Println("No accounts")
		return nil
	}

	for _, u := range users {
		role := u.Role
		if role == "" && len(u.Roles) > 0 {
			role = u.Roles[0]
		}
		fmt.Printf("%-36s  %-20s  %-30s  %s\n", u.AccountID(), truncate(u.UserName, 20), truncate(u.Email, 30), role)
	}
	return nil
}

type AdminDeleteUserCmd struct {
	UserID string `arg:"" help:"Id of the account to delete"`
}

func (a *AdminDeleteUserCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	if err := env.Admin.DeleteUser(ctx, a.UserID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	fmt.Printf("Deleted user %s\n", a.UserID)
	return nil
}
