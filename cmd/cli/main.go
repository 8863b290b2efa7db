package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/refconnect/refconnect-cli/cmd/cli/internal/commands"
	"github.com/refconnect/refconnect-cli/internal/logger"
)

var (
	version = "dev"
	cli     struct {
		Login         commands.LoginCmd         `cmd:"" help:"Log in to RefConnect"`
		Register      commands.RegisterCmd      `cmd:"" help:"Create an account"`
		Logout        commands.LogoutCmd        `cmd:"" help:"Log out and clear the stored session"`
		Whoami        commands.WhoamiCmd        `cmd:"" help:"Show the current session"`
		Profile       commands.ProfileCmd       `cmd:"" help:"Show or edit your profile"`
		Feed          commands.FeedCmd          `cmd:"" help:"Browse and post to the feed"`
		Follows       commands.FollowsCmd       `cmd:"" help:"Manage followers and follow requests"`
		Matches       commands.MatchesCmd       `cmd:"" help:"Manage matches and referee delegations"`
		Chats         commands.ChatsCmd         `cmd:"" help:"Chat with other referees"`
		Notifications commands.NotificationsCmd `cmd:"" help:"View notifications"`
		Upload        commands.UploadCmd        `cmd:"" help:"Upload a file"`
		Admin         commands.AdminCmd         `cmd:"" help:"Administer user accounts"`
		Server        string                    `help:"RefConnect API base URL" env:"REFCONNECT_SERVER"`
		Config        string                    `help:"Path to a YAML config file" type:"existingfile"`
		Debug         bool                      `help:"Enable debug mode."`
		Version       kong.VersionFlag
	}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	logger.Setup(cli.Debug)

	err := cmd.Run(&commands.Globals{
		Debug:   cli.Debug,
		Version: version,
		Server:  cli.Server,
		Config:  cli.Config,
	})
	cmd.FatalIfErrorf(err)
}
