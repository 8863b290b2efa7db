package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/refconnect/refconnect-cli/internal/notify"
)

type NotificationsCmd struct {
	List  NotificationsListCmd  `cmd:"" help:"Show notifications"`
	Watch NotificationsWatchCmd `cmd:"" help:"Poll for notifications until interrupted"`
}

type NotificationsListCmd struct {
	MarkViewed bool `help:"Move the read watermark after listing" default:"true"`
}

func (n *NotificationsListCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	if err := env.Notifications.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to load notifications: %w", err)
	}

	items := env.Notifications.Items()
	unread := env.Notifications.Unread()

	for i, item := range items {
		marker := " "
		if i < unread {
			marker = "*"
		}
		fmt.Printf("%s [%s] %s  %s\n", marker, item.Type, formatTime(item.Date.Time), item.Content)
		if item.PostContext != nil {
			fmt.Printf("    on post: %s\n", truncate(item.PostContext.Description, 60))
		}
	}
	fmt.Printf("\nTotal: %d (%d unread)\n", len(items), unread)

	if n.MarkViewed {
		env.Notifications.MarkViewed()
	}
	return nil
}

type NotificationsWatchCmd struct {
	Interval int `help:"Poll interval in seconds" default:"60"`
}

func (n *NotificationsWatchCmd) Run(ctx context.Context, globals *Globals) error {
	env, err := newEnv(globals)
	if err != nil {
		return err
	}

	if env.Sessions.Current() == nil {
		return fmt.Errorf("not logged in")
	}

	fmt.Printf("Watching for notifications every %ds, press Ctrl-C to stop\n", n.Interval)

	poller := notify.NewPoller(env.Notifications, time.Duration(n.Interval)*time.Second)

	// Items are sorted newest first, so anything past the previous total is
	// new and gets printed oldest first.
	var seen int
	poller.OnRefresh = func() {
		items := env.Notifications.Items()
		for i := len(items) - seen - 1; i >= 0; i-- {
			item := items[i]
			fmt.Printf("[%s] %s  %s\n", item.Type, formatTime(item.Date.Time), item.Content)
		}
		if len(items) > seen {
			seen = len(items)
		}
	}

	poller.Run(ctx)
	return nil
}
