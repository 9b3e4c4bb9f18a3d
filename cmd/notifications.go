package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/spendline/spendline/internal/cli"
	"github.com/spendline/spendline/internal/model"
	"github.com/spendline/spendline/internal/session"
	"github.com/spendline/spendline/internal/watch"
	"github.com/spendline/spendline/internal/workspace"
)

var (
	flagUnreadOnly    bool
	flagReadAll       bool
	flagWatchInterval time.Duration
)

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notif"},
	Short:   "Read and manage notifications",
	Args:    cobra.NoArgs,
	RunE:    runNotificationsList,
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications, newest first",
	Args:  cobra.NoArgs,
	RunE:  runNotificationsList,
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read [ID]",
	Short: "Mark a notification (or --all) as read",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runNotificationsRead,
}

var notificationsRmCmd = &cobra.Command{
	Use:     "rm ID",
	Aliases: []string{"delete"},
	Short:   "Delete a notification",
	Args:    cobra.ExactArgs(1),
	RunE:    runNotificationsRm,
}

var notificationsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll for new notifications until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runNotificationsWatch,
}

var notificationsEmailCmd = &cobra.Command{
	Use:       "email [on|off]",
	Short:     "Show or change email notifications",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runNotificationsEmail,
}

func init() {
	for _, c := range []*cobra.Command{notificationsCmd, notificationsListCmd} {
		c.Flags().BoolVarP(&flagUnreadOnly, "unread", "u", false, "Only unread notifications")
	}
	notificationsReadCmd.Flags().BoolVar(&flagReadAll, "all", false, "Mark every notification as read")
	notificationsWatchCmd.Flags().DurationVar(&flagWatchInterval, "interval", 30*time.Second, "Poll interval (min 2s)")

	notificationsCmd.AddCommand(
		notificationsListCmd,
		notificationsReadCmd,
		notificationsRmCmd,
		notificationsWatchCmd,
		notificationsEmailCmd,
	)
	rootCmd.AddCommand(notificationsCmd)
}

func runNotificationsList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	ws, _, err := signedIn(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	if _, err := ws.Feed.Refresh(ctx); err != nil {
		return err
	}
	items := ws.Feed.Items()

	rows := make([][]string, 0, len(items))
	for _, n := range items {
		if flagUnreadOnly && n.IsRead {
			continue
		}
		rows = append(rows, notificationRow(n))
	}

	fmt.Println()
	if len(rows) == 0 {
		fmt.Println("  No notifications.")
		return nil
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   fmt.Sprintf("Notifications (%d unread)", ws.Feed.UnreadCount()),
		Headers: []string{"ID", "", "Received", "Title", "Message"},
		Rows:    rows,
		Right:   []int{},
	}))
	return nil
}

func notificationRow(n model.Notification) []string {
	mark := " "
	if !n.IsRead {
		mark = "●"
	}
	return []string{
		strconv.FormatInt(n.ID, 10),
		mark,
		n.CreatedAt.Format("2006-01-02 15:04"),
		cli.Truncate(n.Title, 30),
		cli.Truncate(n.Message, 50),
	}
}

func runNotificationsRead(cmd *cobra.Command, args []string) error {
	if flagReadAll == (len(args) == 1) {
		return errors.New("pass a notification ID or --all")
	}

	ctx := cmd.Context()
	ws, _, err := signedIn(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	if _, err := ws.Feed.Refresh(ctx); err != nil {
		return err
	}

	if flagReadAll {
		n, err := ws.Feed.MarkAllRead(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("  Marked %d notifications as read\n", n)
		return nil
	}

	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := ws.Feed.MarkRead(ctx, id); err != nil {
		return err
	}
	fmt.Printf("  Marked #%d as read (%d unread)\n", id, ws.Feed.UnreadCount())
	return nil
}

func runNotificationsRm(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	ws, _, err := signedIn(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	if err := ws.Feed.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Printf("  Deleted notification #%d\n", id)
	return nil
}

func runNotificationsWatch(cmd *cobra.Command, _ []string) error {
	ws, _, err := signedIn(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Stop as soon as the session is lost, e.g. the server revoked the token.
	var lost atomic.Bool
	unsubscribe := ws.Session.Subscribe(func(ch session.Change) {
		if !ch.SignedIn {
			lost.Store(true)
			cancel()
		}
	})
	defer unsubscribe()

	svc := watch.New(ws.Feed, watch.Config{Interval: flagWatchInterval})
	events, detach := svc.Subscribe(32)
	defer detach()

	progress("Watching notifications every %s (Ctrl+C to stop)", svc.Interval())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.Run(gctx) })
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case ev := <-events:
				printWatchEvent(ev)
			}
		}
	})
	err = g.Wait()
	progress("%s", watchSummary(svc.Status(), svc.Events()))
	if err != nil {
		return err
	}
	if lost.Load() {
		return workspace.ErrSignedOut
	}
	return nil
}

// watchSummary describes a finished watch: polls made, notifications that
// arrived while watching and the last poll error, if any.
func watchSummary(st watch.Status, events []watch.Event) string {
	arrived := 0
	for _, ev := range events {
		arrived += len(ev.Delta.New)
	}
	s := fmt.Sprintf("Stopped after %d polls: %d new notifications, %d unread",
		st.PollCount, arrived, st.Summary.Unread)
	if st.LastError != "" {
		s += " (last poll failed: " + st.LastError + ")"
	}
	return s
}

func printWatchEvent(ev watch.Event) {
	stamp := ev.Timestamp.Format("15:04:05")
	switch ev.Type {
	case "snapshot":
		fmt.Printf("  %s  %d notifications, %d unread\n", stamp, ev.Snapshot.Total, ev.Snapshot.Unread)
	default:
		for _, n := range ev.Delta.New {
			fmt.Printf("  %s  ● %s: %s\n", stamp, n.Title, n.Message)
		}
		if len(ev.Delta.New) == 0 {
			fmt.Printf("  %s  %d unread\n", stamp, ev.Snapshot.Unread)
		}
	}
}

func runNotificationsEmail(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ws, _, err := signedIn(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	var enabled bool
	if len(args) == 0 {
		enabled, err = ws.Session.EmailNotifications(ctx)
	} else {
		switch strings.ToLower(args[0]) {
		case "on":
			enabled, err = ws.Session.SetEmailNotifications(ctx, true)
		case "off":
			enabled, err = ws.Session.SetEmailNotifications(ctx, false)
		default:
			return fmt.Errorf("want on or off, got %q", args[0])
		}
	}
	if err != nil {
		return err
	}

	state := "off"
	if enabled {
		state = "on"
	}
	fmt.Printf("  Email notifications: %s\n", state)
	return nil
}
