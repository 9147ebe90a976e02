package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"readwell/internal/repository"
	"readwell/internal/service"
	"readwell/internal/ui"
)

func newInboxCmd() *cobra.Command {
	var limit, offset int
	var unread bool

	cmd := &cobra.Command{
		Use:   "inbox <user-id>",
		Short: "Show a user's notifications, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			opts := repository.ListOptions{Limit: limit, Offset: offset, UnreadOnly: unread}
			return withApp(func(ctx context.Context, a *app) error {
				inbox, err := a.svc.Notifications.List(ctx, userID, opts)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, inbox, func() {
					fmt.Fprintln(out, ui.Heading(ui.IconBell, fmt.Sprintf("Inbox (%d unread)", inbox.UnreadCount)))
					if len(inbox.Notifications) == 0 {
						fmt.Fprintln(out, ui.Muted.Render("Nothing here."))
						return
					}
					for _, n := range inbox.Notifications {
						fmt.Fprintf(out, "%s #%d %s %s\n", ui.ReadMarker(n.IsRead), n.ID, ui.Key.Render(n.Title), ui.Muted.Render(fmtDate(&n.CreatedAt)))
						fmt.Fprintf(out, "    %s\n", n.Message)
					}
				})
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum notifications to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Skip this many notifications")
	cmd.Flags().BoolVarP(&unread, "unread", "u", false, "Only unread notifications")

	cmd.AddCommand(newInboxReadCmd(), newInboxReadAllCmd(), newInboxDeleteCmd())
	return cmd
}

// ownedNotification parses "<user-id> <notification-id>"
func ownedNotification(args []string) (int64, int64, error) {
	userID, err := parseID(args[0], "user")
	if err != nil {
		return 0, 0, err
	}
	id, err := parseID(args[1], "notification")
	if err != nil {
		return 0, 0, err
	}
	return userID, id, nil
}

func newInboxReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <user-id> <notification-id>",
		Short: "Mark one notification read",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, id, err := ownedNotification(args)
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				if err := a.svc.Notifications.MarkRead(ctx, userID, id); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ui.IconDone+" marked read")
				return nil
			})
		},
	}
}

func newInboxReadAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read-all <user-id>",
		Short: "Mark every notification read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				n, err := a.svc.Notifications.MarkAllRead(ctx, userID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, map[string]int{"updated": n}, func() {
					fmt.Fprintf(out, "%s %d marked read\n", ui.IconDone, n)
				})
			})
		},
	}
}

func newInboxDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <user-id> <notification-id>",
		Short: "Delete one notification",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, id, err := ownedNotification(args)
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				if err := a.svc.Notifications.Delete(ctx, userID, id); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ui.IconDone+" deleted")
				return nil
			})
		},
	}
}

func newAnnounceCmd() *cobra.Command {
	var in service.AnnounceInput

	cmd := &cobra.Command{
		Use:   "announce <sender-id>",
		Short: "Send an announcement to an audience",
		Long:  "Send an announcement. Targets: all, students, teachers, parents or grade_N.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			senderID, err := parseID(args[0], "sender")
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				sent, err := a.svc.Notifications.Announce(ctx, senderID, in)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, map[string]int{"sent": sent}, func() {
					fmt.Fprintf(out, "%s Announcement sent to %d users\n", ui.IconBell, sent)
				})
			})
		},
	}

	cmd.Flags().StringVar(&in.Title, "title", "", "Announcement title")
	cmd.Flags().StringVarP(&in.Message, "message", "m", "", "Announcement body")
	cmd.Flags().StringVar(&in.Target, "to", "all", "Audience (all|students|teachers|parents|grade_N)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}
