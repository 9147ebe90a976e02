package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"readwell/internal/models"
	"readwell/internal/service"
	"readwell/internal/ui"
)

func newMessageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "message",
		Aliases: []string{"msg"},
		Short:   "Send and read direct messages",
	}
	cmd.AddCommand(
		newMessageSendCmd(),
		newMessageBoxCmd("inbox", "Show received messages, newest first"),
		newMessageBoxCmd("sent", "Show sent messages, newest first"),
		newMessageShowCmd(),
		newMessageReadCmd(),
		newMessageDeleteCmd(),
		newMessageUnreadCmd(),
		newMessageConversationCmd(),
	)
	return cmd
}

func printMessage(cmd *cobra.Command, m models.Message) {
	out := cmd.OutOrStdout()
	header := fmt.Sprintf("#%d %s → %s", m.ID, m.SenderName, m.ReceiverName)
	if m.Subject != "" {
		header += " " + ui.Key.Render(m.Subject)
	}
	fmt.Fprintf(out, "%s %s %s\n", ui.ReadMarker(m.IsRead), header, ui.Muted.Render(fmtDate(&m.CreatedAt)))
	fmt.Fprintf(out, "    %s\n", m.Content)
}

func newMessageSendCmd() *cobra.Command {
	var in service.MessageInput

	cmd := &cobra.Command{
		Use:   "send <sender-id> <receiver-id>",
		Short: "Send a message",
		Long:  "Send a message. Students may only write to their teacher or another teacher.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args, "user")
			if err != nil {
				return err
			}
			in.ReceiverID = ids[1]
			return withApp(func(ctx context.Context, a *app) error {
				m, err := a.svc.Messages.Send(ctx, ids[0], in)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, m, func() {
					fmt.Fprintf(out, "%s Message #%d sent to %s\n", ui.IconMail, m.ID, m.ReceiverName)
				})
			})
		},
	}

	cmd.Flags().StringVar(&in.Subject, "subject", "", "Message subject")
	cmd.Flags().StringVarP(&in.Content, "message", "m", "", "Message body")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}

func newMessageBoxCmd(box, short string) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   box + " <user-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				list := a.svc.Messages.Inbox
				if box == "sent" {
					list = a.svc.Messages.Sent
				}
				mb, err := list(ctx, userID, limit, offset)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, mb, func() {
					title := fmt.Sprintf("Sent (%d)", mb.Total)
					if box != "sent" {
						title = fmt.Sprintf("Messages (%d, %d unread)", mb.Total, mb.Unread)
					}
					fmt.Fprintln(out, ui.Heading(ui.IconMail, title))
					if len(mb.Messages) == 0 {
						fmt.Fprintln(out, ui.Muted.Render("Nothing here."))
						return
					}
					for _, m := range mb.Messages {
						printMessage(cmd, m)
					}
				})
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum messages to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Skip this many messages")
	return cmd
}

// ownedMessage parses "<user-id> <message-id>"
func ownedMessage(args []string) (int64, int64, error) {
	userID, err := parseID(args[0], "user")
	if err != nil {
		return 0, 0, err
	}
	id, err := parseID(args[1], "message")
	if err != nil {
		return 0, 0, err
	}
	return userID, id, nil
}

func newMessageShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id> <message-id>",
		Short: "Show one message, marking it read for its receiver",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, id, err := ownedMessage(args)
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				m, err := a.svc.Messages.Read(ctx, userID, id)
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), m, func() { printMessage(cmd, *m) })
			})
		},
	}
}

func newMessageReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <user-id> <message-id>",
		Short: "Mark a received message read",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, id, err := ownedMessage(args)
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				if err := a.svc.Messages.MarkRead(ctx, userID, id); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ui.IconDone+" marked read")
				return nil
			})
		},
	}
}

func newMessageDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <user-id> <message-id>",
		Short: "Delete a message you sent or received",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, id, err := ownedMessage(args)
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				if err := a.svc.Messages.Delete(ctx, userID, id); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ui.IconDone+" deleted")
				return nil
			})
		},
	}
}

func newMessageUnreadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unread <user-id>",
		Short: "Count unread messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				n, err := a.svc.Messages.UnreadCount(ctx, userID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, map[string]int{"count": n}, func() {
					fmt.Fprintf(out, "%s %d unread\n", ui.IconMail, n)
				})
			})
		},
	}
}

func newMessageConversationCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "conversation <user-id> <other-user-id>",
		Short: "Show the messages exchanged with another user, oldest first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args, "user")
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				conv, err := a.svc.Messages.Conversation(ctx, ids[0], ids[1], limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, conv, func() {
					fmt.Fprintln(out, ui.Heading(ui.IconMail, "Conversation with "+conv.With.Name))
					for _, m := range conv.Messages {
						who := conv.With.Name
						if m.IsMine {
							who = "you"
						}
						fmt.Fprintf(out, "%s %s: %s\n", ui.Muted.Render(fmtDate(&m.CreatedAt)), ui.Key.Render(who), m.Content)
					}
				})
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum messages to show")
	return cmd
}
