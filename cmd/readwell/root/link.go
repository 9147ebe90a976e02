package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"readwell/internal/models"
	"readwell/internal/ui"
)

func newLinkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Link parent accounts to students",
	}

	issue := &cobra.Command{
		Use:   "issue <student-id>",
		Short: "Issue a one-time link code for a student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			studentID, err := parseID(args[0], "student")
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				code, err := a.svc.Links.IssueCode(ctx, studentID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, code, func() {
					fmt.Fprintf(out, "%s %s %s\n", ui.IconLink, ui.Gold.Render(code.Code),
						ui.Muted.Render("valid until "+fmtDate(&code.ExpiresAt)))
				})
			})
		},
	}

	redeem := &cobra.Command{
		Use:   "redeem <parent-id> <code>",
		Short: "Link a parent to the student who issued the code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, err := parseID(args[0], "parent")
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				child, err := a.svc.Links.Redeem(ctx, parentID, args[1])
				if err != nil {
					return err
				}
				return printLinked(cmd, child)
			})
		},
	}

	byEmail := &cobra.Command{
		Use:   "email <parent-id> <student-email>",
		Short: "Link a parent to a student by the student's e-mail",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, err := parseID(args[0], "parent")
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				child, err := a.svc.Links.LinkByEmail(ctx, parentID, args[1])
				if err != nil {
					return err
				}
				return printLinked(cmd, child)
			})
		},
	}

	unlink := &cobra.Command{
		Use:   "remove <parent-id> <student-id>",
		Short: "Unlink a student from a parent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args, "user")
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				if err := a.svc.Links.Unlink(ctx, ids[0], ids[1]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ui.IconDone+" unlinked")
				return nil
			})
		},
	}

	children := &cobra.Command{
		Use:   "children <parent-id>",
		Short: "List a parent's linked students",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, err := parseID(args[0], "parent")
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				list, err := a.svc.Links.Children(ctx, parentID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, list, func() {
					if len(list) == 0 {
						fmt.Fprintln(out, ui.Muted.Render("No linked students."))
						return
					}
					for _, u := range list {
						fmt.Fprintf(out, "- #%d %s%s\n", u.ID, ui.Key.Render(u.Name), gradeSuffix(u.GradeLevel))
					}
				})
			})
		},
	}

	cmd.AddCommand(issue, redeem, byEmail, unlink, children)
	return cmd
}

func printLinked(cmd *cobra.Command, child *models.User) error {
	out := cmd.OutOrStdout()
	return render(out, child, func() {
		fmt.Fprintf(out, "%s Linked to %s\n", ui.IconLink, ui.Key.Render(child.Name))
	})
}
