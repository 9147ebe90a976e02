package root

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"readwell/internal/models"
	"readwell/internal/service"
	"readwell/internal/ui"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage students, teachers, parents and admins",
	}
	cmd.AddCommand(newUserAddCmd(), newUserListCmd(), newUserShowCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var email, role string
	var grade int
	var teacherID int64

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a user",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("name is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			in := service.UserInput{
				Name:       args[0],
				Email:      email,
				Role:       models.Role(role),
				GradeLevel: optInt(cmd.Flags().Changed("grade"), grade),
			}
			if teacherID > 0 {
				in.TeacherID = &teacherID
			}
			return withApp(func(ctx context.Context, a *app) error {
				u, err := a.svc.Accounts.CreateUser(ctx, in)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, u, func() {
					fmt.Fprintf(out, "%s Created %s #%d %s\n", ui.IconPlus, u.Role, u.ID, ui.Key.Render(u.Name))
				})
			})
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "E-mail address (used for notification mail)")
	cmd.Flags().StringVarP(&role, "role", "r", string(models.RoleStudent), "Role (student|teacher|parent|admin)")
	cmd.Flags().IntVarP(&grade, "grade", "g", 0, "Grade level 1-12 (students)")
	cmd.Flags().Int64Var(&teacherID, "teacher", 0, "Teacher ID (students)")
	return cmd
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				users, err := a.svc.Accounts.ListUsers(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, users, func() {
					if len(users) == 0 {
						fmt.Fprintln(out, ui.Muted.Render("No users yet."))
						return
					}
					for _, u := range users {
						fmt.Fprintf(out, "- #%d %s %s%s\n", u.ID, ui.Key.Render(u.Name), ui.Muted.Render(string(u.Role)), gradeSuffix(u.GradeLevel))
					}
				})
			})
		},
	}
}

func newUserShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				u, err := a.svc.Accounts.GetUser(ctx, id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, u, func() {
					fmt.Fprintln(out, ui.Heading("", u.Name))
					fmt.Fprintln(out, ui.LabelValue("Role", u.Role))
					if u.Email != "" {
						fmt.Fprintln(out, ui.LabelValue("E-mail", u.Email))
					}
					if u.GradeLevel != nil {
						fmt.Fprintln(out, ui.LabelValue("Grade", *u.GradeLevel))
					}
					if u.ParentID != nil {
						fmt.Fprintln(out, ui.LabelValue("Parent", *u.ParentID))
					}
					if u.TeacherID != nil {
						fmt.Fprintln(out, ui.LabelValue("Teacher", *u.TeacherID))
					}
				})
			})
		},
	}
}

func gradeSuffix(grade *int) string {
	if grade == nil {
		return ""
	}
	return ui.Muted.Render(fmt.Sprintf(" (grade %d)", *grade))
}

func newStoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "story",
		Short: "Manage the story library",
	}
	cmd.AddCommand(newStoryAddCmd(), newStoryListCmd())
	return cmd
}

func newStoryAddCmd() *cobra.Command {
	var grade, words int
	var textFile string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a story",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("title is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			in := service.StoryInput{Title: args[0], GradeLevel: grade, WordCount: words}
			if textFile != "" {
				b, err := os.ReadFile(textFile)
				if err != nil {
					return err
				}
				in.Text = string(b)
			}
			return withApp(func(ctx context.Context, a *app) error {
				s, err := a.svc.Accounts.CreateStory(ctx, in)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, s, func() {
					fmt.Fprintf(out, "%s Added story #%d %s %s\n", ui.IconBook, s.ID, ui.Key.Render(s.Title),
						ui.Muted.Render(fmt.Sprintf("(%d words)", s.WordCount)))
				})
			})
		},
	}

	cmd.Flags().IntVarP(&grade, "grade", "g", 0, "Grade level")
	cmd.Flags().IntVarP(&words, "words", "w", 0, "Word count (counted from --text when omitted)")
	cmd.Flags().StringVarP(&textFile, "text", "t", "", "File holding the story text")
	return cmd
}

func newStoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				stories, err := a.svc.Accounts.ListStories(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, stories, func() {
					if len(stories) == 0 {
						fmt.Fprintln(out, ui.Muted.Render("No stories yet."))
						return
					}
					for _, s := range stories {
						fmt.Fprintf(out, "- #%d %s %s\n", s.ID, ui.Key.Render(s.Title),
							ui.Muted.Render(fmt.Sprintf("grade %d, %d words", s.GradeLevel, s.WordCount)))
					}
				})
			})
		},
	}
}
