package root

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"readwell/internal/models"
	"readwell/internal/ui"
)

func newAssignmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "assignment",
		Aliases: []string{"hw"},
		Short:   "Story assignments from teachers to students",
	}
	cmd.AddCommand(
		newAssignCmd(),
		newCompleteCmd(),
		newAssignmentListCmd(),
		newPendingCmd(),
		newRemindCmd(),
		newOverdueCmd(),
		newTeacherStatsCmd(),
		newAssignmentDeleteCmd(),
	)
	return cmd
}

func newAssignCmd() *cobra.Command {
	var due string

	cmd := &cobra.Command{
		Use:   "add <teacher-id> <story-id> <student-id>...",
		Short: "Assign a story to one or more students",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			teacherID, err := parseID(args[0], "teacher")
			if err != nil {
				return err
			}
			storyID, err := parseID(args[1], "story")
			if err != nil {
				return err
			}
			students, err := parseIDs(args[2:], "student")
			if err != nil {
				return err
			}
			dueAt, err := parseDue(due)
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				created, err := a.svc.Assignments.Assign(ctx, teacherID, storyID, students, dueAt)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, created, func() {
					fmt.Fprintf(out, "%s %d assignments created\n", ui.IconPlus, len(created))
					printAssignments(out, created)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&due, "due", "d", "", "Due date (YYYY-MM-DD or RFC 3339)")
	return cmd
}

func newCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <student-id> <assignment-id>",
		Short: "Mark an assignment completed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			studentID, err := parseID(args[0], "student")
			if err != nil {
				return err
			}
			id, err := parseID(args[1], "assignment")
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				already, err := a.svc.Assignments.Complete(ctx, studentID, id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, map[string]bool{"already_completed": already}, func() {
					if already {
						fmt.Fprintln(out, ui.Muted.Render("Already completed."))
						return
					}
					fmt.Fprintln(out, ui.Good.Render(ui.IconDone+" Assignment completed"))
				})
			})
		},
	}
}

func newAssignmentListCmd() *cobra.Command {
	var studentID, teacherID int64
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assignments for a student or a teacher",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (studentID > 0) == (teacherID > 0) {
				return errors.New("exactly one of --student or --teacher is required")
			}
			return withApp(func(ctx context.Context, a *app) error {
				var list []models.Assignment
				var err error
				if studentID > 0 {
					list, err = a.svc.Assignments.ListForStudent(ctx, studentID, models.AssignmentStatus(status))
				} else {
					list, err = a.svc.Assignments.ListForTeacher(ctx, teacherID)
				}
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, list, func() {
					if len(list) == 0 {
						fmt.Fprintln(out, ui.Muted.Render("No assignments."))
						return
					}
					printAssignments(out, list)
				})
			})
		},
	}

	cmd.Flags().Int64Var(&studentID, "student", 0, "Student ID")
	cmd.Flags().Int64Var(&teacherID, "teacher", 0, "Teacher ID")
	cmd.Flags().StringVar(&status, "status", "", "Only this status (pending|completed|overdue), students only")
	return cmd
}

func printAssignments(out io.Writer, list []models.Assignment) {
	for _, as := range list {
		title := as.StoryTitle
		if title == "" {
			title = fmt.Sprintf("story #%d", as.StoryID)
		}
		fmt.Fprintf(out, "- #%d %s %s %s\n", as.ID, ui.Key.Render(title), ui.StatusText(string(as.Status)),
			ui.Muted.Render(fmt.Sprintf("student #%d, due %s", as.StudentID, fmtDate(as.DueDate))))
	}
}

func newPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending <student-id>",
		Short: "Count pending assignments and those due within a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			studentID, err := parseID(args[0], "student")
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				pc, err := a.svc.Assignments.PendingCount(ctx, studentID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, pc, func() {
					fmt.Fprintln(out, ui.LabelValue("Pending", pc.Pending))
					urgent := fmt.Sprint(pc.Urgent)
					if pc.Urgent > 0 {
						urgent = ui.Warn.Render(urgent)
					}
					fmt.Fprintln(out, ui.LabelValue("Due within 24h", urgent))
				})
			})
		},
	}
}

func newRemindCmd() *cobra.Command {
	var window time.Duration

	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Send reminders for pending assignments due soon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				n, err := a.svc.Assignments.SendDueReminders(ctx, window)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, map[string]int{"reminded": n}, func() {
					fmt.Fprintf(out, "%s %d reminders sent\n", ui.IconBell, n)
				})
			})
		},
	}

	cmd.Flags().DurationVarP(&window, "window", "w", 48*time.Hour, "Remind for assignments due within this window")
	return cmd
}

func newOverdueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "Mark pending assignments past their due date overdue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				n, err := a.svc.Assignments.MarkOverdue(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, map[string]int{"overdue": n}, func() {
					fmt.Fprintf(out, "%s %d assignments marked overdue\n", ui.IconWarn, n)
				})
			})
		},
	}
}

func newTeacherStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <teacher-id>",
		Short: "Completion statistics for a teacher's assignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			teacherID, err := parseID(args[0], "teacher")
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				st, err := a.svc.Assignments.TeacherStats(ctx, teacherID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, st, func() {
					fmt.Fprintln(out, ui.LabelValue("Total", st.Total))
					fmt.Fprintln(out, ui.LabelValue("Pending", st.Pending))
					fmt.Fprintln(out, ui.LabelValue("Completed", st.Completed))
					fmt.Fprintln(out, ui.LabelValue("Overdue", st.Overdue))
					fmt.Fprintln(out, ui.ProgressBar(st.CompletionRate, 20))
				})
			})
		},
	}
}

func newAssignmentDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <teacher-id> <assignment-id>",
		Short: "Delete an assignment the teacher created",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			teacherID, err := parseID(args[0], "teacher")
			if err != nil {
				return err
			}
			id, err := parseID(args[1], "assignment")
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				if err := a.svc.Assignments.Delete(ctx, teacherID, id); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ui.IconDone+" deleted")
				return nil
			})
		},
	}
}
