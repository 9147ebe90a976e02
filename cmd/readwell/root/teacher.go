package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"readwell/internal/models"
	"readwell/internal/service"
	"readwell/internal/ui"
)

func newEvaluateCmd() *cobra.Command {
	var in service.EvaluationInput
	var fluency, openQuestion int

	cmd := &cobra.Command{
		Use:   "evaluate <teacher-id> <student-id> <story-id>",
		Short: "Record a teacher's evaluation of a reading and notify the parent",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args, "user")
			if err != nil {
				return err
			}
			in.TeacherID, in.StudentID, in.StoryID = ids[0], ids[1], ids[2]
			in.FluencyScore = optInt(cmd.Flags().Changed("fluency"), fluency)
			in.OpenQuestionScore = optInt(cmd.Flags().Changed("open-question"), openQuestion)
			return withApp(func(ctx context.Context, a *app) error {
				ev, err := a.svc.Evaluations.Evaluate(ctx, in)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, ev, func() {
					fmt.Fprintf(out, "%s Evaluation #%d saved\n", ui.IconDone, ev.ID)
				})
			})
		},
	}

	cmd.Flags().IntVar(&fluency, "fluency", 0, "Fluency score 1-10")
	cmd.Flags().IntVar(&openQuestion, "open-question", 0, "Open question score 1-10")
	cmd.Flags().StringVar(&in.IncorrectWords, "incorrect", "", "Words read incorrectly")
	cmd.Flags().StringVarP(&in.Comment, "comment", "c", "", "Comment for the family")

	cmd.AddCommand(&cobra.Command{
		Use:   "list <student-id>",
		Short: "List a student's evaluations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			studentID, err := parseID(args[0], "student")
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				list, err := a.svc.Evaluations.List(ctx, studentID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, list, func() {
					if len(list) == 0 {
						fmt.Fprintln(out, ui.Muted.Render("No evaluations."))
						return
					}
					for _, ev := range list {
						fmt.Fprintf(out, "- #%d story #%d %s %s\n", ev.ID, ev.StoryID, scores(ev), ui.Muted.Render(fmtDate(&ev.CreatedAt)))
						if ev.Comment != "" {
							fmt.Fprintf(out, "    %s\n", ev.Comment)
						}
					}
				})
			})
		},
	})
	return cmd
}

func scores(ev models.Evaluation) string {
	s := ""
	if ev.FluencyScore != nil {
		s += fmt.Sprintf("fluency %d/10 ", *ev.FluencyScore)
	}
	if ev.OpenQuestionScore != nil {
		s += fmt.Sprintf("questions %d/10", *ev.OpenQuestionScore)
	}
	return ui.Key.Render(s)
}

func newCommendCmd() *cobra.Command {
	var in service.CommendationInput
	var typ string
	var rank, xp int

	cmd := &cobra.Command{
		Use:   "commend <teacher-id> <student-id>",
		Short: "Give a student a commendation, optionally with XP",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args, "user")
			if err != nil {
				return err
			}
			in.TeacherID, in.StudentID = ids[0], ids[1]
			in.Type = models.CommendationType(typ)
			in.Rank = optInt(cmd.Flags().Changed("rank"), rank)
			in.XPReward = optInt(cmd.Flags().Changed("xp"), xp)
			return withApp(func(ctx context.Context, a *app) error {
				c, err := a.svc.Commendations.Commend(ctx, in)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, c, func() {
					fmt.Fprintf(out, "%s %s: %s %s\n", ui.IconTrophy, c.Type.DisplayName(), ui.Gold.Render(c.Title),
						ui.Muted.Render(fmt.Sprintf("+%d XP", c.XPReward)))
				})
			})
		},
	}

	cmd.Flags().StringVar(&typ, "type", string(models.CommendationTakdir), "Type (takdir|tesekkur|birincilik|ozel_basari)")
	cmd.Flags().StringVar(&in.Title, "title", "", "Title")
	cmd.Flags().StringVar(&in.Description, "description", "", "Description")
	cmd.Flags().StringVar(&in.Category, "category", "", "Category")
	cmd.Flags().StringVar(&in.Period, "period", "", "Period, e.g. 2026 spring")
	cmd.Flags().IntVar(&rank, "rank", 0, "Rank position")
	cmd.Flags().IntVar(&xp, "xp", service.DefaultCommendationXP, "XP reward")
	_ = cmd.MarkFlagRequired("title")

	cmd.AddCommand(&cobra.Command{
		Use:   "list <student-id>",
		Short: "List a student's commendations grouped by type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			studentID, err := parseID(args[0], "student")
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				grouped, err := a.svc.Commendations.List(ctx, studentID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, grouped, func() {
					types := []models.CommendationType{
						models.CommendationTakdir, models.CommendationTesekkur,
						models.CommendationBirincilik, models.CommendationOzelBasari,
					}
					for _, t := range types {
						list := grouped[t]
						if len(list) == 0 {
							continue
						}
						fmt.Fprintln(out, ui.H2.Render(fmt.Sprintf("%s (%d)", t.DisplayName(), len(list))))
						for _, c := range list {
							fmt.Fprintf(out, "- %s %s\n", ui.Key.Render(c.Title), ui.Muted.Render(c.TeacherName))
						}
					}
				})
			})
		},
	})
	return cmd
}
