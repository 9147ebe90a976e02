package root

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"readwell/internal/service"
	"readwell/internal/ui"
)

func newQuizCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Manage story quizzes and record answers",
	}
	cmd.AddCommand(newQuizAddCmd(), newQuizListCmd(), newQuizAnswerCmd())
	return cmd
}

func newQuizAddCmd() *cobra.Command {
	var in service.QuestionInput

	cmd := &cobra.Command{
		Use:   "add <story-id>",
		Short: "Add a multiple choice question to a story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storyID, err := parseID(args[0], "story")
			if err != nil {
				return err
			}
			in.StoryID = storyID
			return withApp(func(ctx context.Context, a *app) error {
				q, err := a.svc.Quizzes.AddQuestion(ctx, in)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, q, func() {
					fmt.Fprintf(out, "%s Question #%d added\n", ui.IconPlus, q.ID)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&in.Text, "question", "q", "", "Question text")
	cmd.Flags().StringVar(&in.OptionA, "option-a", "", "Option A")
	cmd.Flags().StringVar(&in.OptionB, "option-b", "", "Option B")
	cmd.Flags().StringVar(&in.OptionC, "option-c", "", "Option C")
	cmd.Flags().StringVar(&in.OptionD, "option-d", "", "Option D")
	cmd.Flags().StringVar(&in.CorrectAnswer, "answer", "", "Correct option (A|B|C|D)")
	for _, f := range []string{"question", "option-a", "option-b", "option-c", "option-d", "answer"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func newQuizListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <story-id>",
		Short: "List a story's questions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storyID, err := parseID(args[0], "story")
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				list, err := a.svc.Quizzes.Questions(ctx, storyID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, list, func() {
					fmt.Fprintln(out, ui.Heading(ui.IconQuiz, fmt.Sprintf("Quiz (%d questions)", len(list))))
					for i, q := range list {
						fmt.Fprintf(out, "%d. %s\n", i+1, ui.Key.Render(q.Text))
						fmt.Fprintf(out, "   A) %s  B) %s  C) %s  D) %s  %s\n", q.OptionA, q.OptionB, q.OptionC, q.OptionD,
							ui.Muted.Render("answer "+q.CorrectAnswer))
					}
				})
			})
		},
	}
}

func newQuizAnswerCmd() *cobra.Command {
	var open string

	cmd := &cobra.Command{
		Use:   "answer <user-id> <story-id> [choice...]",
		Short: "Submit a student's answers; use - to skip a question",
		Args:  cobra.RangeArgs(2, 6),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[:2], "user or story")
			if err != nil {
				return err
			}
			choices := make([]string, 0, len(args)-2)
			for _, c := range args[2:] {
				if c == "-" {
					c = ""
				}
				choices = append(choices, c)
			}
			in := service.AnswerInput{UserID: ids[0], StoryID: ids[1], Choices: choices, OpenAnswer: open}
			return withApp(func(ctx context.Context, a *app) error {
				res, err := a.svc.Quizzes.SubmitAnswers(ctx, in)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, res, func() {
					score := fmt.Sprintf("%d/%d correct", res.Score.Correct, res.Score.Graded)
					switch {
					case res.Score.Perfect:
						score = ui.Gold.Render(score)
					case res.Score.Passed:
						score = ui.Good.Render(score)
					default:
						score = ui.Warn.Render(score)
					}
					fmt.Fprintf(out, "%s Answers saved: %s\n", ui.IconQuiz, score)
					if res.Activity != nil {
						fmt.Fprintf(out, "%s +%d XP (%s)\n", ui.IconStar, res.Activity.XPAwarded, strings.ReplaceAll(string(res.Activity.Action), "_", " "))
					}
				})
			})
		},
	}

	cmd.Flags().StringVar(&open, "open", "", "Answer to the open-ended question")
	return cmd
}
