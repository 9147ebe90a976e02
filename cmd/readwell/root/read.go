package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"readwell/internal/service"
	"readwell/internal/ui"
)

func newReadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Record timed readings",
	}
	cmd.AddCommand(newReadFirstCmd(), newReadPracticeCmd(), newReadHistoryCmd())
	return cmd
}

// readingInput parses "<user-id> <story-id>" plus the shared timing flags
func readingInput(args []string, seconds float64, words int) (service.ReadingInput, error) {
	userID, err := parseID(args[0], "user")
	if err != nil {
		return service.ReadingInput{}, err
	}
	storyID, err := parseID(args[1], "story")
	if err != nil {
		return service.ReadingInput{}, err
	}
	return service.ReadingInput{UserID: userID, StoryID: storyID, DurationSeconds: seconds, WordCount: words}, nil
}

func newReadFirstCmd() *cobra.Command {
	var seconds float64
	var words int

	cmd := &cobra.Command{
		Use:   "first <user-id> <story-id>",
		Short: "Record the first reading of a story",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readingInput(args, seconds, words)
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				r, err := a.svc.Readings.SubmitPreReading(ctx, in)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, r, func() {
					fmt.Fprintf(out, "%s First reading saved: %s\n", ui.IconBook, ui.Good.Render(fmt.Sprintf("%.1f wpm", r.SpeedWPM)))
				})
			})
		},
	}

	cmd.Flags().Float64VarP(&seconds, "seconds", "s", 0, "Reading time in seconds")
	cmd.Flags().IntVarP(&words, "words", "w", 0, "Words read (defaults to the story's word count)")
	_ = cmd.MarkFlagRequired("seconds")
	return cmd
}

func newReadPracticeCmd() *cobra.Command {
	var seconds float64
	var words int

	cmd := &cobra.Command{
		Use:   "practice <user-id> <story-id>",
		Short: "Record a practice reading",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readingInput(args, seconds, words)
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				p, err := a.svc.Readings.SubmitPractice(ctx, in)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, p, func() {
					fmt.Fprintf(out, "%s Practice #%d saved: %s\n", ui.IconDone, p.AttemptNumber, ui.Good.Render(fmt.Sprintf("%.1f wpm", p.SpeedWPM)))
				})
			})
		},
	}

	cmd.Flags().Float64VarP(&seconds, "seconds", "s", 0, "Reading time in seconds")
	cmd.Flags().IntVarP(&words, "words", "w", 0, "Words read (defaults to the story's word count)")
	_ = cmd.MarkFlagRequired("seconds")
	return cmd
}

func newReadHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <user-id>",
		Short: "List a user's first readings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				list, err := a.svc.Readings.History(ctx, userID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, list, func() {
					if len(list) == 0 {
						fmt.Fprintln(out, ui.Muted.Render("No readings yet."))
						return
					}
					for _, r := range list {
						fmt.Fprintf(out, "- story #%d %s %s\n", r.StoryID, ui.Key.Render(fmt.Sprintf("%.1f wpm", r.SpeedWPM)),
							ui.Muted.Render(fmtDate(&r.CreatedAt)))
					}
				})
			})
		},
	}
}
