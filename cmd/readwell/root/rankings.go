package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"readwell/internal/service"
	"readwell/internal/ui"
)

func newLeaderboardCmd() *cobra.Command {
	var period string
	var grade, limit int

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Students ranked by stories read, then average speed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				lb, err := a.svc.Leaderboards.Leaderboard(ctx, service.Period(period), grade, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, lb, func() {
					title := fmt.Sprintf("Leaderboard (%s)", lb.Period)
					if lb.Grade > 0 {
						title += fmt.Sprintf(" grade %d", lb.Grade)
					}
					fmt.Fprintln(out, ui.Heading(ui.IconTrophy, title))
					if len(lb.Entries) == 0 {
						fmt.Fprintln(out, ui.Muted.Render("No readings in this period."))
						return
					}
					for _, e := range lb.Entries {
						fmt.Fprintf(out, "%3d. %s %s\n", e.Rank, ui.Key.Render(e.Name),
							ui.Muted.Render(fmt.Sprintf("%d stories, %.1f wpm", e.Stories, e.AvgSpeed)))
					}
				})
			})
		},
	}

	cmd.Flags().StringVarP(&period, "period", "p", string(service.PeriodWeekly), "Period (weekly|monthly|all_time)")
	cmd.Flags().IntVarP(&grade, "grade", "g", 0, "Only this grade level")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of entries")
	return cmd
}

func newRankingsCmd() *cobra.Command {
	var category string
	var viewer int64
	var limit int

	cmd := &cobra.Command{
		Use:   "rankings",
		Short: "Weekly rankings by XP or stories read",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app) error {
				list, err := a.svc.Leaderboards.WeeklyRankings(ctx, category, viewer, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, list, func() {
					fmt.Fprintln(out, ui.Heading(ui.IconTrophy, "Weekly rankings: "+category))
					if len(list) == 0 {
						fmt.Fprintln(out, ui.Muted.Render("Nobody ranked yet."))
						return
					}
					for _, e := range list {
						name := ui.Key.Render(e.Name)
						if e.IsMe {
							name = ui.Gold.Render(e.Name + " (you)")
						}
						fmt.Fprintf(out, "%3d. %s %d\n", e.Rank, name, e.Score)
					}
				})
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "xp", "Category (xp|stories)")
	cmd.Flags().Int64Var(&viewer, "me", 0, "Viewer user ID to highlight")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of entries")
	return cmd
}
