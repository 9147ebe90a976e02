package root

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"readwell/internal/progression"
	"readwell/internal/service"
	"readwell/internal/ui"
)

func newXPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xp",
		Short: "Award and inspect XP",
	}
	cmd.AddCommand(newXPAddCmd(), newXPGrantCmd(), newXPShowCmd())
	return cmd
}

func newXPAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <user-id> <action>",
		Short: "Record an activity: advances the streak and awards the action's XP",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				res, err := a.svc.Streaks.RecordActivity(ctx, userID, progression.Action(args[1]))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, res, func() { printActivity(out, res) })
			})
		},
	}
}

func printActivity(out io.Writer, res *service.ActivityResult) {
	fmt.Fprintf(out, "%s +%d XP %s\n", ui.IconStar, res.XPAwarded, ui.Muted.Render(string(res.Action)))
	if res.BonusXP > 0 {
		fmt.Fprintf(out, "%s Streak bonus +%d XP\n", ui.IconFire, res.BonusXP)
	}
	if res.StreakLost > 0 {
		fmt.Fprintln(out, ui.Warn.Render(fmt.Sprintf("%s %d-day streak lost", ui.IconWarn, res.StreakLost)))
	}
	fmt.Fprintln(out, ui.LabelValue("Total XP", res.TotalXP))
	level := strconv.Itoa(res.Level)
	if res.LeveledUp {
		level += " " + ui.BadgeLevelUp
	}
	fmt.Fprintln(out, ui.LabelValue("Level", level))
	fmt.Fprintln(out, ui.LabelValue("Streak", fmt.Sprintf("%d days (best %d)", res.CurrentStreak, res.LongestStreak)))
}

func newXPGrantCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grant <user-id> <amount>",
		Short: "Grant a raw XP amount outside the action table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			amount, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid amount %q", args[1])
			}
			return withApp(func(ctx context.Context, a *app) error {
				rec, err := a.svc.Streaks.AddXP(ctx, userID, amount)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, rec, func() {
					fmt.Fprintf(out, "%s %s, level %d\n", ui.IconStar, ui.Key.Render(fmt.Sprintf("%d XP", rec.TotalXP)), rec.Level)
				})
			})
		},
	}
}

func newXPShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show XP, level and the XP table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				st, err := a.svc.Streaks.XPStatus(ctx, userID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, st, func() {
					fmt.Fprintln(out, ui.Heading(ui.IconStar, fmt.Sprintf("Level %d · %s", st.Level, st.LevelName)))
					fmt.Fprintln(out, ui.LabelValue("Total XP", st.TotalXP))
					fmt.Fprintln(out, ui.LabelValue("Next level", fmt.Sprintf("%d/%d", st.NextLevel.Current, st.NextLevel.Needed)))
					fmt.Fprintln(out, ui.ProgressBar(st.NextLevel.Progress, 20))
					fmt.Fprintln(out, "")
					fmt.Fprintln(out, ui.H2.Render("XP per action"))
					actions := make([]progression.Action, 0, len(st.XPValues))
					for a := range st.XPValues {
						actions = append(actions, a)
					}
					slices.Sort(actions)
					for _, act := range actions {
						fmt.Fprintf(out, "- %s %d\n", ui.Key.Render(string(act)+":"), st.XPValues[act])
					}
				})
			})
		},
	}
}

func newStreakCmd() *cobra.Command {
	var touch bool

	cmd := &cobra.Command{
		Use:   "streak <user-id>",
		Short: "Show the daily streak (or advance it with --touch)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				var st *service.StreakStatus
				if touch {
					st, err = a.svc.Streaks.UpdateStreak(ctx, userID)
				} else {
					st, err = a.svc.Streaks.StreakStatus(ctx, userID)
				}
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, st, func() { printStreak(out, st) })
			})
		},
	}

	cmd.Flags().BoolVar(&touch, "touch", false, "Count today as active without awarding action XP")
	return cmd
}

func printStreak(out io.Writer, st *service.StreakStatus) {
	fmt.Fprintln(out, ui.LabelValue(ui.IconFire+" Streak", fmt.Sprintf("%d days", st.CurrentStreak)))
	fmt.Fprintln(out, ui.LabelValue("Longest", fmt.Sprintf("%d days", st.LongestStreak)))
	last := "never"
	if st.LastActivityDate != nil {
		last = st.LastActivityDate.Format("2006-01-02")
	}
	fmt.Fprintln(out, ui.LabelValue("Last active", last))
	if st.IsActiveToday {
		fmt.Fprintln(out, ui.Good.Render(ui.IconDone+" active today"))
	} else {
		fmt.Fprintln(out, ui.Muted.Render("not active today"))
	}
}

func newOverviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overview <user-id>",
		Short: "XP, streak, badges and reading stats in one view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				ov, err := a.svc.Achievements.Overview(ctx, userID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, ov, func() {
					fmt.Fprintln(out, ui.Heading(ui.IconSparkle, "Overview"))
					fmt.Fprintln(out, ui.LabelValue("Level", fmt.Sprintf("%d · %s", ov.XP.Level, ov.XP.LevelName)))
					fmt.Fprintln(out, ui.LabelValue("Total XP", ov.XP.TotalXP))
					printStreak(out, ov.Streak)
					fmt.Fprintln(out, ui.LabelValue(ui.IconTrophy+" Badges", fmt.Sprintf("%d/%d", ov.Badges.Earned, ov.Badges.Available)))
					fmt.Fprintln(out, ui.LabelValue(ui.IconBook+" Stories", ov.Reading.Stories))
					fmt.Fprintln(out, ui.LabelValue("Practices", ov.Reading.Practices))
					fmt.Fprintln(out, ui.LabelValue("Average speed", fmt.Sprintf("%.1f wpm", ov.Reading.AvgSpeed)))
				})
			})
		},
	}
}

func newBadgesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "badges",
		Short: "Check and list badges",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "check <user-id>",
			Short: "Award any badges the user now qualifies for",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				userID, err := parseID(args[0], "user")
				if err != nil {
					return err
				}
				return withApp(func(ctx context.Context, a *app) error {
					earned, err := a.svc.Achievements.CheckAchievements(ctx, userID)
					if err != nil {
						return err
					}
					out := cmd.OutOrStdout()
					return render(out, earned, func() {
						if len(earned) == 0 {
							fmt.Fprintln(out, ui.Muted.Render("No new badges."))
							return
						}
						for _, b := range earned {
							fmt.Fprintf(out, "%s %s %s\n", b.Icon, ui.Gold.Render(b.Name), ui.Muted.Render(b.Description))
						}
					})
				})
			},
		},
		&cobra.Command{
			Use:   "list <user-id>",
			Short: "List earned badges, newest first",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				userID, err := parseID(args[0], "user")
				if err != nil {
					return err
				}
				return withApp(func(ctx context.Context, a *app) error {
					badges, err := a.svc.Achievements.ListBadges(ctx, userID)
					if err != nil {
						return err
					}
					out := cmd.OutOrStdout()
					return render(out, badges, func() {
						if len(badges) == 0 {
							fmt.Fprintln(out, ui.Muted.Render("No badges yet."))
							return
						}
						for _, b := range badges {
							fmt.Fprintf(out, "%s %s %s\n", b.Icon, ui.Key.Render(b.Name), ui.Muted.Render(b.EarnedAt))
						}
					})
				})
			},
		},
	)
	return cmd
}

func newProgressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Reading progress reports",
	}

	improvement := &cobra.Command{
		Use:   "improvement <user-id> <story-id>",
		Short: "Compare the first reading of a story with the latest practice",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			storyID, err := parseID(args[1], "story")
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				imp, err := a.svc.Progress.Improvement(ctx, userID, storyID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, imp, func() {
					if !imp.HasData {
						fmt.Fprintln(out, ui.Muted.Render(imp.Message))
						return
					}
					fmt.Fprintln(out, ui.Heading(ui.IconChart, "Improvement"))
					fmt.Fprintln(out, ui.LabelValue("First", fmt.Sprintf("%.1f wpm in %.0fs", imp.FirstReading.SpeedWPM, imp.FirstReading.TimeSeconds)))
					fmt.Fprintln(out, ui.LabelValue("Latest", fmt.Sprintf("%.1f wpm in %.0fs", imp.LastReading.SpeedWPM, imp.LastReading.TimeSeconds)))
					fmt.Fprintln(out, ui.LabelValue("Speed", fmt.Sprintf("%+.1f wpm (%+.1f%%)", imp.Improvement.SpeedIncreaseWPM, imp.Improvement.SpeedIncreasePercent)))
					fmt.Fprintln(out, ui.LabelValue("Time", fmt.Sprintf("%+.0fs (%+.1f%%)", -imp.Improvement.TimeReductionSeconds, -imp.Improvement.TimeReductionPercent)))
					fmt.Fprintln(out, ui.LabelValue("Attempts", imp.TotalAttempts))
				})
			})
		},
	}

	summary := &cobra.Command{
		Use:   "summary <user-id>",
		Short: "Totals and average speed across all stories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				sum, err := a.svc.Progress.Summary(ctx, userID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, sum, func() {
					if !sum.HasData {
						fmt.Fprintln(out, ui.Muted.Render(sum.Message))
						return
					}
					fmt.Fprintln(out, ui.LabelValue("Stories", sum.TotalStories))
					fmt.Fprintln(out, ui.LabelValue("Practices", sum.TotalPracticeSessions))
					fmt.Fprintln(out, ui.LabelValue("Sessions", sum.TotalReadingSessions))
					fmt.Fprintln(out, ui.LabelValue("Average speed", fmt.Sprintf("%.2f wpm", sum.AverageSpeedWPM)))
				})
			})
		},
	}

	milestone := &cobra.Command{
		Use:   "milestone <user-id>",
		Short: "Distance to the next story milestone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseID(args[0], "user")
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app) error {
				m, err := a.svc.Progress.Milestone(ctx, userID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				return render(out, m, func() {
					fmt.Fprintln(out, ui.LabelValue("Stories", fmt.Sprintf("%d of %d", m.CurrentStories, m.NextMilestone)))
					fmt.Fprintln(out, ui.ProgressBar(m.ProgressPercentage, 20))
					if m.Remaining > 0 {
						fmt.Fprintln(out, ui.Muted.Render(fmt.Sprintf("%d to go", m.Remaining)))
					}
				})
			})
		},
	}

	cmd.AddCommand(improvement, summary, milestone)
	return cmd
}
