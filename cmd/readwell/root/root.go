package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"readwell/internal/ui"
)

const Version = "0.1.0"

// jsonOutput switches every command to machine-readable output
var jsonOutput bool

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "readwell",
		Short:         "Readwell: reading practice with streaks, XP and badges",
		Long:          "Readwell tracks timed story readings and turns them into streaks, XP levels, badges, leaderboards and notifications for students, teachers and parents.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")

	rootCmd.AddCommand(
		newUserCmd(),
		newStoryCmd(),
		newReadCmd(),
		newXPCmd(),
		newStreakCmd(),
		newOverviewCmd(),
		newBadgesCmd(),
		newProgressCmd(),
		newInboxCmd(),
		newAnnounceCmd(),
		newMessageCmd(),
		newQuizCmd(),
		newLeaderboardCmd(),
		newRankingsCmd(),
		newAssignmentCmd(),
		newEvaluateCmd(),
		newCommendCmd(),
		newLinkCmd(),
		newBackupCmd(),
	)
	return rootCmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		os.Exit(1)
	}
}
