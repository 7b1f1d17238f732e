package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild-achievements",
	Short: "Rebuild achievement counters and badges from the completion history",
	RunE:  runRebuild,
}

func runRebuild(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	services, cleanup, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	stats, err := services.Achievements.Rebuild(ctx, userID)
	if err != nil {
		return fmt.Errorf("rebuild achievements: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, stats)
	}
	fmt.Fprintf(out, "completed: %d\nperfect:   %d\nhistory:   %d entries\nbadges:    %s\n",
		stats.TotalGoalsCompleted,
		stats.PerfectGoalsCompleted,
		len(stats.History),
		strings.Join(stats.UnlockedMedals, ", "),
	)
	return nil
}
