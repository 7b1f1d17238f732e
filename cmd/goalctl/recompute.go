package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/focusnest/goal-service/internal/goal"
)

var (
	recomputeGoalID string
	recomputeAll    bool
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute-progress",
	Short: "Rebuild goal totals from their daily entries",
	Long:  "Re-sum progress_total and rebuild the completed-day set of one goal (--goal) or every goal of the user (--all).",
	RunE:  runRecompute,
}

func init() {
	recomputeCmd.Flags().StringVar(&recomputeGoalID, "goal", "", "Goal to repair")
	recomputeCmd.Flags().BoolVar(&recomputeAll, "all", false, "Repair every goal of the user")
	recomputeCmd.MarkFlagsMutuallyExclusive("goal", "all")
	recomputeCmd.MarkFlagsOneRequired("goal", "all")
}

type recomputeResult struct {
	GoalID        string  `json:"goal_id"`
	ProgressTotal float64 `json:"progress_total"`
	CompletedDays int     `json:"completed_days"`
	Changed       bool    `json:"changed"`
}

func runRecompute(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	services, cleanup, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	ids := []string{recomputeGoalID}
	if recomputeAll {
		goals, err := services.Goals.List(ctx, userID, goal.ListFilter{})
		if err != nil {
			return fmt.Errorf("list goals: %w", err)
		}
		ids = ids[:0]
		for _, g := range goals {
			ids = append(ids, g.ID)
		}
	}

	results := make([]recomputeResult, 0, len(ids))
	var errs []error
	for _, id := range ids {
		g, changed, err := services.Goals.RecomputeProgress(ctx, userID, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("goal %s: %w", id, err))
			continue
		}
		results = append(results, recomputeResult{
			GoalID:        g.ID,
			ProgressTotal: g.ProgressTotal,
			CompletedDays: len(g.Progress),
			Changed:       changed,
		})
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if err := printJSON(out, results); err != nil {
			return err
		}
		return errors.Join(errs...)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GOAL\tTOTAL\tCOMPLETED DAYS\tCHANGED")
	for _, r := range results {
		fmt.Fprintf(tw, "%s\t%g\t%d\t%t\n", r.GoalID, r.ProgressTotal, r.CompletedDays, r.Changed)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return errors.Join(errs...)
}
