// ABOUTME: CLI command for showing daily health metrics.
// ABOUTME: Prints per-metric values, points, and goal progress for a date.
package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/SG-Repo2/mylera-sub000/internal/models"
	"github.com/SG-Repo2/mylera-sub000/internal/store"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var metricsDate string

var metricsCmd = &cobra.Command{
	Use:     "metrics",
	Aliases: []string{"m"},
	Short:   "Show daily metrics and scores",
	Long: `Show reconciled metric values for a date with per-metric points.

OUTPUT FORMAT:

  Each line shows: TYPE  VALUE UNIT  POINTS  GOAL MARK

  A ✓ marks metrics that reached their goal. The footer shows the daily
  score, weekly score, and current streak.

EXAMPLES:

  mylera metrics                   # Today's metrics
  mylera metrics -d 2026-08-29     # A specific date`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		date := metricsDate
		if date == "" {
			date = time.Now().Format("2006-01-02")
		} else if _, err := time.Parse("2006-01-02", date); err != nil {
			return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
		}

		hm, err := engine.Store.Metrics(ctx, cfg.UserID, date)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				fmt.Printf("No metrics for %s. Run 'mylera sync' first.\n", date)
				return nil
			}
			return fmt.Errorf("failed to load metrics: %w", err)
		}

		scores, err := engine.Store.DailyScores(ctx, cfg.UserID, date)
		if err != nil {
			return fmt.Errorf("failed to load scores: %w", err)
		}
		byType := make(map[models.MetricType]*models.DailyMetricScore, len(scores))
		for _, sc := range scores {
			byType[sc.MetricType] = sc
		}

		faint := color.New(color.Faint)
		green := color.New(color.FgGreen)
		fmt.Printf("Metrics for %s\n\n", date)
		for _, mt := range models.AllMetricTypes {
			v := hm.Value(mt)
			if v == nil {
				fmt.Printf("  %s %s\n", padRight(string(mt), 16), faint.Sprint("-"))
				continue
			}
			line := fmt.Sprintf("  %s %.1f %s", padRight(string(mt), 16), *v, models.MetricUnits[mt])
			if sc, ok := byType[mt]; ok {
				line += faint.Sprintf("  %d pts", sc.Points)
				if sc.GoalReached {
					line += green.Sprint("  ✓")
				}
			}
			fmt.Println(line)
		}

		fmt.Printf("\nDaily score:  %d\n", hm.DailyScore)
		fmt.Printf("Weekly score: %d\n", hm.WeeklyScore)
		if hm.StreakDays > 0 {
			fmt.Printf("Streak:       %d day(s)\n", hm.StreakDays)
		}
		return nil
	},
}

func padRight(s string, width int) string {
	for len(s) < width {
		s += " "
	}
	return s
}

func init() {
	metricsCmd.Flags().StringVarP(&metricsDate, "date", "d", "", "date to show (YYYY-MM-DD), defaults to today")
	rootCmd.AddCommand(metricsCmd)
}
