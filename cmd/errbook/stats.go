package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/phrazzld/errbook/internal/domain/insight"
	"github.com/spf13/cobra"
)

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var weeks int

	cmd := &cobra.Command{
		Use:     "stats",
		GroupID: "records",
		Short:   "Print the review summary and activity heatmap",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if weeks < 1 || weeks > 53 {
				return fmt.Errorf("--weeks must be between 1 and 53")
			}

			app, _, err := opts.open(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.close()

			out := cmd.OutOrStdout()
			writeSummary(out, app.questions.Summary(), app.questions.StageDistribution())
			writeHeatmap(out, app.questions.Heatmap(weeks))
			return nil
		},
	}

	cmd.Flags().IntVar(&weeks, "weeks", 4, "weeks of activity to show")
	return cmd
}

func writeSummary(w io.Writer, s insight.Summary, stages []int) {
	fmt.Fprintf(w, "questions: %d (active %d, mastered %d, archived %d)\n",
		s.Total, s.Active, s.Mastered, s.Archived)
	fmt.Fprintf(w, "due now: %d\n", s.DueNow)
	fmt.Fprintf(w, "accuracy (30d): %.0f%%\n", s.Accuracy30d*100)
	fmt.Fprintf(w, "average stage: %.1f\n", s.AverageStage)
	fmt.Fprintf(w, "streak: %d days\n", s.Streak)
	fmt.Fprintf(w, "stages: %s\n", joinInts(stages))
	writeHistogram(w, "by subject", s.BySubject)
	writeHistogram(w, "by error type", s.ByErrorType)
}

func writeHistogram(w io.Writer, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-20s %d\n", k, counts[k])
	}
}

// writeHeatmap prints one row per week, oldest first, one cell per day.
func writeHeatmap(w io.Writer, cells []insight.HeatmapCell) {
	fmt.Fprintln(w, "activity:")
	for i := 0; i+7 <= len(cells); i += 7 {
		var row strings.Builder
		for _, c := range cells[i : i+7] {
			row.WriteString(heatGlyph(c.Count))
		}
		fmt.Fprintf(w, "  %s %s\n", cells[i].Date, row.String())
	}
}

func heatGlyph(n int) string {
	switch {
	case n == 0:
		return "."
	case n < 3:
		return "-"
	case n < 6:
		return "+"
	default:
		return "#"
	}
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, " ")
}
