package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/eduwise/studyplan/internal/metrics"
	"github.com/eduwise/studyplan/internal/plan"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics [plan-id]",
	Short: "Show study metrics for one plan or across all active plans",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		m, title, err := metricsFor(cmd, args, a)
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(cmd.OutOrStdout(), m)
		}
		renderMetrics(cmd.OutOrStdout(), title, m)
		return nil
	}),
}

// metricsFor returns the metrics of the plan named in args, or the
// aggregate over all active plans when args is empty.
func metricsFor(cmd *cobra.Command, args []string, a *app) (plan.Metrics, string, error) {
	if len(args) == 0 {
		m, err := a.svc.OwnerMetrics(cmd.Context(), a.owner)
		return m, "All active plans", err
	}
	p, err := a.svc.GetPlan(cmd.Context(), a.owner, args[0])
	if err != nil {
		return plan.Metrics{}, "", err
	}
	return a.svc.ComputeMetrics(p), p.Subject, nil
}

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Show completed sessions bucketed by hour or day",
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		raw, _ := cmd.Flags().GetString("period")
		period, err := metrics.ParsePeriod(raw)
		if err != nil {
			return err
		}
		ts, err := a.svc.GetTrends(cmd.Context(), a.owner, period)
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(cmd.OutOrStdout(), ts)
		}
		renderTrends(cmd.OutOrStdout(), ts)
		return nil
	}),
}

var scoreCmd = &cobra.Command{
	Use:   "score [plan-id]",
	Short: "Predict study performance and list recommendations",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		m, _, err := metricsFor(cmd, args, a)
		if err != nil {
			return err
		}
		analysis := a.svc.ScorePerformance(cmd.Context(), m)
		if jsonOutput(cmd) {
			return printJSON(cmd.OutOrStdout(), analysis)
		}
		renderAnalysis(cmd.OutOrStdout(), analysis)
		return nil
	}),
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export plan metrics and analysis as JSON or CSV",
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) (err error) {
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("output")
		from, to, err := exportRange(cmd)
		if err != nil {
			return err
		}

		rows, err := a.svc.ExportRows(cmd.Context(), a.owner, from, to)
		if err != nil {
			return err
		}

		if out == "" || out == "-" {
			return metrics.Export(cmd.OutOrStdout(), rows, format)
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close export file: %w", cerr)
			}
		}()
		return metrics.Export(f, rows, format)
	}),
}

// exportRange reads --from and --to. A bare --to date covers that whole day.
func exportRange(cmd *cobra.Command) (from, to time.Time, err error) {
	if v, _ := cmd.Flags().GetString("from"); v != "" {
		if from, err = parseTime(v); err != nil {
			return from, to, err
		}
	}
	if v, _ := cmd.Flags().GetString("to"); v != "" {
		if to, err = parseDeadline(v); err != nil {
			return from, to, err
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return from, to, plan.NewValidationError("invalid export range",
			plan.FieldError{Field: "to", Message: "must not be before --from"})
	}
	return from, to, nil
}

func init() {
	trendsCmd.Flags().StringP("period", "p", string(metrics.PeriodWeekly), "Trend period: daily, weekly or monthly")
	exportCmd.Flags().StringP("format", "f", metrics.FormatJSON, "Export format: json or csv")
	exportCmd.Flags().StringP("output", "o", "-", "Output file (- for stdout)")
	exportCmd.Flags().String("from", "", "Only plans with a session on or after this time")
	exportCmd.Flags().String("to", "", "Only plans with a session on or before this time")
}
