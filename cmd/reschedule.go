package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/eduwise/studyplan/internal/reschedule"
	"github.com/eduwise/studyplan/internal/ui/theme"
)

var rescheduleCmd = &cobra.Command{
	Use:   "reschedule",
	Short: "Find and apply new times for missed sessions",
}

var rescheduleSuggestCmd = &cobra.Command{
	Use:   "suggest <plan-id> <session-id>",
	Short: "Suggest up to three new times based on your most successful slots",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		suggestions, err := a.svc.SuggestReschedule(cmd.Context(), a.owner, args[0], args[1], time.Now())
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			if suggestions == nil {
				suggestions = []reschedule.Suggestion{}
			}
			return printJSON(cmd.OutOrStdout(), suggestions)
		}
		renderSuggestions(cmd.OutOrStdout(), suggestions)
		return nil
	}),
}

var rescheduleApplyCmd = &cobra.Command{
	Use:   "apply <plan-id> <session-id>",
	Short: "Move a session to a new time",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		at, _ := cmd.Flags().GetString("at")
		reason, _ := cmd.Flags().GetString("reason")
		newTime, err := parseTime(at)
		if err != nil {
			return err
		}
		p, err := a.svc.RescheduleSession(cmd.Context(), a.owner, args[0], args[1], newTime, reason)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if jsonOutput(cmd) {
			return printJSON(w, p)
		}
		printLine(w, theme.Done.Render("Session moved to "+newTime.Format(timeLayout)))
		renderSessions(w, p.Sessions)
		return nil
	}),
}

func init() {
	rescheduleApplyCmd.Flags().String("at", "", "New start time, e.g. \"2026-03-05 18:00\" (required)")
	rescheduleApplyCmd.Flags().String("reason", "", "Why the session moved (default \""+reschedule.DefaultReason+"\")")
	_ = rescheduleApplyCmd.MarkFlagRequired("at")

	rescheduleCmd.AddCommand(rescheduleSuggestCmd)
	rescheduleCmd.AddCommand(rescheduleApplyCmd)
}
