package cmd

import (
	"github.com/spf13/cobra"

	"github.com/eduwise/studyplan/internal/ui/theme"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Track session completion",
}

var sessionToggleCmd = &cobra.Command{
	Use:   "toggle <plan-id> <session-id>",
	Short: "Mark a session completed (or not completed with --undo)",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		undo, _ := cmd.Flags().GetBool("undo")
		p, err := a.svc.ToggleSession(cmd.Context(), a.owner, args[0], args[1], !undo)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if jsonOutput(cmd) {
			return printJSON(w, p)
		}
		msg := theme.Done.Render("Session completed")
		if undo {
			msg = theme.Pending.Render("Session marked not completed")
		}
		printLine(w, msg)
		renderMetrics(w, p.Subject, p.Metrics)
		return nil
	}),
}

func init() {
	sessionToggleCmd.Flags().Bool("undo", false, "Mark the session not completed")
	sessionCmd.AddCommand(sessionToggleCmd)
}
