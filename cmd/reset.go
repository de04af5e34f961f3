package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eduwise/studyplan/internal/ui/theme"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every plan of the current owner",
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("reset deletes all plans of %q; pass --yes to confirm", a.owner)
		}
		plans, err := a.svc.ListPlans(cmd.Context(), a.owner)
		if err != nil {
			return err
		}
		for _, p := range plans {
			if err := a.svc.DeletePlan(cmd.Context(), a.owner, p.ID); err != nil {
				return err
			}
		}
		printLine(cmd.OutOrStdout(), theme.Done.Render(fmt.Sprintf("Deleted %d plans", len(plans))))
		return nil
	}),
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Confirm deletion")
}
