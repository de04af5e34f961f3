package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eduwise/studyplan/internal/plan"
	"github.com/eduwise/studyplan/internal/ui/theme"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Create and manage study plans",
}

var planCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Generate a new study plan",
	Example: `  studyplan plan create --subject Math --goal "comprehensive algebra review" \
    --deadline 2026-03-09 --slot Morning --slot Evening --restriction "no study on sunday"`,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		c, err := constraintsFromFlags(cmd)
		if err != nil {
			return err
		}
		p, err := a.svc.GeneratePlan(cmd.Context(), a.owner, c)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if jsonOutput(cmd) {
			return printJSON(w, p)
		}
		renderPlanSummary(w, p)
		renderSessions(w, p.Sessions)
		return nil
	}),
}

func constraintsFromFlags(cmd *cobra.Command) (plan.Constraints, error) {
	flags := cmd.Flags()
	subject, _ := flags.GetString("subject")
	goal, _ := flags.GetString("goal")
	deadlineRaw, _ := flags.GetString("deadline")
	slotNames, _ := flags.GetStringSlice("slot")
	restrictions, _ := flags.GetStringArray("restriction")
	style, _ := flags.GetString("style")
	pref, _ := flags.GetString("difficulty-pref")
	difficulty, _ := flags.GetFloat64("difficulty")

	deadline, err := parseDeadline(deadlineRaw)
	if err != nil {
		return plan.Constraints{}, err
	}
	slots := make([]plan.Slot, 0, len(slotNames))
	for _, name := range slotNames {
		s, err := plan.ParseSlot(name)
		if err != nil {
			return plan.Constraints{}, err
		}
		slots = append(slots, s)
	}
	return plan.Constraints{
		Subject:              subject,
		Goal:                 goal,
		Deadline:             deadline,
		PreferredSlots:       slots,
		Restrictions:         restrictions,
		LearningStyle:        style,
		DifficultyPreference: pref,
		Difficulty:           difficulty,
	}, nil
}

var planListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your plans",
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		plans, err := a.svc.ListPlans(cmd.Context(), a.owner)
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			if plans == nil {
				plans = []*plan.Plan{}
			}
			return printJSON(cmd.OutOrStdout(), plans)
		}
		renderPlanList(cmd.OutOrStdout(), plans)
		return nil
	}),
}

var planShowCmd = &cobra.Command{
	Use:   "show <plan-id>",
	Short: "Show a plan with its sessions",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		p, err := a.svc.GetPlan(cmd.Context(), a.owner, args[0])
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if jsonOutput(cmd) {
			return printJSON(w, p)
		}
		renderPlanSummary(w, p)
		renderSessions(w, p.Sessions)
		return nil
	}),
}

var planDeleteCmd = &cobra.Command{
	Use:   "delete <plan-id>",
	Short: "Delete a plan with its sessions and history",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if err := a.svc.DeletePlan(cmd.Context(), a.owner, args[0]); err != nil {
			return err
		}
		printLine(cmd.OutOrStdout(), theme.Done.Render("Deleted plan "+args[0]))
		return nil
	}),
}

var planStatusCmd = &cobra.Command{
	Use:       "status <plan-id> <active|completed|archived>",
	Short:     "Change the status of a plan",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{string(plan.StatusActive), string(plan.StatusCompleted), string(plan.StatusArchived)},
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		p, err := a.svc.SetStatus(cmd.Context(), a.owner, args[0], plan.Status(args[1]))
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(cmd.OutOrStdout(), p)
		}
		printLine(cmd.OutOrStdout(), fmt.Sprintf("Plan %s is now %s", p.ID, theme.Done.Render(string(p.Status))))
		return nil
	}),
}

func init() {
	f := planCreateCmd.Flags()
	f.String("subject", "", "Subject to study (required)")
	f.String("goal", "", "What you want to achieve (required)")
	f.String("deadline", "", "Deadline as YYYY-MM-DD or a timestamp (required)")
	f.StringSlice("slot", nil, "Preferred time slot: Morning, Afternoon, Evening or Night (repeatable)")
	f.StringArray("restriction", nil, "Free-text restriction; weekday names exclude that day (repeatable)")
	f.String("style", "", "Learning style: visual, auditory, reading or kinesthetic")
	f.String("difficulty-pref", "", "Difficulty preference: easy, moderate or challenging")
	f.Float64("difficulty", 0, "Difficulty of the material from 0 to 10")
	_ = planCreateCmd.MarkFlagRequired("subject")
	_ = planCreateCmd.MarkFlagRequired("goal")
	_ = planCreateCmd.MarkFlagRequired("deadline")
	_ = planCreateCmd.MarkFlagRequired("slot")

	planCmd.AddCommand(planCreateCmd)
	planCmd.AddCommand(planListCmd)
	planCmd.AddCommand(planShowCmd)
	planCmd.AddCommand(planDeleteCmd)
	planCmd.AddCommand(planStatusCmd)
}
