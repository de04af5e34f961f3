package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/eduwise/studyplan/internal/store"
)

// defaultOwner is used when neither --owner nor STUDYPLAN_OWNER is set.
const defaultOwner = "local"

var rootCmd = &cobra.Command{
	Use:   "studyplan",
	Short: "Study plan scheduler and performance tracker",
	Long: "studyplan generates study schedules from a goal and deadline, tracks completed " +
		"sessions, and analyzes study performance to suggest better times for missed sessions.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides STUDYPLAN_DB env var)")
	rootCmd.PersistentFlags().String("owner", "", "Plan owner (overrides STUDYPLAN_OWNER env var)")
	rootCmd.PersistentFlags().Bool("json", false, "Print results as JSON")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(rescheduleCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(trendsCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then STUDYPLAN_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// resolveOwner returns --owner, then STUDYPLAN_OWNER, then defaultOwner.
func resolveOwner(cmd *cobra.Command) string {
	if o, _ := cmd.Flags().GetString("owner"); o != "" {
		return o
	}
	if o := os.Getenv("STUDYPLAN_OWNER"); o != "" {
		return o
	}
	return defaultOwner
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}
