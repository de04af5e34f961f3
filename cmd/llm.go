package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eduwise/studyplan/internal/store"
	"github.com/eduwise/studyplan/internal/ui/theme"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded LLM scorer requests",
}

// openStore opens the database without building the service.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM events",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.Events().QueryLLMEvents(cmd.Context(), store.QueryOpts{Limit: limit, Purpose: purpose})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		w := cmd.OutOrStdout()
		if jsonOutput(cmd) {
			if events == nil {
				events = []store.LLMRequestEvent{}
			}
			return printJSON(w, events)
		}
		if len(events) == 0 {
			printLine(w, theme.Hint.Render("No LLM events found."))
			return nil
		}

		t := newTable("ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")
		for _, e := range events {
			ok := theme.Done.Render("✓")
			if !e.Success {
				ok = theme.Failure.Render("✗")
			}
			t.Row(
				strconv.Itoa(e.ID),
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Purpose,
				truncate(e.Model, 28),
				strconv.Itoa(e.InputTokens),
				strconv.Itoa(e.OutputTokens),
				strconv.FormatInt(e.LatencyMs, 10),
				ok,
			)
		}
		printLine(w, t.Render())
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View full request/response for an LLM event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.Events().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}

		w := cmd.OutOrStdout()
		if jsonOutput(cmd) {
			return printJSON(w, e)
		}

		sep := strings.Repeat("─", 60)
		lines := []string{
			theme.Field("ID", strconv.Itoa(e.ID)),
			theme.Field("Time", e.Timestamp.Local().Format("2006-01-02 15:04:05")),
			theme.Field("Provider", e.Provider),
			theme.Field("Model", e.Model),
			theme.Field("Purpose", e.Purpose),
			theme.Field("Tokens", fmt.Sprintf("%d in / %d out", e.InputTokens, e.OutputTokens)),
			theme.Field("Latency", fmt.Sprintf("%dms", e.LatencyMs)),
			theme.Field("Success", strconv.FormatBool(e.Success)),
		}
		if e.ErrorMessage != "" {
			lines = append(lines, theme.Field("Error", theme.Failure.Render(e.ErrorMessage)))
		}
		for _, l := range lines {
			printLine(w, l)
		}

		for _, part := range []struct{ title, body string }{
			{"REQUEST", e.RequestBody},
			{"RESPONSE", e.ResponseBody},
		} {
			printLine(w, sep)
			printLine(w, theme.Title.Render(part.title))
			printLine(w, sep)
			if part.body == "" {
				printLine(w, theme.Hint.Render("(not captured)"))
				continue
			}
			printLine(w, part.body)
		}
		return nil
	},
}

type purposeUsage struct {
	Purpose      string `json:"purpose"`
	Calls        int    `json:"calls"`
	Failures     int    `json:"failures"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	AvgLatencyMs int64  `json:"avg_latency_ms"`
}

// usageByPurpose folds events into per-purpose totals sorted by purpose.
func usageByPurpose(events []store.LLMRequestEvent) []purposeUsage {
	byPurpose := make(map[string]*purposeUsage)
	latency := make(map[string]int64)
	for _, e := range events {
		u := byPurpose[e.Purpose]
		if u == nil {
			u = &purposeUsage{Purpose: e.Purpose}
			byPurpose[e.Purpose] = u
		}
		u.Calls++
		if !e.Success {
			u.Failures++
		}
		u.InputTokens += e.InputTokens
		u.OutputTokens += e.OutputTokens
		latency[e.Purpose] += e.LatencyMs
	}
	out := make([]purposeUsage, 0, len(byPurpose))
	for p, u := range byPurpose {
		u.AvgLatencyMs = latency[p] / int64(u.Calls)
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Purpose < out[j].Purpose })
	return out
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated LLM token usage by purpose",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.Events().QueryLLMEvents(cmd.Context(), store.QueryOpts{})
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		stats := usageByPurpose(events)

		w := cmd.OutOrStdout()
		if jsonOutput(cmd) {
			return printJSON(w, stats)
		}
		if len(stats) == 0 {
			printLine(w, theme.Hint.Render("No LLM usage recorded yet."))
			return nil
		}

		t := newTable("Purpose", "Calls", "Failed", "Input", "Output", "Total", "Avg Ms")
		var totalCalls, totalIn, totalOut int
		for _, st := range stats {
			t.Row(st.Purpose, strconv.Itoa(st.Calls), strconv.Itoa(st.Failures),
				strconv.Itoa(st.InputTokens), strconv.Itoa(st.OutputTokens),
				strconv.Itoa(st.InputTokens+st.OutputTokens), strconv.FormatInt(st.AvgLatencyMs, 10))
			totalCalls += st.Calls
			totalIn += st.InputTokens
			totalOut += st.OutputTokens
		}
		t.Row("TOTAL", strconv.Itoa(totalCalls), "", strconv.Itoa(totalIn), strconv.Itoa(totalOut),
			strconv.Itoa(totalIn+totalOut), "")
		printLine(w, t.Render())
		return nil
	},
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (e.g. performance-score)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
