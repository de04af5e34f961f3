package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduwise/studyplan/internal/plan"
	"github.com/eduwise/studyplan/internal/store"
)

func execute(t *testing.T, args ...string) []byte {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.Bytes()
}

func TestPlanLifecycle(t *testing.T) {
	t.Setenv("STUDYPLAN_SCORER", "")
	t.Setenv("STUDYPLAN_LOG_MODE", "prod")
	db := filepath.Join(t.TempDir(), "plans.db")
	deadline := time.Now().AddDate(0, 0, 4).Format(time.DateOnly)

	var created plan.Plan
	require.NoError(t, json.Unmarshal(execute(t, "plan", "create", "--db", db, "--owner", "ana", "--json",
		"--subject", "Physics", "--goal", "thorough mechanics", "--deadline", deadline,
		"--slot", "morning", "--slot", "Evening"), &created))
	require.NotEmpty(t, created.Sessions)
	assert.Equal(t, []plan.Slot{plan.SlotMorning, plan.SlotEvening}, created.PreferredSlots)
	assert.Equal(t, int64(1), created.Version)

	var listed []*plan.Plan
	require.NoError(t, json.Unmarshal(execute(t, "plan", "list", "--db", db, "--owner", "ana", "--json"), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	var toggled plan.Plan
	require.NoError(t, json.Unmarshal(execute(t, "session", "toggle", created.ID, created.Sessions[0].ID,
		"--db", db, "--owner", "ana", "--json"), &toggled))
	assert.True(t, toggled.Sessions[0].Completed)
	assert.Greater(t, toggled.Metrics.SessionCompletionRate, 0.0)

	var others []*plan.Plan
	require.NoError(t, json.Unmarshal(execute(t, "plan", "list", "--db", db, "--owner", "ben", "--json"), &others))
	assert.Empty(t, others)
}

func TestExportToFileWithRange(t *testing.T) {
	t.Setenv("STUDYPLAN_SCORER", "")
	t.Setenv("STUDYPLAN_LOG_MODE", "prod")
	dir := t.TempDir()
	db := filepath.Join(dir, "plans.db")
	today := time.Now().Format(time.DateOnly)
	deadline := time.Now().AddDate(0, 0, 4).Format(time.DateOnly)
	later := time.Now().AddDate(0, 0, 30).Format(time.DateOnly)

	execute(t, "plan", "create", "--db", db, "--owner", "ana", "--json",
		"--subject", "Biology", "--goal", "cells", "--deadline", deadline, "--slot", "night")

	lines := func(path string) []string {
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		return strings.Split(strings.TrimSpace(string(raw)), "\n")
	}

	inRange := filepath.Join(dir, "in.csv")
	execute(t, "export", "--db", db, "--owner", "ana", "--format", "csv",
		"--from", today, "--to", deadline, "--output", inRange)
	rows := lines(inRange)
	require.Len(t, rows, 2)
	assert.True(t, strings.HasPrefix(rows[0], "date,plan_id,subject"))
	assert.Contains(t, rows[1], "Biology")

	outOfRange := filepath.Join(dir, "out.csv")
	execute(t, "export", "--db", db, "--owner", "ana", "--format", "csv",
		"--from", later, "--to", later, "--output", outOfRange)
	assert.Len(t, lines(outOfRange), 1, "header only")
}

func TestExportRange(t *testing.T) {
	newCmd := func(from, to string) *cobra.Command {
		c := &cobra.Command{}
		c.Flags().String("from", "", "")
		c.Flags().String("to", "", "")
		require.NoError(t, c.Flags().Set("from", from))
		require.NoError(t, c.Flags().Set("to", to))
		return c
	}

	from, to, err := exportRange(newCmd("", ""))
	require.NoError(t, err)
	assert.True(t, from.IsZero())
	assert.True(t, to.IsZero())

	from, to, err = exportRange(newCmd("2026-03-02", "2026-03-09"))
	require.NoError(t, err)
	assert.Equal(t, 0, from.Hour())
	assert.Equal(t, 23, to.Hour())

	_, _, err = exportRange(newCmd("2026-03-09", "2026-03-02"))
	assert.True(t, plan.IsValidation(err))

	_, _, err = exportRange(newCmd("soon", ""))
	assert.Error(t, err)
}

func TestParseDeadline(t *testing.T) {
	d, err := parseDeadline("2026-03-09")
	require.NoError(t, err)
	assert.Equal(t, 23, d.Hour())
	assert.Equal(t, 9, d.Day())

	d, err = parseDeadline("2026-03-09 18:00")
	require.NoError(t, err)
	assert.Equal(t, 18, d.Hour())

	_, err = parseTime("next tuesday")
	assert.Error(t, err)
}

func TestUsageByPurpose(t *testing.T) {
	ev := func(purpose string, in int, ok bool, ms int64) store.LLMRequestEvent {
		return store.LLMRequestEvent{LLMRequestEventData: store.LLMRequestEventData{
			Purpose: purpose, InputTokens: in, OutputTokens: 1, Success: ok, LatencyMs: ms,
		}}
	}
	got := usageByPurpose([]store.LLMRequestEvent{
		ev("performance-score", 10, true, 100),
		ev("performance-score", 20, false, 300),
		ev("adhoc", 5, true, 50),
	})
	assert.Equal(t, []purposeUsage{
		{Purpose: "adhoc", Calls: 1, InputTokens: 5, OutputTokens: 1, AvgLatencyMs: 50},
		{Purpose: "performance-score", Calls: 2, Failures: 1, InputTokens: 30, OutputTokens: 2, AvgLatencyMs: 200},
	}, got)
	assert.Empty(t, usageByPurpose(nil))
}
