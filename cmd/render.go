package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/eduwise/studyplan/internal/metrics"
	"github.com/eduwise/studyplan/internal/performance"
	"github.com/eduwise/studyplan/internal/plan"
	"github.com/eduwise/studyplan/internal/reschedule"
	"github.com/eduwise/studyplan/internal/ui/theme"
)

const timeLayout = "Mon 2006-01-02 15:04"

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printLine(w io.Writer, s string) {
	_, _ = lipgloss.Fprintln(w, s)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.TableHeader
			}
			return theme.TableCell
		})
}

func percent(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 1, 64) + "%"
}

func renderPlanSummary(w io.Writer, p *plan.Plan) {
	slots := make([]string, len(p.PreferredSlots))
	for i, s := range p.PreferredSlots {
		slots[i] = string(s)
	}
	lines := []string{
		theme.Title.Render(p.Subject),
		theme.Field("Plan", p.ID),
		theme.Field("Goal", p.Goal),
		theme.Field("Deadline", p.Deadline.Local().Format(timeLayout)),
		theme.Field("Slots", strings.Join(slots, ", ")),
		theme.Field("Status", string(p.Status)),
		theme.Field("Sessions", fmt.Sprintf("%d of %d completed", p.CompletedCount(), len(p.Sessions))),
		theme.Field("Progress", theme.ProgressBar(p.Metrics.SessionCompletionRate, 30)+" "+percent(p.Metrics.SessionCompletionRate)),
	}
	if len(p.Restrictions) > 0 {
		lines = append(lines, theme.Field("Restrictions", strings.Join(p.Restrictions, "; ")))
	}
	if len(p.History) > 0 {
		lines = append(lines, theme.Field("Reschedules", strconv.Itoa(len(p.History))))
	}
	printLine(w, theme.Card.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
}

func renderSessions(w io.Writer, sessions []plan.Session) {
	if len(sessions) == 0 {
		printLine(w, theme.Hint.Render("No sessions scheduled."))
		return
	}
	t := newTable("ID", "Time", "Slot", "Min", "Topic", "Done")
	for _, s := range sessions {
		done := theme.Pending.Render("·")
		if s.Completed {
			done = theme.Done.Render("✓")
		}
		t.Row(s.ID, s.Time.Local().Format(timeLayout), string(s.Slot),
			strconv.Itoa(s.DurationMinutes), s.Topic, done)
	}
	printLine(w, t.Render())
}

func renderPlanList(w io.Writer, plans []*plan.Plan) {
	if len(plans) == 0 {
		printLine(w, theme.Hint.Render("No plans yet. Create one with: studyplan plan create"))
		return
	}
	t := newTable("ID", "Subject", "Deadline", "Status", "Sessions", "Completion")
	for _, p := range plans {
		t.Row(p.ID, p.Subject, p.Deadline.Local().Format(time.DateOnly), string(p.Status),
			strconv.Itoa(len(p.Sessions)), percent(p.Metrics.SessionCompletionRate))
	}
	printLine(w, t.Render())
}

func renderMetrics(w io.Writer, title string, m plan.Metrics) {
	printLine(w, theme.Card.Render(lipgloss.JoinVertical(lipgloss.Left,
		theme.Title.Render(title),
		theme.Field("Completion rate", theme.ProgressBar(m.SessionCompletionRate, 20)+" "+percent(m.SessionCompletionRate)),
		theme.Field("Avg session", strconv.FormatFloat(m.AverageSessionDurationMinutes, 'f', 1, 64)+" min"),
		theme.Field("Topic difficulty", strconv.FormatFloat(m.TopicDifficulty, 'f', 2, 64)),
		theme.Field("Learning velocity", strconv.FormatFloat(m.LearningVelocity, 'f', 2, 64)+" topics/h"),
	)))
}

func renderAnalysis(w io.Writer, a performance.Analysis) {
	printLine(w, theme.Card.Render(lipgloss.JoinVertical(lipgloss.Left,
		theme.Title.Render("Performance"),
		theme.Field("Score", theme.ProgressBar(a.Score, 20)+" "+strconv.FormatFloat(a.Score, 'f', 3, 64)),
		theme.Field("Scorer", a.Source),
		theme.Field("Completion", string(a.Patterns.Completion)),
		theme.Field("Efficiency", string(a.Patterns.Efficiency)),
		theme.Field("Progress", string(a.Patterns.Progress)),
	)))
	for _, r := range a.Recommendations {
		style := theme.Warning
		if r.Priority == performance.PriorityHigh {
			style = theme.Failure
		}
		printLine(w, style.Render("["+string(r.Priority)+"] ")+theme.Value.Render(r.Message))
	}
}

func renderSuggestions(w io.Writer, suggestions []reschedule.Suggestion) {
	if len(suggestions) == 0 {
		printLine(w, theme.Hint.Render("No time slot has a high enough success rate to suggest."))
		return
	}
	t := newTable("#", "Time", "Slot", "Reason")
	for i, s := range suggestions {
		t.Row(strconv.Itoa(i+1), s.Time.Local().Format(timeLayout), string(s.Slot), s.Reason)
	}
	printLine(w, t.Render())
}

func renderTrends(w io.Writer, ts metrics.TimeSeries) {
	unit := "Day"
	if ts.Period == metrics.PeriodDaily {
		unit = "Hour"
	}
	t := newTable(unit, "Completed", "Minutes", "Difficulty", "Velocity")
	rows := 0
	for _, pt := range ts.Points {
		if pt.Completed == 0 {
			continue
		}
		rows++
		t.Row(strconv.Itoa(pt.TimeUnit), strconv.Itoa(pt.Completed), strconv.Itoa(pt.TotalDurationMinutes),
			strconv.FormatFloat(pt.TotalDifficulty, 'f', 1, 64), strconv.FormatFloat(pt.LearningVelocity, 'f', 2, 64))
	}
	if rows == 0 {
		printLine(w, theme.Hint.Render("No completed sessions in this "+string(ts.Period)+" window."))
		return
	}
	printLine(w, t.Render())
}
