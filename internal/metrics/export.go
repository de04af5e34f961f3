package metrics

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/eduwise/studyplan/internal/plan"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Row is one exported plan: its metrics and the analysis made from them.
type Row struct {
	Date                 string       `json:"date"`
	PlanID               string       `json:"plan_id"`
	Subject              string       `json:"subject"`
	Metrics              plan.Metrics `json:"metrics"`
	PredictedPerformance float64      `json:"predicted_performance"`
	Recommendations      []string     `json:"recommendations"`
}

var csvHeader = []string{
	"date",
	"plan_id",
	"subject",
	"metrics.sessionCompletionRate",
	"metrics.averageSessionDuration",
	"metrics.topicDifficulty",
	"metrics.learningVelocity",
	"metrics.predictedPerformance",
	"recommendations",
}

// Export writes rows to w as a JSON array or as CSV with a header line.
func Export(w io.Writer, rows []Row, format string) error {
	switch strings.ToLower(format) {
	case "", FormatJSON:
		if rows == nil {
			rows = []Row{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case FormatCSV:
		return exportCSV(w, rows)
	default:
		return plan.NewValidationError(fmt.Sprintf("unsupported export format %q", format),
			plan.FieldError{Field: "format", Message: "must be json or csv"})
	}
}

func exportCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.Date,
			r.PlanID,
			r.Subject,
			formatFloat(r.Metrics.SessionCompletionRate),
			formatFloat(r.Metrics.AverageSessionDurationMinutes),
			formatFloat(r.Metrics.TopicDifficulty),
			formatFloat(r.Metrics.LearningVelocity),
			formatFloat(r.PredictedPerformance),
			strings.Join(r.Recommendations, " | "),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
