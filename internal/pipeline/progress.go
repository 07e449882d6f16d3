package pipeline

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"bankfail/internal/exporter"
)

const progressFile = "progress.csv"

var progressHeaders = []string{
	"run_id", "stage", "status", "started", "finished", "duration_ms", "message",
}

// ProgressLog appends one row per finished stage to a CSV shared across
// runs, keyed by run ID.
type ProgressLog struct {
	writer *exporter.CSVWriter
	path   string
}

// NewProgressLog creates a progress log under outputDir.
func NewProgressLog(outputDir string) *ProgressLog {
	return &ProgressLog{
		writer: exporter.NewCSVWriter(outputDir),
		path:   filepath.Join(outputDir, progressFile),
	}
}

// Record appends the final state of one stage.
func (p *ProgressLog) Record(runID string, st *StageState) error {
	if _, err := os.Stat(p.path); os.IsNotExist(err) {
		if err := p.writer.WriteCSV(progressFile, exporter.WriteOptions{Headers: progressHeaders}); err != nil {
			return err
		}
	}
	row := []string{
		runID,
		st.ID,
		string(st.GetStatus()),
		formatTime(st.StartTime),
		formatTime(st.EndTime),
		strconv.FormatInt(st.Duration().Milliseconds(), 10),
		st.Message,
	}
	return p.writer.AppendToCSV(progressFile, [][]string{row})
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
