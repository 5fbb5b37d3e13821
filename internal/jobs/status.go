package jobs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/patelhet04/EssayBot-API/internal/helper"
)

const (
	statusProcessing = "processing"
	statusComplete   = "complete"
	statusError      = "error"
)

// Tracker overwrites one small JSON status record per progress step so
// an external poller always sees a complete, current snapshot. Records
// are whole-file replacements, never appends.
type Tracker struct {
	path string
}

// NewTracker creates the output directory and returns a tracker writing
// to <outputDir>/<jobID>.status.
func NewTracker(outputDir, jobID string) (*Tracker, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %v", err)
	}
	return &Tracker{path: filepath.Join(outputDir, jobID+".status")}, nil
}

func (t *Tracker) Path() string { return t.path }

// Started records that the job is underway before the row count is
// known.
func (t *Tracker) Started() error {
	return t.write(struct {
		Status   string `json:"status"`
		Progress int    `json:"progress"`
	}{statusProcessing, 0})
}

// Counted records the row count once the input file has been read.
func (t *Tracker) Counted(rowCount int) error {
	return t.write(struct {
		Status   string `json:"status"`
		Progress int    `json:"progress"`
		RowCount int    `json:"rowCount"`
	}{statusProcessing, 0, rowCount})
}

// Progress records that completed of rowCount rows are done.
func (t *Tracker) Progress(completed, rowCount int) error {
	progress := 0
	if rowCount > 0 {
		progress = completed * 100 / rowCount
	}
	return t.write(struct {
		Status    string `json:"status"`
		Progress  int    `json:"progress"`
		RowCount  int    `json:"rowCount"`
		Completed int    `json:"completed"`
	}{statusProcessing, progress, rowCount, completed})
}

// Complete records the finished job with the output file location.
func (t *Tracker) Complete(rowCount int, outputFile string) error {
	return t.write(struct {
		Status     string `json:"status"`
		Progress   int    `json:"progress"`
		RowCount   int    `json:"rowCount"`
		OutputFile string `json:"outputFile"`
	}{statusComplete, 100, rowCount, outputFile})
}

// Error records a failed job with a human-readable reason.
func (t *Tracker) Error(message string) error {
	return t.write(struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}{statusError, message})
}

func (t *Tracker) write(record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode status: %v", err)
	}
	if err := helper.WriteFileAtomic(t.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write status: %v", err)
	}
	return nil
}
