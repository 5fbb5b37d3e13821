package grading

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/patelhet04/EssayBot-API/internal/jobs"
	"github.com/patelhet04/EssayBot-API/internal/roster"
)

// BatchResult reports one finished grading run.
type BatchResult struct {
	OutputFile string
	RowCount   int
}

// GradeFile grades every row of the workbook at inputPath and saves the
// augmented copy as graded_responses_<jobID>.xlsx in outputDir. A
// status record is overwritten after every row; on failure the last
// record carries the error message before the error is returned.
func GradeFile(ctx context.Context, orch *Orchestrator, inputPath, jobID, outputDir string) (*BatchResult, error) {
	tracker, err := jobs.NewTracker(outputDir, jobID)
	if err != nil {
		return nil, err
	}
	if err := tracker.Started(); err != nil {
		return nil, err
	}

	result, err := run(ctx, orch, tracker, inputPath, jobID, outputDir)
	if err != nil {
		if statusErr := tracker.Error(err.Error()); statusErr != nil {
			log.Warn().Err(statusErr).Msg("Failed to record error status")
		}
		return nil, err
	}
	return result, nil
}

func run(ctx context.Context, orch *Orchestrator, tracker *jobs.Tracker, inputPath, jobID, outputDir string) (*BatchResult, error) {
	r, err := roster.Open(inputPath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	rowCount := r.RowCount()
	if err := tracker.Counted(rowCount); err != nil {
		return nil, err
	}

	agentList := orch.Agents()
	for i := 0; i < rowCount; i++ {
		response, err := r.Response(i)
		if err != nil {
			return nil, err
		}

		log.Info().Int("row", i+1).Int("total", rowCount).Msg("Grading response")
		graded := orch.Grade(ctx, response)

		if err := r.WriteResult(i, agentList, graded); err != nil {
			return nil, err
		}
		if err := tracker.Progress(i+1, rowCount); err != nil {
			return nil, err
		}
	}

	outputFile := filepath.Join(outputDir, fmt.Sprintf("graded_responses_%s.xlsx", jobID))
	if err := r.SaveAs(outputFile); err != nil {
		return nil, err
	}
	if err := tracker.Complete(rowCount, outputFile); err != nil {
		return nil, err
	}

	log.Info().Str("output", outputFile).Int("rows", rowCount).Msg("Grading complete")
	return &BatchResult{OutputFile: outputFile, RowCount: rowCount}, nil
}
