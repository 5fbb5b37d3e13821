package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/patelhet04/EssayBot-API/internal/grading"
	"github.com/patelhet04/EssayBot-API/internal/helper"
	"github.com/patelhet04/EssayBot-API/internal/logging"
)

// gradeResult is the JSON object the grade command prints.
type gradeResult struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	OutputFile string `json:"outputFile,omitempty"`
	RowCount   int    `json:"rowCount,omitempty"`
}

// GradeAction grades every response in the given spreadsheet against
// the professor's knowledge index and writes back the augmented roster.
func GradeAction(ctx context.Context, cmd *cli.Command) error {
	logging.Setup(cmd.Bool("verbose"))

	result, err := runGrade(ctx, cmd)
	if err != nil {
		log.Error().Err(err).Msg("Error processing file")
		out := &gradeResult{Success: false, Message: fmt.Sprintf("Error processing file: %v", err)}
		if printErr := helper.PrintJSON(out); printErr != nil {
			return printErr
		}
		return err
	}
	return helper.PrintJSON(result)
}

func runGrade(ctx context.Context, cmd *cli.Command) (*gradeResult, error) {
	app, err := NewAppContext(cmd)
	if err != nil {
		return nil, err
	}

	jobID := cmd.String("job-id")
	if jobID == "" {
		jobID, err = helper.GenerateJobID()
		if err != nil {
			return nil, err
		}
		log.Info().Str("jobId", jobID).Msg("Generated job id")
	}

	embedder, err := app.Embedder()
	if err != nil {
		return nil, err
	}
	_, retriever := app.OpenIndex(embedder)
	orch := grading.NewOrchestrator(retriever, app.GenerationClient(cmd.String("model")))
	batch, err := grading.GradeFile(ctx, orch, cmd.String("file"), jobID, cmd.String("output-dir"))
	if err != nil {
		return nil, err
	}

	return &gradeResult{
		Success:    true,
		Message:    "Grading completed",
		OutputFile: batch.OutputFile,
		RowCount:   batch.RowCount,
	}, nil
}
