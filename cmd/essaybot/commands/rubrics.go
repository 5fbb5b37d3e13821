package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/patelhet04/EssayBot-API/internal/helper"
	"github.com/patelhet04/EssayBot-API/internal/logging"
	"github.com/patelhet04/EssayBot-API/internal/rubrics"
)

// rubricsFailure is the JSON object printed when generation fails.
type rubricsFailure struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// RubricsAction generates sample grading rubrics for an essay question,
// grounded in the professor's indexed course material.
func RubricsAction(ctx context.Context, cmd *cli.Command) error {
	logging.Setup(cmd.Bool("verbose"))

	result, err := runRubrics(ctx, cmd)
	if err != nil {
		log.Error().Err(err).Msg("Error generating sample rubrics")
		out := rubricsFailure{
			Success: false,
			Message: fmt.Sprintf("Error generating sample rubrics: %v", err),
			Error:   err.Error(),
		}
		if printErr := helper.PrintJSON(out); printErr != nil {
			return printErr
		}
		return err
	}
	return helper.PrintJSON(result)
}

func runRubrics(ctx context.Context, cmd *cli.Command) (*rubrics.Result, error) {
	app, err := NewAppContext(cmd)
	if err != nil {
		return nil, err
	}

	embedder, err := app.Embedder()
	if err != nil {
		return nil, err
	}
	_, retriever := app.OpenIndex(embedder)
	gen := rubrics.NewGenerator(retriever, app.GenerationClient(cmd.String("model")))
	result, err := gen.Generate(ctx, cmd.String("question"), cmd.Int("samples"))
	if err != nil {
		return nil, err
	}

	if out := cmd.String("output"); out != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal rubrics: %v", err)
		}
		if err := helper.WriteFileAtomic(out, data, 0o644); err != nil {
			return nil, err
		}
		log.Info().Str("file", out).Msg("Saved sample rubrics")
	}
	return result, nil
}
