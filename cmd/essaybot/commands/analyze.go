package commands

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/patelhet04/EssayBot-API/internal/helper"
	"github.com/patelhet04/EssayBot-API/internal/logging"
	"github.com/patelhet04/EssayBot-API/internal/roster"
)

// analyzeError is the JSON object printed when inspection fails.
type analyzeError struct {
	Error string `json:"error"`
}

// AnalyzeAction inspects a roster spreadsheet and prints its structure
// without grading anything.
func AnalyzeAction(ctx context.Context, cmd *cli.Command) error {
	logging.Setup(cmd.Bool("verbose"))

	path := cmd.String("file")
	analysis, err := roster.Analyze(path)
	if err != nil {
		log.Error().Err(err).Str("file", path).Msg("Error analyzing file")
		if printErr := helper.PrintJSON(analyzeError{Error: err.Error()}); printErr != nil {
			return printErr
		}
		return err
	}

	log.Info().Int("rows", analysis.TotalRows).Int("columns", len(analysis.Columns)).Str("file", path).Msg("Analyzed roster")
	return helper.PrintJSON(analysis)
}
