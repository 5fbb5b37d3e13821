package commands

import (
	"context"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/patelhet04/EssayBot-API/internal/chunker"
	"github.com/patelhet04/EssayBot-API/internal/classify"
	"github.com/patelhet04/EssayBot-API/internal/helper"
	"github.com/patelhet04/EssayBot-API/internal/indexstore"
	"github.com/patelhet04/EssayBot-API/internal/logging"
	"github.com/patelhet04/EssayBot-API/internal/models"
	"github.com/patelhet04/EssayBot-API/internal/parser"
)

// indexResult is the JSON object the index command prints: the pipeline
// steps that finished and headline stats for each.
type indexResult struct {
	Success        bool           `json:"success"`
	Message        string         `json:"message"`
	StepsCompleted []string       `json:"steps_completed"`
	Stats          map[string]any `json:"stats"`
}

// IndexAction extracts course material, classifies it into topics and
// builds the professor's knowledge index.
func IndexAction(ctx context.Context, cmd *cli.Command) error {
	logging.Setup(cmd.Bool("verbose"))

	result := &indexResult{Success: true, StepsCompleted: []string{}, Stats: map[string]any{}}
	if err := runIndex(ctx, cmd, result); err != nil {
		log.Error().Err(err).Msg("Error initializing RAG pipeline")
		result.Success = false
		result.Message = fmt.Sprintf("Error initializing RAG pipeline: %v", err)
		if printErr := helper.PrintJSON(result); printErr != nil {
			return printErr
		}
		return err
	}

	result.Message = "RAG pipeline initialized successfully"
	log.Info().Msg("RAG pipeline initialized successfully")
	return helper.PrintJSON(result)
}

// runIndex fills result step by step, so a failed run still reports
// everything that completed before the failure.
func runIndex(ctx context.Context, cmd *cli.Command, result *indexResult) error {
	app, err := NewAppContext(cmd)
	if err != nil {
		return err
	}

	path := cmd.String("file")
	log.Info().Str("file", path).Msg("Initializing RAG pipeline")

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %v", path, err)
	}
	var text string
	if info.IsDir() {
		text, err = parser.ExtractDir(path)
	} else {
		text, err = parser.Extract(path)
	}
	if err != nil {
		return err
	}
	result.StepsCompleted = append(result.StepsCompleted, "load_course_materials")
	result.Stats["extracted_text_length"] = utf8.RuneCountInString(text)

	chk, err := chunker.New(app.Config.RAG.ChunkSize, app.Config.RAG.ChunkOverlap)
	if err != nil {
		return err
	}
	pieces, err := chk.Split(text)
	if err != nil {
		return err
	}

	embedder, err := app.Embedder()
	if err != nil {
		return err
	}
	classifier, err := classify.New(ctx, embedder, chk.Size())
	if err != nil {
		return err
	}

	kept := make([]string, 0, len(pieces))
	for _, piece := range pieces {
		if classifier.Excluded(piece) {
			log.Debug().Msg("Skipping case study chunk")
			continue
		}
		kept = append(kept, piece)
	}

	byTopic := make(map[models.Topic][]indexstore.Chunk)
	if len(kept) > 0 {
		vectors, err := embedder.EmbedBatch(ctx, kept)
		if err != nil {
			return err
		}
		for i, piece := range kept {
			topic, ok := classifier.Assign(piece, vectors[i])
			if !ok {
				continue
			}
			byTopic[topic] = append(byTopic[topic], indexstore.Chunk{Content: piece, Vector: vectors[i]})
		}
	}
	result.StepsCompleted = append(result.StepsCompleted, "categorize_extracted_text")

	categories := make(map[string]int, len(models.Topics()))
	for _, topic := range models.Topics() {
		categories[topic.Name()] = len(byTopic[topic])
	}
	result.Stats["categories"] = categories

	store, err := indexstore.Build(ctx, app.Dirs.IndexPath(), embedder, app.Config.RAG.EncryptionKey, byTopic, cmd.Bool("force-init"))
	if err != nil {
		return err
	}
	result.StepsCompleted = append(result.StepsCompleted, "create_topic_indices")
	log.Info().Int("chunks", store.TotalChunks()).Str("file", app.Dirs.IndexPath()).Msg("Knowledge index ready")

	return nil
}
