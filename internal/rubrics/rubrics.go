package rubrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/patelhet04/EssayBot-API/internal/llmservice"
	"github.com/patelhet04/EssayBot-API/internal/models"
)

const (
	defaultSamples   = 3
	contextPerTopic  = 3
	contextSubsetMax = 5

	baseTemperature = 0.3
	temperatureStep = 0.1
	rubricTopP      = 0.9
	rubricMaxTokens = 1000
)

// Each sample rubric gets a different emphasis; extra samples past the
// third reuse the balanced one.
var focusInstructions = []string{
	"Focus primarily on the practical (application) aspects of the question.",
	"Focus primarily on the theoretical or conceptual understanding of the question.",
	"Provide a balanced approach that covers both theoretical understanding and practical application.",
}

const designerPrompt = `You are an expert educational assessment designer. Your task is to create a sample grading rubric
for the following question/assignment:

QUESTION:
%s

RELEVANT CONTEXT FROM COURSE MATERIALS:
%s

%s

Create a sample grading rubric that assesses understanding of the subject matter and application of
concepts. The rubric should have 3-4 criteria that are tailored to this specific question.

Return the rubric as a valid JSON object with the following structure:

{
  "criteria": [
    {
      "name": "Criterion Name",
      "description": "Detailed description of what is being assessed",
      "weight": number, // numerical weight where all weights add up to 100
      "scoringLevels": {
        "full": "Description of full points performance",
        "partial": "Description of partial points performance",
        "minimal": "Description of minimal points performance"
      },
      "subCriteria": []
    },
    // more criteria...
  ]
}

Each criterion should include:
1. A clear name
2. A detailed description
3. A weight (numerical value where all weights add up to 100)
4. Scoring levels with descriptions
5. An empty subCriteria array

Return ONLY the JSON object with no additional text before or after it.`

type contextRetriever interface {
	RetrieveTextN(ctx context.Context, topic models.Topic, query string, k int) ([]string, error)
}

type generator interface {
	GenerateWith(ctx context.Context, prompt string, opts llmservice.Options) (string, error)
}

// Result is the JSON document the rubrics command emits.
type Result struct {
	Success       bool             `json:"success"`
	Message       string           `json:"message"`
	SampleRubrics []map[string]any `json:"sampleRubrics"`
}

// Generator produces sample grading rubrics for an essay question,
// grounded in the tenant's indexed course material.
type Generator struct {
	retriever contextRetriever
	generator generator
}

func NewGenerator(retriever contextRetriever, gen generator) *Generator {
	return &Generator{retriever: retriever, generator: gen}
}

// Generate builds numSamples rubrics, one generation call each, with
// rising temperature across samples. A sample whose generation or
// parsing fails degrades to a placeholder rubric instead of failing the
// run; only context retrieval errors abort.
func (g *Generator) Generate(ctx context.Context, question string, numSamples int) (*Result, error) {
	if numSamples <= 0 {
		numSamples = defaultSamples
	}

	contexts, err := g.QuestionContext(ctx, question)
	if err != nil {
		return nil, err
	}

	rubrics := make([]map[string]any, 0, numSamples)
	for i := 0; i < numSamples; i++ {
		focus := focusInstructions[len(focusInstructions)-1]
		if i < len(focusInstructions) {
			focus = focusInstructions[i]
		}

		log.Info().Int("sample", i+1).Int("total", numSamples).Msg("Generating sample rubric")
		rubric, err := g.generateOne(ctx, question, contexts, focus, i)
		if err != nil {
			log.Warn().Err(err).Int("sample", i+1).Msg("Using placeholder rubric")
			rubric = placeholderRubric(i)
		}
		rubrics = append(rubrics, rubric)
	}

	return &Result{
		Success:       true,
		Message:       fmt.Sprintf("Generated %d sample rubrics", len(rubrics)),
		SampleRubrics: rubrics,
	}, nil
}

// QuestionContext gathers unique chunks for the question across every
// topic, three per topic, first seen first.
func (g *Generator) QuestionContext(ctx context.Context, question string) ([]string, error) {
	seen := make(map[string]bool)
	var contexts []string
	for _, topic := range models.Topics() {
		chunks, err := g.retriever.RetrieveTextN(ctx, topic, question, contextPerTopic)
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve context for %q: %v", topic.Name(), err)
		}
		for _, chunk := range chunks {
			if seen[chunk] {
				continue
			}
			seen[chunk] = true
			contexts = append(contexts, chunk)
		}
	}
	log.Info().Int("chunks", len(contexts)).Msg("Retrieved question context")
	return contexts, nil
}

func (g *Generator) generateOne(ctx context.Context, question string, contexts []string, focus string, sample int) (map[string]any, error) {
	subset := contexts
	if len(subset) > contextSubsetMax {
		subset = subset[:contextSubsetMax]
	}
	prompt := fmt.Sprintf(designerPrompt, question, strings.Join(subset, " "), focus)

	response, err := g.generator.GenerateWith(ctx, prompt, llmservice.Options{
		Temperature: baseTemperature + float64(sample)*temperatureStep,
		TopP:        rubricTopP,
		MaxTokens:   rubricMaxTokens,
	})
	if err != nil {
		return nil, err
	}
	return normalizeRubric(response)
}

// normalizeRubric extracts the outermost JSON object from the raw
// completion and enforces the rubric shape: a non-empty criteria list
// where every criterion has subCriteria, scoringLevels, and a numeric
// weight, with weights rescaled to sum to exactly 100. Keys beyond the
// known ones pass through untouched.
func normalizeRubric(response string) (map[string]any, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return nil, errors.New("no JSON object in response")
	}

	var rubric map[string]any
	if err := json.Unmarshal([]byte(response[start:end+1]), &rubric); err != nil {
		return nil, fmt.Errorf("failed to parse rubric JSON: %v", err)
	}

	criteriaAny, ok := rubric["criteria"].([]any)
	if !ok || len(criteriaAny) == 0 {
		return nil, errors.New("rubric has no criteria list")
	}
	criteria := make([]map[string]any, 0, len(criteriaAny))
	for _, c := range criteriaAny {
		criterion, ok := c.(map[string]any)
		if !ok {
			return nil, errors.New("criterion is not an object")
		}
		criteria = append(criteria, criterion)
	}

	for _, criterion := range criteria {
		if _, ok := criterion["subCriteria"]; !ok {
			criterion["subCriteria"] = []any{}
		}
		if _, ok := criterion["scoringLevels"]; !ok {
			criterion["scoringLevels"] = defaultScoringLevels()
		}
		if _, ok := criterion["weight"].(float64); !ok {
			criterion["weight"] = float64(100 / len(criteria))
		}
	}

	total := 0.0
	for _, criterion := range criteria {
		total += criterion["weight"].(float64)
	}
	if total != 100 {
		if total == 0 {
			return nil, errors.New("criterion weights sum to zero")
		}
		scale := 100 / total
		sum := 0.0
		for _, criterion := range criteria {
			w := math.Round(criterion["weight"].(float64) * scale)
			criterion["weight"] = w
			sum += w
		}
		if diff := 100 - sum; diff != 0 {
			criteria[0]["weight"] = criteria[0]["weight"].(float64) + diff
		}
	}
	return rubric, nil
}

// placeholderRubric stands in for a failed sample: three equal criteria
// for the first sample, four for the rest.
func placeholderRubric(sample int) map[string]any {
	count := 4
	if sample == 0 {
		count = 3
	}
	criteria := make([]any, 0, count)
	for j := 0; j < count; j++ {
		criteria = append(criteria, map[string]any{
			"name":          fmt.Sprintf("Criterion %d", j+1),
			"description":   "Auto-generated placeholder criterion",
			"weight":        100 / count,
			"scoringLevels": defaultScoringLevels(),
			"subCriteria":   []any{},
		})
	}
	return map[string]any{"criteria": criteria}
}

func defaultScoringLevels() map[string]any {
	return map[string]any{
		"full":    "Excellent performance in this criterion.",
		"partial": "Satisfactory performance in this criterion.",
		"minimal": "Minimal performance in this criterion.",
	}
}
