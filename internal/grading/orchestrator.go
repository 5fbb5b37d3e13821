package grading

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/patelhet04/EssayBot-API/internal/agents"
	"github.com/patelhet04/EssayBot-API/internal/models"
)

// noContextPlaceholder keeps agent prompts non-empty when the index has
// nothing relevant to the response.
const noContextPlaceholder = "No relevant context found."

// generator is the slice of llmservice.Client the orchestrator needs.
type generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// contextRetriever is the slice of indexstore.Retriever the
// orchestrator needs.
type contextRetriever interface {
	RetrieveText(ctx context.Context, topic models.Topic, query string) ([]string, error)
}

// Orchestrator grades one response at a time: select topics by keyword,
// retrieve supporting context, run the four rubric agents, sum the
// scores. Agent slots are independent; one slot falling back never
// aborts the others.
type Orchestrator struct {
	retriever contextRetriever
	generator generator
	agents    []agents.Agent

	maxAttempts int
	sleep       func(time.Duration)
}

func NewOrchestrator(retriever contextRetriever, gen generator) *Orchestrator {
	return &Orchestrator{
		retriever:   retriever,
		generator:   gen,
		agents:      agents.Agents(),
		maxAttempts: 3,
		sleep:       time.Sleep,
	}
}

// Agents returns the rubric agents in the order their results appear in
// GradingResult.Feedbacks.
func (o *Orchestrator) Agents() []agents.Agent { return o.agents }

// SelectTopics maps a response onto course topics by keyword family.
// Every matching family adds its topic; a response matching none falls
// back to the general strategy topic, so the result is never empty.
func SelectTopics(text string) []models.Topic {
	lower := strings.ToLower(text)

	var topics []models.Topic
	if strings.Contains(lower, "segmentation") {
		topics = append(topics, models.TopicSegmentation)
	}
	if strings.Contains(lower, "targeting") {
		topics = append(topics, models.TopicTargeting)
	}
	if strings.Contains(lower, "differentiation") || strings.Contains(lower, "positioning") {
		topics = append(topics, models.TopicPositioning)
	}
	if strings.Contains(lower, "pricing") || strings.Contains(lower, "product") {
		topics = append(topics, models.TopicMarketingMix)
	}
	if len(topics) == 0 {
		topics = append(topics, models.TopicStrategy)
	}
	return topics
}

// BuildContext retrieves chunks for every selected topic with the
// response itself as the query, drops duplicate texts, and joins the
// rest with newlines. Retrieval failures degrade to less context, never
// to a failed grade.
func (o *Orchestrator) BuildContext(ctx context.Context, essay string, topics []models.Topic) string {
	seen := make(map[string]bool)
	var docs []string
	for _, topic := range topics {
		chunks, err := o.retriever.RetrieveText(ctx, topic, essay)
		if err != nil {
			log.Warn().Err(err).Str("topic", topic.Name()).Msg("Context retrieval failed")
			continue
		}
		for _, chunk := range chunks {
			if seen[chunk] {
				continue
			}
			seen[chunk] = true
			docs = append(docs, chunk)
		}
	}
	if len(docs) == 0 {
		return noContextPlaceholder
	}
	return strings.Join(docs, "\n")
}

// Grade runs the full pipeline for one student response and always
// returns a complete result with four feedback slots.
func (o *Orchestrator) Grade(ctx context.Context, essay string) models.GradingResult {
	topics := SelectTopics(essay)
	ragContext := o.BuildContext(ctx, essay, topics)

	result := models.GradingResult{Feedbacks: make([]models.AgentFeedback, 0, len(o.agents))}
	for _, agent := range o.agents {
		feedback := o.runAgent(ctx, agent, essay, ragContext)
		result.Feedbacks = append(result.Feedbacks, feedback)
		result.Total += feedback.Score
	}
	return result
}

// runAgent resolves one agent slot. A transport failure and a response
// that cannot be repaired into a valid score/feedback pair are retried
// the same way: up to maxAttempts tries with 1s then 2s waits between
// them. An exhausted slot resolves to the fixed fallback pair.
func (o *Orchestrator) runAgent(ctx context.Context, agent agents.Agent, essay, ragContext string) models.AgentFeedback {
	prompt := agent.BuildPrompt(essay, ragContext)

	for attempt := 0; attempt < o.maxAttempts; attempt++ {
		if attempt > 0 {
			o.sleep(time.Duration(1<<(attempt-1)) * time.Second)
		}

		raw, err := o.generator.Generate(ctx, prompt)
		if err != nil {
			log.Warn().Err(err).Str("agent", agent.Name).Int("attempt", attempt+1).Msg("Generation failed")
			continue
		}
		feedback, err := Repair(raw)
		if err != nil {
			log.Warn().Err(err).Str("agent", agent.Name).Int("attempt", attempt+1).Msg("Response repair failed")
			continue
		}
		log.Debug().Str("agent", agent.Name).Int("score", feedback.Score).Msg("Agent resolved")
		return feedback
	}

	log.Error().Str("agent", agent.Name).Msg("All attempts exhausted, using fallback")
	return models.AgentFeedback{Score: 0, Feedback: retryExhaustedFeedback}
}
