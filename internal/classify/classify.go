package classify

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/patelhet04/EssayBot-API/internal/embedding"
	"github.com/patelhet04/EssayBot-API/internal/models"
)

// Classifier assigns chunks to course topics by nearest reference
// vector. The references are the embedded topic descriptions, computed
// once at construction so a full index build embeds each description
// exactly once.
type Classifier struct {
	topics []models.Topic
	refs   [][]float32
	window int
}

// New embeds every topic description with the given embedder. The
// window is the chunker's window size and bounds the exclusion rule in
// Excluded.
func New(ctx context.Context, embedder embedding.Embedder, window int) (*Classifier, error) {
	topics := models.Topics()
	descriptions := make([]string, len(topics))
	for i, topic := range topics {
		descriptions[i] = topic.Description()
	}

	refs, err := embedder.EmbedBatch(ctx, descriptions)
	if err != nil {
		return nil, fmt.Errorf("failed to embed topic descriptions: %v", err)
	}
	if len(refs) != len(topics) {
		return nil, fmt.Errorf("expected %d reference vectors, got %d", len(topics), len(refs))
	}

	return &Classifier{topics: topics, refs: refs, window: window}, nil
}

// Assign returns the topic whose reference vector is nearest to the
// chunk's vector by cosine distance. Ties go to the lexicographically
// first topic name. Excluded chunks return ok=false and belong to no
// topic.
func (c *Classifier) Assign(text string, vector []float32) (models.Topic, bool) {
	if c.Excluded(text) {
		return 0, false
	}

	best := c.topics[0]
	bestDist := cosineDistance(vector, c.refs[0])
	for i := 1; i < len(c.topics); i++ {
		dist := cosineDistance(vector, c.refs[i])
		if dist < bestDist || (dist == bestDist && c.topics[i].Name() < best.Name()) {
			best = c.topics[i]
			bestDist = dist
		}
	}
	return best, true
}

// Excluded reports whether the chunk is case-study material that would
// pollute the topic index: it mentions "case study" and overflows the
// chunk window, so it is narrative rather than concept text.
func (c *Classifier) Excluded(text string) bool {
	if utf8.RuneCountInString(text) <= c.window {
		return false
	}
	return strings.Contains(strings.ToLower(text), "case study")
}

func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
