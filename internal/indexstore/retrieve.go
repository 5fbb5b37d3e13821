package indexstore

import (
	"context"
	"fmt"
	"strings"

	chromem "github.com/philippgille/chromem-go"

	"github.com/patelhet04/EssayBot-API/internal/models"
)

// Hit is one chunk returned by a similarity query.
type Hit struct {
	Content    string
	Similarity float32
}

// Query returns up to n chunks from the topic's collection, best match
// first. The limit is clamped to the collection size; a topic with no
// collection yields no hits rather than an error.
func (s *Store) Query(ctx context.Context, topic models.Topic, vector []float32, n int) ([]Hit, error) {
	coll := s.db.GetCollection(topic.Name(), nil)
	if coll == nil {
		return nil, nil
	}
	if count := coll.Count(); n > count {
		n = count
	}
	if n <= 0 {
		return nil, nil
	}

	results, err := coll.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: vector,
		NResults:       n,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query collection %q: %v", topic.Name(), err)
	}

	hits := make([]Hit, 0, len(results))
	for _, result := range results {
		hits = append(hits, Hit{Content: result.Content, Similarity: result.Similarity})
	}
	return hits, nil
}

// framework terms that mark a chunk as core strategy material
var priorityTerms = []string{"segmentation", "targeting", "differentiation", "positioning"}

// Retriever applies the grading retrieval policy on top of Store.Query:
// overfetch, drop weak matches, prefer chunks that cover the whole
// STP+positioning framework, then cut to the final size.
type Retriever struct {
	store  *Store
	topK   int
	fetchK int
	floor  float32
}

func NewRetriever(store *Store, topK, fetchK int, scoreThreshold float32) *Retriever {
	if fetchK < topK {
		fetchK = topK
	}
	return &Retriever{store: store, topK: topK, fetchK: fetchK, floor: scoreThreshold}
}

// Retrieve returns the chunk texts backing a grading query, best match
// first, at most topK of them. Results below the similarity floor are
// dropped even if that leaves fewer than topK.
func (r *Retriever) Retrieve(ctx context.Context, topic models.Topic, vector []float32) ([]string, error) {
	return r.retrieve(ctx, topic, vector, r.topK)
}

// RetrieveText embeds the query with the index's own embedder before
// retrieving.
func (r *Retriever) RetrieveText(ctx context.Context, topic models.Topic, query string) ([]string, error) {
	return r.RetrieveTextN(ctx, topic, query, r.topK)
}

// RetrieveTextN is RetrieveText with an explicit result limit. The
// candidate pool and similarity floor stay the same regardless of k.
func (r *Retriever) RetrieveTextN(ctx context.Context, topic models.Topic, query string, k int) ([]string, error) {
	vector, err := r.store.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %v", err)
	}
	return r.retrieve(ctx, topic, vector, k)
}

func (r *Retriever) retrieve(ctx context.Context, topic models.Topic, vector []float32, k int) ([]string, error) {
	fetch := r.fetchK
	if fetch < k {
		fetch = k
	}
	hits, err := r.store.Query(ctx, topic, vector, fetch)
	if err != nil {
		return nil, err
	}

	var kept, prioritized []string
	for _, hit := range hits {
		if hit.Similarity < r.floor {
			continue
		}
		kept = append(kept, hit.Content)
		if hasAllPriorityTerms(hit.Content) {
			prioritized = append(prioritized, hit.Content)
		}
	}

	chosen := kept
	if len(prioritized) > 0 {
		chosen = prioritized
	}
	if len(chosen) > k {
		chosen = chosen[:k]
	}
	return chosen, nil
}

func hasAllPriorityTerms(content string) bool {
	lower := strings.ToLower(content)
	for _, term := range priorityTerms {
		if !strings.Contains(lower, term) {
			return false
		}
	}
	return true
}
