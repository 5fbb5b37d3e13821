package indexstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patelhet04/EssayBot-API/internal/models"
)

func seededStore(t *testing.T) *Store {
	t.Helper()
	embedder := newFakeEmbedder()
	embedder.vectors["framework query"] = axisX

	store := New(embedder, "")
	require.NoError(t, store.Add(testCtx, models.TopicSegmentation, []Chunk{
		{Content: "segmentation targeting differentiation and positioning together", Vector: midX},
		{Content: "segmentation basics on their own", Vector: nearX},
		{Content: "barely related material", Vector: farX},
	}))
	require.NoError(t, store.Add(testCtx, models.TopicTargeting, []Chunk{
		{Content: "targeting detail one", Vector: nearX},
		{Content: "targeting detail two", Vector: midX},
		{Content: "targeting detail three", Vector: farX},
	}))
	return store
}

func TestQueryClampsLimit(t *testing.T) {
	store := seededStore(t)

	hits, err := store.Query(testCtx, models.TopicSegmentation, axisX, 50)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
	assert.Equal(t, "segmentation basics on their own", hits[0].Content)
}

func TestQueryAbsentTopic(t *testing.T) {
	store := seededStore(t)

	hits, err := store.Query(testCtx, models.TopicStrategy, axisX, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestRetrieveDropsWeakMatches(t *testing.T) {
	store := seededStore(t)
	r := NewRetriever(store, 5, 10, 0.7)

	got, err := r.Retrieve(testCtx, models.TopicTargeting, axisX)
	require.NoError(t, err)
	assert.Equal(t, []string{"targeting detail one", "targeting detail two"}, got)
}

func TestRetrievePrefersFrameworkChunks(t *testing.T) {
	store := seededStore(t)
	r := NewRetriever(store, 5, 10, 0.7)

	got, err := r.Retrieve(testCtx, models.TopicSegmentation, axisX)
	require.NoError(t, err)
	assert.Equal(t, []string{"segmentation targeting differentiation and positioning together"}, got)
}

func TestRetrieveTruncatesToTopK(t *testing.T) {
	store := seededStore(t)
	r := NewRetriever(store, 1, 10, 0.7)

	got, err := r.Retrieve(testCtx, models.TopicTargeting, axisX)
	require.NoError(t, err)
	assert.Equal(t, []string{"targeting detail one"}, got)
}

func TestRetrieveBeforeFirstIndexBuild(t *testing.T) {
	// a professor with no saved index grades against an empty store;
	// every topic retrieves nothing and nothing errors
	store := LoadOrNew(filepath.Join(t.TempDir(), "knowledge_index.bin"), newFakeEmbedder(), "")
	r := NewRetriever(store, 5, 10, 0.7)

	for _, topic := range models.Topics() {
		got, err := r.Retrieve(testCtx, topic, axisX)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
}

func TestRetrieveAbsentTopic(t *testing.T) {
	store := seededStore(t)
	r := NewRetriever(store, 5, 10, 0.7)

	got, err := r.Retrieve(testCtx, models.TopicStrategy, axisX)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRetrieveTextN(t *testing.T) {
	store := seededStore(t)
	r := NewRetriever(store, 5, 10, 0.7)

	got, err := r.RetrieveTextN(testCtx, models.TopicTargeting, "framework query", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"targeting detail one"}, got)

	_, err = r.RetrieveTextN(testCtx, models.TopicTargeting, "unknown query", 1)
	assert.Error(t, err)
}

func TestHasAllPriorityTerms(t *testing.T) {
	assert.True(t, hasAllPriorityTerms("Segmentation, Targeting, Differentiation and Positioning"))
	assert.False(t, hasAllPriorityTerms("segmentation and targeting only"))
	assert.False(t, hasAllPriorityTerms(""))
}
