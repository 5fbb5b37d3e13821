package indexstore

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patelhet04/EssayBot-API/internal/models"
)

// fakeEmbedder returns canned vectors keyed by input text.
type fakeEmbedder struct {
	model   string
	vectors map[string][]float32
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{model: "fake-embed", vectors: map[string][]float32{}}
}

func (f *fakeEmbedder) Model() string { return f.model }

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v, ok := f.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", text)
	}
	return v, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// unit-length vectors so stored similarities are plain dot products
var (
	axisX  = []float32{1, 0, 0, 0}
	nearX  = []float32{0.9, 0.4358899, 0, 0}
	midX   = []float32{0.8, 0.6, 0, 0}
	farX   = []float32{0.5, 0.8660254, 0, 0}
	axisZ  = []float32{0, 0, 1, 0}
	testCtx = context.Background()
)

func TestChunkID(t *testing.T) {
	a := ChunkID("segmentation basics")
	b := ChunkID("segmentation basics")
	c := ChunkID("something else")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 32)
}

func TestAddAndCounts(t *testing.T) {
	store := New(newFakeEmbedder(), "")

	err := store.Add(testCtx, models.TopicSegmentation, []Chunk{
		{Content: "one", Vector: axisX},
		{Content: "two", Vector: nearX},
	})
	require.NoError(t, err)
	err = store.Add(testCtx, models.TopicTargeting, []Chunk{
		{Content: "three", Vector: axisZ},
	})
	require.NoError(t, err)

	counts := store.Counts()
	assert.Equal(t, 2, counts[models.TopicSegmentation.Name()])
	assert.Equal(t, 1, counts[models.TopicTargeting.Name()])
	assert.Equal(t, 3, store.TotalChunks())
	assert.Equal(t, 4, store.Dimension())
}

func TestAddIdenticalContentOnce(t *testing.T) {
	store := New(newFakeEmbedder(), "")

	err := store.Add(testCtx, models.TopicSegmentation, []Chunk{
		{Content: "repeated", Vector: axisX},
		{Content: "repeated", Vector: axisX},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, store.Counts()[models.TopicSegmentation.Name()])

	// a second run with the same content upserts instead of duplicating
	err = store.Add(testCtx, models.TopicSegmentation, []Chunk{
		{Content: "repeated", Vector: axisX},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, store.Counts()[models.TopicSegmentation.Name()])
}

func TestAddDimensionMismatch(t *testing.T) {
	store := New(newFakeEmbedder(), "")

	err := store.Add(testCtx, models.TopicSegmentation, []Chunk{
		{Content: "one", Vector: axisX},
		{Content: "short", Vector: []float32{1, 0}},
	})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indices", "knowledge_index.bin")
	embedder := newFakeEmbedder()

	store := New(embedder, "")
	require.NoError(t, store.Add(testCtx, models.TopicSegmentation, []Chunk{
		{Content: "segmentation overview", Vector: axisX},
		{Content: "segmentation detail", Vector: nearX},
	}))
	require.NoError(t, store.Add(testCtx, models.TopicStrategy, []Chunk{
		{Content: "planning outline", Vector: axisZ},
	}))
	require.NoError(t, store.Save(path))

	loaded, err := Load(path, embedder, "")
	require.NoError(t, err)
	assert.Equal(t, store.Counts(), loaded.Counts())
	assert.Equal(t, 4, loaded.Dimension())
	assert.Equal(t, "fake-embed", loaded.Model())

	hits, err := loaded.Query(testCtx, models.TopicSegmentation, axisX, 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "segmentation overview", hits[0].Content)
}

func TestSaveLoadEncrypted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge_index.bin")
	embedder := newFakeEmbedder()
	key := "0123456789abcdef0123456789abcdef"

	store := New(embedder, key)
	require.NoError(t, store.Add(testCtx, models.TopicSegmentation, []Chunk{
		{Content: "secret material", Vector: axisX},
	}))
	require.NoError(t, store.Save(path))

	loaded, err := Load(path, embedder, key)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.TotalChunks())

	_, err = Load(path, embedder, "abcdef0123456789abcdef0123456789")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestLoadAbsentArtifact(t *testing.T) {
	// a tenant that never indexed anything is a normal state, not an
	// error
	store, err := Load(filepath.Join(t.TempDir(), "knowledge_index.bin"), newFakeEmbedder(), "")
	require.NoError(t, err)
	assert.Nil(t, store)
}

func TestLoadBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.bin")
	require.NoError(t, os.WriteFile(path, []byte("NOTANIDX garbage"), 0o644))

	_, err := Load(path, newFakeEmbedder(), "")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestLoadShortHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.bin")
	require.NoError(t, os.WriteFile(path, []byte("EBK"), 0o644))

	_, err := Load(path, newFakeEmbedder(), "")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestLoadOversizedManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.bin")
	data := []byte(indexMagic)
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], 1<<30)
	data = append(data, lenBuf[:]...)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err := Load(path, newFakeEmbedder(), "")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestLoadTruncatedVectorData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.bin")
	manifest := []byte(`{"embedding_model":"fake-embed","dimension":4,"topics":{},"saved_at":"2025-01-01T00:00:00Z"}`)
	data := []byte(indexMagic)
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(manifest)))
	data = append(data, lenBuf[:]...)
	data = append(data, manifest...)
	data = append(data, []byte("not a gob stream")...)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err := Load(path, newFakeEmbedder(), "")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestLoadModelMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge_index.bin")
	store := New(newFakeEmbedder(), "")
	require.NoError(t, store.Add(testCtx, models.TopicSegmentation, []Chunk{
		{Content: "material", Vector: axisX},
	}))
	require.NoError(t, store.Save(path))

	other := newFakeEmbedder()
	other.model = "other-model"
	_, err := Load(path, other, "")
	assert.ErrorIs(t, err, ErrModelMismatch)
}

func TestLoadOrNewFallsBack(t *testing.T) {
	dir := t.TempDir()

	store := LoadOrNew(filepath.Join(dir, "absent.bin"), newFakeEmbedder(), "")
	assert.Equal(t, 0, store.TotalChunks())

	corrupt := filepath.Join(dir, "corrupt.bin")
	require.NoError(t, os.WriteFile(corrupt, []byte("garbage"), 0o644))
	store = LoadOrNew(corrupt, newFakeEmbedder(), "")
	assert.Equal(t, 0, store.TotalChunks())
}

func TestSaveOverwritesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge_index.bin")
	embedder := newFakeEmbedder()

	store := New(embedder, "")
	require.NoError(t, store.Add(testCtx, models.TopicSegmentation, []Chunk{
		{Content: "first", Vector: axisX},
	}))
	require.NoError(t, store.Save(path))
	require.NoError(t, store.Add(testCtx, models.TopicSegmentation, []Chunk{
		{Content: "second", Vector: nearX},
	}))
	require.NoError(t, store.Save(path))

	loaded, err := Load(path, embedder, "")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.TotalChunks())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestBuildMergesAndForceInitResets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indices", "knowledge_index.bin")
	embedder := newFakeEmbedder()
	seg := models.TopicSegmentation.Name()

	store, err := Build(testCtx, path, embedder, "", map[models.Topic][]Chunk{
		models.TopicSegmentation: {
			{Content: "alpha", Vector: axisX},
			{Content: "beta", Vector: nearX},
		},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Counts()[seg])

	// merge keeps the earlier chunks
	store, err = Build(testCtx, path, embedder, "", map[models.Topic][]Chunk{
		models.TopicSegmentation: {
			{Content: "gamma", Vector: midX},
		},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, 3, store.Counts()[seg])

	// identical content merges to a no-op
	store, err = Build(testCtx, path, embedder, "", map[models.Topic][]Chunk{
		models.TopicSegmentation: {
			{Content: "gamma", Vector: midX},
		},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, 3, store.Counts()[seg])

	// force-init starts over
	store, err = Build(testCtx, path, embedder, "", map[models.Topic][]Chunk{
		models.TopicSegmentation: {
			{Content: "delta", Vector: farX},
		},
	}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Counts()[seg])

	loaded, err := Load(path, embedder, "")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Counts()[seg])
}
