package indexstore

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/patelhet04/EssayBot-API/internal/embedding"
	"github.com/patelhet04/EssayBot-API/internal/models"
)

// Build merges classified chunks into the index at path and saves the
// result. Without forceInit the saved index is loaded first and the new
// chunks are unioned in, so earlier course material survives
// re-indexing; forceInit starts from an empty index instead. Topics
// that end up with no chunks at all are logged and left out.
func Build(ctx context.Context, path string, embedder embedding.Embedder, encryptionKey string, byTopic map[models.Topic][]Chunk, forceInit bool) (*Store, error) {
	var store *Store
	if forceInit {
		store = New(embedder, encryptionKey)
	} else {
		store = LoadOrNew(path, embedder, encryptionKey)
	}

	existing := store.Counts()
	for _, topic := range models.Topics() {
		chunks := byTopic[topic]
		if len(chunks) == 0 {
			if existing[topic.Name()] == 0 {
				log.Warn().Str("topic", topic.Name()).Msg("No chunks classified for topic")
			}
			continue
		}
		if err := store.Add(ctx, topic, chunks); err != nil {
			return nil, err
		}
		log.Info().Str("topic", topic.Name()).Int("added", len(chunks)).Msg("Indexed topic")
	}

	if err := store.Save(path); err != nil {
		return nil, err
	}
	return store, nil
}
