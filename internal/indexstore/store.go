package indexstore

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	chromem "github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"github.com/patelhet04/EssayBot-API/internal/embedding"
	"github.com/patelhet04/EssayBot-API/internal/models"
)

var (
	ErrCorrupt           = errors.New("index file corrupt")
	ErrModelMismatch     = errors.New("index embedding model mismatch")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// indexMagic opens every index file. The version digit bumps when the
// frame layout changes.
const indexMagic = "EBKIDX01"

const (
	compress        = false
	maxManifestSize = 1 << 20
)

// manifest is the JSON header framed ahead of the vector data. It
// carries the model identity so a load with the wrong embedder fails
// before any vectors are compared.
type manifest struct {
	EmbeddingModel string         `json:"embedding_model"`
	Dimension      int            `json:"dimension"`
	Topics         map[string]int `json:"topics"`
	SavedAt        time.Time      `json:"saved_at"`
}

// Store is one tenant's topic-partitioned vector index. Each topic maps
// to its own collection; chunk IDs are content hashes, so adding the
// same chunk twice is a no-op and re-indexing merges instead of
// duplicating.
type Store struct {
	db         *chromem.DB
	embedder   embedding.Embedder
	encryptKey string
	dimension  int
}

// Chunk is one classified piece of course material with its vector.
type Chunk struct {
	Content string
	Vector  []float32
}

// ChunkID derives a document ID from the chunk text alone. Identical
// text always gets the same ID regardless of source file or index run.
func ChunkID(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:16])
}

// New returns an empty in-memory index bound to the embedder's model.
func New(embedder embedding.Embedder, encryptionKey string) *Store {
	return &Store{db: chromem.NewDB(), embedder: embedder, encryptKey: encryptionKey}
}

// Load reads a saved index. A tenant with no saved artifact yet is a
// normal state, reported as (nil, nil) rather than an error. The
// caller's embedder must match the model recorded in the manifest or
// the load fails with ErrModelMismatch.
func Load(path string, embedder embedding.Embedder, encryptionKey string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open index: %v", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat index: %v", err)
	}

	var magic [len(indexMagic)]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: short header", ErrCorrupt)
	}
	if string(magic[:]) != indexMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}

	var manifestLen uint64
	if err := binary.Read(f, binary.BigEndian, &manifestLen); err != nil {
		return nil, fmt.Errorf("%w: short header", ErrCorrupt)
	}
	dataStart := int64(len(indexMagic)) + 8 + int64(manifestLen)
	if manifestLen > maxManifestSize || dataStart > stat.Size() {
		return nil, fmt.Errorf("%w: manifest length %d", ErrCorrupt, manifestLen)
	}

	header := make([]byte, manifestLen)
	if _, err := io.ReadFull(f, header); err != nil {
		return nil, fmt.Errorf("%w: truncated manifest", ErrCorrupt)
	}
	var m manifest
	if err := json.Unmarshal(header, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if m.EmbeddingModel != embedder.Model() {
		return nil, fmt.Errorf("%w: index built with %q, embedder is %q",
			ErrModelMismatch, m.EmbeddingModel, embedder.Model())
	}

	db := chromem.NewDB()
	section := io.NewSectionReader(f, dataStart, stat.Size()-dataStart)
	if err := db.ImportFromReader(section, encryptionKey); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	return &Store{
		db:         db,
		embedder:   embedder,
		encryptKey: encryptionKey,
		dimension:  m.Dimension,
	}, nil
}

// LoadOrNew opens the index at path and falls back to a fresh empty
// index when the file is missing, corrupt, or was built by a different
// embedding model. Fallbacks other than a plain missing file are
// logged so a rebuild never silently hides a broken artifact.
func LoadOrNew(path string, embedder embedding.Embedder, encryptionKey string) *Store {
	store, err := Load(path, embedder, encryptionKey)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Discarding saved index, rebuilding from scratch")
		return New(embedder, encryptionKey)
	}
	if store == nil {
		return New(embedder, encryptionKey)
	}
	return store
}

// Add upserts chunks into the topic's collection. Chunks whose content
// already exists in the collection are overwritten in place, which
// makes Add idempotent across repeated index runs.
func (s *Store) Add(ctx context.Context, topic models.Topic, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	coll, err := s.db.GetOrCreateCollection(topic.Name(), nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create collection %q: %v", topic.Name(), err)
	}

	seen := make(map[string]bool, len(chunks))
	docs := make([]chromem.Document, 0, len(chunks))
	for _, chunk := range chunks {
		if s.dimension == 0 {
			s.dimension = len(chunk.Vector)
		}
		if len(chunk.Vector) != s.dimension {
			return fmt.Errorf("%w: got %d, index holds %d",
				ErrDimensionMismatch, len(chunk.Vector), s.dimension)
		}
		id := ChunkID(chunk.Content)
		if seen[id] {
			continue
		}
		seen[id] = true
		docs = append(docs, chromem.Document{
			ID:        id,
			Content:   chunk.Content,
			Embedding: chunk.Vector,
		})
	}

	if err := coll.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}
	return nil
}

// Save writes the framed artifact atomically: magic, manifest length,
// JSON manifest, then the vector export. A crash mid-write leaves the
// previous file intact.
func (s *Store) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %v", err)
	}

	m := manifest{
		EmbeddingModel: s.embedder.Model(),
		Dimension:      s.dimension,
		Topics:         s.Counts(),
		SavedAt:        time.Now().UTC(),
	}
	header, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %v", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".index-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmp.Name())

	err = func() error {
		if _, err := tmp.Write([]byte(indexMagic)); err != nil {
			return err
		}
		if err := binary.Write(tmp, binary.BigEndian, uint64(len(header))); err != nil {
			return err
		}
		if _, err := tmp.Write(header); err != nil {
			return err
		}
		return s.db.ExportToWriter(tmp, compress, s.encryptKey)
	}()
	if err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write index: %v", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod index: %v", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close index: %v", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace index: %v", err)
	}

	log.Info().Str("path", path).Int("chunks", s.TotalChunks()).Msg("Saved index")
	return nil
}

// Counts reports stored chunks per topic name.
func (s *Store) Counts() map[string]int {
	counts := make(map[string]int)
	for name, coll := range s.db.ListCollections() {
		counts[name] = coll.Count()
	}
	return counts
}

func (s *Store) TotalChunks() int {
	total := 0
	for _, n := range s.Counts() {
		total += n
	}
	return total
}

func (s *Store) Model() string { return s.embedder.Model() }

func (s *Store) Dimension() int { return s.dimension }

// Embedder exposes the model bound to this index for callers that need
// to embed queries against it.
func (s *Store) Embedder() embedding.Embedder { return s.embedder }
