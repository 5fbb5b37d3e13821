package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

var ErrEmptyInput = errors.New("no text to embed")

// Embedder turns text into vectors. Every vector from one implementation
// has the same dimension, and Model identifies the weights that produced
// it so an index can refuse vectors from a different model.
type Embedder interface {
	Model() string
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Ollama embeds through a local Ollama server.
type Ollama struct {
	embedder *embeddings.EmbedderImpl
	model    string
}

// NewOllama initializes an embedding model using Ollama.
func NewOllama(baseURL, model string) (*Ollama, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(baseURL),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %v", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %v", err)
	}

	return &Ollama{embedder: embedder, model: model}, nil
}

func (o *Ollama) Model() string { return o.model }

func (o *Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}
	vector, err := o.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed text: %v", err)
	}
	return vector, nil
}

func (o *Ollama) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	vectors, err := o.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed batch: %v", err)
	}
	return vectors, nil
}
