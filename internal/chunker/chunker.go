package chunker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

var ErrBadWindow = errors.New("chunk size must exceed overlap")

// Chunker splits extracted text into overlapping windows sized for the
// embedding model. Splits prefer paragraph then sentence boundaries and
// fall back to hard cuts only for unbroken runs longer than the window.
type Chunker struct {
	splitter textsplitter.RecursiveCharacter
	size     int
	overlap  int
}

func New(size, overlap int) (*Chunker, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: size=%d overlap=%d", ErrBadWindow, size, overlap)
	}
	return &Chunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
		),
		size:    size,
		overlap: overlap,
	}, nil
}

// Split returns the non-blank chunks of text in document order. Blank
// input yields an empty slice, not an error.
func (c *Chunker) Split(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	raw, err := c.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to split text: %v", err)
	}
	chunks := make([]string, 0, len(raw))
	for _, chunk := range raw {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

func (c *Chunker) Size() int { return c.size }

func (c *Chunker) Overlap() int { return c.overlap }
