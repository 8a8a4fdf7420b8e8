// Package embedding turns memory text into vectors.
package embedding

import (
	"context"
	"fmt"

	"github.com/aiox-platform/recall/internal/config"
)

// Embedding providers accepted in EMBEDDING_PROVIDER.
const (
	ProviderOpenAI = "openai"
	ProviderHash   = "hash"
)

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// New returns the embedder selected by cfg.Provider.
func New(cfg config.EmbeddingConfig) (Embedder, error) {
	switch cfg.Provider {
	case ProviderOpenAI, "":
		return NewOpenAI(cfg), nil
	case ProviderHash:
		h, err := NewHash(cfg.Dims)
		if err != nil {
			return nil, err
		}
		return h, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
