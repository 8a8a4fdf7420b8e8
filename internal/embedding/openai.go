package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/aiox-platform/recall/internal/config"
)

// OpenAI embeds text with the OpenAI embeddings API or any server that
// speaks it (set BaseURL).
type OpenAI struct {
	client *openai.Client
	model  string
	dims   int
}

// NewOpenAI creates an embedder from cfg.
func NewOpenAI(cfg config.EmbeddingConfig) *OpenAI {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// Each request is attempted once; failures surface to the caller.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAI{client: &client, model: cfg.Model, dims: cfg.Dims}
}

// Embed returns the embedding of text.
func (e *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(e.model),
	}
	if e.dims > 0 {
		params.Dimensions = openai.Int(int64(e.dims))
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("creating embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("embedding response has no data")
	}

	raw := resp.Data[0].Embedding
	if e.dims > 0 && len(raw) != e.dims {
		return nil, fmt.Errorf("embedding has %d dimensions, want %d", len(raw), e.dims)
	}
	vec := make([]float32, len(raw))
	for i, v := range raw {
		vec[i] = float32(v)
	}
	return vec, nil
}
