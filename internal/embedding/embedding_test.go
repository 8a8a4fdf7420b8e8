package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiox-platform/recall/internal/config"
)

func fakeEmbeddingServer(t *testing.T, vector []float64, gotBody *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if gotBody != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(gotBody))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "text-embedding-3-small",
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": vector},
			},
			"usage": map[string]any{"prompt_tokens": 2, "total_tokens": 2},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAI_Embed(t *testing.T) {
	var body map[string]any
	srv := fakeEmbeddingServer(t, []float64{0.1, 0.2, 0.3}, &body)

	e := NewOpenAI(config.EmbeddingConfig{
		APIKey:  "sk-test",
		BaseURL: srv.URL,
		Model:   "text-embedding-3-small",
		Dims:    3,
	})
	vec, err := e.Embed(context.Background(), "Buy milk")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.1, 0.2, 0.3}, vec, 1e-6)

	assert.Equal(t, "Buy milk", body["input"])
	assert.Equal(t, "text-embedding-3-small", body["model"])
	assert.EqualValues(t, 3, body["dimensions"])
}

func TestOpenAI_EmbedDimensionMismatch(t *testing.T) {
	srv := fakeEmbeddingServer(t, []float64{0.1, 0.2}, nil)

	e := NewOpenAI(config.EmbeddingConfig{APIKey: "sk-test", BaseURL: srv.URL, Model: "m", Dims: 3})
	_, err := e.Embed(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 dimensions")
}

func TestHash_Deterministic(t *testing.T) {
	h, err := NewHash(64)
	require.NoError(t, err)
	a, err := h.Embed(context.Background(), "Buy milk")
	require.NoError(t, err)
	b, err := h.Embed(context.Background(), "buy MILK!")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestHash_EmptyTextIsZero(t *testing.T) {
	h, err := NewHash(8)
	require.NoError(t, err)
	vec, err := h.Embed(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 8), vec)
}

func TestNewHash_RejectsNonPositiveDims(t *testing.T) {
	_, err := NewHash(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positive dimensions")
}

func TestNew_SelectsProvider(t *testing.T) {
	e, err := New(config.EmbeddingConfig{Provider: ProviderHash, Dims: 16})
	require.NoError(t, err)
	require.IsType(t, &Hash{}, e)
	vec, err := e.Embed(context.Background(), "Buy milk")
	require.NoError(t, err)
	assert.Len(t, vec, 16)

	e, err = New(config.EmbeddingConfig{Provider: ProviderOpenAI, APIKey: "sk-test", Model: "m", Dims: 3})
	require.NoError(t, err)
	assert.IsType(t, &OpenAI{}, e)

	_, err = New(config.EmbeddingConfig{Provider: ProviderHash})
	require.Error(t, err)

	_, err = New(config.EmbeddingConfig{Provider: "cohere"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cohere")
}
