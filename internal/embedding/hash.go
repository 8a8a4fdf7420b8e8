package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// Hash is a deterministic bag-of-words embedder needing no network access.
// Texts sharing words get similar vectors. Selected with
// EMBEDDING_PROVIDER=hash.
type Hash struct {
	dims uint32
}

// NewHash creates a Hash embedder producing vectors of length dims.
func NewHash(dims int) (*Hash, error) {
	if dims < 1 {
		return nil, fmt.Errorf("hash embedder needs positive dimensions, got %d", dims)
	}
	return &Hash{dims: uint32(dims)}, nil
}

// Embed returns an L2-normalised vector of hashed word counts.
func (h *Hash) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, h.dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		f := fnv.New32a()
		_, _ = f.Write([]byte(w))
		vec[f.Sum32()%h.dims]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm == 0 {
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}
