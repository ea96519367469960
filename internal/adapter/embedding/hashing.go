package embedding

import (
	"context"

	"github.com/cespare/xxhash/v2"

	"teammatch/internal/adapter/analyzer"
)

// HashingEmbedder is an offline, deterministic embedder. Each term is hashed
// into one of dimension buckets with a hash-derived sign, so texts sharing
// terms point in similar directions. It needs no model download and is the
// default provider.
type HashingEmbedder struct {
	dimension int
	tokenizer *analyzer.Tokenizer
}

func NewHashingEmbedder(dimension int) *HashingEmbedder {
	return &HashingEmbedder{dimension: dimension, tokenizer: analyzer.NewTokenizer()}
}

func (e *HashingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, e.dimension)
		for _, term := range e.tokenizer.Tokenize(text) {
			h := xxhash.Sum64String(term)
			bucket := h % uint64(e.dimension)
			if h>>63 == 1 {
				vec[bucket]--
			} else {
				vec[bucket]++
			}
		}
		embeddings[i] = vec
	}
	return embeddings, nil
}

func (e *HashingEmbedder) Dimension() int {
	return e.dimension
}

func (e *HashingEmbedder) ModelName() string {
	return "hashing"
}
