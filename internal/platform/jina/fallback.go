package jina

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// LocalEmbedder is the degraded offline embedder: each token hashes into a
// bucket of a fixed-dimension vector, which is then L2-normalized. Output
// dimensionality matches the remote model so vectors stay index-compatible.
// Quality is poor but deterministic, which keeps retrieval functional when
// the embedding API is down.
type LocalEmbedder struct {
	dim int
}

func NewLocalEmbedder(dim int) *LocalEmbedder {
	if dim <= 0 {
		dim = 768
	}
	return &LocalEmbedder{dim: dim}
}

func (e *LocalEmbedder) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i, text := range inputs {
		out[i] = e.embedOne(text)
	}
	return out, nil
}

func (e *LocalEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, e.dim)
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return vec
	}

	for _, tok := range tokens {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum32()
		bucket := int(sum % uint32(e.dim))
		// Alternate sign off one hash bit so common tokens don't all pile
		// onto the positive axis.
		if sum&0x80000000 != 0 {
			vec[bucket] -= 1
		} else {
			vec[bucket] += 1
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	inv := float32(1.0 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
