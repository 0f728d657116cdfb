package jina

import (
	"context"

	"github.com/tejaspachgade2315/Voosh/internal/platform/logger"
)

// Resilient degrades to the local embedder when the remote API fails. The
// failure is logged, never surfaced: retrieval keeps working on degraded
// vectors rather than taking the request down.
type Resilient struct {
	log     *logger.Logger
	primary Client
	local   *LocalEmbedder
}

func WithFallback(log *logger.Logger, primary Client, local *LocalEmbedder) *Resilient {
	return &Resilient{
		log:     log.With("service", "ResilientEmbedder"),
		primary: primary,
		local:   local,
	}
}

func (r *Resilient) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if r.primary != nil {
		out, err := r.primary.Embed(ctx, inputs)
		if err == nil {
			return out, nil
		}
		r.log.Warn("embedding API unavailable, using local fallback", "error", err, "inputs", len(inputs))
	}
	return r.local.Embed(ctx, inputs)
}
