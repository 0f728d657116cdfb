package vectorindex

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tejaspachgade2315/Voosh/internal/domain"
	"github.com/tejaspachgade2315/Voosh/internal/platform/logger"
)

// Embedder turns texts into fixed-length vectors, one per input, same order.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

type indexedDoc struct {
	Text      string               `json:"text"`
	Embedding []float32            `json:"embedding"`
	Metadata  domain.ChunkMetadata `json:"metadata"`
}

// Index is an exhaustive in-process vector index over news chunks. Queries
// scan every stored embedding; that is O(n*d) and fine for a corpus in the
// thousands, which is the whole design point. Mutation happens during
// offline ingestion, reads at query time, both behind one RWMutex.
type Index struct {
	mu       sync.RWMutex
	log      *logger.Logger
	embedder Embedder
	path     string
	dim      int
	docs     []indexedDoc
}

// New builds an index persisted at path and reloads any previous snapshot.
// A missing or corrupt snapshot is not an error: the index starts empty.
func New(log *logger.Logger, embedder Embedder, path string) (*Index, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("index path required")
	}

	idx := &Index{
		log:      log.With("service", "VectorIndex"),
		embedder: embedder,
		path:     path,
	}
	idx.Reload()
	return idx, nil
}

// AddDocuments embeds the whole batch in one call, then commits all triples
// or none of them. A failed embedding call leaves the index untouched.
func (x *Index) AddDocuments(ctx context.Context, chunks []domain.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}

	vectors, err := x.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embed batch: requested=%d returned=%d", len(chunks), len(vectors))
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	dim := x.dim
	for i, vec := range vectors {
		if len(vec) == 0 {
			return fmt.Errorf("embed batch: empty vector at index %d", i)
		}
		if dim == 0 {
			dim = len(vec)
		}
		if len(vec) != dim {
			return fmt.Errorf("embedding dimension mismatch: expected=%d got=%d", dim, len(vec))
		}
	}

	staged := make([]indexedDoc, len(chunks))
	for i := range chunks {
		staged[i] = indexedDoc{
			Text:      chunks[i].Text,
			Embedding: vectors[i],
			Metadata:  chunks[i].Metadata,
		}
	}

	x.dim = dim
	x.docs = append(x.docs, staged...)

	if err := x.persistLocked(); err != nil {
		x.log.Warn("index persist failed", "error", err, "docs", len(x.docs))
	}
	x.log.Info("documents indexed", "added", len(staged), "total", len(x.docs), "dim", x.dim)
	return nil
}

// Search embeds the query and returns up to topK hits sorted non-increasing
// by cosine similarity. Ties keep insertion order. An empty corpus yields an
// empty slice, never an error.
func (x *Index) Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	if x.Size() == 0 {
		return []domain.SearchResult{}, nil
	}

	vectors, err := x.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embed query: no vector returned")
	}
	q := vectors[0]

	x.mu.RLock()
	defer x.mu.RUnlock()

	results := make([]domain.SearchResult, 0, len(x.docs))
	for _, doc := range x.docs {
		results = append(results, domain.SearchResult{
			Text:     doc.Text,
			Score:    cosine(q, doc.Embedding),
			Metadata: doc.Metadata,
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Clear drops every document and persists the empty state.
func (x *Index) Clear() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.docs = nil
	x.dim = 0
	if err := x.persistLocked(); err != nil {
		x.log.Warn("index persist failed after clear", "error", err)
	}
}

func (x *Index) Size() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.docs)
}

// Dim reports the embedding dimensionality, 0 while the index is empty.
func (x *Index) Dim() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dim
}
