package ingestion

import (
	"strings"

	"github.com/tejaspachgade2315/Voosh/internal/domain"
)

const (
	defaultChunkSize    = 1200
	defaultChunkOverlap = 200
)

// Chunker splits article text into overlapping word-boundary chunks. Size
// and overlap are measured in characters of the joined text.
type Chunker struct {
	size    int
	overlap int
}

func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = defaultChunkOverlap
		if overlap >= size {
			overlap = size / 4
		}
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split turns one article into document chunks carrying its provenance.
func (c *Chunker) Split(article Article) []domain.DocumentChunk {
	pieces := c.splitText(article.Text)
	out := make([]domain.DocumentChunk, 0, len(pieces))
	for i, piece := range pieces {
		out = append(out, domain.DocumentChunk{
			Text: piece,
			Metadata: domain.ChunkMetadata{
				Title:       article.Title,
				Source:      article.Source,
				PublishedAt: article.PublishedAt,
				OriginLink:  article.Link,
				ChunkIndex:  i,
				TotalChunks: len(pieces),
			},
		})
	}
	return out
}

func (c *Chunker) splitText(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentLen := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(current, " "))

		// Seed the next chunk with the tail of this one for continuity.
		var tail []string
		tailLen := 0
		for i := len(current) - 1; i >= 0; i-- {
			w := current[i]
			if tailLen+len(w)+1 > c.overlap {
				break
			}
			tail = append([]string{w}, tail...)
			tailLen += len(w) + 1
		}
		current = tail
		currentLen = tailLen
	}

	for _, w := range words {
		if currentLen+len(w)+1 > c.size && currentLen > 0 {
			flush()
		}
		current = append(current, w)
		currentLen += len(w) + 1
	}
	if len(current) > 0 {
		// Skip a trailing chunk that is pure overlap of the previous one.
		last := strings.Join(current, " ")
		if len(chunks) == 0 || !strings.HasSuffix(chunks[len(chunks)-1], last) {
			chunks = append(chunks, last)
		}
	}
	return chunks
}
