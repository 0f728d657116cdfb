package domain

import "time"

// Message roles stored in session history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Session is a logical conversation context. It lives in the KV store under a
// TTL and is refreshed on every validated access, so an idle session expires
// while an active one never does.
type Session struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	MessageCount int       `json:"message_count"`
}

type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChunkMetadata carries the provenance of an indexed news chunk.
type ChunkMetadata struct {
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	OriginLink  string    `json:"origin_link"`
	ChunkIndex  int       `json:"chunk_index"`
	TotalChunks int       `json:"total_chunks"`
}

// DocumentChunk is the unit of ingestion: cleaned article text plus metadata.
// The embedding is computed at index time, not by the producer.
type DocumentChunk struct {
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// SearchResult is one ranked hit from the vector index.
type SearchResult struct {
	Text     string        `json:"text"`
	Score    float64       `json:"score"`
	Metadata ChunkMetadata `json:"metadata"`
}

// Source is the caller-facing provenance record attached to an answer. Text
// is truncated to a short prefix; the full chunk never leaves the index.
type Source struct {
	TextPrefix string        `json:"text_prefix"`
	Score      float64       `json:"score"`
	Metadata   ChunkMetadata `json:"metadata"`
}

type ChatResult struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}
