package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// ChunkKind distinguishes chunks of the approved knowledge base from chunks
// of a document uploaded for a single chat session
type ChunkKind string

const (
	ChunkKindKnowledge ChunkKind = "knowledge"
	ChunkKindUpload    ChunkKind = "upload"
)

// DocumentChunk represents a contiguous slice of a document's text paired
// with its embedding. Chunk indexes are contiguous from zero within a
// document; chunks are never mutated after creation.
type DocumentChunk struct {
	ID         uuid.UUID       `json:"id"`
	DocumentID uuid.UUID       `json:"document_id"`
	Kind       ChunkKind       `json:"kind"`
	ChunkIndex int             `json:"chunk_index"`
	PageNumber int             `json:"page_number"`
	Content    string          `json:"content"`
	Embedding  pgvector.Vector `json:"-"`
	CreatedAt  time.Time       `json:"created_at"`

	// Search metadata, populated by similarity queries only
	Similarity  float64 `json:"similarity,omitempty"`
	SourceTitle string  `json:"source_title,omitempty"`
	SourceName  *string `json:"source_name,omitempty"`
}
