package repository

import (
	"context"
	"fmt"

	"rarebridge-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// EmbeddingDim is the fixed dimensionality of stored chunk vectors
const EmbeddingDim = 768

// ChunkRepository handles database operations for document chunks
type ChunkRepository struct {
	db *pgxpool.Pool
}

// NewChunkRepository creates a new chunk repository
func NewChunkRepository(db *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// InsertBatch stores a document's chunks. Chunk indexes must be contiguous
// from zero; the caller is responsible for ordering.
func (r *ChunkRepository) InsertBatch(ctx context.Context, chunks []*models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO document_chunks (
			document_id, kind, chunk_index, page_number, content, embedding
		) VALUES ($1, $2, $3, $4, $5, $6)`

	for _, chunk := range chunks {
		if len(chunk.Embedding.Slice()) != EmbeddingDim {
			return fmt.Errorf("embedding must be %d dimensions, got %d", EmbeddingDim, len(chunk.Embedding.Slice()))
		}
		batch.Queue(query,
			chunk.DocumentID,
			chunk.Kind,
			chunk.ChunkIndex,
			chunk.PageNumber,
			chunk.Content,
			chunk.Embedding,
		)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range chunks {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
	}
	return nil
}

// SearchUploaded performs a nearest-neighbor search restricted to one
// uploaded document's chunks. Similarity is 1 - cosine distance, floored
// at zero so the reported score stays in [0,1].
func (r *ChunkRepository) SearchUploaded(ctx context.Context, documentID uuid.UUID, embedding []float32, limit int) ([]*models.DocumentChunk, error) {
	query := `
		SELECT
			dc.id, dc.document_id, dc.kind, dc.chunk_index, dc.page_number, dc.content,
			GREATEST(0, 1 - (dc.embedding <=> $2)) AS similarity,
			ud.title, NULL::text
		FROM document_chunks dc
		JOIN uploaded_documents ud ON ud.id = dc.document_id
		WHERE dc.kind = 'upload' AND dc.document_id = $1
		ORDER BY dc.embedding <=> $2
		LIMIT $3`

	return r.searchChunks(ctx, query, documentID, vectorArg(embedding), limit)
}

// SearchKnowledge performs a nearest-neighbor search across the chunks of
// every approved knowledge document.
func (r *ChunkRepository) SearchKnowledge(ctx context.Context, embedding []float32, limit int) ([]*models.DocumentChunk, error) {
	query := `
		SELECT
			dc.id, dc.document_id, dc.kind, dc.chunk_index, dc.page_number, dc.content,
			GREATEST(0, 1 - (dc.embedding <=> $1)) AS similarity,
			kd.title, kd.author_name
		FROM document_chunks dc
		JOIN knowledge_documents kd ON kd.id = dc.document_id
		WHERE dc.kind = 'knowledge' AND kd.status = 'approved'
		ORDER BY dc.embedding <=> $1
		LIMIT $2`

	return r.searchChunks(ctx, query, vectorArg(embedding), limit)
}

// CountByDocument returns how many chunks exist for a document
func (r *ChunkRepository) CountByDocument(ctx context.Context, documentID uuid.UUID, kind models.ChunkKind) (int, error) {
	var count int
	query := `SELECT count(*) FROM document_chunks WHERE document_id = $1 AND kind = $2`
	if err := r.db.QueryRow(ctx, query, documentID, kind).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteByDocument removes a document's chunks. Chunks are immutable; this
// is the only write after insertion.
func (r *ChunkRepository) DeleteByDocument(ctx context.Context, documentID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID)
	return err
}

func vectorArg(embedding []float32) pgvector.Vector {
	return pgvector.NewVector(embedding)
}

func (r *ChunkRepository) searchChunks(ctx context.Context, query string, args ...interface{}) ([]*models.DocumentChunk, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []*models.DocumentChunk
	for rows.Next() {
		chunk := &models.DocumentChunk{}
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.Kind,
			&chunk.ChunkIndex,
			&chunk.PageNumber,
			&chunk.Content,
			&chunk.Similarity,
			&chunk.SourceTitle,
			&chunk.SourceName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chunks: %w", err)
	}
	return chunks, nil
}
