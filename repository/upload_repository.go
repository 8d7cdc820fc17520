package repository

import (
	"context"
	"errors"

	"rarebridge-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UploadRepository handles database operations for uploaded documents
type UploadRepository struct {
	db *pgxpool.Pool
}

// NewUploadRepository creates a new upload repository
func NewUploadRepository(db *pgxpool.Pool) *UploadRepository {
	return &UploadRepository{db: db}
}

// Create creates a new uploaded document record
func (r *UploadRepository) Create(ctx context.Context, upload *models.UploadedDocument) error {
	query := `
		INSERT INTO uploaded_documents (
			filename, title, mime_type, size, storage_path, total_pages, chunk_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRow(
		ctx, query,
		upload.Filename,
		upload.Title,
		upload.MimeType,
		upload.Size,
		upload.StoragePath,
		upload.TotalPages,
		upload.ChunkCount,
	).Scan(&upload.ID, &upload.CreatedAt)

	return err
}

// GetByID retrieves an uploaded document by ID
func (r *UploadRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UploadedDocument, error) {
	upload := &models.UploadedDocument{}
	query := `
		SELECT id, filename, title, mime_type, size, storage_path, total_pages, chunk_count, created_at
		FROM uploaded_documents
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&upload.ID,
		&upload.Filename,
		&upload.Title,
		&upload.MimeType,
		&upload.Size,
		&upload.StoragePath,
		&upload.TotalPages,
		&upload.ChunkCount,
		&upload.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return upload, nil
}

// Delete removes an uploaded document record
func (r *UploadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM uploaded_documents WHERE id = $1`, id)
	return err
}
