package repository

import (
	"context"
	"errors"
	"fmt"

	"rarebridge-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a queried row does not exist
var ErrNotFound = errors.New("row not found")

// ErrNotPending is returned by ModeratePending when the document exists but
// is no longer in pending status
var ErrNotPending = errors.New("document is not pending")

const documentColumns = `id, title, content, document_url, author_email, author_name,
	category, tags, view_count, status, approved_at, approved_by, created_at, updated_at`

// DocumentRepository handles database operations for knowledge documents
type DocumentRepository struct {
	db *pgxpool.Pool
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func scanDocument(row pgx.Row) (*models.Document, error) {
	doc := &models.Document{}
	err := row.Scan(
		&doc.ID,
		&doc.Title,
		&doc.Content,
		&doc.DocumentURL,
		&doc.AuthorEmail,
		&doc.AuthorName,
		&doc.Category,
		&doc.Tags,
		&doc.ViewCount,
		&doc.Status,
		&doc.ApprovedAt,
		&doc.ApprovedBy,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	return doc, nil
}

// Create inserts a new document in pending status
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO knowledge_documents (
			title, content, document_url, author_email, author_name, category, tags, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		) RETURNING id, view_count, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		doc.Title,
		doc.Content,
		doc.DocumentURL,
		doc.AuthorEmail,
		doc.AuthorName,
		doc.Category,
		doc.Tags,
		doc.Status,
	).Scan(&doc.ID, &doc.ViewCount, &doc.CreatedAt, &doc.UpdatedAt)

	return err
}

// GetByID retrieves a document by ID regardless of status
func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM knowledge_documents WHERE id = $1`, documentColumns)
	return scanDocument(r.db.QueryRow(ctx, query, id))
}

// Search returns one page of approved documents matching the query. An empty
// query matches every approved document. Ordering is text relevance over
// title+content first, newest first on equal rank.
func (r *DocumentRepository) Search(ctx context.Context, q string, category *string, limit, offset int) ([]*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM knowledge_documents
		WHERE status = 'approved'
			AND ($1 = '' OR title ILIKE '%%' || $1 || '%%' OR content ILIKE '%%' || $1 || '%%')
			AND ($2::text IS NULL OR category = $2)
		ORDER BY
			ts_rank(
				to_tsvector('english', title || ' ' || coalesce(content, '')),
				plainto_tsquery('english', $1)
			) DESC,
			created_at DESC
		LIMIT $3 OFFSET $4`, documentColumns)

	rows, err := r.db.Query(ctx, query, q, category, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// CountSearch returns the total number of approved documents matching the query
func (r *DocumentRepository) CountSearch(ctx context.Context, q string, category *string) (int, error) {
	query := `
		SELECT count(*)
		FROM knowledge_documents
		WHERE status = 'approved'
			AND ($1 = '' OR title ILIKE '%' || $1 || '%' OR content ILIKE '%' || $1 || '%')
			AND ($2::text IS NULL OR category = $2)`

	var total int
	if err := r.db.QueryRow(ctx, query, q, category).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// ListPending retrieves all pending documents, newest first
func (r *DocumentRepository) ListPending(ctx context.Context) ([]*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM knowledge_documents
		WHERE status = 'pending'
		ORDER BY created_at DESC`, documentColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// ListPopular retrieves the most viewed approved documents
func (r *DocumentRepository) ListPopular(ctx context.Context, limit int) ([]*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM knowledge_documents
		WHERE status = 'approved'
		ORDER BY view_count DESC, created_at DESC
		LIMIT $1`, documentColumns)

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDocuments(rows)
}

// ListCategories returns the distinct categories across approved documents
func (r *DocumentRepository) ListCategories(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT category
		FROM knowledge_documents
		WHERE status = 'approved' AND category IS NOT NULL
		ORDER BY category`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// IncrementViewCount bumps the view counter by one. The update is a single
// atomic SQL statement, so concurrent increments are never lost.
func (r *DocumentRepository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE knowledge_documents SET view_count = view_count + 1 WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

// ModeratePending applies a moderation decision to a document that is still
// pending. The status predicate in the WHERE clause makes the transition a
// conditional update: of two concurrent moderations only one row update
// succeeds. Returns ErrNotFound if the id does not exist and ErrNotPending
// if the document has already reached a terminal status.
func (r *DocumentRepository) ModeratePending(ctx context.Context, id uuid.UUID, action models.ModerationAction, actorID uuid.UUID) (*models.Document, error) {
	query := fmt.Sprintf(`
		UPDATE knowledge_documents SET
			status = $2,
			approved_at = CASE WHEN $2 = 'approved' THEN NOW() END,
			approved_by = CASE WHEN $2 = 'approved' THEN $3::uuid END,
			updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
		RETURNING %s`, documentColumns)

	doc, err := scanDocument(r.db.QueryRow(ctx, query, id, action, actorID))
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	// No pending row was updated: distinguish a missing document from one
	// already moderated.
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrNotPending
}

func collectDocuments(rows pgx.Rows) ([]*models.Document, error) {
	docs := []*models.Document{}
	for rows.Next() {
		doc := &models.Document{}
		err := rows.Scan(
			&doc.ID,
			&doc.Title,
			&doc.Content,
			&doc.DocumentURL,
			&doc.AuthorEmail,
			&doc.AuthorName,
			&doc.Category,
			&doc.Tags,
			&doc.ViewCount,
			&doc.Status,
			&doc.ApprovedAt,
			&doc.ApprovedBy,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if doc.Tags == nil {
			doc.Tags = []string{}
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
