package repository

import (
	"context"

	"rarebridge-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ModerationEventRepository handles the moderation audit log
type ModerationEventRepository struct {
	db *pgxpool.Pool
}

// NewModerationEventRepository creates a new moderation event repository
func NewModerationEventRepository(db *pgxpool.Pool) *ModerationEventRepository {
	return &ModerationEventRepository{db: db}
}

// Record appends an audit entry for a moderation decision
func (r *ModerationEventRepository) Record(ctx context.Context, event *models.ModerationEvent) error {
	query := `
		INSERT INTO moderation_events (document_id, actor_id, action, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return r.db.QueryRow(
		ctx, query,
		event.DocumentID,
		event.ActorID,
		event.Action,
		event.Reason,
	).Scan(&event.ID, &event.CreatedAt)
}

// ListByDocument returns the audit trail for a document, oldest first
func (r *ModerationEventRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]*models.ModerationEvent, error) {
	query := `
		SELECT id, document_id, actor_id, action, reason, created_at
		FROM moderation_events
		WHERE document_id = $1
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.ModerationEvent
	for rows.Next() {
		event := &models.ModerationEvent{}
		err := rows.Scan(
			&event.ID,
			&event.DocumentID,
			&event.ActorID,
			&event.Action,
			&event.Reason,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
