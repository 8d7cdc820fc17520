package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentStatus represents the moderation status of a knowledge document
type DocumentStatus string

const (
	StatusPending  DocumentStatus = "pending"
	StatusApproved DocumentStatus = "approved"
	StatusRejected DocumentStatus = "rejected"
)

// ModerationAction is the decision applied to a pending document
type ModerationAction string

const (
	ActionApprove ModerationAction = "approved"
	ActionReject  ModerationAction = "rejected"
)

// Valid reports whether the action is one of the two defined decisions
func (a ModerationAction) Valid() bool {
	return a == ActionApprove || a == ActionReject
}

// Document represents a knowledge base document entity
type Document struct {
	ID          uuid.UUID      `json:"id"`
	Title       string         `json:"title"`
	Content     *string        `json:"content,omitempty"`
	DocumentURL *string        `json:"document_url,omitempty"`
	AuthorEmail string         `json:"author_email"`
	AuthorName  *string        `json:"author_name,omitempty"`
	Category    *string        `json:"category,omitempty"`
	Tags        []string       `json:"tags"`
	ViewCount   int            `json:"view_count"`
	Status      DocumentStatus `json:"status"`
	ApprovedAt  *time.Time     `json:"approved_at,omitempty"`
	ApprovedBy  *uuid.UUID     `json:"approved_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// VisibleTo reports whether the document may be served to the given identity.
// Approved documents are public; pending/rejected ones are only visible to
// admins and to the submitting author.
func (d *Document) VisibleTo(identity *Identity) bool {
	if d.Status == StatusApproved {
		return true
	}
	if identity == nil {
		return false
	}
	return identity.Role == RoleAdmin || identity.Email == d.AuthorEmail
}

// ModerationEvent is the audit record written for every moderation decision
type ModerationEvent struct {
	ID         uuid.UUID        `json:"id"`
	DocumentID uuid.UUID        `json:"document_id"`
	ActorID    uuid.UUID        `json:"actor_id"`
	Action     ModerationAction `json:"action"`
	Reason     *string          `json:"reason,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// SearchPage is one page of search results plus pagination metadata
type SearchPage struct {
	Items      []*Document `json:"items"`
	Page       int         `json:"page"`
	PerPage    int         `json:"per_page"`
	Total      int         `json:"total"`
	TotalPages int         `json:"total_pages"`
}
