package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"rarebridge-backend/models"
)

// ContactStore abstracts contact-message persistence
type ContactStore interface {
	Create(ctx context.Context, msg *models.ContactMessage) error
}

// ContactService validates and stores contact-form submissions
type ContactService struct {
	store ContactStore
}

// NewContactService creates a new contact service
func NewContactService(store ContactStore) *ContactService {
	return &ContactService{store: store}
}

// Submit validates and stores a contact message
func (s *ContactService) Submit(ctx context.Context, msg *models.ContactMessage) error {
	msg.Name = strings.TrimSpace(msg.Name)
	msg.Message = strings.TrimSpace(msg.Message)
	if msg.Name == "" || msg.Message == "" {
		return fmt.Errorf("%w: name and message are required", ErrValidation)
	}
	if _, err := mail.ParseAddress(msg.Email); err != nil {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}

	if err := s.store.Create(ctx, msg); err != nil {
		return fmt.Errorf("failed to store contact message: %w", err)
	}
	return nil
}
