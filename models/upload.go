package models

import (
	"time"

	"github.com/google/uuid"
)

// UploadedDocument represents a file uploaded for chat, after ingestion.
// The original bytes are retained in storage; the extracted text lives in
// the chunk index under ChunkKindUpload.
type UploadedDocument struct {
	ID          uuid.UUID `json:"id"`
	Filename    string    `json:"filename"`
	Title       string    `json:"title"`
	MimeType    string    `json:"mime_type"`
	Size        int64     `json:"size"`
	StoragePath string    `json:"storage_path"`
	TotalPages  int       `json:"total_pages"`
	ChunkCount  int       `json:"chunk_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// ContactMessage is a stored contact-form submission
type ContactMessage struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Recipe is a generated recipe suggestion
type Recipe struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	Tags         []string `json:"tags"`
}
