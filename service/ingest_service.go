package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"rarebridge-backend/models"
	"rarebridge-backend/storage"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

const (
	// MaxUploadSize is the ingestion size ceiling
	MaxUploadSize = 10 * 1024 * 1024

	chunkSize     = 1000
	chunkOverlap  = 200
	ingestTimeout = 60 * time.Second
)

// IngestService turns an uploaded file into a chat-ready chunk index
type IngestService struct {
	uploads  UploadStore
	chunks   ChunkStore
	embedder Embedder
	files    storage.Storage
}

// IngestServiceOption is a functional option for IngestService
type IngestServiceOption func(*IngestService)

// IngestWithUploadStore sets the upload store
func IngestWithUploadStore(store UploadStore) IngestServiceOption {
	return func(s *IngestService) {
		s.uploads = store
	}
}

// IngestWithChunkStore sets the chunk store
func IngestWithChunkStore(store ChunkStore) IngestServiceOption {
	return func(s *IngestService) {
		s.chunks = store
	}
}

// IngestWithEmbedder sets the embedding provider
func IngestWithEmbedder(embedder Embedder) IngestServiceOption {
	return func(s *IngestService) {
		s.embedder = embedder
	}
}

// IngestWithFileStorage sets the storage backend that retains original files
func IngestWithFileStorage(files storage.Storage) IngestServiceOption {
	return func(s *IngestService) {
		s.files = files
	}
}

// NewIngestService creates a new ingest service
func NewIngestService(opts ...IngestServiceOption) *IngestService {
	s := &IngestService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UploadDocument extracts, chunks and embeds a file, persists the upload
// record plus its chunk index, and retains the original bytes in storage.
// The whole pipeline runs inside a bounded window; overrunning it fails
// with ErrProcessingTimeout.
func (s *IngestService) UploadDocument(ctx context.Context, filename, mimeType string, data []byte) (*models.UploadedDocument, error) {
	if int64(len(data)) > MaxUploadSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrFileTooLarge, MaxUploadSize)
	}

	ctx, cancel := context.WithTimeout(ctx, ingestTimeout)
	defer cancel()

	pages, err := extractPages(ctx, filename, mimeType, data)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: extraction did not finish in time", ErrProcessingTimeout)
		}
		return nil, err
	}

	pieces := chunkPages(pages)
	if len(pieces) == 0 {
		return nil, fmt.Errorf("%w: document contains no usable text", ErrUnsupportedFormat)
	}

	texts := make([]string, len(pieces))
	for i, piece := range pieces {
		texts[i] = piece.text
	}

	embeddings, err := s.embedder.EmbedPassages(ctx, texts)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: embedding did not finish in time", ErrProcessingTimeout)
		}
		return nil, err
	}

	fileID := uuid.New()
	storagePath := ""
	if s.files != nil {
		storagePath, err = s.files.Upload(ctx, fileID, filename, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to retain original file: %w", err)
		}
	}

	upload := &models.UploadedDocument{
		Filename:    filename,
		Title:       titleFromFilename(filename),
		MimeType:    mimeType,
		Size:        int64(len(data)),
		StoragePath: storagePath,
		TotalPages:  lastPage(pages),
		ChunkCount:  len(pieces),
	}

	if err := s.uploads.Create(ctx, upload); err != nil {
		s.cleanupFile(storagePath)
		return nil, fmt.Errorf("failed to create upload record: %w", err)
	}

	chunks := make([]*models.DocumentChunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = &models.DocumentChunk{
			DocumentID: upload.ID,
			Kind:       models.ChunkKindUpload,
			ChunkIndex: i,
			PageNumber: piece.page,
			Content:    piece.text,
			Embedding:  pgvector.NewVector(embeddings[i]),
		}
	}

	if err := s.chunks.InsertBatch(ctx, chunks); err != nil {
		if delErr := s.uploads.Delete(context.Background(), upload.ID); delErr != nil {
			zap.S().Warnw("failed to clean up upload record", "upload_id", upload.ID, "error", delErr)
		}
		s.cleanupFile(storagePath)
		return nil, fmt.Errorf("failed to store chunks: %w", err)
	}

	return upload, nil
}

func (s *IngestService) cleanupFile(storagePath string) {
	if s.files == nil || storagePath == "" {
		return
	}
	if err := s.files.Delete(context.Background(), storagePath); err != nil {
		zap.S().Warnw("failed to clean up stored file", "path", storagePath, "error", err)
	}
}

func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func lastPage(pages []pageText) int {
	if len(pages) == 0 {
		return 0
	}
	return pages[len(pages)-1].page
}

// chunkPiece is one retrieval unit produced by the chunker
type chunkPiece struct {
	text string
	page int
}

// chunkPages splits extracted pages into overlapping chunks, preferring to
// break at sentence or line boundaries past the midpoint. Sizes and offsets
// are measured in runes so multi-byte text never gets split mid-character.
// Page attribution follows the page a chunk started on.
func chunkPages(pages []pageText) []chunkPiece {
	var pieces []chunkPiece

	for _, pt := range pages {
		text := strings.TrimSpace(pt.text)
		if text == "" {
			continue
		}
		runes := []rune(text)
		if len(runes) <= chunkSize {
			pieces = append(pieces, chunkPiece{text: text, page: pt.page})
			continue
		}

		start := 0
		for start < len(runes) {
			end := start + chunkSize
			if end >= len(runes) {
				end = len(runes)
			} else if boundary := lastBreak(runes[start:end]); boundary > chunkSize/2 {
				end = start + boundary + 1
			}

			piece := strings.TrimSpace(string(runes[start:end]))
			if piece != "" {
				pieces = append(pieces, chunkPiece{text: piece, page: pt.page})
			}

			if end >= len(runes) {
				break
			}
			start = end - chunkOverlap
		}
	}

	return pieces
}

// lastBreak returns the rune index of the last sentence or line break in
// window, or -1 when there is none.
func lastBreak(window []rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == '.' || window[i] == '\n' {
			return i
		}
	}
	return -1
}
