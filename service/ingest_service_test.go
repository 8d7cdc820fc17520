package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"rarebridge-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIngestService(uploads *fakeUploadStore, chunks *fakeChunkStore) *IngestService {
	return NewIngestService(
		IngestWithUploadStore(uploads),
		IngestWithChunkStore(chunks),
		IngestWithEmbedder(&fakeEmbedder{}),
	)
}

func TestUploadDocumentPlainText(t *testing.T) {
	uploads := newFakeUploadStore()
	chunks := newFakeChunkStore()
	svc := newTestIngestService(uploads, chunks)

	data := []byte("A short note about medication schedules. Nothing else here.")
	upload, err := svc.UploadDocument(context.Background(), "notes.txt", "text/plain", data)
	require.NoError(t, err)

	assert.Equal(t, "notes", upload.Title)
	assert.Equal(t, int64(len(data)), upload.Size)
	assert.Equal(t, 1, upload.TotalPages)
	assert.Equal(t, 1, upload.ChunkCount)

	require.Len(t, chunks.inserted, 1)
	chunk := chunks.inserted[0]
	assert.Equal(t, upload.ID, chunk.DocumentID)
	assert.Equal(t, models.ChunkKindUpload, chunk.Kind)
	assert.Equal(t, 0, chunk.ChunkIndex)
}

func TestUploadDocumentChunkIndexesContiguous(t *testing.T) {
	uploads := newFakeUploadStore()
	chunks := newFakeChunkStore()
	svc := newTestIngestService(uploads, chunks)

	// Long enough to split into several chunks
	var b strings.Builder
	for i := 0; i < 200; i++ {
		b.WriteString("This sentence pads the document with searchable text. ")
	}
	upload, err := svc.UploadDocument(context.Background(), "long.txt", "text/plain", []byte(b.String()))
	require.NoError(t, err)

	require.Greater(t, upload.ChunkCount, 1)
	require.Len(t, chunks.inserted, upload.ChunkCount)
	for i, chunk := range chunks.inserted {
		assert.Equal(t, i, chunk.ChunkIndex)
	}
}

func TestUploadDocumentTooLarge(t *testing.T) {
	svc := newTestIngestService(newFakeUploadStore(), newFakeChunkStore())

	data := bytes.Repeat([]byte("x"), MaxUploadSize+1)
	_, err := svc.UploadDocument(context.Background(), "big.txt", "text/plain", data)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestUploadDocumentUnsupportedFormat(t *testing.T) {
	svc := newTestIngestService(newFakeUploadStore(), newFakeChunkStore())

	// PNG magic bytes: neither PDF, zip, nor printable text
	data := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x01, 0x02}
	_, err := svc.UploadDocument(context.Background(), "image.png", "image/png", data)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestUploadDocumentExpiredWindowIsProcessingTimeout(t *testing.T) {
	uploads := newFakeUploadStore()
	chunks := newFakeChunkStore()
	svc := newTestIngestService(uploads, chunks)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := svc.UploadDocument(ctx, "notes.txt", "text/plain", []byte("Some text."))
	assert.ErrorIs(t, err, ErrProcessingTimeout)
	assert.Empty(t, uploads.uploads)
	assert.Empty(t, chunks.inserted)
}

func TestUploadDocumentEmbeddingFailureLeavesNoRecord(t *testing.T) {
	uploads := newFakeUploadStore()
	chunks := newFakeChunkStore()
	svc := NewIngestService(
		IngestWithUploadStore(uploads),
		IngestWithChunkStore(chunks),
		IngestWithEmbedder(&fakeEmbedder{err: ErrUpstreamUnavailable}),
	)

	_, err := svc.UploadDocument(context.Background(), "notes.txt", "text/plain", []byte("Some text."))
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Empty(t, uploads.uploads)
	assert.Empty(t, chunks.inserted)
}

func TestChunkPagesShortPage(t *testing.T) {
	pieces := chunkPages([]pageText{{text: "One short page.", page: 1}})
	require.Len(t, pieces, 1)
	assert.Equal(t, "One short page.", pieces[0].text)
	assert.Equal(t, 1, pieces[0].page)
}

func TestChunkPagesSkipsBlankPages(t *testing.T) {
	pieces := chunkPages([]pageText{
		{text: "  \n ", page: 1},
		{text: "Real content.", page: 2},
	})
	require.Len(t, pieces, 1)
	assert.Equal(t, 2, pieces[0].page)
}

func TestChunkPagesSplitsWithOverlap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 80; i++ {
		b.WriteString("Every chunk should end near a sentence boundary when it can. ")
	}
	pieces := chunkPages([]pageText{{text: b.String(), page: 3}})
	require.Greater(t, len(pieces), 1)

	for _, piece := range pieces {
		assert.LessOrEqual(t, len(piece.text), chunkSize)
		assert.Equal(t, 3, piece.page)
	}

	// Consecutive chunks share trailing/leading text
	first, second := pieces[0], pieces[1]
	tail := first.text[len(first.text)-50:]
	assert.Contains(t, second.text, strings.TrimSpace(tail)[:20])
}

func TestChunkPagesKeepsMultiByteRunesIntact(t *testing.T) {
	// Three-byte runes and no sentence boundaries, so every split lands
	// inside the raw text
	text := strings.Repeat("病", chunkSize*2+100)
	pieces := chunkPages([]pageText{{text: text, page: 1}})
	require.Greater(t, len(pieces), 1)

	for i, piece := range pieces {
		assert.True(t, utf8.ValidString(piece.text), "chunk %d is not valid UTF-8", i)
		assert.LessOrEqual(t, utf8.RuneCountInString(piece.text), chunkSize)
	}
}

func TestChunkPagesMultiByteOverlapContinuity(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 120; i++ {
		b.WriteString("Chaque résumé décrit une démarche médicale déjà vérifiée. ")
	}
	pieces := chunkPages([]pageText{{text: b.String(), page: 1}})
	require.Greater(t, len(pieces), 1)

	for _, piece := range pieces {
		require.True(t, utf8.ValidString(piece.text))
	}

	first := []rune(pieces[0].text)
	tail := strings.TrimSpace(string(first[len(first)-50:]))
	assert.Contains(t, pieces[1].text, string([]rune(tail)[:20]))
}

func TestChunkPagesPrefersSentenceBoundary(t *testing.T) {
	sentence := "This sentence is exactly the kind of unit the splitter should respect. "
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString(sentence)
	}
	pieces := chunkPages([]pageText{{text: b.String(), page: 1}})
	require.Greater(t, len(pieces), 1)
	assert.True(t, strings.HasSuffix(pieces[0].text, "."))
}
