package service

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractPagesPlainText(t *testing.T) {
	pages, err := extractPages(context.Background(), "note.txt", "text/plain", []byte("line one\n\n  line   two  \n"))
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "line one\nline two", pages[0].text)
	assert.Equal(t, 1, pages[0].page)
}

func TestExtractPagesMarkdownByExtension(t *testing.T) {
	pages, err := extractPages(context.Background(), "README.md", "", []byte("# Heading\nBody text."))
	require.NoError(t, err)
	require.Len(t, pages, 1)
}

func TestExtractPagesDOCX(t *testing.T) {
	docXML := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`
	data := buildDOCX(t, docXML)

	pages, err := extractPages(context.Background(), "report.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", data)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Contains(t, pages[0].text, "First paragraph.")
	assert.Contains(t, pages[0].text, "Second paragraph.")
}

func TestExtractPagesZipWithoutDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("other.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("not a docx"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = extractPages(context.Background(), "archive.zip", "application/zip", buf.Bytes())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractPagesEmptyFile(t *testing.T) {
	_, err := extractPages(context.Background(), "empty.txt", "text/plain", nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractPagesBinaryGarbage(t *testing.T) {
	data := []byte{0x00, 0x01, 0x02, 0xFF, 0xFE, 0x00}
	_, err := extractPages(context.Background(), "blob.bin", "application/octet-stream", data)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestCollapseWhitespace(t *testing.T) {
	in := "  a  b \n\n\n c\td \n"
	assert.Equal(t, "a b\nc d", collapseWhitespace(in))
}
