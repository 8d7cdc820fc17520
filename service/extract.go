package service

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pageText is extracted text tagged with its 1-indexed source page
type pageText struct {
	text string
	page int
}

// extractPages sniffs the true file type from its bytes and extracts text
// page by page. Supported: PDF, DOCX, plain text / markdown. Extraction
// checks ctx between pages so a pathological file cannot hold the ingestion
// window open.
func extractPages(ctx context.Context, filename, mimeType string, data []byte) ([]pageText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrUnsupportedFormat)
	}

	if isPDF(data) {
		return extractPDFPages(ctx, data)
	}
	if isZip(data) {
		text, err := extractDOCX(data)
		if err != nil {
			return nil, err
		}
		return []pageText{{text: text, page: 1}}, nil
	}

	ext := strings.ToLower(filepath.Ext(filename))
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if isProbablyText(data) || strings.HasPrefix(mt, "text/") || ext == ".txt" || ext == ".md" {
		return []pageText{{text: collapseWhitespace(string(data)), page: 1}}, nil
	}

	return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, filename, mimeType)
}

func isPDF(b []byte) bool {
	return len(b) >= 5 && string(b[:5]) == "%PDF-"
}

func isZip(b []byte) bool {
	return len(b) >= 4 && b[0] == 'P' && b[1] == 'K' && b[2] == 3 && b[3] == 4
}

func isProbablyText(b []byte) bool {
	sample := b
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	good := 0
	for _, c := range sample {
		if c == 0x00 {
			return false
		}
		if c == '\n' || c == '\r' || c == '\t' || (c >= 0x20 && c <= 0x7E) || c >= 0x80 {
			good++
		}
	}
	return len(sample) > 0 && good*10 >= len(sample)*9
}

func extractPDFPages(ctx context.Context, data []byte) ([]pageText, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: pdf reader: %v", ErrUnsupportedFormat, err)
	}

	var pages []pageText
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		text = collapseWhitespace(text)
		if text != "" {
			pages = append(pages, pageText{text: text, page: i})
		}
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no text could be extracted from the PDF", ErrUnsupportedFormat)
	}
	return pages, nil
}

// extractDOCX pulls the document body text out of the OOXML container
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: invalid zip container: %v", ErrUnsupportedFormat, err)
	}

	var docXML []byte
	for _, file := range zr.File {
		if file.Name == "word/document.xml" {
			rc, err := file.Open()
			if err != nil {
				return "", fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
			}
			docXML, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return "", fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
			}
			break
		}
	}
	if docXML == nil {
		return "", fmt.Errorf("%w: zip is not a docx", ErrUnsupportedFormat)
	}

	var builder strings.Builder
	decoder := xml.NewDecoder(bytes.NewReader(docXML))
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		switch t := token.(type) {
		case xml.CharData:
			builder.Write(t)
		case xml.EndElement:
			// Paragraph boundaries become newlines
			if t.Name.Local == "p" {
				builder.WriteString("\n")
			}
		}
	}

	text := collapseWhitespace(builder.String())
	if text == "" {
		return "", fmt.Errorf("%w: no text could be extracted from the docx", ErrUnsupportedFormat)
	}
	return text, nil
}

func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
