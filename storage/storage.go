package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage retains the original bytes of uploaded documents. The extracted
// text lives in the database; this is only the raw file.
type Storage interface {
	// Upload stores a file and returns its storage path
	Upload(ctx context.Context, fileID uuid.UUID, filename string, data io.Reader) (string, error)

	// Download retrieves a file by storage path
	Download(ctx context.Context, storagePath string) (io.ReadCloser, error)

	// Delete removes a file by storage path
	Delete(ctx context.Context, storagePath string) error
}

// NewFromEnv selects a backend from STORAGE_TYPE: "local" (default) keeps
// files under STORAGE_LOCAL_PATH, "s3" uses AWS_S3_BUCKET.
func NewFromEnv() (Storage, error) {
	switch backend := os.Getenv("STORAGE_TYPE"); backend {
	case "", "local":
		basePath := os.Getenv("STORAGE_LOCAL_PATH")
		if basePath == "" {
			basePath = "./data/uploads"
		}
		return NewLocalStorage(basePath)

	case "s3":
		bucket := os.Getenv("AWS_S3_BUCKET")
		if bucket == "" {
			return nil, errors.New("AWS_S3_BUCKET is required for S3 storage")
		}
		region := os.Getenv("AWS_REGION")
		if region == "" {
			region = "us-east-1"
		}
		return NewS3Storage(bucket, region)

	default:
		return nil, fmt.Errorf("unknown storage type: %s", backend)
	}
}

// objectKey builds a unique storage path for a file, sharded on the first
// byte of the file ID
func objectKey(fileID uuid.UUID, filename string) string {
	base := filepath.Base(filename)
	base = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\':
			return '_'
		}
		return r
	}, base)
	return fmt.Sprintf("uploads/%s/%s_%s", fileID.String()[:2], fileID, base)
}
