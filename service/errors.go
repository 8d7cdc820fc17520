package service

import "errors"

// Error taxonomy shared by the services. Handlers map these to HTTP codes
// with errors.Is; wrapped causes stay attached for logging.
var (
	// ErrValidation means the caller supplied bad input and can retry after
	// correcting it.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound means the referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the caller's role does not permit the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthorized means the credential is missing, malformed or expired.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidState means a moderation transition was attempted from a
	// terminal state. Terminal decisions are never re-applied silently.
	ErrInvalidState = errors.New("invalid state transition")

	// ErrNotReady means retrieval was requested before any content was
	// indexed for the selected scope.
	ErrNotReady = errors.New("no indexed content")

	// ErrUpstreamUnavailable means the embedding or completion provider
	// failed or timed out.
	ErrUpstreamUnavailable = errors.New("upstream provider unavailable")

	// ErrUnsupportedFormat means the uploaded file type cannot be ingested.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrFileTooLarge means the upload exceeds the size ceiling.
	ErrFileTooLarge = errors.New("file too large")

	// ErrProcessingTimeout means ingestion exceeded its bounded window.
	ErrProcessingTimeout = errors.New("processing timed out")
)
