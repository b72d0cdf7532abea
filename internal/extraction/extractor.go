// Package extraction turns the text of one worksheet into a CandidateReport
// by delegating to a natural-language extraction service under a fixed
// instruction set and response schema.
package extraction

import (
	"context"
	"errors"
	"fmt"

	"treasury-backend/internal/models"
)

// Extractor classifies and extracts a single worksheet. The roster is used
// only as a hint; rows whose IDs are not on it are still returned.
type Extractor interface {
	Extract(ctx context.Context, sheetText string, roster []models.Member) (*models.CandidateReport, error)
}

// Failure classes. Every error returned by an Extractor matches exactly one
// of these with errors.Is.
var (
	ErrNotConfigured = errors.New("extraction service is not configured")
	ErrAuth          = errors.New("extraction service rejected the credentials")
	ErrUnavailable   = errors.New("extraction service request failed")
	ErrMalformed     = errors.New("extraction response does not match the schema")
)

// Error carries a short machine code alongside its failure class.
type Error struct {
	Code    string
	Message string
	Kind    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, code, message string) *Error {
	return &Error{Code: code, Message: message, Kind: kind}
}
