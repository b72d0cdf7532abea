// Package ingest validates extracted spreadsheet reports and reconciles them
// against the member roster.
package ingest

import (
	"errors"
	"fmt"

	"treasury-backend/internal/models"
)

// Category classifies every failure an import can surface.
type Category string

const (
	CategoryInputRejected     Category = "input_rejected"
	CategoryExtractionAuth    Category = "extraction_auth"
	CategoryExtractionFailed  Category = "extraction_failed"
	CategoryMalformedResponse Category = "malformed_response"
	CategoryStructural        Category = "structural_validation"
	CategoryNoValidPayments   Category = "no_valid_payments"
	CategoryBusy              Category = "busy"
	CategoryPersistence       Category = "persistence"
	CategoryNotFound          Category = "not_found"
	CategoryUnknown           Category = "unknown"
)

var categoryLabels = map[Category]string{
	CategoryInputRejected:     "Invalid file",
	CategoryExtractionAuth:    "Extraction service authentication failed",
	CategoryExtractionFailed:  "Extraction service error",
	CategoryMalformedResponse: "Unreadable extraction response",
	CategoryStructural:        "File validation failed",
	CategoryNoValidPayments:   "Nothing to import",
	CategoryBusy:              "Upload already in progress",
	CategoryPersistence:       "Save failed",
	CategoryNotFound:          "Not found",
	CategoryUnknown:           "An unexpected error occurred",
}

// Label is the human-readable name of the category.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return categoryLabels[CategoryUnknown]
}

// Error is a categorized import failure. For CategoryStructural, Details
// carries the individual validation messages and Candidate the values that
// were extracted.
type Error struct {
	Category  Category
	Message   string
	Details   []string
	Candidate *models.CandidateReport
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Category.Label(), e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a categorized error wrapping cause (which may be nil).
func NewError(category Category, message string, cause error) *Error {
	return &Error{Category: category, Message: message, Err: cause}
}

// CategoryOf returns the category of err, or CategoryUnknown.
func CategoryOf(err error) Category {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Category
	}
	return CategoryUnknown
}
