package services

import (
	"context"
	"errors"
	"log"
	"time"

	"treasury-backend/internal/assistant"
	"treasury-backend/internal/extraction"
	"treasury-backend/internal/ingest"
	"treasury-backend/internal/models"
	"treasury-backend/internal/timeutil"
)

// Responder answers one assistant question.
type Responder interface {
	Ask(ctx context.Context, mode assistant.Mode, instruction string, history []models.ChatTurn, message string) (*assistant.Reply, error)
}

// AssistantService answers questions about the current ledger.
type AssistantService struct {
	Ledger    *LedgerService
	Responder Responder
	Timeout   time.Duration
	now       func() time.Time
}

func NewAssistantService(ledgerSvc *LedgerService, responder Responder, timeout time.Duration) *AssistantService {
	return &AssistantService{Ledger: ledgerSvc, Responder: responder, Timeout: timeout, now: timeutil.Now}
}

func (s *AssistantService) Ask(ctx context.Context, req models.AssistantRequest) (*assistant.Reply, error) {
	mode, err := assistant.ParseMode(req.Mode)
	if err != nil {
		return nil, ingest.NewError(ingest.CategoryInputRejected, "Choose the fast, thinking or search mode.", err)
	}

	snap, err := s.Ledger.Snapshot(ctx)
	if err != nil {
		return nil, ingest.NewError(ingest.CategoryPersistence, "Could not load the ledger.", err)
	}
	instruction, err := assistant.Instruction(snap, s.now())
	if err != nil {
		return nil, ingest.NewError(ingest.CategoryUnknown, "Could not prepare the assistant context.", err)
	}

	actx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	reply, err := s.Responder.Ask(actx, mode, instruction, req.History, req.Message)
	if err != nil {
		ie := assistantError(err)
		log.Printf("[Assistant] %s request failed (%s): %v", mode, ie.Category, err)
		return nil, ie
	}
	return reply, nil
}

func assistantError(err error) *ingest.Error {
	switch {
	case errors.Is(err, extraction.ErrNotConfigured):
		return ingest.NewError(ingest.CategoryExtractionAuth, "The assistant is not configured. Set GEMINI_API_KEY and try again.", err)
	case errors.Is(err, extraction.ErrAuth):
		return ingest.NewError(ingest.CategoryExtractionAuth, "The assistant service rejected the API key.", err)
	case errors.Is(err, extraction.ErrUnavailable):
		return ingest.NewError(ingest.CategoryExtractionFailed, "The assistant could not answer right now. Please try again.", err)
	case errors.Is(err, extraction.ErrMalformed):
		return ingest.NewError(ingest.CategoryMalformedResponse, "The assistant returned a response that could not be read.", err)
	default:
		return ingest.NewError(ingest.CategoryUnknown, "Sorry, I encountered an error. Please try again.", err)
	}
}
