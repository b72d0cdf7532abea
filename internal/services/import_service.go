package services

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"treasury-backend/internal/cache"
	"treasury-backend/internal/extraction"
	"treasury-backend/internal/ingest"
	"treasury-backend/internal/ledger"
	"treasury-backend/internal/metrics"
	"treasury-backend/internal/models"
	"treasury-backend/internal/realtime"
	"treasury-backend/internal/spreadsheet"
	"treasury-backend/internal/storage"
	"treasury-backend/internal/timeutil"
)

const (
	msgBusy            = "Another file is still being processed. Please wait for it to finish."
	msgUnreadableFile  = "Could not parse the XLSX file. Please ensure it's valid."
	msgNotConfigured   = "The extraction service is not configured. Set GEMINI_API_KEY and try again."
	msgAuth            = "The extraction service rejected the API key. Please check the server configuration."
	msgUnavailable     = "The extraction service could not process the file right now. Please try again."
	msgMalformed       = "The extraction service returned a response that could not be read. Please try again."
	msgStructural      = "The file does not follow the collection report layout."
	msgNoValidPayments = "No valid student payments to record. Check that the student IDs match the roster."
	msgImportNotFound  = "This upload has expired or was already handled. Please upload the file again."
	msgImportClaimed   = "This upload is already being confirmed."
	msgSaveFailed      = "The collection could not be saved. Nothing was recorded."
)

// UploadResult is an extracted report awaiting confirmation.
type UploadResult struct {
	ImportID string         `json:"import_id"`
	FileName string         `json:"file_name"`
	Preview  ingest.Preview `json:"preview"`
}

// ConfirmResult describes a committed import.
type ConfirmResult struct {
	Collection   models.Collection         `json:"collection"`
	Summary      ledger.CollectionSummary  `json:"summary"`
	Recorded     int                       `json:"recorded"`
	Unrecognized []models.CandidatePayment `json:"unrecognized"`
	Warnings     []ingest.Warning          `json:"warnings"`
}

// ImportService runs the spreadsheet ingestion pipeline: read, extract,
// validate, reconcile and commit.
type ImportService struct {
	Members     MemberStore
	Collections CollectionStore
	Extractor   extraction.Extractor
	Archiver    storage.Archiver
	Guard       *cache.ExtractionGuard
	Pending     *cache.PendingImports
	Notifier    *NotificationService
	Publisher   realtime.Publisher
	Timeout     time.Duration
	now         func() time.Time
}

func NewImportService(
	members MemberStore,
	collections CollectionStore,
	extractor extraction.Extractor,
	archiver storage.Archiver,
	guard *cache.ExtractionGuard,
	pending *cache.PendingImports,
	notifier *NotificationService,
	pub realtime.Publisher,
	timeout time.Duration,
) *ImportService {
	return &ImportService{
		Members:     members,
		Collections: collections,
		Extractor:   extractor,
		Archiver:    archiver,
		Guard:       guard,
		Pending:     pending,
		Notifier:    notifier,
		Publisher:   pub,
		Timeout:     timeout,
		now:         timeutil.Now,
	}
}

// Upload extracts a report from an .xlsx file and holds it for
// confirmation. Only one upload per treasurer may be in flight.
func (s *ImportService) Upload(ctx context.Context, treasurerID int, fileName, contentType string, data []byte) (*UploadResult, error) {
	if !spreadsheet.IsSpreadsheet(fileName, contentType) {
		return nil, ingest.NewError(ingest.CategoryInputRejected, spreadsheet.UploadHint, nil)
	}

	owner := strconv.Itoa(treasurerID)
	if !s.Guard.Acquire(ctx, owner) {
		return nil, ingest.NewError(ingest.CategoryBusy, msgBusy, nil)
	}
	defer s.Guard.Release(context.WithoutCancel(ctx), owner)

	sheetText, err := spreadsheet.SheetText(bytes.NewReader(data))
	if err != nil {
		return nil, ingest.NewError(ingest.CategoryInputRejected, msgUnreadableFile, err)
	}

	members, err := s.Members.List(ctx)
	if err != nil {
		return nil, ingest.NewError(ingest.CategoryPersistence, "Could not load the member list.", err)
	}

	candidate, err := s.extract(ctx, sheetText, members)
	if err != nil {
		return nil, err
	}

	now := s.now()
	preview := ingest.BuildPreview(*candidate, models.NewRoster(members), now)
	if !preview.Validation.Passed {
		metrics.ExtractionsTotal.WithLabelValues(string(ingest.CategoryStructural)).Inc()
		return nil, &ingest.Error{
			Category:  ingest.CategoryStructural,
			Message:   msgStructural,
			Details:   preview.Validation.Errors,
			Candidate: candidate,
		}
	}
	metrics.ExtractionsTotal.WithLabelValues("success").Inc()

	archiveKey, err := s.Archiver.Archive(ctx, fileName, contentType, data)
	if err != nil {
		log.Printf("[Import] Failed to archive %s: %v", fileName, err)
	}

	imp := &models.PendingImport{
		ID:         uuid.NewString(),
		FileName:   fileName,
		ArchiveKey: archiveKey,
		UploadedBy: treasurerID,
		Candidate:  *candidate,
	}
	if err := s.Pending.Save(ctx, imp); err != nil {
		return nil, ingest.NewError(ingest.CategoryPersistence, "Could not hold the extracted report.", err)
	}

	log.Printf("[Import] Extracted %q from %s: %d row(s), %d matched",
		candidate.CollectionName, fileName, len(candidate.Payments), preview.Reconciliation.ValidCount)
	return &UploadResult{ImportID: imp.ID, FileName: fileName, Preview: preview}, nil
}

func (s *ImportService) extract(ctx context.Context, sheetText string, members []models.Member) (*models.CandidateReport, error) {
	ectx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	start := time.Now()
	candidate, err := s.Extractor.Extract(ectx, sheetText, members)
	metrics.ExtractionDuration.Observe(time.Since(start).Seconds())
	if err == nil {
		return candidate, nil
	}

	ie := extractionError(err)
	metrics.ExtractionsTotal.WithLabelValues(string(ie.Category)).Inc()
	log.Printf("[Import] Extraction failed (%s): %v", ie.Category, err)
	return nil, ie
}

// extractionError maps an extractor failure onto the import taxonomy.
func extractionError(err error) *ingest.Error {
	switch {
	case errors.Is(err, extraction.ErrNotConfigured):
		return ingest.NewError(ingest.CategoryExtractionAuth, msgNotConfigured, err)
	case errors.Is(err, extraction.ErrAuth):
		return ingest.NewError(ingest.CategoryExtractionAuth, msgAuth, err)
	case errors.Is(err, extraction.ErrUnavailable):
		return ingest.NewError(ingest.CategoryExtractionFailed, msgUnavailable, err)
	case errors.Is(err, extraction.ErrMalformed):
		return ingest.NewError(ingest.CategoryMalformedResponse, msgMalformed, err)
	default:
		return ingest.NewError(ingest.CategoryUnknown, err.Error(), err)
	}
}

// Get rebuilds the preview of a pending upload against the current roster.
func (s *ImportService) Get(ctx context.Context, treasurerID int, id string) (*UploadResult, error) {
	imp, err := s.pending(ctx, treasurerID, id)
	if err != nil {
		return nil, err
	}
	members, err := s.Members.List(ctx)
	if err != nil {
		return nil, ingest.NewError(ingest.CategoryPersistence, "Could not load the member list.", err)
	}
	preview := ingest.BuildPreview(imp.Candidate, models.NewRoster(members), s.now())
	return &UploadResult{ImportID: imp.ID, FileName: imp.FileName, Preview: preview}, nil
}

// Confirm reconciles the pending report against the current roster and
// commits the new collection with one record per member atomically.
// A pending import is claimed for the whole call, so concurrent confirms of
// the same upload produce one collection.
func (s *ImportService) Confirm(ctx context.Context, treasurerID int, id string) (*ConfirmResult, error) {
	if !s.Pending.Claim(ctx, id) {
		return nil, ingest.NewError(ingest.CategoryBusy, msgImportClaimed, nil)
	}
	defer s.Pending.Release(context.WithoutCancel(ctx), id)

	imp, err := s.pending(ctx, treasurerID, id)
	if err != nil {
		return nil, err
	}

	v := ingest.Validate(imp.Candidate)
	if !v.Passed {
		return nil, &ingest.Error{
			Category:  ingest.CategoryStructural,
			Message:   msgStructural,
			Details:   v.Errors,
			Candidate: &imp.Candidate,
		}
	}

	members, err := s.Members.List(ctx)
	if err != nil {
		return nil, ingest.NewError(ingest.CategoryPersistence, "Could not load the member list.", err)
	}
	roster := models.NewRoster(members)

	confirmedAt := s.now()
	rec := ingest.Reconcile(imp.Candidate, roster, confirmedAt)
	if !rec.CanConfirm() {
		return nil, ingest.NewError(ingest.CategoryNoValidPayments, msgNoValidPayments, nil)
	}

	col := ingest.CollectionFromCandidate(imp.Candidate, confirmedAt)
	if err := s.Collections.Create(ctx, &col, rec.Records); err != nil {
		return nil, ingest.NewError(ingest.CategoryPersistence, msgSaveFailed, err)
	}
	s.Pending.Delete(ctx, id)

	metrics.ImportsConfirmed.Inc()
	for _, r := range rec.Records {
		metrics.ImportedRecords.WithLabelValues(r.Status).Inc()
	}
	cache.InvalidateLedger(ctx)
	s.Publisher.Publish(realtime.Event{Type: realtime.EventImportConfirmed, CollectionIDs: []string{col.ID}})
	s.Notifier.Notify(ctx, CollectionCreatedNotice(col.Name, col.ID, true))

	log.Printf("[Import] Confirmed %q (%s): %d record(s), %d unrecognized",
		col.Name, col.ID, len(rec.Records), len(rec.Unrecognized))

	return &ConfirmResult{
		Collection:   col,
		Summary:      ledger.Summarize(col, roster.Members(), rec.Statuses(col.ID)),
		Recorded:     len(rec.Records),
		Unrecognized: rec.Unrecognized,
		Warnings:     rec.Warnings,
	}, nil
}

// Cancel discards a pending upload.
func (s *ImportService) Cancel(ctx context.Context, treasurerID int, id string) error {
	if !s.Pending.Claim(ctx, id) {
		return ingest.NewError(ingest.CategoryBusy, msgImportClaimed, nil)
	}
	defer s.Pending.Release(context.WithoutCancel(ctx), id)

	if _, err := s.pending(ctx, treasurerID, id); err != nil {
		return err
	}
	s.Pending.Delete(ctx, id)
	return nil
}

func (s *ImportService) pending(ctx context.Context, treasurerID int, id string) (*models.PendingImport, error) {
	imp, ok := s.Pending.Get(ctx, id)
	if !ok || imp.UploadedBy != treasurerID {
		return nil, ingest.NewError(ingest.CategoryNotFound, msgImportNotFound, nil)
	}
	return imp, nil
}
