package ingest

import (
	"time"

	"treasury-backend/internal/ledger"
	"treasury-backend/internal/models"
)

const previewCollectionID = "preview"

// Preview is everything the treasurer sees before confirming an import.
// Reconciliation and Summary are nil when structural validation failed.
type Preview struct {
	Candidate      models.CandidateReport    `json:"candidate"`
	Validation     ValidationResult          `json:"validation"`
	Checklist      []ChecklistItem           `json:"checklist"`
	Reconciliation *Reconciliation           `json:"reconciliation,omitempty"`
	Summary        *ledger.CollectionSummary `json:"summary,omitempty"`
	CanConfirm     bool                      `json:"can_confirm"`
}

// BuildPreview validates c and, when it passes, reconciles it against roster
// as if it were confirmed at now.
func BuildPreview(c models.CandidateReport, roster models.Roster, now time.Time) Preview {
	p := Preview{
		Candidate:  c,
		Validation: Validate(c),
		Checklist:  Checklist(c, roster),
	}
	if !p.Validation.Passed {
		return p
	}

	rec := Reconcile(c, roster, now)
	col := CollectionFromCandidate(c, now)
	col.ID = previewCollectionID
	sum := ledger.Summarize(col, roster.Members(), rec.Statuses(previewCollectionID))

	p.Reconciliation = &rec
	p.Summary = &sum
	p.CanConfirm = rec.CanConfirm()
	return p
}
