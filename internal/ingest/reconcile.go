package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"treasury-backend/internal/ledger"
	"treasury-backend/internal/models"
	"treasury-backend/internal/timeutil"
)

// Partition splits candidate rows by whether their student ID is on the roster.
type Partition struct {
	Valid        []models.CandidatePayment `json:"valid"`
	Unrecognized []models.CandidatePayment `json:"unrecognized"`
}

// PartitionPayments keeps the input order within each side. IDs are matched
// exactly; no trimming or case folding is applied here.
func PartitionPayments(payments []models.CandidatePayment, roster models.Roster) Partition {
	p := Partition{Valid: []models.CandidatePayment{}, Unrecognized: []models.CandidatePayment{}}
	for _, pay := range payments {
		if _, ok := roster.Lookup(pay.StudentID); ok {
			p.Valid = append(p.Valid, pay)
		} else {
			p.Unrecognized = append(p.Unrecognized, pay)
		}
	}
	return p
}

// Warning kinds produced during reconciliation.
const (
	WarningUnparsedTimestamp = "unparsed_timestamp"
	WarningDuplicateRow      = "duplicate_row"
	WarningUnrecognizedID    = "unrecognized_id"
)

// Warning is a non-fatal observation about one row.
type Warning struct {
	Kind     string `json:"kind"`
	MemberID string `json:"member_id"`
	Message  string `json:"message"`
}

// Reconciliation is the ledger to be written for a new collection: exactly one
// record per roster member, in roster order.
type Reconciliation struct {
	Records      []models.LedgerRecord     `json:"records"`
	Unrecognized []models.CandidatePayment `json:"unrecognized"`
	Warnings     []Warning                 `json:"warnings"`
	ValidCount   int                       `json:"valid_count"`
}

// CanConfirm is false when the report has no row matching the roster.
func (r Reconciliation) CanConfirm() bool {
	return r.ValidCount > 0
}

func isBlankCell(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "n/a")
}

// ImportTimestamp resolves the payment time of a row. Blank or "N/A" cells
// and unparseable values fall back to confirmedAt; fromFile reports which
// source was used.
func ImportTimestamp(date, clock string, confirmedAt time.Time) (at time.Time, fromFile bool) {
	if isBlankCell(date) || isBlankCell(clock) {
		return confirmedAt, false
	}
	t, ok := timeutil.ParseDateTime(date, clock)
	if !ok {
		return confirmedAt, false
	}
	return t, true
}

// Reconcile expands the valid rows of c into one ledger record per roster
// member. Members absent from the report get a zero Unpaid record. When a
// member appears on several rows the last one wins.
func Reconcile(c models.CandidateReport, roster models.Roster, confirmedAt time.Time) Reconciliation {
	part := PartitionPayments(c.Payments, roster)
	rec := Reconciliation{
		Records:      make([]models.LedgerRecord, 0, roster.Len()),
		Unrecognized: part.Unrecognized,
		Warnings:     []Warning{},
		ValidCount:   len(part.Valid),
	}

	for _, pay := range part.Unrecognized {
		rec.Warnings = append(rec.Warnings, Warning{
			Kind:     WarningUnrecognizedID,
			MemberID: pay.StudentID,
			Message:  fmt.Sprintf("Student ID %q (%s) is not on the roster and will be skipped.", pay.StudentID, pay.Name),
		})
	}

	byMember := make(map[string]models.LedgerRecord, len(part.Valid))
	for _, pay := range part.Valid {
		if _, seen := byMember[pay.StudentID]; seen {
			rec.Warnings = append(rec.Warnings, Warning{
				Kind:     WarningDuplicateRow,
				MemberID: pay.StudentID,
				Message:  fmt.Sprintf("Student ID %q appears more than once; the last row is used.", pay.StudentID),
			})
		}

		amount := pay.Amount
		if amount.IsNegative() {
			amount = decimal.Zero
		}
		at, fromFile := ImportTimestamp(pay.Date, pay.Time, confirmedAt)
		source := models.TimestampFromFile
		if !fromFile {
			source = models.TimestampFromConfirmation
			if !isBlankCell(pay.Date) && !isBlankCell(pay.Time) {
				rec.Warnings = append(rec.Warnings, Warning{
					Kind:     WarningUnparsedTimestamp,
					MemberID: pay.StudentID,
					Message:  fmt.Sprintf("Could not read date %q and time %q; the confirmation time is recorded instead.", pay.Date, pay.Time),
				})
			}
		}

		member, _ := roster.Lookup(pay.StudentID)
		byMember[pay.StudentID] = models.LedgerRecord{
			MemberID:        member.ID,
			MemberName:      member.Name,
			PaidAmount:      amount,
			Status:          ledger.PersistedStatus(amount, c.Amount),
			UpdatedAt:       at,
			TimestampSource: source,
		}
	}

	for _, m := range roster.Members() {
		if r, ok := byMember[m.ID]; ok {
			rec.Records = append(rec.Records, r)
			continue
		}
		rec.Records = append(rec.Records, models.LedgerRecord{
			MemberID:        m.ID,
			MemberName:      m.Name,
			PaidAmount:      decimal.Zero,
			Status:          models.StatusUnpaid,
			UpdatedAt:       confirmedAt,
			TimestampSource: models.TimestampFromConfirmation,
		})
	}
	return rec
}

// CollectionFromCandidate builds the collection a confirmed report creates.
// A remitted report carries its remittance details; an unreadable remittance
// date falls back to confirmedAt.
func CollectionFromCandidate(c models.CandidateReport, confirmedAt time.Time) models.Collection {
	col := models.Collection{
		Name:          strings.TrimSpace(c.CollectionName),
		AmountPerUser: c.Amount,
		CreatedAt:     confirmedAt,
	}
	if col.AmountPerUser.IsNegative() {
		col.AmountPerUser = decimal.Zero
	}
	if dl, ok := timeutil.ParseDate(c.Deadline); ok {
		col.Deadline = &dl
	}
	if c.IsRemitted {
		at, ok := timeutil.ParseTimestamp(c.RemittedDate)
		if !ok {
			at = confirmedAt
		}
		col.RemittanceDetails = &models.RemittanceDetails{
			IsRemitted: true,
			RemittedBy: c.RemittedBy,
			ReceivedBy: c.ReceivedBy,
			RemittedAt: at,
		}
	}
	return col
}

// Statuses turns reconciled records into a status map for collectionID.
func (r Reconciliation) Statuses(collectionID string) models.PaymentStatuses {
	out := models.PaymentStatuses{}
	for _, rec := range r.Records {
		out.Set(rec.MemberID, collectionID, models.PaymentStatus{PaidAmount: rec.PaidAmount, UpdatedAt: rec.UpdatedAt})
	}
	return out
}
