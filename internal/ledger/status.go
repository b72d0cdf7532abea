// Package ledger computes read-only views over a roster, its collections and
// the recorded payment statuses. Every function is pure: inputs are never
// mutated and the same snapshot always yields the same output.
package ledger

import (
	"github.com/shopspring/decimal"

	"treasury-backend/internal/models"
)

// DisplayStatus is the four-way classification used by detail views and
// filters. It is deliberately finer than the persisted status: a member who
// paid more than the due amount is persisted as "Paid" but shown as credits.
type DisplayStatus string

const (
	DisplayPaid    DisplayStatus = "paid"
	DisplayCredits DisplayStatus = "credits"
	DisplayBalance DisplayStatus = "balance"
	DisplayUnpaid  DisplayStatus = "unpaid"
)

// ParseDisplayStatus accepts a filter value. "all" and "" return ok=false.
func ParseDisplayStatus(s string) (DisplayStatus, bool) {
	switch DisplayStatus(s) {
	case DisplayPaid, DisplayCredits, DisplayBalance, DisplayUnpaid:
		return DisplayStatus(s), true
	}
	return "", false
}

// PaidAmount returns the recorded amount, treating a missing entry as zero.
func PaidAmount(statuses models.PaymentStatuses, memberID, collectionID string) decimal.Decimal {
	s, ok := statuses.Get(memberID, collectionID)
	if !ok {
		return decimal.Zero
	}
	return s.PaidAmount
}

// Balance is what remains to be paid; negative when the member overpaid.
func Balance(due, paid decimal.Decimal) decimal.Decimal {
	return due.Sub(paid)
}

// Display classifies paid against due. Exactly one status holds for any
// input: an exact match (including 0 against a variable-amount collection)
// is paid, anything above is credits, nothing paid is unpaid, and the
// remainder is balance.
func Display(paid, due decimal.Decimal) DisplayStatus {
	switch {
	case paid.Equal(due):
		return DisplayPaid
	case paid.GreaterThan(due):
		return DisplayCredits
	case !paid.IsPositive():
		return DisplayUnpaid
	default:
		return DisplayBalance
	}
}

// PersistedStatus is the three-way status written with every ledger record.
// Any amount at or above the due amount is Paid, so a zero payment against a
// variable-amount collection is Paid as well.
func PersistedStatus(paid, due decimal.Decimal) string {
	switch {
	case paid.GreaterThanOrEqual(due):
		return models.StatusPaid
	case paid.IsPositive():
		return models.StatusPartial
	default:
		return models.StatusUnpaid
	}
}

// IsFullyPaid reports whether paid covers due.
func IsFullyPaid(paid, due decimal.Decimal) bool {
	return paid.GreaterThanOrEqual(due)
}
