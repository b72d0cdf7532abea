package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Persisted per-member payment status values.
const (
	StatusPaid    = "Paid"
	StatusPartial = "Partial"
	StatusUnpaid  = "Unpaid"
)

// PaymentStatus is what a member has paid toward one collection. An absent
// entry is equivalent to a zero amount.
type PaymentStatus struct {
	PaidAmount decimal.Decimal `json:"paid_amount"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// PaymentStatuses maps member ID -> collection ID -> status.
type PaymentStatuses map[string]map[string]PaymentStatus

// Get returns the entry and whether one exists.
func (p PaymentStatuses) Get(memberID, collectionID string) (PaymentStatus, bool) {
	byCollection, ok := p[memberID]
	if !ok {
		return PaymentStatus{}, false
	}
	s, ok := byCollection[collectionID]
	return s, ok
}

func (p PaymentStatuses) Set(memberID, collectionID string, s PaymentStatus) {
	byCollection, ok := p[memberID]
	if !ok {
		byCollection = make(map[string]PaymentStatus)
		p[memberID] = byCollection
	}
	byCollection[collectionID] = s
}

type UpdatePaymentRequest struct {
	PaidAmount decimal.Decimal `json:"paid_amount"`
}
