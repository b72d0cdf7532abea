package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Where a ledger record's timestamp came from.
const (
	TimestampFromFile         = "file"
	TimestampFromConfirmation = "confirmation"
)

// LedgerRecord is the persisted status of one member for one collection.
type LedgerRecord struct {
	MemberID        string          `json:"member_id"`
	MemberName      string          `json:"member_name"`
	CollectionID    string          `json:"collection_id,omitempty"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	Status          string          `json:"status"`
	UpdatedAt       time.Time       `json:"updated_at"`
	TimestampSource string          `json:"timestamp_source"`
}
