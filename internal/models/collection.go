package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Collection is a named dues obligation. AmountPerUser of zero means the
// amount varies per member.
type Collection struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	AmountPerUser     decimal.Decimal    `json:"amount_per_user"`
	Deadline          *time.Time         `json:"deadline,omitempty"`
	RemittanceDetails *RemittanceDetails `json:"remittance_details,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
}

// RemittanceDetails records the hand-over of collected funds. Once
// IsRemitted is set it is never cleared.
type RemittanceDetails struct {
	IsRemitted bool      `json:"is_remitted"`
	RemittedBy string    `json:"remitted_by"`
	ReceivedBy string    `json:"received_by"`
	RemittedAt time.Time `json:"remitted_at"`
}

// IsRemitted reports whether the collection's funds have been handed over.
func (c Collection) IsRemitted() bool {
	return c.RemittanceDetails != nil && c.RemittanceDetails.IsRemitted
}

type CreateCollectionRequest struct {
	Name          string          `json:"name" validate:"required,max=200"`
	AmountPerUser decimal.Decimal `json:"amount_per_user"`
	Deadline      string          `json:"deadline" validate:"omitempty,datetime=2006-01-02"`
}

type UpdateCollectionRequest struct {
	Name          string          `json:"name" validate:"required,max=200"`
	AmountPerUser decimal.Decimal `json:"amount_per_user"`
	Deadline      string          `json:"deadline" validate:"omitempty,datetime=2006-01-02"`
}

type RemitCollectionRequest struct {
	RemittedBy string `json:"remitted_by" validate:"required,max=200"`
	ReceivedBy string `json:"received_by" validate:"required,max=200"`
}

type DeleteCollectionsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,uuid"`
}

type MarkAllRequest struct {
	Paid bool `json:"paid"`
}
