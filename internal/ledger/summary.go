package ledger

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"treasury-backend/internal/models"
)

var hundred = decimal.NewFromInt(100)

// CollectionSummary aggregates one collection over the roster.
type CollectionSummary struct {
	CollectionID       string                `json:"collection_id"`
	MemberCount        int                   `json:"member_count"`
	PaidCount          int                   `json:"paid_count"`
	AmountCollected    decimal.Decimal       `json:"amount_collected"`
	TotalAmount        decimal.Decimal       `json:"total_amount"`
	ProgressPercentage decimal.Decimal       `json:"progress_percentage"`
	FullyPaid          bool                  `json:"fully_paid"`
	StatusCounts       map[DisplayStatus]int `json:"status_counts"`
}

// Summarize computes the aggregate for c over members.
func Summarize(c models.Collection, members []models.Member, statuses models.PaymentStatuses) CollectionSummary {
	sum := CollectionSummary{
		CollectionID:    c.ID,
		MemberCount:     len(members),
		AmountCollected: decimal.Zero,
		StatusCounts: map[DisplayStatus]int{
			DisplayPaid: 0, DisplayCredits: 0, DisplayBalance: 0, DisplayUnpaid: 0,
		},
	}

	for _, m := range members {
		paid := PaidAmount(statuses, m.ID, c.ID)
		sum.AmountCollected = sum.AmountCollected.Add(paid)
		if IsFullyPaid(paid, c.AmountPerUser) {
			sum.PaidCount++
		}
		sum.StatusCounts[Display(paid, c.AmountPerUser)]++
	}

	sum.TotalAmount = c.AmountPerUser.Mul(decimal.NewFromInt(int64(len(members))))
	sum.ProgressPercentage = Progress(sum.AmountCollected, sum.TotalAmount)
	sum.FullyPaid = len(members) > 0 && sum.PaidCount == len(members)
	return sum
}

// MarshalJSON shows the progress percentage to two places.
func (s CollectionSummary) MarshalJSON() ([]byte, error) {
	type plain CollectionSummary
	p := plain(s)
	p.ProgressPercentage = p.ProgressPercentage.Round(2)
	return json.Marshal(p)
}

// Progress is min(100, collected/total*100), unrounded. A zero total yields 0.
func Progress(collected, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	pct := collected.Div(total).Mul(hundred)
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	return pct
}

// Collected sums every member's paid amount for one collection.
func Collected(collectionID string, members []models.Member, statuses models.PaymentStatuses) decimal.Decimal {
	total := decimal.Zero
	for _, m := range members {
		total = total.Add(PaidAmount(statuses, m.ID, collectionID))
	}
	return total
}
