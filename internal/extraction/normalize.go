package extraction

import (
	"strings"

	"github.com/shopspring/decimal"

	"treasury-backend/internal/models"
)

// Normalize applies the row-level parsing policy to a decoded report: string
// fields are trimmed, "N/A" time and date cells become empty, negative
// amounts become 0, and a multi-collection export is reduced to its flag.
func Normalize(r models.CandidateReport) models.CandidateReport {
	if r.IsMultiCollectionReport {
		return models.CandidateReport{
			Amount:                  decimal.Zero,
			Payments:                []models.CandidatePayment{},
			IsMultiCollectionReport: true,
		}
	}

	out := r
	out.CollectionName = strings.TrimSpace(r.CollectionName)
	out.Deadline = blankNA(r.Deadline)
	out.TreasurerName = strings.TrimSpace(r.TreasurerName)
	out.RemittedBy = strings.TrimSpace(r.RemittedBy)
	out.ReceivedBy = strings.TrimSpace(r.ReceivedBy)
	out.RemittedDate = blankNA(r.RemittedDate)
	out.Amount = nonNegative(r.Amount)

	out.Payments = make([]models.CandidatePayment, 0, len(r.Payments))
	for _, p := range r.Payments {
		out.Payments = append(out.Payments, models.CandidatePayment{
			// IDs are trimmed but otherwise kept character for character.
			StudentID: strings.TrimSpace(p.StudentID),
			Name:      strings.TrimSpace(p.Name),
			Amount:    nonNegative(p.Amount),
			Time:      blankNA(p.Time),
			Date:      blankNA(p.Date),
		})
	}
	return out
}

func blankNA(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "n/a") {
		return ""
	}
	return s
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
