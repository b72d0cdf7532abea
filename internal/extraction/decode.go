package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"treasury-backend/internal/models"
)

// wireReport mirrors the response schema. Pointers distinguish a missing
// property from its zero value; amounts stay raw so a quoted number is
// rejected instead of silently accepted.
type wireReport struct {
	CollectionName          *string         `json:"collectionName"`
	Amount                  json.RawMessage `json:"amount"`
	Deadline                *string         `json:"deadline"`
	TreasurerName           *string         `json:"treasurerName"`
	Payments                *[]wirePayment  `json:"payments"`
	HasHeader               *bool           `json:"hasHeader"`
	HasBody                 *bool           `json:"hasBody"`
	HasFooter               *bool           `json:"hasFooter"`
	HasStudentData          *bool           `json:"hasStudentData"`
	IsRemitted              *bool           `json:"isRemitted"`
	RemittedBy              *string         `json:"remittedBy"`
	ReceivedBy              *string         `json:"receivedBy"`
	RemittedDate            *string         `json:"remittedDate"`
	IsMultiCollectionReport *bool           `json:"isMultiCollectionReport"`
}

type wirePayment struct {
	StudentID *string         `json:"studentId"`
	Name      *string         `json:"name"`
	Amount    json.RawMessage `json:"amount"`
	Time      *string         `json:"time"`
	Date      *string         `json:"date"`
}

// DecodeResponse parses the service's JSON text into a CandidateReport.
// Any missing property, wrong type, unknown property or trailing data is an
// ErrMalformed error. The result is normalized.
func DecodeResponse(text string) (*models.CandidateReport, error) {
	text = stripCodeFence(text)
	if text == "" {
		return nil, newError(ErrMalformed, "empty_response", "extraction response is empty")
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()

	var w wireReport
	if err := dec.Decode(&w); err != nil {
		return nil, newError(ErrMalformed, "parse_error", fmt.Sprintf("extraction response is not valid JSON for the schema: %v", err))
	}
	if dec.More() {
		return nil, newError(ErrMalformed, "trailing_data", "extraction response has data after the JSON object")
	}

	report, err := w.toCandidate()
	if err != nil {
		return nil, err
	}
	normalized := Normalize(*report)
	return &normalized, nil
}

func (w wireReport) toCandidate() (*models.CandidateReport, error) {
	missing := []string{}
	req := func(name string, present bool) {
		if !present {
			missing = append(missing, name)
		}
	}
	req("collectionName", w.CollectionName != nil)
	req("amount", len(w.Amount) > 0)
	req("deadline", w.Deadline != nil)
	req("treasurerName", w.TreasurerName != nil)
	req("payments", w.Payments != nil)
	req("hasHeader", w.HasHeader != nil)
	req("hasBody", w.HasBody != nil)
	req("hasFooter", w.HasFooter != nil)
	req("hasStudentData", w.HasStudentData != nil)
	req("isRemitted", w.IsRemitted != nil)
	req("remittedBy", w.RemittedBy != nil)
	req("receivedBy", w.ReceivedBy != nil)
	req("remittedDate", w.RemittedDate != nil)
	req("isMultiCollectionReport", w.IsMultiCollectionReport != nil)
	if len(missing) > 0 {
		return nil, newError(ErrMalformed, "missing_field", "extraction response is missing "+strings.Join(missing, ", "))
	}

	amount, err := parseAmount(w.Amount)
	if err != nil {
		return nil, newError(ErrMalformed, "invalid_amount", "extraction response amount: "+err.Error())
	}

	report := &models.CandidateReport{
		CollectionName:          *w.CollectionName,
		Amount:                  amount,
		Deadline:                *w.Deadline,
		TreasurerName:           *w.TreasurerName,
		Payments:                make([]models.CandidatePayment, 0, len(*w.Payments)),
		HasHeader:               *w.HasHeader,
		HasBody:                 *w.HasBody,
		HasFooter:               *w.HasFooter,
		HasStudentData:          *w.HasStudentData,
		IsRemitted:              *w.IsRemitted,
		RemittedBy:              *w.RemittedBy,
		ReceivedBy:              *w.ReceivedBy,
		RemittedDate:            *w.RemittedDate,
		IsMultiCollectionReport: *w.IsMultiCollectionReport,
	}

	for i, p := range *w.Payments {
		if p.StudentID == nil || p.Name == nil || len(p.Amount) == 0 || p.Time == nil || p.Date == nil {
			return nil, newError(ErrMalformed, "missing_field", fmt.Sprintf("extraction response payment %d is missing a field", i))
		}
		amt, err := parseAmount(p.Amount)
		if err != nil {
			return nil, newError(ErrMalformed, "invalid_amount", fmt.Sprintf("extraction response payment %d amount: %v", i, err))
		}
		report.Payments = append(report.Payments, models.CandidatePayment{
			StudentID: *p.StudentID,
			Name:      *p.Name,
			Amount:    amt,
			Time:      *p.Time,
			Date:      *p.Date,
		})
	}
	return report, nil
}

// parseAmount accepts a bare JSON number only.
func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '"' || bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, fmt.Errorf("expected a number, got %s", string(raw))
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return decimal.Zero, fmt.Errorf("expected a number, got %s", string(raw))
	}
	return decimal.NewFromString(n.String())
}

// stripCodeFence removes a Markdown code fence some models wrap JSON in.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "json")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
