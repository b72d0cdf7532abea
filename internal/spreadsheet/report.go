package spreadsheet

import (
	"time"

	"github.com/shopspring/decimal"
)

// Report column widths, in characters.
var reportColWidths = []float64{20, 30, 15, 15, 15}

// ReportRow is one member line of an exported collection report.
type ReportRow struct {
	MemberID   string
	MemberName string
	PaidAmount decimal.Decimal
	PaidAt     *time.Time
}

// Report is the content of a single-collection export.
type Report struct {
	CollectionName string
	AmountPerUser  decimal.Decimal
	Deadline       *time.Time
	TreasurerName  string
	Rows           []ReportRow
	Location       *time.Location
}

// ReportRows lays the report out as header, spacer, table, spacer, footer.
// A member without a payment timestamp gets "N/A" time and date.
func ReportRows(r Report) [][]any {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	deadline := "No deadline"
	if r.Deadline != nil {
		deadline = r.Deadline.In(loc).Format("January 2, 2006")
	}

	rows := [][]any{
		{"Collection name:", r.CollectionName},
		{"Amount:", r.AmountPerUser.InexactFloat64()},
		{"Deadline:", deadline},
		{},
		{"Student ID", "Name", "Amount paid", "Time", "Date"},
	}
	for _, row := range r.Rows {
		clock, date := "N/A", "N/A"
		if row.PaidAt != nil && !row.PaidAt.IsZero() {
			at := row.PaidAt.In(loc)
			clock = at.Format("3:04:05 PM")
			date = at.Format("1/2/2006")
		}
		rows = append(rows, []any{row.MemberID, row.MemberName, row.PaidAmount.InexactFloat64(), clock, date})
	}
	rows = append(rows, []any{}, []any{"Verified by:", r.TreasurerName})
	return rows
}

// ExportReport renders r as an xlsx workbook.
func ExportReport(r Report) ([]byte, error) {
	return WriteWorkbook("Collection Report", ReportRows(r), reportColWidths)
}

// TemplateMember is a roster entry used to fill the import template.
type TemplateMember struct {
	ID   string
	Name string
}

// TemplateRows is a blank import template with up to three sample rows.
func TemplateRows(members []TemplateMember) [][]any {
	rows := [][]any{
		{"Collection Name:", "Summer Field Trip"},
		{"Amount:", 500},
		{"Deadline:", "2024-08-15"},
		{},
		{"Student ID", "Name", "Amount Paid", "Time", "Date"},
	}
	samples := []struct {
		amount     int
		clock, day string
	}{
		{500, "2:15 PM", "2024-07-20"},
		{250, "10:00 AM", "2024-07-21"},
		{0, "", ""},
	}
	for i, m := range members {
		if i == len(samples) {
			break
		}
		s := samples[i]
		rows = append(rows, []any{m.ID, m.Name, s.amount, s.clock, s.day})
	}
	rows = append(rows, []any{}, []any{"Verified by:", "Your Name Here"})
	return rows
}

// Template renders the import template workbook.
func Template(members []TemplateMember) ([]byte, error) {
	return WriteWorkbook("CollectionTemplate", TemplateRows(members), reportColWidths)
}
