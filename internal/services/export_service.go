package services

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/shopspring/decimal"

	"treasury-backend/internal/ledger"
	"treasury-backend/internal/spreadsheet"
	"treasury-backend/internal/timeutil"
)

// ExportFile is a rendered download.
type ExportFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

const pdfContentType = "application/pdf"

type ExportService struct {
	Members     MemberStore
	Collections CollectionStore
	Statuses    StatusStore
	Treasurers  TreasurerStore
	now         func() time.Time
}

func NewExportService(members MemberStore, collections CollectionStore, statuses StatusStore, treasurers TreasurerStore) *ExportService {
	return &ExportService{Members: members, Collections: collections, Statuses: statuses, Treasurers: treasurers, now: timeutil.Now}
}

// report gathers the export content of one collection. Members who have
// paid nothing get no payment time.
func (s *ExportService) report(ctx context.Context, treasurerID int, collectionID string) (*spreadsheet.Report, error) {
	c, err := s.Collections.Get(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	members, err := s.Members.List(ctx)
	if err != nil {
		return nil, err
	}
	statuses, err := s.Statuses.ForCollection(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	r := &spreadsheet.Report{
		CollectionName: c.Name,
		AmountPerUser:  c.AmountPerUser,
		Deadline:       c.Deadline,
		Location:       timeutil.Location(),
	}
	if t, err := s.Treasurers.Get(ctx, treasurerID); err == nil {
		r.TreasurerName = t.Name
	}
	for _, m := range members {
		row := spreadsheet.ReportRow{MemberID: m.ID, MemberName: m.Name, PaidAmount: decimal.Zero}
		if st, ok := statuses.Get(m.ID, c.ID); ok {
			row.PaidAmount = st.PaidAmount
			if st.PaidAmount.IsPositive() && !st.UpdatedAt.IsZero() {
				at := st.UpdatedAt
				row.PaidAt = &at
			}
		}
		r.Rows = append(r.Rows, row)
	}
	return r, nil
}

// CollectionXLSX renders the collection report workbook.
func (s *ExportService) CollectionXLSX(ctx context.Context, treasurerID int, collectionID string) (*ExportFile, error) {
	r, err := s.report(ctx, treasurerID, collectionID)
	if err != nil {
		return nil, err
	}
	data, err := spreadsheet.ExportReport(*r)
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return &ExportFile{
		FileName:    spreadsheet.ExportFileName(r.CollectionName),
		ContentType: spreadsheet.XLSXContentType,
		Data:        data,
	}, nil
}

// CollectionPDF renders the same report as a printable PDF.
func (s *ExportService) CollectionPDF(ctx context.Context, treasurerID int, collectionID string) (*ExportFile, error) {
	r, err := s.report(ctx, treasurerID, collectionID)
	if err != nil {
		return nil, err
	}
	data, err := renderReportPDF(*r, s.now())
	if err != nil {
		return nil, err
	}
	return &ExportFile{
		FileName:    pdfFileName(r.CollectionName),
		ContentType: pdfContentType,
		Data:        data,
	}, nil
}

// Template renders the blank import template, sampled with the first
// members of the roster.
func (s *ExportService) Template(ctx context.Context) (*ExportFile, error) {
	members, err := s.Members.List(ctx)
	if err != nil {
		return nil, err
	}
	sample := make([]spreadsheet.TemplateMember, 0, len(members))
	for _, m := range members {
		sample = append(sample, spreadsheet.TemplateMember{ID: m.ID, Name: m.Name})
	}
	data, err := spreadsheet.Template(sample)
	if err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}
	return &ExportFile{
		FileName:    "collection_template.xlsx",
		ContentType: spreadsheet.XLSXContentType,
		Data:        data,
	}, nil
}

var nonAlnum = regexp.MustCompile(`(?i)[^a-z0-9]`)

func pdfFileName(name string) string {
	return strings.ToLower(nonAlnum.ReplaceAllString(name, "_")) + "_report.pdf"
}

func renderReportPDF(r spreadsheet.Report, generatedAt time.Time) ([]byte, error) {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(r.CollectionName, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, r.CollectionName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated: %s", generatedAt.In(loc).Format("02-Jan-2006 03:04 PM")), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	deadline := "No deadline"
	if r.Deadline != nil {
		deadline = r.Deadline.Format("January 2, 2006")
	}
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 7, "Amount per member: PHP "+formatAmount(r.AmountPerUser), "1", 0, "L", true, 0, "")
	pdf.CellFormat(95, 7, "Deadline: "+deadline, "1", 1, "L", true, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(35, 7, "Student ID", "1", 0, "C", true, 0, "")
	pdf.CellFormat(60, 7, "Name", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Amount paid", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Time", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Date", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	collected := decimal.Zero
	for _, row := range r.Rows {
		clock, date := "N/A", "N/A"
		if row.PaidAt != nil {
			at := row.PaidAt.In(loc)
			clock, date = at.Format("3:04 PM"), at.Format("1/2/2006")
		}
		collected = collected.Add(row.PaidAmount)

		// Highlight members who still owe
		fill := false
		if r.AmountPerUser.IsPositive() && !ledger.IsFullyPaid(row.PaidAmount, r.AmountPerUser) {
			pdf.SetFillColor(255, 230, 230)
			fill = true
		}
		pdf.CellFormat(35, 6, row.MemberID, "1", 0, "L", fill, 0, "")
		pdf.CellFormat(60, 6, truncate(row.MemberName, 32), "1", 0, "L", fill, 0, "")
		pdf.CellFormat(35, 6, formatAmount(row.PaidAmount), "1", 0, "R", fill, 0, "")
		pdf.CellFormat(30, 6, clock, "1", 0, "C", fill, 0, "")
		pdf.CellFormat(30, 6, date, "1", 1, "C", fill, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(200, 255, 200)
	pdf.CellFormat(190, 8, "Total collected: PHP "+formatAmount(collected), "1", 1, "C", true, 0, "")

	pdf.Ln(10)
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(30, 7, "Verified by:", "", 0, "L", false, 0, "")
	pdf.CellFormat(80, 7, r.TreasurerName, "B", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
