package models

import "github.com/shopspring/decimal"

// CandidateReport is the structured result of extracting one spreadsheet
// report. Absent fields take their zero values.
type CandidateReport struct {
	CollectionName          string             `json:"collectionName"`
	Amount                  decimal.Decimal    `json:"amount"`
	Deadline                string             `json:"deadline"`
	TreasurerName           string             `json:"treasurerName"`
	Payments                []CandidatePayment `json:"payments"`
	HasHeader               bool               `json:"hasHeader"`
	HasBody                 bool               `json:"hasBody"`
	HasFooter               bool               `json:"hasFooter"`
	HasStudentData          bool               `json:"hasStudentData"`
	IsRemitted              bool               `json:"isRemitted"`
	RemittedBy              string             `json:"remittedBy"`
	ReceivedBy              string             `json:"receivedBy"`
	RemittedDate            string             `json:"remittedDate"`
	IsMultiCollectionReport bool               `json:"isMultiCollectionReport"`
}

// CandidatePayment is one body row of a report.
type CandidatePayment struct {
	StudentID string          `json:"studentId"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	Time      string          `json:"time"`
	Date      string          `json:"date"`
}

// PendingImport is an extracted candidate awaiting treasurer confirmation.
type PendingImport struct {
	ID         string          `json:"id"`
	FileName   string          `json:"file_name"`
	ArchiveKey string          `json:"archive_key,omitempty"`
	UploadedBy int             `json:"uploaded_by"`
	Candidate  CandidateReport `json:"candidate"`
}
