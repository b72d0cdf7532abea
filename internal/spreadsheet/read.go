// Package spreadsheet converts between xlsx workbooks and the tabular forms
// the import and export paths work with.
package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the MIME type of an Office Open XML workbook.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// UploadHint is shown to the user when a file is rejected.
const UploadHint = "Please upload a valid .xlsx file."

// ErrNotSpreadsheet is returned for files that are not xlsx workbooks.
var ErrNotSpreadsheet = errors.New("not a valid .xlsx workbook")

// IsSpreadsheet accepts a file by MIME type or by .xlsx extension.
func IsSpreadsheet(fileName, contentType string) bool {
	if strings.EqualFold(strings.TrimSpace(strings.Split(contentType, ";")[0]), XLSXContentType) {
		return true
	}
	return strings.EqualFold(filepath.Ext(fileName), ".xlsx")
}

// ReadFirstSheet returns the rows of the workbook's first worksheet.
func ReadFirstSheet(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotSpreadsheet, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no worksheets", ErrNotSpreadsheet)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// ToCSV renders rows as CSV text, padding every row to the widest one.
func ToCSV(rows [][]string) (string, error) {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		padded := make([]string, width)
		copy(padded, row)
		if err := w.Write(padded); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SheetText reads the first worksheet of an xlsx stream as CSV text.
func SheetText(r io.Reader) (string, error) {
	rows, err := ReadFirstSheet(r)
	if err != nil {
		return "", err
	}
	return ToCSV(rows)
}
