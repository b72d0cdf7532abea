package spreadsheet

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

// WriteWorkbook builds a single-sheet workbook from an array of rows. Cell
// values keep their Go types so numbers stay numeric in the sheet.
func WriteWorkbook(sheetName string, rows [][]any, colWidths []float64) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, err
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		values := row
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	for i, width := range colWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var unsafeFileChars = regexp.MustCompile(`(?i)[^a-z0-9]`)

// ExportFileName derives a download name from a collection name.
func ExportFileName(collectionName string) string {
	return strings.ToLower(unsafeFileChars.ReplaceAllString(collectionName, "_")) + "_export.xlsx"
}
