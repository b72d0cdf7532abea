package extraction

import (
	"fmt"
	"strings"
	"time"

	"treasury-backend/internal/models"
)

const instructionTemplate = `You are a data parsing assistant for a class treasurer. You will be given the content of one worksheet of an XLSX file as CSV text. Determine the report type, then extract data accordingly. There are three report types: "Active Collection Report", "Remitted Collection Report" and "Multi-Collection Student Export".

1. IDENTIFY THE REPORT TYPE
- Multi-Collection Student Export (not accepted): its first row has headers like 'Student No' and 'Student Name' followed by SEVERAL collection names as column headers. If you see this format set 'isMultiCollectionReport' to true, leave every other field at its empty or zero value and stop.
- Single Collection Report (active or remitted): a Header section at the top, a Body with a table of student payments, and a Footer at the bottom. Parse these as described below.

2. PARSING A SINGLE COLLECTION REPORT
Be flexible with whitespace and capitalization.

Header:
- Look for key/value rows. The essential keys are 'Collection Name:' and 'Deadline:'.
- 'Amount per Student:' (or 'Amount:') may be present for fixed-amount collections; use its value for 'amount'. If it is missing the amount varies per student and 'amount' must be 0.
- Remitted reports have extra header rows. The primary indicator is 'Status: Remitted'. Also look for 'Paid by:', 'Received by:', 'Date Remitted:' and 'Time Remitted:'.
- If remittance details are found set 'isRemitted' to true and fill 'remittedBy', 'receivedBy' and 'remittedDate' (date and time combined, e.g. '2024-07-30 3:00 PM').
- Return 'deadline' as YYYY-MM-DD.

Body:
- Find the table header row. The essential headers are 'Student No' (or 'Student ID'), 'Student Name' (or 'Name') and 'Amount Paid'.
- Each payment 'amount' MUST come from the 'Amount Paid' column. Ignore every other column such as 'Amount to Pay', 'Status' or custom fields.
- 'studentId' values are alphanumeric strings. Copy them exactly, keeping leading zeros and punctuation (e.g. '2024-001'). Never convert them to numbers.
- For each student row extract 'studentId', 'name' and 'amount', plus 'time' and 'date' when those columns exist.
- Trim whitespace from every string value.
- 'amount' MUST be a number. If 'Amount Paid' is empty, non-numeric or text, use 0.
- If a 'Time' or 'Date' cell is empty or 'N/A', return an empty string for it.

Footer:
- Format A: a row starting with 'Verified by:' followed by the treasurer's name.
- Format B: 'Treasurer's Name:' and 'Student ID:' on separate rows.
- Put the treasurer's name from either format in 'treasurerName'.

3. OUTPUT RULES
Always return one JSON object matching the response schema.
- For a multi-collection export only 'isMultiCollectionReport' is true; everything else is empty, 0 or false.
- For a single collection report fill 'collectionName', 'amount', 'deadline' and 'treasurerName', using empty values when not found, and list every student row in 'payments' (an empty array when there are none).
- 'hasHeader' is true when the collection name and deadline were found, 'hasBody' when the student table headers were found, 'hasFooter' when the footer was found, and 'hasStudentData' when 'payments' is not empty.

CONTEXT
- Today's date is %s.
- Known students are: %s. Match rows against this list, but include every row from the file in 'payments' even when its ID is not on the list.`

// Instructions renders the fixed instruction block with the roster and the
// current date filled in.
func Instructions(roster []models.Member, today time.Time) string {
	entries := make([]string, 0, len(roster))
	for _, m := range roster {
		entries = append(entries, fmt.Sprintf("%s (ID: %s)", m.Name, m.ID))
	}
	list := strings.Join(entries, ", ")
	if list == "" {
		list = "(none)"
	}
	return fmt.Sprintf(instructionTemplate, today.Format("Mon Jan 2 2006"), list)
}

// Prompt wraps the worksheet text for the user turn.
func Prompt(sheetText string) string {
	return "Parse the following XLSX file content (provided as CSV):\n\n" + sheetText
}
