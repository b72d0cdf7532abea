package ingest

import "treasury-backend/internal/models"

// Structural validation messages. Each names the missing element.
const (
	MsgUnsupportedFileType = "Unsupported File Type: This appears to be a multi-collection student export. Please upload a file for a single collection."
	MsgHeaderMissing       = "Header Missing: Could not find 'Collection Name', 'Amount', and 'Deadline' rows."
	MsgBodyMissing         = "Body Missing: Could not find a student data table with the required headers."
	MsgBodyEmpty           = "Body Empty: The student data table was found, but it contains no students."
	MsgFooterMissing       = "Footer Missing: Could not find the 'Verified by:' row or 'Treasurer's Name' row."
)

// ValidationResult lists every structural problem found. Passed is true iff
// Errors is empty.
type ValidationResult struct {
	Errors []string `json:"errors"`
	Passed bool     `json:"passed"`
}

// Validate checks the presence of the report sections. A multi-collection
// export short-circuits every other rule.
func Validate(c models.CandidateReport) ValidationResult {
	errs := []string{}
	if c.IsMultiCollectionReport {
		errs = append(errs, MsgUnsupportedFileType)
		return ValidationResult{Errors: errs, Passed: false}
	}
	if !c.HasHeader {
		errs = append(errs, MsgHeaderMissing)
	}
	if !c.HasBody {
		errs = append(errs, MsgBodyMissing)
	}
	if c.HasBody && !c.HasStudentData {
		errs = append(errs, MsgBodyEmpty)
	}
	if !c.HasFooter {
		errs = append(errs, MsgFooterMissing)
	}
	return ValidationResult{Errors: errs, Passed: len(errs) == 0}
}

// Checklist step states.
const (
	CheckSuccess = "success"
	CheckError   = "error"
)

// ChecklistItem is one step of the upload progress checklist.
type ChecklistItem struct {
	Text   string `json:"text"`
	Status string `json:"status"`
}

// Checklist reports the four upload checks: header, student data, footer and
// roster cross-reference.
func Checklist(c models.CandidateReport, roster models.Roster) []ChecklistItem {
	unrecognized := len(PartitionPayments(c.Payments, roster).Unrecognized)
	return []ChecklistItem{
		{Text: "Checking for valid header", Status: checkStatus(c.HasHeader)},
		{Text: "Scanning for student data", Status: checkStatus(c.HasBody && c.HasStudentData)},
		{Text: "Verifying treasurer footer", Status: checkStatus(c.HasFooter)},
		{Text: "Cross-referencing student IDs", Status: checkStatus(unrecognized == 0)},
	}
}

func checkStatus(ok bool) string {
	if ok {
		return CheckSuccess
	}
	return CheckError
}
