package extraction

import "google.golang.org/genai"

// ResponseSchema returns the response schema sent with every request. Every
// property is required, including every property of each payment item.
func ResponseSchema() *genai.Schema {
	str := func(desc string) *genai.Schema { return &genai.Schema{Type: genai.TypeString, Description: desc} }
	num := func(desc string) *genai.Schema { return &genai.Schema{Type: genai.TypeNumber, Description: desc} }
	flag := func(desc string) *genai.Schema { return &genai.Schema{Type: genai.TypeBoolean, Description: desc} }

	payment := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"studentId": str("The student's ID exactly as written."),
			"name":      str("The student's full name."),
			"amount":    num("The amount paid, from the 'Amount Paid' column."),
			"time":      str("Time of payment, e.g. '2:15 PM'. Empty when missing or N/A."),
			"date":      str("Date of payment, e.g. '7/5/2024'. Empty when missing or N/A."),
		},
		Required: []string{"studentId", "name", "amount", "time", "date"},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"collectionName":          str("Name of the collection. Empty for multi-collection exports."),
			"amount":                  num("Amount each student must pay; 0 when it varies or for multi-collection exports."),
			"deadline":                str("Deadline as YYYY-MM-DD. Empty for multi-collection exports."),
			"treasurerName":           str("Treasurer's name from the footer."),
			"payments":                {Type: genai.TypeArray, Items: payment},
			"hasHeader":               flag("True if a valid single-collection header was found."),
			"hasBody":                 flag("True if a student data table was found."),
			"hasFooter":               flag("True if a treasurer verification footer was found."),
			"hasStudentData":          flag("True if the payments array is not empty."),
			"isRemitted":              flag("True if remittance details were found in the header."),
			"remittedBy":              str("Who remitted the funds."),
			"receivedBy":              str("Who received the funds."),
			"remittedDate":            str("Date and time of remittance."),
			"isMultiCollectionReport": flag("True if the file is a student export with several collections as columns."),
		},
		Required: RequiredFields,
	}
}

// RequiredFields lists the top-level response properties.
var RequiredFields = []string{
	"collectionName", "amount", "deadline", "treasurerName", "payments",
	"hasHeader", "hasBody", "hasFooter", "hasStudentData",
	"isRemitted", "remittedBy", "receivedBy", "remittedDate", "isMultiCollectionReport",
}
