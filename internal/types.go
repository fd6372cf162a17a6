package internal

import "time"

type InputSource string

const (
	SourceXLSX      InputSource = "xlsx"
	SourceHTMLTable InputSource = "html_table"
	SourceEmail     InputSource = "email"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityUnknown  Severity = ""
)

var CanonicalSeverities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// Field is a logical record attribute. Columns are bound to fields by name
// through a ColumnMap.
type Field string

const (
	FieldAmount           Field = "amount_raw"
	FieldSeverity         Field = "severity_raw"
	FieldCorrectionStart  Field = "correction_start"
	FieldCorrectionEnd    Field = "correction_end"
	FieldRepairMinutes    Field = "repair_minutes"
	FieldFinancialRisk    Field = "financial_risk"
	FieldDocumentDate     Field = "document_date"
	FieldDocumentReceived Field = "document_received"
	FieldProcessStage     Field = "process_stage"
	FieldErrorType        Field = "error_type"
	FieldRecurring        Field = "recurring"
)

// DateFields are parsed into timestamps when their column is present.
var DateFields = []Field{FieldDocumentDate, FieldDocumentReceived, FieldCorrectionStart, FieldCorrectionEnd}

// ColumnMap binds logical fields to post-normalization column headers.
type ColumnMap map[Field]string

// RawRecord is one input row, positionally aligned with Dataset.Columns.
// Values are untyped: nil, string, bool, float64 or time.Time depending on
// what the source could tell.
type RawRecord struct {
	LineNo int
	Values []any
}

func (r RawRecord) Value(idx int) any {
	if idx < 0 || idx >= len(r.Values) {
		return nil
	}
	return r.Values[idx]
}

// Dataset is what a tabular source produces for one sheet.
type Dataset struct {
	Name    string
	Source  InputSource
	Sheet   string
	Columns []string
	Rows    []RawRecord
}

type Derived struct {
	Timestamps          map[Field]*time.Time
	AmountParsed        *float64
	SeverityRaw         string
	SeverityNormalized  Severity
	RepairMinutesParsed *float64
	RepairMinutes       *float64
	FinancialRiskParsed *float64
	FinancialRisk       *float64
}

type CleanRecord struct {
	RawRecord
	Derived
}

type CleanDataset struct {
	Name             string
	Source           InputSource
	Sheet            string
	Columns          []string
	DuplicateColumns []string
	Positions        map[Field]int
	Rows             []CleanRecord
}

func (c CleanDataset) Has(field Field) bool {
	_, ok := c.Positions[field]
	return ok
}

// FieldValue returns the raw cell bound to field, or nil when the column is
// absent.
func (c CleanDataset) FieldValue(row CleanRecord, field Field) any {
	idx, ok := c.Positions[field]
	if !ok {
		return nil
	}
	return row.Value(idx)
}

type Breakdown struct {
	Key           string
	Count         int
	Risk          float64
	RepairMinutes float64
}

type Summary struct {
	TotalErrors        int
	TotalRepairMinutes float64
	TotalRepairHours   float64
	TotalRisk          float64
	RecurringCount     int
	ByErrorType        []Breakdown
	ByProcessStage     []Breakdown
	BySeverity         []Breakdown
	RepairOutliers     []int
	UnparseableAmount  []int
	UnparseableRisk    []int
}

type UploadRow struct {
	ID         int
	Name       string
	Source     string
	Hash       string
	Status     string
	Path       string
	ReceivedAt string
}

type RunRow struct {
	ID        int
	TraceID   string
	UploadID  int
	Sheet     string
	Rows      int
	TotalRisk float64
	RepairMin float64
	CreatedAt string
}
