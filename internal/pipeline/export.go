package pipeline

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"finrisk/internal"
	"finrisk/internal/util"
)

const (
	SheetData        = "Duomenys"
	SheetKPI         = "KPI"
	SheetDiagnostics = "Diagnostika"
)

var derivedHeaders = []string{"amount_parsed", "severity_normalized", "repair_minutes", "financial_risk"}

// ExportCleanToXLSX writes the cleaned rows, the KPI summary and the
// diagnostics to one workbook. Nil values become empty cells.
func ExportCleanToXLSX(clean internal.CleanDataset, summary internal.Summary, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetData); err != nil {
		return err
	}
	if err := writeData(f, clean); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetKPI); err != nil {
		return err
	}
	if err := writeKPI(f, summary); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetDiagnostics); err != nil {
		return err
	}
	if err := writeDiagnostics(f, clean, summary); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func writeData(f *excelize.File, clean internal.CleanDataset) error {
	headers := append(append([]string{}, clean.Columns...), derivedHeaders...)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetData, cell, h); err != nil {
			return err
		}
	}

	clockStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: util.StringPtr("hh:mm")})
	if err != nil {
		return err
	}
	clockSecStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: util.StringPtr("hh:mm:ss")})
	if err != nil {
		return err
	}

	// Readable dates are written back as real dates, the rest as they came.
	dateCols := map[int]internal.Field{}
	for _, field := range internal.DateFields {
		if idx, ok := clean.Positions[field]; ok {
			dateCols[idx] = field
		}
	}

	for i, row := range clean.Rows {
		r := i + 2
		set := func(col int, value any) {
			if value == nil {
				return
			}
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(SheetData, cell, value)
		}

		for c := range clean.Columns {
			field, ok := dateCols[c]
			if !ok || row.Timestamps[field] == nil {
				set(c+1, row.Value(c))
				continue
			}
			ts := *row.Timestamps[field]
			switch {
			case isClockOnly(ts):
				set(c+1, clockSerial(ts))
				style := clockStyle
				if ts.Second() != 0 {
					style = clockSecStyle
				}
				cell, _ := excelize.CoordinatesToCellName(c+1, r)
				_ = f.SetCellStyle(SheetData, cell, cell, style)
			case ts.Year() < 1900:
				set(c+1, row.Value(c))
			default:
				set(c+1, ts)
			}
		}
		base := len(clean.Columns)
		set(base+1, derefFloat(row.AmountParsed))
		if row.SeverityNormalized != internal.SeverityUnknown {
			set(base+2, string(row.SeverityNormalized))
		}
		set(base+3, derefFloat(row.RepairMinutes))
		set(base+4, derefFloat(row.FinancialRisk))
	}
	return nil
}

func writeKPI(f *excelize.File, s internal.Summary) error {
	rows := [][]any{
		{"Rodiklis", "Reikšmė"},
		{"Klaidų skaičius", s.TotalErrors},
		{"Taisymo laikas (val.)", round(s.TotalRepairHours, 1)},
		{"Taisymo laikas (min)", round(s.TotalRepairMinutes, 1)},
		{"Finansinė rizika (€)", round(s.TotalRisk, 2)},
		{"Pasikartojančios klaidos", s.RecurringCount},
		{},
	}
	rows = appendBreakdown(rows, "Klaidos tipas", s.ByErrorType)
	rows = appendBreakdown(rows, "Proceso etapas", s.ByProcessStage)
	rows = appendBreakdown(rows, "Klaidos sunkumas", s.BySeverity)
	return setRows(f, SheetKPI, rows)
}

func appendBreakdown(rows [][]any, title string, groups []internal.Breakdown) [][]any {
	if len(groups) == 0 {
		return rows
	}
	rows = append(rows, []any{title, "Kiekis", "Finansinė rizika (€)", "Taisymo laikas (min)"})
	for _, g := range groups {
		rows = append(rows, []any{g.Key, g.Count, round(g.Risk, 2), round(g.RepairMinutes, 1)})
	}
	return append(rows, []any{})
}

func writeDiagnostics(f *excelize.File, clean internal.CleanDataset, s internal.Summary) error {
	rows := [][]any{
		{"Patikra", "Eilutės"},
		{"Pasikartojantys stulpeliai", strings.Join(clean.DuplicateColumns, "; ")},
		{"Taisymo trukmės išskirtys", joinLines(s.RepairOutliers)},
		{"Neparsinamos sumos", joinLines(s.UnparseableAmount)},
		{"Neapskaičiuota rizika", joinLines(s.UnparseableRisk)},
	}
	return setRows(f, SheetDiagnostics, rows)
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

func joinLines(lines []int) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = strconv.Itoa(l)
	}
	return strings.Join(parts, ", ")
}

// isClockOnly reports a time of day without a date: text like "23:50" parses
// onto year 0, an Excel time serial below 1 onto 1899-12-30.
func isClockOnly(ts time.Time) bool {
	y, m, d := ts.Date()
	return (y == 0 && m == time.January && d == 1) || (y == 1899 && m == time.December && d == 30)
}

// clockSerial is the fraction of a day Excel stores for a time of day.
func clockSerial(ts time.Time) float64 {
	secs := ts.Hour()*3600 + ts.Minute()*60 + ts.Second()
	return float64(secs) / 86400
}

func derefFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func round(v float64, places int) float64 {
	p, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return p
}
