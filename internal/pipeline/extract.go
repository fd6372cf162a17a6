package pipeline

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
	"github.com/xuri/excelize/v2"

	"finrisk/internal"
	"finrisk/internal/util"
)

var reSpaceRuns = regexp.MustCompile(`\s+`)

// ListSheets returns the worksheet names of an xlsx workbook.
func ListSheets(content []byte) ([]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// ReadXLSX loads one sheet as a raw dataset. An empty sheet name picks the
// first sheet. The first non-empty row is the header.
func ReadXLSX(content []byte, sheet string) (internal.Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return internal.Dataset{}, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return internal.Dataset{}, ErrNoSheet
	}
	if strings.TrimSpace(sheet) == "" {
		sheet = sheets[0]
	} else if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		return internal.Dataset{}, fmt.Errorf("%w: %s", ErrNoSheet, sheet)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return internal.Dataset{}, err
	}

	ds := internal.Dataset{Source: internal.SourceXLSX, Sheet: sheet}
	headerRow := -1
	for i, row := range rows {
		if rowIsBlank(row) {
			continue
		}
		if headerRow < 0 {
			headerRow = i
			ds.Columns = append([]string(nil), row...)
			continue
		}

		values := make([]any, len(ds.Columns))
		for c := range values {
			if c < len(row) {
				values[c] = typedCell(f, sheet, c+1, i+1, row[c])
			}
		}
		ds.Rows = append(ds.Rows, internal.RawRecord{LineNo: i + 1, Values: values})
	}
	if headerRow < 0 {
		return internal.Dataset{}, fmt.Errorf("%w: sheet %s", ErrNoHeader, sheet)
	}
	return ds, nil
}

// typedCell recovers the cell type that GetRows flattens to text, so numbers
// and booleans reach the parsers as such.
func typedCell(f *excelize.File, sheet string, col, row int, raw string) any {
	if util.IsBlank(raw) {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return raw
	}
	typ, err := f.GetCellType(sheet, cell)
	if err != nil {
		return raw
	}
	switch typ {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return v
		}
		return raw
	default:
		return raw
	}
}

// ReadHTMLTable loads the first table with a header and at least one data row.
// All values are text.
func ReadHTMLTable(html string) (internal.Dataset, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return internal.Dataset{}, err
	}

	var ds internal.Dataset
	found := false
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		rows := table.Find("tr")
		if rows.Length() < 2 {
			return true
		}

		headers := []string{}
		rows.First().Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, cell.Text())
		})

		ds = internal.Dataset{Source: internal.SourceHTMLTable, Columns: headers}
		rows.Slice(1, rows.Length()).Each(func(i int, row *goquery.Selection) {
			values := make([]any, len(headers))
			c := 0
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				if c < len(values) {
					if text := normalizeSpaces(cell.Text()); text != "" {
						values[c] = text
					}
				}
				c++
			})
			if c == 0 {
				return
			}
			ds.Rows = append(ds.Rows, internal.RawRecord{LineNo: i + 2, Values: values})
		})
		found = true
		return false
	})

	if !found {
		return internal.Dataset{}, ErrNoTable
	}
	return ds, nil
}

// ReadEmail takes the first spreadsheet attachment of a message, falling back
// to a table in the HTML body.
func ReadEmail(raw []byte, sheet string) (internal.Dataset, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return internal.Dataset{}, err
	}

	for _, att := range env.Attachments {
		filename := strings.TrimSpace(att.FileName)
		lower := strings.ToLower(filename)
		if !strings.HasSuffix(lower, ".xlsx") && !strings.HasSuffix(lower, ".xlsm") {
			continue
		}
		ds, err := ReadXLSX(att.Content, sheet)
		if err != nil {
			return internal.Dataset{}, fmt.Errorf("attachment %s: %w", filename, err)
		}
		ds.Source = internal.SourceEmail
		ds.Name = filename
		return ds, nil
	}

	if env.HTML != "" {
		ds, err := ReadHTMLTable(env.HTML)
		if err == nil {
			ds.Source = internal.SourceEmail
			ds.Name = env.GetHeader("Subject")
			return ds, nil
		}
	}
	return internal.Dataset{}, ErrNoAttachment
}

func rowIsBlank(row []string) bool {
	for _, c := range row {
		if !util.IsBlank(c) {
			return false
		}
	}
	return true
}

func normalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaceRuns.ReplaceAllString(input, " "))
}

func baseName(path string) string {
	return filepath.Base(path)
}
