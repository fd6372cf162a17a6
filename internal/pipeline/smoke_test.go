package pipeline

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"finrisk/internal/config"
	"finrisk/internal/storage"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Columns:           testColumns(),
		Coefficients:      config.DefaultCoefficients,
		RepairOutlierMin:  480,
		RiskSumUpperBound: 1e9,
	}
}

func TestSmokeSpreadsheetToXLSX(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "finrisk.db"))
	require.NoError(t, err)
	defer db.Close()

	input := filepath.Join(tmp, "klaidos.xlsx")
	blob := mkXLSX([][]any{
		{"Suma EUR,\nbe PVM", colSeverity, colStart, colEnd, colType, "Dokumento data"},
		{"2.404,75 €", "Kritinė", "23:50", "00:10", "Suma", "2024-01-15"},
		{100.0, "vidutinis", "08:00", "09:00", "Data", time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)},
		{"?", "", nil, nil, "Suma", "blogai"},
	})
	require.NoError(t, os.WriteFile(input, blob, 0o644))

	proc := NewProcessingService(db, testConfig(t))
	out := filepath.Join(tmp, "out", "result.xlsx")
	res, err := proc.ProcessFile(t.Context(), input, "", out)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Summary.TotalErrors)
	assert.InDelta(t, 2404.75*0.30+100*0.07, res.Summary.TotalRisk, 1e-6)
	assert.InDelta(t, 80.0, res.Summary.TotalRepairMinutes, 1e-6)
	assert.Equal(t, []int{4}, res.Summary.UnparseableAmount)
	assert.NotEmpty(t, res.TraceID)

	upload, err := db.MustUploadByID(res.UploadID)
	require.NoError(t, err)
	assert.Equal(t, storage.StatusExported, upload.Status)

	runs, err := db.ListRuns(5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, res.TraceID, runs[0].TraceID)
	assert.Equal(t, 3, runs[0].Rows)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SheetData, SheetKPI, SheetDiagnostics}, f.GetSheetList())

	rows, err := f.GetRows(SheetData)
	require.NoError(t, err)
	require.Len(t, rows, 4, "header plus every input row")
	assert.Equal(t, colAmount, rows[0][0])
	assert.Equal(t, "financial_risk", rows[0][len(rows[0])-1])
	assert.Equal(t, "critical", rows[1][7])

	kpi, err := f.GetRows(SheetKPI)
	require.NoError(t, err)
	assert.Equal(t, "Klaidų skaičius", kpi[1][0])
	assert.Equal(t, "3", kpi[1][1])

	diag, err := f.GetRows(SheetDiagnostics)
	require.NoError(t, err)
	assert.Equal(t, "4", diag[3][1])
}

func TestProcessPendingMarksFailures(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "finrisk.db"))
	require.NoError(t, err)
	defer db.Close()

	good := filepath.Join(tmp, "good.xlsx")
	require.NoError(t, os.WriteFile(good, mkXLSX([][]any{{colAmount}, {"5"}}), 0o644))
	bad := filepath.Join(tmp, "bad.xlsx")
	require.NoError(t, os.WriteFile(bad, []byte("not a workbook"), 0o644))

	proc := NewProcessingService(db, testConfig(t))
	for _, p := range []string{good, bad} {
		_, created, err := proc.RegisterFile(p)
		require.NoError(t, err)
		assert.True(t, created)
	}
	_, created, err := proc.RegisterFile(good)
	require.NoError(t, err)
	assert.False(t, created, "same bytes are registered once")

	processed, failed, err := proc.ProcessPending(t.Context(), 10, "")
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Equal(t, 1, failed)

	failedRows, err := db.ListUploadsByStatus(storage.StatusFailed, 10)
	require.NoError(t, err)
	require.Len(t, failedRows, 1)
	assert.Equal(t, "bad.xlsx", failedRows[0].Name)

	done, err := db.ListUploadsByStatus(storage.StatusProcessed, 10)
	require.NoError(t, err)
	require.Len(t, done, 1)
}

func TestProcessFileMarksUnreadableUploadFailed(t *testing.T) {
	tmp := t.TempDir()
	db, err := storage.Open(filepath.Join(tmp, "finrisk.db"))
	require.NoError(t, err)
	defer db.Close()

	bad := filepath.Join(tmp, "sugadintas.xlsx")
	require.NoError(t, os.WriteFile(bad, []byte("not a workbook"), 0o644))

	proc := NewProcessingService(db, testConfig(t))
	_, err = proc.ProcessFile(t.Context(), bad, "", "")
	require.Error(t, err)

	pending, err := db.ListUploadsByStatus(storage.StatusFetched, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	failed, err := db.ListUploadsByStatus(storage.StatusFailed, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "sugadintas.xlsx", failed[0].Name)

	processed, failedCount, err := proc.ProcessPending(t.Context(), 10, "")
	require.NoError(t, err)
	assert.Zero(t, processed)
	assert.Zero(t, failedCount)
}

func TestRegisterFileRejectsUnknownExtension(t *testing.T) {
	proc := NewProcessingService(nil, testConfig(t))
	_, _, err := proc.RegisterFile("ataskaita.pdf")
	require.ErrorIs(t, err, ErrUnsupportedInput)
}

func TestExportWritesEmptyCellsForNil(t *testing.T) {
	clean := testEngine().Derive(t.Context(), dataset([]string{colAmount, colSeverity}, []any{"nėra", "kita"}))
	out := filepath.Join(t.TempDir(), "x.xlsx")
	require.NoError(t, ExportCleanToXLSX(clean, Summarize(clean, DefaultSummaryOptions()), out))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	for _, col := range []string{"C", "D", "E", "F"} {
		v, err := f.GetCellValue(SheetData, col+"2")
		require.NoError(t, err)
		assert.Empty(t, v, "column %s", col)
	}
}

func TestExportKeepsClockTimesReadable(t *testing.T) {
	clean := testEngine().Derive(t.Context(), dataset([]string{colStart, colEnd},
		[]any{"23:50", "00:10"},
		[]any{85800.0 / 86400, 600.0 / 86400},
		[]any{"2024-01-15 08:00", "2024-01-15 09:30"},
		[]any{"1850-03-01", nil},
		[]any{"23:50:30", "00:10"},
	))
	out := filepath.Join(t.TempDir(), "laikai.xlsx")
	require.NoError(t, ExportCleanToXLSX(clean, Summarize(clean, DefaultSummaryOptions()), out))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetData)
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, []string{"23:50", "00:10"}, rows[1][:2])
	assert.Equal(t, []string{"23:50", "00:10"}, rows[2][:2])
	assert.Equal(t, "1850-03-01", rows[4][0])
	assert.Equal(t, "23:50:30", rows[5][0])
	for _, r := range rows[1:] {
		for _, v := range r {
			assert.NotContains(t, v, "0000-01-01")
			assert.NotContains(t, v, "1899-12-30")
		}
	}

	raw, err := f.GetRows(SheetData, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	clock, err := strconv.ParseFloat(raw[1][0], 64)
	require.NoError(t, err)
	assert.InDelta(t, 85800.0/86400, clock, 1e-9)
	dated, err := strconv.ParseFloat(raw[3][0], 64)
	require.NoError(t, err)
	assert.InDelta(t, 45306+8.0/24, dated, 1e-6)
}
