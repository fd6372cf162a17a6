package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	ds := dataset(
		[]string{colAmount, colSeverity, colRepair, colRisk, colType, colStage, colRecur},
		[]any{1000.0, "Kritinė", 30.0, nil, "Suma", "Registravimas", "Taip"},
		[]any{200.0, "Žema", 600.0, nil, "Suma", "Apmokėjimas", "ne"},
		[]any{"bloga", "Aukšta", 2000.0, nil, "Data", "Registravimas", nil},
		[]any{100.0, "", -5.0, 2e9, nil, nil, true},
	)
	clean := testEngine().Derive(context.Background(), ds)
	s := Summarize(clean, DefaultSummaryOptions())

	assert.Equal(t, 4, s.TotalErrors)
	assert.InDelta(t, 630.0, s.TotalRepairMinutes, 1e-9, "values outside [0,960] are excluded")
	assert.InDelta(t, 10.5, s.TotalRepairHours, 1e-9)
	assert.InDelta(t, 306.0, s.TotalRisk, 1e-9, "risk above the upper bound is excluded")
	assert.Equal(t, 2, s.RecurringCount)

	assert.Equal(t, []int{3, 4, 5}, s.RepairOutliers)
	assert.Equal(t, []int{4}, s.UnparseableAmount)
	assert.Equal(t, []int{4}, s.UnparseableRisk)

	require.Len(t, s.ByErrorType, 3)
	assert.Equal(t, "Suma", s.ByErrorType[0].Key)
	assert.Equal(t, 2, s.ByErrorType[0].Count)
	assert.InDelta(t, 306.0, s.ByErrorType[0].Risk, 1e-9)

	require.Len(t, s.BySeverity, 4)
	assert.Equal(t, "critical", s.BySeverity[0].Key)

	stages := map[string]int{}
	for _, b := range s.ByProcessStage {
		stages[b.Key] = b.Count
	}
	assert.Equal(t, map[string]int{"Registravimas": 2, "Apmokėjimas": 1, UnspecifiedKey: 1}, stages)
}

func TestSummarizeWithoutOptionalColumns(t *testing.T) {
	clean := testEngine().Derive(context.Background(), dataset([]string{"Kita"}, []any{"x"}, []any{"y"}))
	s := Summarize(clean, DefaultSummaryOptions())

	assert.Equal(t, 2, s.TotalErrors)
	assert.Zero(t, s.TotalRisk)
	assert.Zero(t, s.TotalRepairMinutes)
	assert.Empty(t, s.ByErrorType)
	assert.Empty(t, s.UnparseableRisk)
}
