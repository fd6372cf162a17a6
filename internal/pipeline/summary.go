package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"finrisk/internal"
	"finrisk/internal/util"
)

const UnspecifiedKey = "(nenurodyta)"

type SummaryOptions struct {
	// RepairOutlierMin flags supplied or derived repair times above it.
	RepairOutlierMin float64
	// RiskUpperBound excludes absurd risk values from the total.
	RiskUpperBound float64
}

func DefaultSummaryOptions() SummaryOptions {
	return SummaryOptions{RepairOutlierMin: 8 * 60, RiskUpperBound: 1e9}
}

var recurringTrue = map[string]struct{}{
	"taip": {}, "yes": {}, "true": {}, "1": {}, "x": {}, "+": {}, "y": {}, "t": {},
}

// Summarize computes the dashboard KPIs. Nil values never count as zero:
// they are left out of sums and reported in the diagnostics instead.
func Summarize(clean internal.CleanDataset, opts SummaryOptions) internal.Summary {
	s := internal.Summary{TotalErrors: len(clean.Rows)}

	byType := map[string]*internal.Breakdown{}
	byStage := map[string]*internal.Breakdown{}
	bySeverity := map[string]*internal.Breakdown{}

	riskTracked := clean.Has(internal.FieldAmount) || clean.Has(internal.FieldFinancialRisk)
	for _, row := range clean.Rows {
		risk := 0.0
		if row.FinancialRisk != nil && *row.FinancialRisk >= 0 && *row.FinancialRisk <= opts.RiskUpperBound {
			risk = *row.FinancialRisk
			s.TotalRisk += risk
		}
		repair := 0.0
		if row.RepairMinutes != nil {
			m := *row.RepairMinutes
			if m >= 0 && m <= MaxRepairMinutes {
				repair = m
				s.TotalRepairMinutes += m
			}
			if m < 0 || m > opts.RepairOutlierMin {
				s.RepairOutliers = append(s.RepairOutliers, row.LineNo)
			}
		}

		if clean.Has(internal.FieldAmount) && row.AmountParsed == nil {
			s.UnparseableAmount = append(s.UnparseableAmount, row.LineNo)
		}
		if riskTracked && row.FinancialRisk == nil {
			s.UnparseableRisk = append(s.UnparseableRisk, row.LineNo)
		}
		if clean.Has(internal.FieldRecurring) && isRecurring(clean.FieldValue(row, internal.FieldRecurring)) {
			s.RecurringCount++
		}

		if clean.Has(internal.FieldErrorType) {
			addBreakdown(byType, cellKey(clean.FieldValue(row, internal.FieldErrorType)), risk, repair)
		}
		if clean.Has(internal.FieldProcessStage) {
			addBreakdown(byStage, cellKey(clean.FieldValue(row, internal.FieldProcessStage)), risk, repair)
		}
		if clean.Has(internal.FieldSeverity) {
			key := string(row.SeverityNormalized)
			if key == "" {
				key = UnspecifiedKey
			}
			addBreakdown(bySeverity, key, risk, repair)
		}
	}

	s.TotalRepairHours = s.TotalRepairMinutes / 60
	s.ByErrorType = sortedBreakdowns(byType)
	s.ByProcessStage = sortedBreakdowns(byStage)
	s.BySeverity = sortedBreakdowns(bySeverity)
	return s
}

func addBreakdown(groups map[string]*internal.Breakdown, key string, risk, repair float64) {
	b, ok := groups[key]
	if !ok {
		b = &internal.Breakdown{Key: key}
		groups[key] = b
	}
	b.Count++
	b.Risk += risk
	b.RepairMinutes += repair
}

func sortedBreakdowns(groups map[string]*internal.Breakdown) []internal.Breakdown {
	out := make([]internal.Breakdown, 0, len(groups))
	for _, b := range groups {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Risk != out[j].Risk {
			return out[i].Risk > out[j].Risk
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func cellKey(v any) string {
	if isBlankCell(v) {
		return UnspecifiedKey
	}
	if s, ok := v.(string); ok {
		return util.NormalizeHeader(s)
	}
	return fmt.Sprint(v)
}

func isRecurring(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x == 1
	case string:
		_, ok := recurringTrue[util.FoldDiacritics(strings.TrimSpace(x))]
		return ok
	default:
		return false
	}
}
