package pipeline

import (
	"context"
	"time"

	"finrisk/internal"
	"finrisk/internal/logger"
	"finrisk/internal/util"
)

// Engine derives typed fields for every row of a dataset in one pass. It
// never fails: values it cannot read become nil.
type Engine struct {
	columns internal.ColumnMap
	policy  RiskPolicy
	log     logger.Logger
}

func NewEngine(columns internal.ColumnMap, policy RiskPolicy) *Engine {
	return &Engine{columns: columns, policy: policy, log: logger.Named("derive")}
}

func (e *Engine) Derive(ctx context.Context, ds internal.Dataset) internal.CleanDataset {
	ds = NormalizeColumns(ds)
	out := internal.CleanDataset{
		Name:             ds.Name,
		Source:           ds.Source,
		Sheet:            ds.Sheet,
		Columns:          ds.Columns,
		DuplicateColumns: DuplicateColumns(ds.Columns),
		Positions:        e.resolve(ds.Columns),
		Rows:             make([]internal.CleanRecord, 0, len(ds.Rows)),
	}
	if len(out.DuplicateColumns) > 0 {
		e.log.Warn(ctx, "duplicate columns after header cleanup, first occurrence is used",
			logger.Any("columns", out.DuplicateColumns), logger.String("sheet", ds.Sheet))
	}

	has := out.Has
	deriveRepair := has(internal.FieldRepairMinutes) || (has(internal.FieldCorrectionStart) && has(internal.FieldCorrectionEnd))
	deriveRisk := has(internal.FieldAmount)

	badAmounts := 0
	for _, row := range ds.Rows {
		rec := internal.CleanRecord{RawRecord: row}
		d := &rec.Derived
		d.Timestamps = map[internal.Field]*time.Time{}
		value := func(f internal.Field) any { return out.FieldValue(rec, f) }

		for _, f := range internal.DateFields {
			if has(f) {
				d.Timestamps[f] = util.ParseTimestamp(value(f))
			}
		}
		if has(internal.FieldAmount) {
			raw := value(internal.FieldAmount)
			d.AmountParsed = util.ParseAmount(raw)
			if d.AmountParsed == nil && !isBlankCell(raw) {
				badAmounts++
			}
		}
		if has(internal.FieldSeverity) {
			raw := value(internal.FieldSeverity)
			d.SeverityRaw = severityText(raw)
			d.SeverityNormalized = NormalizeSeverity(raw)
		}
		if has(internal.FieldRepairMinutes) {
			d.RepairMinutesParsed = util.ParseAmount(value(internal.FieldRepairMinutes))
		}
		if deriveRepair {
			d.RepairMinutes = DeriveRepairMinutes(d.RepairMinutesParsed,
				d.Timestamps[internal.FieldCorrectionStart], d.Timestamps[internal.FieldCorrectionEnd])
		}
		if has(internal.FieldFinancialRisk) {
			d.FinancialRiskParsed = util.ParseAmount(value(internal.FieldFinancialRisk))
		}
		if deriveRisk {
			d.FinancialRisk = DeriveFinancialRisk(d.FinancialRiskParsed, d.AmountParsed, d.SeverityNormalized, e.policy)
		} else {
			d.FinancialRisk = d.FinancialRiskParsed
		}

		out.Rows = append(out.Rows, rec)
	}

	e.log.Debug(ctx, "dataset derived",
		logger.String("sheet", ds.Sheet),
		logger.Int("rows", len(out.Rows)),
		logger.Int("unparseable_amounts", badAmounts),
		logger.Any("present", out.Positions))
	return out
}

func (e *Engine) resolve(columns []string) map[internal.Field]int {
	idx := columnIndex(columns)
	positions := map[internal.Field]int{}
	for field, name := range e.columns {
		if i, ok := idx[util.NormalizeHeader(name)]; ok {
			positions[field] = i
		}
	}
	return positions
}

func isBlankCell(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return util.IsBlank(x)
	default:
		return false
	}
}
