package pipeline

import (
	"fmt"
	"math"

	"finrisk/internal"
	"finrisk/internal/util"
)

var severityTokens = map[string]internal.Severity{
	"kritine":     internal.SeverityCritical,
	"kritinis":    internal.SeverityCritical,
	"kritiska":    internal.SeverityCritical,
	"kritiskas":   internal.SeverityCritical,
	"critical":    internal.SeverityCritical,
	"auksta":      internal.SeverityHigh,
	"aukstas":     internal.SeverityHigh,
	"didele":      internal.SeverityHigh,
	"didelis":     internal.SeverityHigh,
	"high":        internal.SeverityHigh,
	"vidutine":    internal.SeverityMedium,
	"vidutinis":   internal.SeverityMedium,
	"vidutiniska": internal.SeverityMedium,
	"medium":      internal.SeverityMedium,
	"moderate":    internal.SeverityMedium,
	"zema":        internal.SeverityLow,
	"zemas":       internal.SeverityLow,
	"maza":        internal.SeverityLow,
	"mazas":       internal.SeverityLow,
	"low":         internal.SeverityLow,
	"minor":       internal.SeverityLow,
}

// FoldSeverity folds a free-text label to its ASCII lookup token and maps it
// onto a canonical label when one is known. Unknown tokens come back as is.
func FoldSeverity(raw any) string {
	text := severityText(raw)
	if text == "" {
		return ""
	}
	token := util.FoldDiacritics(text)
	if sev, ok := severityTokens[token]; ok {
		return string(sev)
	}
	return token
}

// NormalizeSeverity returns the canonical severity, or SeverityUnknown for
// missing and unrecognized labels.
func NormalizeSeverity(raw any) internal.Severity {
	token := FoldSeverity(raw)
	for _, sev := range internal.CanonicalSeverities {
		if token == string(sev) {
			return sev
		}
	}
	return internal.SeverityUnknown
}

func severityText(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if math.IsNaN(v) {
			return ""
		}
		return fmt.Sprint(v)
	default:
		return fmt.Sprint(v)
	}
}
