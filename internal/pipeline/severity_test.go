package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"finrisk/internal"
)

func TestNormalizeSeverity(t *testing.T) {
	cases := []struct {
		input any
		want  internal.Severity
	}{
		{"Kritinis", internal.SeverityCritical},
		{"kritinė", internal.SeverityCritical},
		{"KRITINE", internal.SeverityCritical},
		{" Kritinė\n", internal.SeverityCritical},
		{"Aukšta", internal.SeverityHigh},
		{"aukstas", internal.SeverityHigh},
		{"Vidutinė", internal.SeverityMedium},
		{"vidutinis", internal.SeverityMedium},
		{"Žema", internal.SeverityLow},
		{"zemas", internal.SeverityLow},
		{"High", internal.SeverityHigh},
		{"nežinoma", internal.SeverityUnknown},
		{"", internal.SeverityUnknown},
		{nil, internal.SeverityUnknown},
		{3.0, internal.SeverityUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeSeverity(tc.input), "input %#v", tc.input)
	}
}

func TestNormalizeSeverityIsIdempotent(t *testing.T) {
	for _, sev := range internal.CanonicalSeverities {
		assert.Equal(t, sev, NormalizeSeverity(string(sev)))
		assert.Equal(t, sev, NormalizeSeverity(string(NormalizeSeverity(string(sev)))))
	}
}

func TestFoldSeverityPassesUnknownThrough(t *testing.T) {
	assert.Equal(t, "nezinoma", FoldSeverity("Nežinoma"))
	assert.Equal(t, "critical", FoldSeverity("Kritinis"))
	assert.Equal(t, "", FoldSeverity(nil))
}
