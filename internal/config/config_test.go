package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finrisk/internal"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RISK_PROFILE_PATH", "")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultCoefficients, cfg.Coefficients)
	assert.Equal(t, "Suma EUR, be PVM", cfg.Columns[internal.FieldAmount])
	assert.Equal(t, "Finansinė rizika", cfg.Columns[internal.FieldFinancialRisk])
	assert.InDelta(t, 480.0, cfg.RepairOutlierMin, 1e-9)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RISK_PROFILE_PATH", "")
	t.Setenv("RISK_COEF_CRITICAL", "0.5")
	t.Setenv("COL_SEVERITY", "Severity")
	t.Setenv("WATCH_INTERVAL_SEC", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, cfg.Coefficients.Critical, 1e-9)
	assert.Equal(t, "Severity", cfg.Columns[internal.FieldSeverity])
	assert.Equal(t, 30, cfg.WatchIntervalSec)
}

func TestLoadRejectsCoefficientOutOfRange(t *testing.T) {
	t.Setenv("RISK_PROFILE_PATH", "")
	t.Setenv("RISK_COEF_LOW", "1.5")

	_, err := Load()
	require.ErrorIs(t, err, ErrInvalidCoefficient)
}

func TestLoadRejectsNaNCoefficient(t *testing.T) {
	t.Setenv("RISK_PROFILE_PATH", "")
	t.Setenv("RISK_COEF_CRITICAL", "NaN")

	_, err := Load()
	require.ErrorIs(t, err, ErrInvalidCoefficient)

	c := DefaultCoefficients
	c.Default = math.NaN()
	assert.ErrorIs(t, c.Validate(), ErrInvalidCoefficient)
}

func TestRiskProfileApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	body := `
coefficients_percent:
  critical: 40
  default: 10
columns:
  amount_raw: "Suma"
sheet: "2024"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv("RISK_PROFILE_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.InDelta(t, 0.40, cfg.Coefficients.Critical, 1e-9)
	assert.InDelta(t, 0.10, cfg.Coefficients.Default, 1e-9)
	assert.InDelta(t, DefaultCoefficients.High, cfg.Coefficients.High, 1e-9)
	assert.Equal(t, "Suma", cfg.Columns[internal.FieldAmount])
	assert.Equal(t, "2024", cfg.DefaultSheet)
}

func TestLoadRiskProfileMissingFile(t *testing.T) {
	_, err := LoadRiskProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestRequire(t *testing.T) {
	var cfg Config
	assert.NoError(t, cfg.Require("INBOX_DIR", "./inbox"))
	err := cfg.Require("INBOX_DIR", "  ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INBOX_DIR")
}
