package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"finrisk/internal"
)

type Config struct {
	DBPath    string
	OutputDir string
	InboxDir  string
	LogLevel  string

	RiskProfilePath string
	Coefficients    Coefficients
	Columns         internal.ColumnMap

	DefaultSheet      string
	WatchIntervalSec  int
	WatchAutoExport   bool
	RepairOutlierMin  float64
	RiskSumUpperBound float64
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "finrisk.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		InboxDir:  getEnv("INBOX_DIR", filepath.Join(cwd, "data", "inbox")),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		RiskProfilePath: getEnv("RISK_PROFILE_PATH", ""),
		Coefficients: Coefficients{
			Critical: getEnvFloat("RISK_COEF_CRITICAL", DefaultCoefficients.Critical),
			High:     getEnvFloat("RISK_COEF_HIGH", DefaultCoefficients.High),
			Medium:   getEnvFloat("RISK_COEF_MEDIUM", DefaultCoefficients.Medium),
			Low:      getEnvFloat("RISK_COEF_LOW", DefaultCoefficients.Low),
			Default:  getEnvFloat("RISK_COEF_DEFAULT", DefaultCoefficients.Default),
		},
		Columns: internal.ColumnMap{
			internal.FieldAmount:           getEnv("COL_AMOUNT", "Suma EUR, be PVM"),
			internal.FieldSeverity:         getEnv("COL_SEVERITY", "Klaidos sunkumas"),
			internal.FieldCorrectionStart:  getEnv("COL_CORRECTION_START", "Klaidos ištaisymo laiko pradžia"),
			internal.FieldCorrectionEnd:    getEnv("COL_CORRECTION_END", "Klaidos ištaisymo laiko pabaiga"),
			internal.FieldRepairMinutes:    getEnv("COL_REPAIR_MINUTES", "Taisymo laikas (min)"),
			internal.FieldFinancialRisk:    getEnv("COL_FINANCIAL_RISK", "Finansinė rizika"),
			internal.FieldDocumentDate:     getEnv("COL_DOCUMENT_DATE", "Dokumento data"),
			internal.FieldDocumentReceived: getEnv("COL_DOCUMENT_RECEIVED", "Dokumento gavimo data"),
			internal.FieldProcessStage:     getEnv("COL_PROCESS_STAGE", "Proceso etapas"),
			internal.FieldErrorType:        getEnv("COL_ERROR_TYPE", "Klaidos tipas"),
			internal.FieldRecurring:        getEnv("COL_RECURRING", "Pasikartojanti klaida"),
		},

		DefaultSheet:      getEnv("DEFAULT_SHEET", ""),
		WatchIntervalSec:  getEnvInt("WATCH_INTERVAL_SEC", 30),
		WatchAutoExport:   getEnvBool("WATCH_AUTO_EXPORT", true),
		RepairOutlierMin:  getEnvFloat("REPAIR_OUTLIER_MIN", 8*60),
		RiskSumUpperBound: getEnvFloat("RISK_SUM_UPPER_BOUND", 1e9),
	}

	if cfg.RiskProfilePath != "" {
		profile, err := LoadRiskProfile(cfg.RiskProfilePath)
		if err != nil {
			return Config{}, err
		}
		profile.Apply(&cfg)
	}

	if err := cfg.Coefficients.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required setting: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
