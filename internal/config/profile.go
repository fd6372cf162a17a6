package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"finrisk/internal"
)

// RiskProfile is the optional YAML settings file. Coefficients are given in
// percent, the way users type them in, and override env values when set.
type RiskProfile struct {
	Coefficients struct {
		Critical *float64 `yaml:"critical"`
		High     *float64 `yaml:"high"`
		Medium   *float64 `yaml:"medium"`
		Low      *float64 `yaml:"low"`
		Default  *float64 `yaml:"default"`
	} `yaml:"coefficients_percent"`
	Columns map[string]string `yaml:"columns"`
	Sheet   string            `yaml:"sheet"`
}

func LoadRiskProfile(path string) (RiskProfile, error) {
	var profile RiskProfile
	data, err := os.ReadFile(path)
	if err != nil {
		return profile, fmt.Errorf("read risk profile %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return profile, fmt.Errorf("parse risk profile %s: %w", path, err)
	}
	return profile, nil
}

func (p RiskProfile) Apply(cfg *Config) {
	setPercent(&cfg.Coefficients.Critical, p.Coefficients.Critical)
	setPercent(&cfg.Coefficients.High, p.Coefficients.High)
	setPercent(&cfg.Coefficients.Medium, p.Coefficients.Medium)
	setPercent(&cfg.Coefficients.Low, p.Coefficients.Low)
	setPercent(&cfg.Coefficients.Default, p.Coefficients.Default)

	for field, column := range p.Columns {
		column = strings.TrimSpace(column)
		if column == "" {
			continue
		}
		if cfg.Columns == nil {
			cfg.Columns = internal.ColumnMap{}
		}
		cfg.Columns[internal.Field(strings.TrimSpace(field))] = column
	}
	if strings.TrimSpace(p.Sheet) != "" {
		cfg.DefaultSheet = strings.TrimSpace(p.Sheet)
	}
}

func setPercent(dst *float64, percent *float64) {
	if percent == nil {
		return
	}
	*dst = *percent / 100
}
