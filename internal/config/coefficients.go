package config

import (
	"errors"
	"fmt"
	"math"

	"finrisk/internal"
)

var ErrInvalidCoefficient = errors.New("invalid risk coefficient")

// Coefficients is the share of an amount counted as financial exposure for
// each canonical severity. Default covers unknown or missing severity.
type Coefficients struct {
	Critical float64 `yaml:"critical"`
	High     float64 `yaml:"high"`
	Medium   float64 `yaml:"medium"`
	Low      float64 `yaml:"low"`
	Default  float64 `yaml:"default"`
}

var DefaultCoefficients = Coefficients{
	Critical: 0.30,
	High:     0.15,
	Medium:   0.07,
	Low:      0.03,
	Default:  0.05,
}

func (c Coefficients) Map() map[internal.Severity]float64 {
	return map[internal.Severity]float64{
		internal.SeverityCritical: c.Critical,
		internal.SeverityHigh:     c.High,
		internal.SeverityMedium:   c.Medium,
		internal.SeverityLow:      c.Low,
	}
}

func (c Coefficients) Validate() error {
	named := []struct {
		name  string
		value float64
	}{
		{"critical", c.Critical},
		{"high", c.High},
		{"medium", c.Medium},
		{"low", c.Low},
		{"default", c.Default},
	}
	for _, n := range named {
		if math.IsNaN(n.value) || n.value < 0 || n.value > 1 {
			return fmt.Errorf("%w: %s=%v outside [0,1]", ErrInvalidCoefficient, n.name, n.value)
		}
	}
	return nil
}
