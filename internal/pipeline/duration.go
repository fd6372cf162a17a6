package pipeline

import (
	"time"

	"finrisk/internal/util"
)

// MaxRepairMinutes bounds a derived repair span (16 hours).
const MaxRepairMinutes = 16 * 60

// DeriveRepairMinutes keeps a supplied duration untouched. Otherwise it takes
// the span between start and end, rolling end over midnight when it is
// earlier than start. Spans outside [0, MaxRepairMinutes] are dropped.
func DeriveRepairMinutes(supplied *float64, start, end *time.Time) *float64 {
	if supplied != nil {
		return supplied
	}
	if start == nil || end == nil {
		return nil
	}

	e := *end
	if e.Before(*start) {
		e = e.Add(24 * time.Hour)
	}
	minutes := e.Sub(*start).Minutes()
	if minutes < 0 || minutes > MaxRepairMinutes {
		return nil
	}
	return util.FloatPtr(minutes)
}
