package util

import (
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Day-first layouts tried in order. Time-only layouts parse onto the zero
// date so two of them can still be compared across midnight.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006.01.02 15:04:05",
	"2006.01.02 15:04",
	"2006.01.02",
	"2006/01/02 15:04",
	"2006/01/02",
	"2.1.2006 15:04:05",
	"2.1.2006 15:04",
	"2.1.2006",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
	"2-1-2006 15:04",
	"2-1-2006",
	"15:04:05",
	"15:04",
}

// ParseTimestamp reads a date-like cell. Numbers are treated as Excel serial
// dates. It returns nil when nothing matches.
func ParseTimestamp(value any) *time.Time {
	switch v := value.(type) {
	case nil, bool:
		return nil
	case time.Time:
		if v.IsZero() {
			return nil
		}
		return &v
	case *time.Time:
		if v == nil || v.IsZero() {
			return nil
		}
		t := *v
		return &t
	case string:
		return parseTimestampText(v)
	default:
		serial := ParseAmount(v)
		if serial == nil {
			return nil
		}
		return fromExcelSerial(*serial)
	}
}

func parseTimestampText(input string) *time.Time {
	s := strings.TrimSpace(strings.ReplaceAll(input, "\u00A0", " "))
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return &t
		}
	}
	return nil
}

func fromExcelSerial(serial float64) *time.Time {
	if serial < 0 {
		return nil
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return nil
	}
	return &t
}
