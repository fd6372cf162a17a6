package util

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var reAmountNoise = regexp.MustCompile(`[^0-9\-,.\s]`)

// ParseAmount turns a monetary cell into a float. Numbers pass through,
// text such as "2.404,75 €" is cleaned first. It returns nil when the value
// is missing, boolean or cannot be read as a number.
func ParseAmount(value any) *float64 {
	switch v := value.(type) {
	case nil, bool:
		return nil
	case float64:
		if math.IsNaN(v) {
			return nil
		}
		return FloatPtr(v)
	case float32:
		if math.IsNaN(float64(v)) {
			return nil
		}
		return FloatPtr(float64(v))
	case int:
		return FloatPtr(float64(v))
	case int8:
		return FloatPtr(float64(v))
	case int16:
		return FloatPtr(float64(v))
	case int32:
		return FloatPtr(float64(v))
	case int64:
		return FloatPtr(float64(v))
	case uint:
		return FloatPtr(float64(v))
	case uint8:
		return FloatPtr(float64(v))
	case uint16:
		return FloatPtr(float64(v))
	case uint32:
		return FloatPtr(float64(v))
	case uint64:
		return FloatPtr(float64(v))
	case string:
		return parseAmountText(v)
	default:
		return parseAmountText(fmt.Sprint(v))
	}
}

func parseAmountText(input string) *float64 {
	s := strings.ToLower(strings.TrimSpace(input))
	s = strings.ReplaceAll(s, "eur", "")
	s = strings.ReplaceAll(s, "€", "")
	s = reAmountNoise.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), "")

	s = normalizeSeparators(s)

	negative := strings.HasPrefix(s, "-")
	s = strings.ReplaceAll(s, "-", "")
	if negative {
		s = "-" + s
	}

	if s == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return FloatPtr(parsed)
}

// normalizeSeparators settles the decimal mark. With both marks present the
// later one is decimal; a lone comma is decimal; a lone period is kept.
func normalizeSeparators(s string) string {
	comma := strings.LastIndex(s, ",")
	period := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && period >= 0:
		if comma > period {
			s = strings.ReplaceAll(s, ".", "")
			return strings.ReplaceAll(s, ",", ".")
		}
		return strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		return strings.ReplaceAll(s, ",", ".")
	default:
		return s
	}
}
