package utils

import (
	"math"
	"strconv"
	"strings"
)

// RoundFloat rounds a float64 to a specified number of decimal places.
func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// Round2 rounds a monetary value to cents, half-up. The epsilon nudge absorbs
// binary representation error so a value like 2.345 (stored as 2.34499...)
// still rounds up to 2.35.
func Round2(val float64) float64 {
	return math.Round((val+1e-9)*100) / 100
}

// SafeNumber coerces an arbitrary input into a float64, defaulting to 0 for
// anything that is not a finite number. Numeric strings (with optional thousands
// separators and currency symbols stripped) are accepted. The commission
// calculator applies this at its boundary so it never has to fail.
func SafeNumber(input interface{}) float64 {
	switch v := input.(type) {
	case nil:
		return 0
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	case float32:
		return SafeNumber(float64(v))
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		s := strings.TrimSpace(v)
		s = strings.ReplaceAll(s, ",", "")
		s = strings.TrimPrefix(s, "$")
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return 0
	}
}
