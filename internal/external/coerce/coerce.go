// Package coerce holds the value-coercion rules shared by every source
// adapter: empty-as-zero parsing, percent-string stripping and the
// 万→亿 denomination division. Keeping them in one place stops each
// adapter from growing its own slightly different conversion.
package coerce

import (
	"math"
	"strconv"
	"strings"
)

// Float parses an upstream numeric cell. Sources report missing values
// as "", "-" or null and percentages as "1.23%"; all of those must map
// to a number without erroring a row.
func Float(v interface{}) float64 {
	switch val := v.(type) {
	case nil:
		return 0
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		return parseString(val)
	default:
		return 0
	}
}

func parseString(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0
	}
	s = strings.TrimSuffix(s, "%")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// WanToYi converts 万 to 亿. Flow sources report 万 while the rest of
// the system works in 亿.
func WanToYi(v float64) float64 {
	return v / 10000
}

// Round rounds v to the given number of decimal places, matching the
// half-away-from-zero behaviour the rest of the pipeline assumes.
func Round(v float64, places int) float64 {
	pow := math.Pow10(places)
	return math.Round(v*pow) / pow
}
