package services

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// numberRegexp captures the first signed decimal in a raw field,
	// tolerating unit suffixes like "4.7℃", "1.9m/s" or "0mm".
	numberRegexp = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
)

// noDataSentinel is the marker the source page prints for a measurement
// with no data.
const noDataSentinel = "----"

// NormalizeNumber extracts a numeric value from a raw measurement string.
// An already-numeric string passes through unchanged. Empty input or text
// with no numeric substring yields nil — unit-bearing noise is expected
// from the source and is not treated as an error.
func NormalizeNumber(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	match := numberRegexp.FindString(raw)
	if match == "" {
		return nil
	}

	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &v
}

// NormalizeRoadCondition trims a raw road condition string and maps the
// "no data" sentinel to nil. Any other non-empty text passes through
// verbatim.
func NormalizeRoadCondition(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == noDataSentinel {
		return nil
	}
	return &raw
}
