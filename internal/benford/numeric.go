package benford

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumeric attempts to read a raw cell value as a number. It accepts
// plain decimals and scientific notation, strips thousands separators and a
// trailing percent sign, and reads the accounting form "(123)" as -123.
// Missing cells (empty strings) and anything else that does not parse
// report false. NaN and infinities also report false so they can never
// reach the digit extractor.
func ParseNumeric(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if len(s) >= 3 && strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + s[1:len(s)-1]
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
