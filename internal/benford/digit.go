package benford

import (
	"math"
)

// LeadingDigit extracts the leading significant digit from a raw cell
// value. The second return is false when the value is missing, does not
// parse as a number, or is exactly zero. Malformed input is never an
// error, only an absent digit.
func LeadingDigit(raw string) (int, bool) {
	v, ok := ParseNumeric(raw)
	if !ok {
		return 0, false
	}
	return LeadingDigitFloat(v)
}

// LeadingDigitFloat extracts the leading significant digit from a float.
// Zero has no leading digit. The sign is ignored; magnitude is normalized
// into [1,10) so values below one keep their first significant digit
// (0.0032 yields 3). The result is always in [MinDigit, MaxDigit] when
// present.
func LeadingDigitFloat(v float64) (int, bool) {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	v = math.Abs(v)
	for v < 1 {
		v *= 10
	}
	for v >= 10 {
		v /= 10
	}
	d := int(v)
	// Guards float artifacts at the normalization boundary.
	if d < MinDigit || d > MaxDigit {
		return 0, false
	}
	return d, true
}
