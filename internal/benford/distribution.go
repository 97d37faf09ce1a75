package benford

import (
	"math"
)

// expectedProportions is the theoretical Benford frequency table,
// log10(1 + 1/d) for digits 1 through 9. Computed once; the nine entries
// sum to 1 within floating tolerance.
var expectedProportions = computeExpected()

func computeExpected() [DigitCount]float64 {
	var table [DigitCount]float64
	for d := MinDigit; d <= MaxDigit; d++ {
		table[d-MinDigit] = math.Log10(1 + 1/float64(d))
	}
	return table
}

// Expected returns the Benford proportion table indexed by digit-1.
func Expected() [DigitCount]float64 {
	return expectedProportions
}

// ExpectedFor returns the Benford proportion for a single digit, or 0 for
// a digit outside [MinDigit, MaxDigit].
func ExpectedFor(digit int) float64 {
	if digit < MinDigit || digit > MaxDigit {
		return 0
	}
	return expectedProportions[digit-MinDigit]
}
