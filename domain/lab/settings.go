package lab

import (
	"fmt"
	"math"
	"strconv"
)

// Default confidence level when neither the input nor the environment sets one
const DefaultConfidenceLevel = 0.95

// Settings are fixed for a whole run and passed explicitly to every computation.
type Settings struct {
	// ConfidenceLevel is β, the probability mass captured by reported intervals
	ConfidenceLevel float64 `json:"confidence_level"`
	// RoundingDigits is the significant-digit count; 0 keeps full precision
	RoundingDigits int `json:"rounding_digits,omitempty"`
	// Verbose keeps the derivation trail needed by report renderers
	Verbose bool `json:"verbose"`
}

// DefaultSettings returns β=0.95, no rounding, lean results
func DefaultSettings() Settings {
	return Settings{ConfidenceLevel: DefaultConfidenceLevel}
}

// Validate checks the ranges the estimators rely on
func (s Settings) Validate() error {
	if !(s.ConfidenceLevel > 0 && s.ConfidenceLevel <= 1) {
		return fmt.Errorf("confidence level %v outside (0, 1]", s.ConfidenceLevel)
	}
	if s.RoundingDigits < 0 {
		return fmt.Errorf("rounding digits %d must be positive", s.RoundingDigits)
	}
	return nil
}

// Rounds reports whether significant-digit rounding is configured
func (s Settings) Rounds() bool {
	return s.RoundingDigits > 0
}

// Round rounds x to the configured number of significant digits.
// Rounding goes through the decimal scientific representation so the
// result is the float nearest to the printed digits.
func (s Settings) Round(x float64) float64 {
	if !s.Rounds() || x == 0 || math.IsInf(x, 0) || math.IsNaN(x) {
		return x
	}
	return RoundSignificant(x, s.RoundingDigits)
}

// RoundSignificant rounds x to n significant digits (n >= 1)
func RoundSignificant(x float64, n int) float64 {
	if n < 1 {
		return x
	}
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'e', n-1, 64), 64)
	if err != nil {
		return x
	}
	return v
}
