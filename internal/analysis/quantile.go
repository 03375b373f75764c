package analysis

import (
	"fmt"
	"math"

	"labsolver/domain/core"

	"gonum.org/v1/gonum/stat/distuv"
)

// InfiniteSampleSize stands in for an infinite number of measurements. Using a
// large finite size keeps the instrument term on the same code path as the
// sample term instead of switching to the normal distribution.
const InfiniteSampleSize = 10000

// StudentQuantile returns the two-sided critical value t for Student's t
// distribution with sampleSize-1 degrees of freedom: the interval [-t, t]
// captures confidenceLevel of the mass.
func StudentQuantile(confidenceLevel float64, sampleSize int) (float64, error) {
	if !(confidenceLevel > 0 && confidenceLevel <= 1) {
		return 0, fmt.Errorf("%w: confidence level %v outside (0, 1]", core.ErrInvalidQuantileInput, confidenceLevel)
	}
	if sampleSize < 2 {
		return 0, fmt.Errorf("%w: sample size %d leaves no degrees of freedom", core.ErrInvalidQuantileInput, sampleSize)
	}
	if confidenceLevel == 1 {
		return math.Inf(1), nil
	}

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(sampleSize - 1)}
	return tDist.Quantile(1 - (1-confidenceLevel)/2), nil
}

// StudentQuantileInf is StudentQuantile at InfiniteSampleSize
func StudentQuantileInf(confidenceLevel float64) (float64, error) {
	return StudentQuantile(confidenceLevel, InfiniteSampleSize)
}
