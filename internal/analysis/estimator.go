package analysis

import (
	"fmt"
	"math"

	"labsolver/domain/core"
	"labsolver/domain/lab"

	"github.com/montanaflynn/stats"
)

// dominanceFactor is how many times larger one error term must be before the
// other is considered negligible
const dominanceFactor = 3

// EstimateAverage computes the best value and confidence interval of one
// measured variable. A single measurement only has the instrument term; repeated
// measurements also get the sample-dispersion term and the two are combined.
// Every intermediate value is rounded per settings before it is used again.
func EstimateAverage(sample lab.SampleSet, settings lab.Settings) (lab.AverageResult, error) {
	switch len(sample.Values) {
	case 0:
		return nil, core.ErrEmptySample
	case 1:
		return estimateSingle(sample, settings)
	default:
		return estimateMultiple(sample, settings)
	}
}

func estimateSingle(sample lab.SampleSet, settings lab.Settings) (lab.AverageResult, error) {
	rnd := settings.Round

	average := rnd(sample.Values[0])
	measurementError := rnd(sample.InstrumentError)
	tInf, err := StudentQuantileInf(settings.ConfidenceLevel)
	if err != nil {
		return nil, err
	}
	tInf = rnd(tInf)

	delta := rnd(measurementError / 3 * tInf)
	epsilon, err := RelativeError(delta, average, settings)
	if err != nil {
		return nil, err
	}

	estimate := lab.Estimate{Result: average, Error: delta, Epsilon: epsilon}
	if !settings.Verbose {
		return lab.LeanAverage{Estimate: estimate}, nil
	}
	return lab.ShortAverage{
		Estimate:         estimate,
		MeasurementError: measurementError,
		Confidence:       settings.ConfidenceLevel,
		TInf:             tInf,
	}, nil
}

func estimateMultiple(sample lab.SampleSet, settings lab.Settings) (lab.AverageResult, error) {
	rnd := settings.Round

	values := make([]float64, len(sample.Values))
	for i, v := range sample.Values {
		values[i] = rnd(v)
	}
	measurementError := rnd(sample.InstrumentError)

	mean, err := stats.Mean(values)
	if err != nil {
		return nil, fmt.Errorf("mean of %d measurements: %w", len(values), err)
	}
	average := rnd(mean)
	if math.IsInf(average, 0) || math.IsNaN(average) {
		return nil, fmt.Errorf("%w: average %v", core.ErrNonFinite, average)
	}

	n := float64(len(values))
	deviations := make([]float64, len(values))
	var squares float64
	for i, x := range values {
		deviations[i] = x - average
		squares += deviations[i] * deviations[i]
	}
	stdError := rnd(math.Sqrt(squares / (n * (n - 1))))

	tN, err := StudentQuantile(settings.ConfidenceLevel, len(values))
	if err != nil {
		return nil, err
	}
	tN = rnd(tN)
	tInf, err := StudentQuantileInf(settings.ConfidenceLevel)
	if err != nil {
		return nil, err
	}
	tInf = rnd(tInf)

	sampleDelta := rnd(stdError * tN)
	instrumentDelta := rnd(measurementError / 3 * tInf)
	delta, branch := CombineErrors(sampleDelta, instrumentDelta, settings)

	epsilon, err := RelativeError(delta, average, settings)
	if err != nil {
		return nil, err
	}

	estimate := lab.Estimate{Result: average, Error: delta, Epsilon: epsilon}
	if !settings.Verbose {
		return lab.LeanAverage{Estimate: estimate}, nil
	}
	return lab.LongAverage{
		Estimate:         estimate,
		Measurements:     values,
		Deviations:       deviations,
		MeasurementError: measurementError,
		StdError:         stdError,
		Confidence:       settings.ConfidenceLevel,
		TN:               tN,
		TInf:             tInf,
		SampleDelta:      sampleDelta,
		InstrumentDelta:  instrumentDelta,
		Branch:           branch,
	}, nil
}

// CombineErrors merges the sample and instrument terms. When one exceeds
// three times the other it is used alone; otherwise they add in quadrature.
func CombineErrors(sampleDelta, instrumentDelta float64, settings lab.Settings) (float64, lab.Branch) {
	switch {
	case sampleDelta > dominanceFactor*instrumentDelta:
		return sampleDelta, lab.BranchSampleDominant
	case instrumentDelta > dominanceFactor*sampleDelta:
		return instrumentDelta, lab.BranchInstrumentDominant
	default:
		return settings.Round(math.Sqrt(sampleDelta*sampleDelta + instrumentDelta*instrumentDelta)), lab.BranchQuadrature
	}
}

// RelativeError returns delta/value in percent. A zero value is a failure,
// not an infinite percentage.
func RelativeError(delta, value float64, settings lab.Settings) (float64, error) {
	if value == 0 {
		return 0, core.NewDivisionByZeroError("relative error")
	}
	return settings.Round(delta / value * 100), nil
}
