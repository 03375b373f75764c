package lab

import (
	"labsolver/domain/core"
	"labsolver/internal/symbolic"
)

// Estimate is the triple every result carries: best value, confidence
// interval half-width and relative error in percent.
type Estimate struct {
	Result  float64 `json:"result"`
	Error   float64 `json:"error"`
	Epsilon float64 `json:"epsilon"`
}

// AverageKind tells which shape an AverageResult has
type AverageKind string

const (
	// AverageLean carries only the Estimate
	AverageLean AverageKind = "lean"
	// AverageShort is the single-measurement derivation
	AverageShort AverageKind = "short"
	// AverageLong is the multi-measurement derivation
	AverageLong AverageKind = "long"
)

// Branch records which combination rule produced a multi-sample error
type Branch string

const (
	BranchSampleDominant     Branch = "sample_dominant"
	BranchInstrumentDominant Branch = "instrument_dominant"
	BranchQuadrature         Branch = "quadrature"
)

// AverageResult is one of LeanAverage, ShortAverage or LongAverage
type AverageResult interface {
	Summary() Estimate
	Kind() AverageKind
}

// LeanAverage is returned when derivation detail is not requested
type LeanAverage struct {
	Estimate
}

func (a LeanAverage) Summary() Estimate { return a.Estimate }
func (a LeanAverage) Kind() AverageKind { return AverageLean }

// ShortAverage is the derivation for a single measurement: only the
// instrument term exists.
type ShortAverage struct {
	Estimate
	MeasurementError float64 `json:"measurement_error"`
	Confidence       float64 `json:"confidence"`
	TInf             float64 `json:"t_inf"`
}

func (a ShortAverage) Summary() Estimate { return a.Estimate }
func (a ShortAverage) Kind() AverageKind { return AverageShort }

// LongAverage is the derivation for repeated measurements
type LongAverage struct {
	Estimate
	Measurements     []float64 `json:"measurements"`
	Deviations       []float64 `json:"deviations"`
	MeasurementError float64   `json:"measurement_error"`
	StdError         float64   `json:"std_error"`
	Confidence       float64   `json:"confidence"`
	TN               float64   `json:"t_n"`
	TInf             float64   `json:"t_inf"`
	SampleDelta      float64   `json:"sample_delta"`
	InstrumentDelta  float64   `json:"instrument_delta"`
	Branch           Branch    `json:"branch"`
}

func (a LongAverage) Summary() Estimate { return a.Estimate }
func (a LongAverage) Kind() AverageKind { return AverageLong }

// VariableAverage pairs a variable with its average
type VariableAverage struct {
	Variable core.VariableKey `json:"variable"`
	Average  AverageResult    `json:"average"`
}

// Averages keeps evaluation order
type Averages []VariableAverage

// Get returns the average of v
func (a Averages) Get(v core.VariableKey) (AverageResult, bool) {
	for _, item := range a {
		if item.Variable == v {
			return item.Average, true
		}
	}
	return nil, false
}

// FormulaResult is either LeanFormula or DetailedFormula
type FormulaResult interface {
	Summary() Estimate
	Detailed() bool
}

// LeanFormula is returned when derivation detail is not requested
type LeanFormula struct {
	Estimate
}

func (f LeanFormula) Summary() Estimate { return f.Estimate }
func (f LeanFormula) Detailed() bool    { return false }

// Contribution is one variable's term in the propagated error
type Contribution struct {
	Variable        core.VariableKey `json:"variable"`
	Derivative      symbolic.Expr    `json:"-"`
	DerivativeText  string           `json:"derivative"`
	DerivativeValue float64          `json:"derivative_value"`
	InputError      float64          `json:"input_error"`
	Result          float64          `json:"result"`
	Square          float64          `json:"square"`
}

// Binding is one substituted value used to evaluate a formula
type Binding struct {
	Variable core.VariableKey `json:"variable"`
	Value    float64          `json:"value"`
}

// DetailedFormula keeps the full propagation bookkeeping
type DetailedFormula struct {
	Estimate
	Expr          symbolic.Expr  `json:"-"`
	Formula       string         `json:"formula"`
	Values        []Binding      `json:"values"`
	Confidence    float64        `json:"confidence"`
	Contributions []Contribution `json:"contributions"`
}

func (f DetailedFormula) Summary() Estimate { return f.Estimate }
func (f DetailedFormula) Detailed() bool    { return true }

// NamedFormula pairs a formula name with its result
type NamedFormula struct {
	Name   string        `json:"name"`
	Result FormulaResult `json:"result"`
}

// ExperimentResult holds one experiment's averages and formula results
type ExperimentResult struct {
	Index    int            `json:"index"`
	Averages Averages       `json:"averages"`
	Formulas []NamedFormula `json:"formulas"`
}

// Formula returns the result of the named formula
func (e ExperimentResult) Formula(name string) (FormulaResult, bool) {
	for _, f := range e.Formulas {
		if f.Name == name {
			return f.Result, true
		}
	}
	return nil, false
}

// RunResult is everything a report renderer needs
type RunResult struct {
	ID          core.RunID         `json:"id"`
	Fingerprint core.InputHash     `json:"fingerprint,omitempty"`
	Common      Averages           `json:"common"`
	Experiments []ExperimentResult `json:"experiments"`
	// Constants is only populated in verbose runs
	Constants Constants `json:"constants,omitempty"`
	Symbols   []Symbol  `json:"symbols"`
	Settings  Settings  `json:"settings"`
}
