package lab

import (
	"labsolver/domain/core"
	"labsolver/internal/symbolic"
)

// SampleSet holds the raw measurements of one variable plus the instrument error
type SampleSet struct {
	Values          []float64 `json:"values"`
	InstrumentError float64   `json:"instrument_error"`
}

// Measurement binds a sample set to its variable
type Measurement struct {
	Variable core.VariableKey `json:"variable"`
	Sample   SampleSet        `json:"sample"`
}

// Measurements keeps document order, which is also evaluation and report order
type Measurements []Measurement

// Get returns the sample set of v
func (m Measurements) Get(v core.VariableKey) (SampleSet, bool) {
	for _, item := range m {
		if item.Variable == v {
			return item.Sample, true
		}
	}
	return SampleSet{}, false
}

// Constant is a variable bound to a fixed value; it carries no uncertainty
type Constant struct {
	Variable core.VariableKey `json:"variable"`
	Value    float64          `json:"value"`
}

// Constants keeps document order
type Constants []Constant

// Get returns the value of constant v
func (c Constants) Get(v core.VariableKey) (float64, bool) {
	for _, item := range c {
		if item.Variable == v {
			return item.Value, true
		}
	}
	return 0, false
}

// Formula is a named expression over declared variables
type Formula struct {
	Name   string        `json:"name"`
	Source string        `json:"source"`
	Expr   symbolic.Expr `json:"-"`
}

// Symbol is a text replacement applied to rendered reports
type Symbol struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Task is a fully resolved input definition: every name checked against the
// declared variables, every value evaluated, every formula parsed.
type Task struct {
	Variables   []core.VariableKey `json:"variables"`
	Constants   Constants          `json:"constants"`
	Formulas    []Formula          `json:"formulas"`
	Common      Measurements       `json:"common"`
	Experiments []Measurements     `json:"experiments"`
	Symbols     []Symbol           `json:"symbols"`
	Settings    Settings           `json:"settings"`
	Source      string             `json:"source,omitempty"`
	Fingerprint core.InputHash     `json:"fingerprint,omitempty"`
}

// IsDeclared reports whether v appears in the variables section
func (t *Task) IsDeclared(v core.VariableKey) bool {
	for _, declared := range t.Variables {
		if declared == v {
			return true
		}
	}
	return false
}
