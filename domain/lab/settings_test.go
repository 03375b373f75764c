package lab

import (
	"math"
	"testing"

	"labsolver/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestRoundSignificant(t *testing.T) {
	tests := []struct {
		x    float64
		n    int
		want float64
	}{
		{12345.678, 3, 12300},
		{0.00123456, 2, 0.0012},
		{-9.87654, 4, -9.877},
		{0.15, 1, 0.1}, // 0.15 is stored slightly below 0.15
		{1.0, 5, 1.0},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, RoundSignificant(test.x, test.n), "round(%v, %d)", test.x, test.n)
	}
}

func TestSettingsRound_Disabled(t *testing.T) {
	s := DefaultSettings()
	assert.False(t, s.Rounds())
	assert.Equal(t, 1.23456789, s.Round(1.23456789))
}

func TestSettingsRound_Idempotent(t *testing.T) {
	s := Settings{ConfidenceLevel: 0.95, RoundingDigits: 3}
	once := s.Round(math.Pi)
	assert.Equal(t, 3.14, once)
	assert.Equal(t, once, s.Round(once))
	assert.True(t, math.IsInf(s.Round(math.Inf(1)), 1))
}

func TestSettingsValidate(t *testing.T) {
	assert.NoError(t, DefaultSettings().Validate())
	assert.NoError(t, Settings{ConfidenceLevel: 1}.Validate())
	assert.Error(t, Settings{ConfidenceLevel: 0}.Validate())
	assert.Error(t, Settings{ConfidenceLevel: 1.2}.Validate())
	assert.Error(t, Settings{ConfidenceLevel: math.NaN()}.Validate())
	assert.Error(t, Settings{ConfidenceLevel: 0.9, RoundingDigits: -1}.Validate())
}

func TestLookups(t *testing.T) {
	m := Measurements{{Variable: "m", Sample: SampleSet{Values: []float64{1, 2}, InstrumentError: 0.1}}}
	s, ok := m.Get("m")
	assert.True(t, ok)
	assert.Equal(t, 0.1, s.InstrumentError)
	_, ok = m.Get("a")
	assert.False(t, ok)

	c := Constants{{Variable: "g", Value: 9.81}}
	v, ok := c.Get("g")
	assert.True(t, ok)
	assert.Equal(t, 9.81, v)

	task := &Task{Variables: []core.VariableKey{"m", "g"}}
	assert.True(t, task.IsDeclared("g"))
	assert.False(t, task.IsDeclared("x"))

	avgs := Averages{{Variable: "m", Average: LeanAverage{Estimate{Result: 1}}}}
	a, ok := avgs.Get("m")
	assert.True(t, ok)
	assert.Equal(t, AverageLean, a.Kind())
	assert.Equal(t, 1.0, a.Summary().Result)
}
