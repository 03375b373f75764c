package analysis

import (
	"errors"
	"math"
	"testing"

	"labsolver/domain/core"
	"labsolver/domain/lab"
	"labsolver/internal/symbolic"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func formula(name, source string) lab.Formula {
	return lab.Formula{Name: name, Source: source, Expr: symbolic.MustParse(source)}
}

func average(variable string, result, err float64) lab.VariableAverage {
	return lab.VariableAverage{
		Variable: core.VariableKey(variable),
		Average:  lab.LeanAverage{Estimate: lab.Estimate{Result: result, Error: err, Epsilon: err / result * 100}},
	}
}

func TestEvaluateFormula_Product(t *testing.T) {
	local := lab.Averages{average("m", 2, 0.1), average("a", 3, 0.2)}

	res, err := EvaluateFormula(formula("F", "m*a"), nil, local, nil, lab.DefaultSettings())
	require.NoError(t, err)

	summary := res.Summary()
	assert.InDelta(t, 6.0, summary.Result, 1e-12)
	// ∂F/∂m·Δm = 3·0.1, ∂F/∂a·Δa = 2·0.2
	assert.InDelta(t, 0.5, summary.Error, 1e-12)
	assert.InDelta(t, 0.5/6*100, summary.Epsilon, 1e-9)
	assert.False(t, res.Detailed())
}

func TestEvaluateFormula_ConstantOnly(t *testing.T) {
	constants := lab.Constants{{Variable: "g", Value: 9.81}}

	res, err := EvaluateFormula(formula("G", "g"), nil, nil, constants, lab.DefaultSettings())
	require.NoError(t, err)

	assert.Equal(t, lab.Estimate{Result: 9.81, Error: 0, Epsilon: 0}, res.Summary())
}

func TestEvaluateFormula_ConstantsCarryNoError(t *testing.T) {
	local := lab.Averages{average("x", 4, 0.2)}
	constants := lab.Constants{{Variable: "c", Value: 10}}

	settings := lab.DefaultSettings()
	settings.Verbose = true
	res, err := EvaluateFormula(formula("y", "c*x"), nil, local, constants, settings)
	require.NoError(t, err)

	detailed, ok := res.(lab.DetailedFormula)
	require.True(t, ok)
	assert.InDelta(t, 40.0, detailed.Result, 1e-12)
	assert.InDelta(t, 2.0, detailed.Error, 1e-12)
	require.Len(t, detailed.Contributions, 1)
	assert.Equal(t, core.VariableKey("x"), detailed.Contributions[0].Variable)
	assert.Equal(t, "c", detailed.Contributions[0].DerivativeText)
	assert.InDelta(t, 4.0, detailed.Contributions[0].Square, 1e-12)
}

func TestEvaluateFormula_CommonAndLocal(t *testing.T) {
	common := lab.Averages{average("L", 2, 0.01)}
	local := lab.Averages{average("T", 4, 0.1)}

	res, err := EvaluateFormula(formula("v", "L/T"), common, local, nil, lab.DefaultSettings())
	require.NoError(t, err)

	dT := 2.0 / 16 * 0.1
	dL := 1.0 / 4 * 0.01
	assert.InDelta(t, 0.5, res.Summary().Result, 1e-12)
	assert.InDelta(t, math.Sqrt(dT*dT+dL*dL), res.Summary().Error, 1e-12)
}

func TestEvaluateFormula_LocalShadowsCommon(t *testing.T) {
	common := lab.Averages{average("x", 1, 0.5)}
	local := lab.Averages{average("x", 2, 0.1)}

	settings := lab.DefaultSettings()
	settings.Verbose = true
	res, err := EvaluateFormula(formula("y", "2*x"), common, local, nil, settings)
	require.NoError(t, err)

	detailed := res.(lab.DetailedFormula)
	assert.InDelta(t, 4.0, detailed.Result, 1e-12)
	assert.InDelta(t, 0.2, detailed.Error, 1e-12)
	assert.Equal(t, []lab.Binding{{Variable: "x", Value: 2}}, detailed.Values)
	assert.Len(t, detailed.Contributions, 1)
}

func TestEvaluateFormula_Deterministic(t *testing.T) {
	common := lab.Averages{average("g", 9.81, 0.02)}
	local := lab.Averages{average("l", 1.3, 0.004), average("T", 2.29, 0.03)}
	f := formula("k", "4*pi^2*l/(T^2*g)")

	first, err := EvaluateFormula(f, common, local, nil, lab.DefaultSettings())
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := EvaluateFormula(f, common, local, nil, lab.DefaultSettings())
		require.NoError(t, err)
		assert.Equal(t, first.Summary(), again.Summary())
	}
}

func TestEvaluateFormula_ZeroResult(t *testing.T) {
	local := lab.Averages{average("x", 1, 0.1), average("y", 1, 0.1)}

	_, err := EvaluateFormula(formula("d", "x - y"), nil, local, nil, lab.DefaultSettings())
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrDivisionByZero))
}

func TestEvaluateFormula_Unbound(t *testing.T) {
	local := lab.Averages{average("x", 1, 0.1)}

	_, err := EvaluateFormula(formula("d", "x*z"), nil, local, nil, lab.DefaultSettings())
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrUnboundVariable))
	assert.Contains(t, err.Error(), "'z'")
}

func TestEvaluateFormula_NonFinite(t *testing.T) {
	local := lab.Averages{average("x", 0, 0.1)}

	_, err := EvaluateFormula(formula("r", "1/x"), nil, local, nil, lab.DefaultSettings())
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrNonFinite))
}

func TestEvaluateFormula_VerboseContributions(t *testing.T) {
	local := lab.Averages{average("m", 2, 0.1), average("a", 3, 0.2)}

	settings := lab.DefaultSettings()
	settings.Verbose = true
	res, err := EvaluateFormula(formula("F", "m*a"), nil, local, nil, settings)
	require.NoError(t, err)
	require.True(t, res.Detailed())

	detailed := res.(lab.DetailedFormula)
	assert.Equal(t, "m*a", detailed.Formula)
	assert.Equal(t, 0.95, detailed.Confidence)
	assert.Equal(t, []lab.Binding{{Variable: "m", Value: 2}, {Variable: "a", Value: 3}}, detailed.Values)

	require.Len(t, detailed.Contributions, 2)
	m, a := detailed.Contributions[0], detailed.Contributions[1]
	assert.Equal(t, core.VariableKey("m"), m.Variable)
	assert.Equal(t, "a", m.DerivativeText)
	assert.Equal(t, 3.0, m.DerivativeValue)
	assert.Equal(t, 0.1, m.InputError)
	assert.InDelta(t, 0.3, m.Result, 1e-12)
	assert.Equal(t, core.VariableKey("a"), a.Variable)
	assert.Equal(t, "m", a.DerivativeText)
	assert.InDelta(t, 0.4, a.Result, 1e-12)
}

func TestEvaluateFormula_Rounded(t *testing.T) {
	local := lab.Averages{average("x", 3, 0.1)}
	settings := lab.Settings{ConfidenceLevel: 0.95, RoundingDigits: 2}

	res, err := EvaluateFormula(formula("y", "x/7"), nil, local, nil, settings)
	require.NoError(t, err)

	assert.Equal(t, 0.43, res.Summary().Result)
	assert.Equal(t, 0.014, res.Summary().Error)
	assert.Equal(t, 3.3, res.Summary().Epsilon)
}
