package analysis

import (
	"errors"
	"fmt"
	"math"

	"labsolver/domain/core"
	"labsolver/domain/lab"
	"labsolver/internal/symbolic"
)

// EvaluateFormula computes a formula at the averages and propagates their
// errors through first-order partial derivatives, assuming the variables are
// uncorrelated: Δf = sqrt(Σ (∂f/∂x · Δx)²).
//
// Substitution precedence is local > common > constants. Constants carry no
// error term. A common variable shadowed by a local one contributes no term
// of its own.
func EvaluateFormula(formula lab.Formula, common, local lab.Averages, constants lab.Constants, settings lab.Settings) (lab.FormulaResult, error) {
	rnd := settings.Round

	env, bindings := substitution(common, local, constants)

	value, err := evalAt(formula.Expr, env)
	if err != nil {
		return nil, fmt.Errorf("formula %s: %w", formula.Name, err)
	}
	result := rnd(value)

	var contributions []lab.Contribution
	var squares float64
	propagate := func(item lab.VariableAverage) error {
		name := item.Variable.String()
		derivative := formula.Expr.Diff(name)
		slope, err := evalAt(derivative, env)
		if err != nil {
			return fmt.Errorf("formula %s: derivative by %s: %w", formula.Name, name, err)
		}
		slope = rnd(slope)
		inputError := item.Average.Summary().Error
		term := rnd(slope * inputError)
		square := term * term
		squares += square
		contributions = append(contributions, lab.Contribution{
			Variable:        item.Variable,
			Derivative:      derivative,
			DerivativeText:  derivative.String(),
			DerivativeValue: slope,
			InputError:      inputError,
			Result:          term,
			Square:          square,
		})
		return nil
	}

	for _, item := range local {
		if err := propagate(item); err != nil {
			return nil, err
		}
	}
	for _, item := range common {
		if _, shadowed := local.Get(item.Variable); shadowed {
			continue
		}
		if err := propagate(item); err != nil {
			return nil, err
		}
	}

	delta := rnd(math.Sqrt(squares))
	epsilon, err := RelativeError(delta, result, settings)
	if err != nil {
		return nil, fmt.Errorf("formula %s: %w", formula.Name, err)
	}

	estimate := lab.Estimate{Result: result, Error: delta, Epsilon: epsilon}
	if !settings.Verbose {
		return lab.LeanFormula{Estimate: estimate}, nil
	}
	return lab.DetailedFormula{
		Estimate:      estimate,
		Expr:          formula.Expr,
		Formula:       formula.Expr.String(),
		Values:        bindings,
		Confidence:    settings.ConfidenceLevel,
		Contributions: contributions,
	}, nil
}

func substitution(common, local lab.Averages, constants lab.Constants) (symbolic.Env, []lab.Binding) {
	env := symbolic.Env{}
	var bindings []lab.Binding
	bind := func(v core.VariableKey, value float64) {
		if _, taken := env[v.String()]; taken {
			return
		}
		env[v.String()] = value
		bindings = append(bindings, lab.Binding{Variable: v, Value: value})
	}
	for _, item := range local {
		bind(item.Variable, item.Average.Summary().Result)
	}
	for _, item := range common {
		bind(item.Variable, item.Average.Summary().Result)
	}
	for _, c := range constants {
		bind(c.Variable, c.Value)
	}
	return env, bindings
}

func evalAt(e symbolic.Expr, env symbolic.Env) (float64, error) {
	v, err := e.Eval(env)
	if err != nil {
		var unbound *symbolic.UnboundError
		if errors.As(err, &unbound) {
			return 0, fmt.Errorf("%w: '%s'", core.ErrUnboundVariable, unbound.Name)
		}
		return 0, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: %s evaluates to %v", core.ErrNonFinite, e, v)
	}
	return v, nil
}
