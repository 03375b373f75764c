package loader

import (
	"errors"
	"fmt"
	"math"

	"labsolver/domain/core"
	"labsolver/domain/lab"
	"labsolver/internal"
	apperrors "labsolver/internal/errors"
	"labsolver/internal/symbolic"
)

// Section names of an input document, in resolution order
const (
	SectionVariables    = "variables"
	SectionConstants    = "constants"
	SectionFormulas     = "formulas"
	SectionCommon       = "common"
	SectionMeasurements = "measurements"
	SectionSymbols      = "symbols"
	SectionSettings     = "settings"
)

// Resolver turns a parsed document into a fully resolved task: names checked
// against the variables section, values evaluated, formulas parsed. Any
// failure aborts the whole load.
type Resolver struct {
	defaults lab.Settings
	logger   *internal.Logger
}

// NewResolver creates a resolver. defaults fill settings the document omits.
func NewResolver(defaults lab.Settings, logger *internal.Logger) *Resolver {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &Resolver{defaults: defaults, logger: logger}
}

// resolution is the state of one Resolve call
type resolution struct {
	task     *lab.Task
	declared map[string]core.VariableKey
	roles    map[core.VariableKey]string
	env      symbolic.Env
	logger   *internal.Logger
}

// Resolve builds a task from root. raw is the document text, used for the fingerprint.
func (r *Resolver) Resolve(root node, raw []byte) (*lab.Task, error) {
	if root.kind != nodeMap {
		return nil, apperrors.Parse(fmt.Sprintf("input must be a mapping of sections, got %s", root.kind), nil)
	}

	res := &resolution{
		task: &lab.Task{
			Settings:    r.defaults,
			Fingerprint: core.NewInputHash(raw),
		},
		declared: make(map[string]core.VariableKey),
		roles:    make(map[core.VariableKey]string),
		env:      symbolic.Env{},
		logger:   r.logger,
	}

	sections := []struct {
		name     string
		required bool
		resolve  func(node) error
	}{
		{SectionVariables, true, res.variables},
		{SectionConstants, false, res.constants},
		{SectionFormulas, false, res.formulas},
		{SectionCommon, false, res.common},
		{SectionMeasurements, false, res.measurements},
		{SectionSymbols, false, res.symbols},
		{SectionSettings, false, res.settings},
	}
	known := make(map[string]bool, len(sections))
	for _, section := range sections {
		known[section.name] = true
		n, ok := root.get(section.name)
		if !ok || n.kind == nodeNull {
			if section.required {
				return nil, apperrors.Parse(fmt.Sprintf("missing section '%s'", section.name), nil)
			}
			continue
		}
		if err := section.resolve(n); err != nil {
			return nil, err
		}
		r.logger.Debug("Resolved section %s", section.name)
	}
	for _, f := range root.fields {
		if !known[f.key] {
			r.logger.Warn("Ignoring unknown section '%s'", f.key)
		}
	}

	if err := res.task.Settings.Validate(); err != nil {
		return nil, apperrors.ConfigInvalid(err.Error())
	}

	r.logger.Debug("Resolved %d variables, %d constants, %d formulas, %d common measurements, %d experiments",
		len(res.task.Variables), len(res.task.Constants), len(res.task.Formulas), len(res.task.Common), len(res.task.Experiments))
	return res.task, nil
}

func (res *resolution) variables(n node) error {
	if n.kind != nodeList {
		return apperrors.Parse(fmt.Sprintf("section '%s' must be a list of names, got %s", SectionVariables, n.kind), nil)
	}
	for _, item := range n.items {
		if item.kind != nodeString {
			return apperrors.Parse(fmt.Sprintf("variable name must be a string, got %s", item.describe()), nil)
		}
		key, err := core.ParseVariableKey(item.text)
		if err != nil {
			return apperrors.Declaration("invalid variable name", err)
		}
		if _, dup := res.declared[item.text]; dup {
			return apperrors.Declaration("failed to load input", fmt.Errorf("%w: '%s'", core.ErrDuplicateVariable, item.text))
		}
		res.declared[item.text] = key
		res.task.Variables = append(res.task.Variables, key)
	}
	return nil
}

// declare returns the key of a declared name; anything else is a declaration error naming the section
func (res *resolution) declare(section, name string) (core.VariableKey, error) {
	key, ok := res.declared[name]
	if !ok {
		return "", apperrors.Declaration("failed to load input", core.NewUndeclaredError(section, name))
	}
	return key, nil
}

// claim records which section binds a variable. A variable is bound by one
// section only; experiments may share names with each other.
func (res *resolution) claim(section string, key core.VariableKey) error {
	if previous, ok := res.roles[key]; ok && previous != section {
		return apperrors.Declaration("failed to load input",
			fmt.Errorf("%w: '%s' in sections '%s' and '%s'", core.ErrAmbiguousVariable, key, previous, section))
	}
	res.roles[key] = section
	return nil
}

func (res *resolution) constants(n node) error {
	if n.kind != nodeMap {
		return apperrors.Parse(fmt.Sprintf("section '%s' must be a mapping, got %s", SectionConstants, n.kind), nil)
	}
	for _, f := range n.fields {
		key, err := res.declare(SectionConstants, f.key)
		if err != nil {
			return err
		}
		if _, dup := res.task.Constants.Get(key); dup {
			return apperrors.Declaration("failed to load input",
				fmt.Errorf("%w: '%s' in section '%s'", core.ErrDuplicateVariable, f.key, SectionConstants))
		}
		if err := res.claim(SectionConstants, key); err != nil {
			return err
		}
		value, err := res.number(f.value, SectionConstants+"."+f.key)
		if err != nil {
			return err
		}
		// later constants may refer to earlier ones
		res.env[f.key] = value
		res.task.Constants = append(res.task.Constants, lab.Constant{Variable: key, Value: value})
		res.logger.Trace("constant %s = %v", f.key, value)
	}
	return nil
}

func (res *resolution) formulas(n node) error {
	if n.kind != nodeMap {
		return apperrors.Parse(fmt.Sprintf("section '%s' must be a mapping, got %s", SectionFormulas, n.kind), nil)
	}
	seen := make(map[string]bool, len(n.fields))
	for _, f := range n.fields {
		if seen[f.key] {
			return apperrors.Declaration("failed to load input",
				fmt.Errorf("%w: formula '%s'", core.ErrDuplicateVariable, f.key))
		}
		seen[f.key] = true
		if f.value.kind != nodeString {
			return apperrors.Parse(fmt.Sprintf("formula %s must be a string, got %s", f.key, f.value.describe()), nil)
		}
		expr, err := symbolic.Parse(f.value.text)
		if err != nil {
			return apperrors.Parse(fmt.Sprintf("formula %s", f.key), err)
		}
		for _, name := range symbolic.Variables(expr) {
			if _, ok := res.declared[name]; ok || symbolic.IsBuiltinConstant(name) {
				continue
			}
			return apperrors.Declaration("failed to load input", core.NewUndeclaredError(SectionFormulas, name))
		}
		res.task.Formulas = append(res.task.Formulas, lab.Formula{Name: f.key, Source: f.value.text, Expr: expr})
	}
	return nil
}

func (res *resolution) common(n node) error {
	if n.kind != nodeMap {
		return apperrors.Parse(fmt.Sprintf("section '%s' must be a mapping, got %s", SectionCommon, n.kind), nil)
	}
	for _, f := range n.fields {
		key, err := res.declare(SectionCommon, f.key)
		if err != nil {
			return err
		}
		if _, dup := res.task.Common.Get(key); dup {
			return apperrors.Declaration("failed to load input",
				fmt.Errorf("%w: '%s' in section '%s'", core.ErrDuplicateVariable, f.key, SectionCommon))
		}
		if err := res.claim(SectionCommon, key); err != nil {
			return err
		}
		sample, err := res.sample(f.value, SectionCommon+"."+f.key)
		if err != nil {
			return err
		}
		res.task.Common = append(res.task.Common, lab.Measurement{Variable: key, Sample: sample})
	}
	return nil
}

func (res *resolution) measurements(n node) error {
	if n.kind != nodeList {
		return apperrors.Parse(fmt.Sprintf("section '%s' must be a list of experiments, got %s", SectionMeasurements, n.kind), nil)
	}
	for i, experiment := range n.items {
		if experiment.kind != nodeMap {
			return apperrors.Parse(fmt.Sprintf("experiment %d must be a mapping, got %s", i+1, experiment.kind), nil)
		}
		measurements := make(lab.Measurements, 0, len(experiment.fields))
		for _, f := range experiment.fields {
			key, err := res.declare(SectionMeasurements, f.key)
			if err != nil {
				return err
			}
			if _, dup := measurements.Get(key); dup {
				return apperrors.Declaration("failed to load input",
					fmt.Errorf("%w: '%s' in experiment %d", core.ErrDuplicateVariable, f.key, i+1))
			}
			if err := res.claim(SectionMeasurements, key); err != nil {
				return err
			}
			sample, err := res.sample(f.value, fmt.Sprintf("%s[%d].%s", SectionMeasurements, i+1, f.key))
			if err != nil {
				return err
			}
			measurements = append(measurements, lab.Measurement{Variable: key, Sample: sample})
		}
		res.task.Experiments = append(res.task.Experiments, measurements)
	}
	return nil
}

func (res *resolution) symbols(n node) error {
	if n.kind != nodeMap {
		return apperrors.Parse(fmt.Sprintf("section '%s' must be a mapping, got %s", SectionSymbols, n.kind), nil)
	}
	for _, f := range n.fields {
		var to string
		switch f.value.kind {
		case nodeString:
			to = f.value.text
		case nodeNumber:
			to = f.value.text
		default:
			return apperrors.Parse(fmt.Sprintf("symbol %s must map to text, got %s", f.key, f.value.kind), nil)
		}
		res.task.Symbols = append(res.task.Symbols, lab.Symbol{From: f.key, To: to})
	}
	return nil
}

func (res *resolution) settings(n node) error {
	if n.kind != nodeMap {
		return apperrors.Parse(fmt.Sprintf("section '%s' must be a mapping, got %s", SectionSettings, n.kind), nil)
	}
	for _, f := range n.fields {
		where := SectionSettings + "." + f.key
		switch f.key {
		case "B", "confidence_level":
			level, err := res.number(f.value, where)
			if err != nil {
				return err
			}
			res.task.Settings.ConfidenceLevel = level
		case "round", "rounding_digits":
			if f.value.kind == nodeNull {
				res.task.Settings.RoundingDigits = 0
				continue
			}
			if f.value.kind != nodeNumber || f.value.num != math.Trunc(f.value.num) || f.value.num < 1 {
				return apperrors.ConfigInvalid(fmt.Sprintf("%s must be a whole number of digits, at least 1, got %s", where, f.value.describe()))
			}
			res.task.Settings.RoundingDigits = int(f.value.num)
		case "extended", "verbose":
			if f.value.kind != nodeBool {
				return apperrors.ConfigInvalid(fmt.Sprintf("%s must be true or false, got %s", where, f.value.describe()))
			}
			res.task.Settings.Verbose = f.value.flag
		default:
			res.logger.Warn("Ignoring unknown setting '%s'", f.key)
		}
	}
	return nil
}

// sample reads either the pair [values, instrument_error] or a mapping with
// keys values and error. values may be a single value or a list.
func (res *resolution) sample(n node, where string) (lab.SampleSet, error) {
	var values, instrument node
	switch n.kind {
	case nodeList:
		if len(n.items) != 2 {
			return lab.SampleSet{}, apperrors.Parse(fmt.Sprintf("%s must be a pair [values, instrument_error], got %s", where, n.describe()), nil)
		}
		values, instrument = n.items[0], n.items[1]
	case nodeMap:
		var ok bool
		if values, ok = n.get("values"); !ok {
			return lab.SampleSet{}, apperrors.Parse(fmt.Sprintf("%s has no values", where), nil)
		}
		if instrument, ok = n.get("error"); !ok {
			if instrument, ok = n.get("instrument_error"); !ok {
				return lab.SampleSet{}, apperrors.Parse(fmt.Sprintf("%s has no instrument error", where), nil)
			}
		}
	default:
		return lab.SampleSet{}, apperrors.Parse(fmt.Sprintf("%s must be a pair [values, instrument_error], got %s", where, n.kind), nil)
	}

	items := []node{values}
	if values.kind == nodeList {
		items = values.items
	}
	if len(items) == 0 {
		return lab.SampleSet{}, apperrors.Parse(fmt.Sprintf("%s has no measurements", where), core.ErrEmptySample)
	}

	sample := lab.SampleSet{Values: make([]float64, 0, len(items))}
	for _, item := range items {
		v, err := res.number(item, where)
		if err != nil {
			return lab.SampleSet{}, err
		}
		sample.Values = append(sample.Values, v)
	}
	e, err := res.number(instrument, where+" instrument error")
	if err != nil {
		return lab.SampleSet{}, err
	}
	sample.InstrumentError = e
	return sample, nil
}

// number evaluates a numeric literal or an arithmetic expression over the
// constants resolved so far
func (res *resolution) number(n node, where string) (float64, error) {
	var value float64
	switch n.kind {
	case nodeNumber:
		value = n.num
	case nodeString:
		v, err := symbolic.EvalString(n.text, res.env)
		if err != nil {
			var unbound *symbolic.UnboundError
			if errors.As(err, &unbound) {
				return 0, apperrors.Parse(fmt.Sprintf("%s: '%s' is not a constant", where, unbound.Name), err)
			}
			return 0, apperrors.Parse(where, err)
		}
		value = v
	default:
		return 0, apperrors.Parse(fmt.Sprintf("%s: expected a number or expression, got %s", where, n.describe()), nil)
	}
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, apperrors.Parse(where, fmt.Errorf("%w: %v", core.ErrNonFinite, value))
	}
	return value, nil
}
