package loader

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"labsolver/domain/core"
	"labsolver/domain/lab"
	"labsolver/internal"
	apperrors "labsolver/internal/errors"
	"labsolver/internal/symbolic"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pendulumJSON = `{
  "variables": ["l", "T", "g0", "k", "m"],
  "constants": {"g0": 9.81, "k": "2*g0"},
  "formulas": {"g": "4*pi^2*l/T^2", "W": "m*g0"},
  "common": {"m": [[0.5, 0.51, 0.49], 0.01]},
  "measurements": [
    {"T": [[2.01, 1.99], 0.02], "l": [1.0, "1e-3"]},
    {"l": [[0.5], 0.001], "T": [1.42, 0.02]}
  ],
  "symbols": {"T": "T_0"},
  "settings": {"B": 0.99, "round": 4}
}`

const pendulumYAML = `
variables: [l, T, g0, k, m]
constants:
  g0: 9.81
  k: 2*g0
formulas:
  g: 4*pi^2*l/T^2
  W: m*g0
common:
  m: [[0.5, 0.51, 0.49], 0.01]
measurements:
  - T: [[2.01, 1.99], 0.02]
    l: [1.0, "1e-3"]
  - l:
      values: [0.5]
      error: 0.001
    T: [1.42, 0.02]
symbols:
  T: T_0
settings:
  confidence_level: 0.99
  rounding_digits: 4
`

func pendulumTask() *lab.Task {
	return &lab.Task{
		Variables: []core.VariableKey{"l", "T", "g0", "k", "m"},
		Constants: lab.Constants{{Variable: "g0", Value: 9.81}, {Variable: "k", Value: 19.62}},
		Formulas: []lab.Formula{
			{Name: "g", Source: "4*pi^2*l/T^2"},
			{Name: "W", Source: "m*g0"},
		},
		Common: lab.Measurements{
			{Variable: "m", Sample: lab.SampleSet{Values: []float64{0.5, 0.51, 0.49}, InstrumentError: 0.01}},
		},
		Experiments: []lab.Measurements{
			{
				{Variable: "T", Sample: lab.SampleSet{Values: []float64{2.01, 1.99}, InstrumentError: 0.02}},
				{Variable: "l", Sample: lab.SampleSet{Values: []float64{1.0}, InstrumentError: 0.001}},
			},
			{
				{Variable: "l", Sample: lab.SampleSet{Values: []float64{0.5}, InstrumentError: 0.001}},
				{Variable: "T", Sample: lab.SampleSet{Values: []float64{1.42}, InstrumentError: 0.02}},
			},
		},
		Symbols:  []lab.Symbol{{From: "T", To: "T_0"}},
		Settings: lab.Settings{ConfidenceLevel: 0.99, RoundingDigits: 4},
	}
}

var taskOpts = []cmp.Option{
	cmpopts.IgnoreFields(lab.Formula{}, "Expr"),
	cmpopts.IgnoreFields(lab.Task{}, "Fingerprint", "Source"),
	cmpopts.EquateApprox(0, 1e-12),
}

func TestJSONLoader_Parse(t *testing.T) {
	loader := NewJSONLoader(lab.DefaultSettings(), internal.NewNopLogger())

	task, err := loader.Parse([]byte(pendulumJSON))
	require.NoError(t, err)

	if diff := cmp.Diff(pendulumTask(), task, taskOpts...); diff != "" {
		t.Errorf("task mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, core.NewInputHash([]byte(pendulumJSON)), task.Fingerprint)
	require.Len(t, task.Formulas, 2)
	assert.Equal(t, []string{"pi", "l", "T"}, symbolic.Variables(task.Formulas[0].Expr))
}

func TestYAMLLoader_MatchesJSON(t *testing.T) {
	loader := NewYAMLLoader(lab.DefaultSettings(), internal.NewNopLogger())

	task, err := loader.Parse([]byte(pendulumYAML))
	require.NoError(t, err)

	if diff := cmp.Diff(pendulumTask(), task, taskOpts...); diff != "" {
		t.Errorf("task mismatch (-want +got):\n%s", diff)
	}
}

func TestLoader_UndeclaredVariable(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		section string
	}{
		{"formula", `{"variables": ["m"], "formulas": {"F": "m*x"}}`, SectionFormulas},
		{"constant", `{"variables": ["m"], "constants": {"x": 1}}`, SectionConstants},
		{"common", `{"variables": ["m"], "common": {"x": [1, 0.1]}}`, SectionCommon},
		{"measurement", `{"variables": ["m"], "measurements": [{"m": [1, 0.1]}, {"x": [1, 0.1]}]}`, SectionMeasurements},
	}
	loader := NewJSONLoader(lab.DefaultSettings(), internal.NewNopLogger())
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			task, err := loader.Parse([]byte(test.input))
			require.Error(t, err)
			assert.Nil(t, task)
			assert.True(t, errors.Is(err, core.ErrUndeclaredVariable))
			assert.True(t, core.IsDeclarationError(err))
			assert.Equal(t, apperrors.CodeDeclarationError, apperrors.GetCode(err))
			assert.Contains(t, err.Error(), "'x'")
			assert.Contains(t, err.Error(), "'"+test.section+"'")
		})
	}
}

func TestLoader_BuiltinConstantsNeedNoDeclaration(t *testing.T) {
	loader := NewJSONLoader(lab.DefaultSettings(), internal.NewNopLogger())

	task, err := loader.Parse([]byte(`{"variables": ["r"], "formulas": {"S": "pi*r^2*E"}}`))
	require.NoError(t, err)
	assert.Len(t, task.Formulas, 1)
}

func TestLoader_AmbiguousVariable(t *testing.T) {
	loader := NewJSONLoader(lab.DefaultSettings(), internal.NewNopLogger())

	for name, input := range map[string]string{
		"common and experiment":   `{"variables": ["m"], "common": {"m": [1, 0.1]}, "measurements": [{"m": [1, 0.1]}]}`,
		"constant and common":     `{"variables": ["m"], "constants": {"m": 1}, "common": {"m": [1, 0.1]}}`,
		"constant and experiment": `{"variables": ["m"], "constants": {"m": 1}, "measurements": [{"m": [1, 0.1]}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := loader.Parse([]byte(input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrAmbiguousVariable))
			assert.Equal(t, apperrors.CodeDeclarationError, apperrors.GetCode(err))
		})
	}

	// experiments share names freely
	_, err := loader.Parse([]byte(`{"variables": ["m"], "measurements": [{"m": [1, 0.1]}, {"m": [2, 0.1]}]}`))
	assert.NoError(t, err)
}

func TestLoader_Duplicates(t *testing.T) {
	loader := NewJSONLoader(lab.DefaultSettings(), internal.NewNopLogger())

	_, err := loader.Parse([]byte(`{"variables": ["m", "m"]}`))
	assert.True(t, errors.Is(err, core.ErrDuplicateVariable))

	_, err = loader.Parse([]byte(`{"variables": ["m"], "measurements": [{"m": [1, 0.1], "m": [2, 0.1]}]}`))
	assert.True(t, errors.Is(err, core.ErrDuplicateVariable))

	_, err = loader.Parse([]byte(`{"variables": ["2m"]}`))
	assert.Equal(t, apperrors.CodeDeclarationError, apperrors.GetCode(err))
}

func TestLoader_RepeatedKeysWithinSection(t *testing.T) {
	jsonLoader := NewJSONLoader(lab.DefaultSettings(), internal.NewNopLogger())
	yamlLoader := NewYAMLLoader(lab.DefaultSettings(), internal.NewNopLogger())

	tests := []struct {
		name   string
		parse  func([]byte) (*lab.Task, error)
		source string
	}{
		{"json common", jsonLoader.Parse, `{"variables": ["g"], "common": {"g": [[9.8], 0.3], "g": [[9.8], 0.3]}}`},
		{"json constants", jsonLoader.Parse, `{"variables": ["c"], "constants": {"c": 1, "c": 2}}`},
		{"json formulas", jsonLoader.Parse, `{"variables": ["x"], "formulas": {"F": "x", "F": "2*x"}}`},
		{"yaml common", yamlLoader.Parse, "variables: [g]\ncommon:\n  g: [[9.8], 0.3]\n  g: [[9.8], 0.3]\n"},
		{"yaml constants", yamlLoader.Parse, "variables: [c]\nconstants:\n  c: 1\n  c: 2\n"},
		{"yaml formulas", yamlLoader.Parse, "variables: [x]\nformulas:\n  F: x\n  F: 2*x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := tt.parse([]byte(tt.source))
			require.Error(t, err)
			assert.Nil(t, task)
			assert.True(t, errors.Is(err, core.ErrDuplicateVariable))
			assert.Equal(t, apperrors.CodeDeclarationError, apperrors.GetCode(err))
		})
	}
}

func TestLoader_NumericExpressions(t *testing.T) {
	loader := NewJSONLoader(lab.DefaultSettings(), internal.NewNopLogger())

	task, err := loader.Parse([]byte(`{
		"variables": ["c", "d", "x"],
		"constants": {"c": "2*pi", "d": "sqrt(c^2)/2"},
		"measurements": [{"x": [["1/4", "c"], "d/100"]}]
	}`))
	require.NoError(t, err)

	d, ok := task.Constants.Get("d")
	require.True(t, ok)
	assert.InDelta(t, math.Pi, d, 1e-12)
	sample, ok := task.Experiments[0].Get("x")
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{0.25, 2 * math.Pi}, sample.Values, 1e-12)
	assert.InDelta(t, math.Pi/100, sample.InstrumentError, 1e-12)
}

func TestLoader_RejectsNonArithmetic(t *testing.T) {
	loader := NewJSONLoader(lab.DefaultSettings(), internal.NewNopLogger())

	for _, expr := range []string{`__import__('os').system('ls')`, `open('/etc/passwd')`, `x`, `1/0`} {
		_, err := loader.Parse([]byte(`{"variables": ["c", "x"], "constants": {"c": "` + expr + `"}}`))
		require.Error(t, err, expr)
		assert.Equal(t, apperrors.CodeParseError, apperrors.GetCode(err), expr)
	}
}

func TestLoader_Settings(t *testing.T) {
	defaults := lab.Settings{ConfidenceLevel: 0.9, RoundingDigits: 3}
	loader := NewJSONLoader(defaults, internal.NewNopLogger())

	task, err := loader.Parse([]byte(`{"variables": []}`))
	require.NoError(t, err)
	assert.Equal(t, defaults, task.Settings)

	task, err = loader.Parse([]byte(`{"variables": [], "settings": {"B": 0.95, "round": null, "extended": true}}`))
	require.NoError(t, err)
	assert.Equal(t, lab.Settings{ConfidenceLevel: 0.95, Verbose: true}, task.Settings)

	for _, settings := range []string{`{"B": 1.5}`, `{"round": 0}`, `{"round": 2.5}`, `{"verbose": "yes"}`} {
		_, err := loader.Parse([]byte(`{"variables": [], "settings": ` + settings + `}`))
		require.Error(t, err, settings)
		assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err), settings)
	}
}

func TestLoader_MalformedDocuments(t *testing.T) {
	json := NewJSONLoader(lab.DefaultSettings(), internal.NewNopLogger())
	for _, input := range []string{`{`, `[]`, `{"constants": {}}`, `{"variables": "m"}`, `{"variables": ["m"], "common": {"m": [1]}}`, `{"variables": ["m"], "common": {"m": [[], 0.1]}}`, `{"variables": ["F"], "formulas": {"F": "F*("}}`} {
		_, err := json.Parse([]byte(input))
		require.Error(t, err, input)
		assert.Equal(t, apperrors.CodeParseError, apperrors.GetCode(err), input)
	}

	yaml := NewYAMLLoader(lab.DefaultSettings(), internal.NewNopLogger())
	for _, input := range []string{"variables: [m\n", "", "- m\n"} {
		_, err := yaml.Parse([]byte(input))
		require.Error(t, err, input)
		assert.Equal(t, apperrors.CodeParseError, apperrors.GetCode(err), input)
	}
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lab.json")
	require.NoError(t, os.WriteFile(path, []byte(pendulumJSON), 0o644))

	task, err := NewJSONLoader(lab.DefaultSettings(), nil).Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, task.Source)

	_, err = NewYAMLLoader(lab.DefaultSettings(), nil).Load(filepath.Join(dir, "missing.yaml"))
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}

func TestForPath(t *testing.T) {
	assert.IsType(t, &YAMLLoader{}, ForPath("lab.yaml", lab.DefaultSettings(), nil))
	assert.IsType(t, &YAMLLoader{}, ForPath("LAB.YML", lab.DefaultSettings(), nil))
	assert.IsType(t, &JSONLoader{}, ForPath("lab.json", lab.DefaultSettings(), nil))
	assert.IsType(t, &JSONLoader{}, ForPath("lab", lab.DefaultSettings(), nil))
}
