package report

import (
	"fmt"
	"io"
	"strings"

	"labsolver/domain/lab"
	"labsolver/internal/errors"

	"github.com/montanaflynn/stats"
)

// TeXRenderer writes the full derivation of a verbose run as a LaTeX article
type TeXRenderer struct{}

// NewTeXRenderer creates a TeX renderer
func NewTeXRenderer() *TeXRenderer {
	return &TeXRenderer{}
}

// Render writes the document to w
func (r *TeXRenderer) Render(w io.Writer, run *lab.RunResult) error {
	text, err := r.Document(run)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, text); err != nil {
		return errors.Render("failed to write TeX report", err)
	}
	return nil
}

// Document builds the TeX source with symbol substitutions applied
func (r *TeXRenderer) Document(run *lab.RunResult) (string, error) {
	d := &texDocument{run: run}
	d.raw(`\documentclass{article}`)
	d.raw(`\begin{document}`)

	d.raw(`\section{Common}`)
	d.raw(`\subsection{Direct measurements}`)
	if err := d.directMeasurements(run.Common); err != nil {
		return "", errors.Render("common measurements", err)
	}

	for _, experiment := range run.Experiments {
		if err := d.experiment(experiment); err != nil {
			return "", errors.Render(fmt.Sprintf("experiment %d", experiment.Index), err)
		}
	}

	d.raw(`\end{document}`)
	return ApplySymbols(d.b.String(), run.Symbols), nil
}

type texDocument struct {
	b   strings.Builder
	run *lab.RunResult
}

// raw writes one paragraph
func (d *texDocument) raw(s string) {
	d.b.WriteString(s)
	d.b.WriteString("\n\n")
}

// math writes one inline-math paragraph
func (d *texDocument) math(format string, args ...interface{}) {
	d.raw(`\( ` + fmt.Sprintf(format, args...) + ` \)`)
}

func (d *texDocument) experiment(experiment lab.ExperimentResult) error {
	d.raw(`\section{Experiment ` + fmt.Sprint(experiment.Index) + `}`)
	d.raw(`\subsection{Measurement data and constants}`)
	if err := d.measurementData(experiment); err != nil {
		return err
	}
	d.raw(`\subsection{Direct measurements}`)
	if err := d.directMeasurements(experiment.Averages); err != nil {
		return err
	}
	d.raw(`\subsection{Indirect measurements}`)
	for _, f := range experiment.Formulas {
		if err := d.formula(f); err != nil {
			return err
		}
	}
	return nil
}

func (d *texDocument) measurementData(experiment lab.ExperimentResult) error {
	for _, averages := range []lab.Averages{d.run.Common, experiment.Averages} {
		for _, item := range averages {
			e, ok := measurementError(item.Average)
			if !ok {
				return errVerboseRequired("average of " + item.Variable.String())
			}
			d.math(`%s=%s \pm %s`, latexName(item.Variable.String()), number(item.Average.Summary().Result), number(e))
		}
	}
	for _, c := range d.run.Constants {
		d.math(`%s=%s`, latexName(c.Variable.String()), number(c.Value))
	}
	return nil
}

func (d *texDocument) directMeasurements(averages lab.Averages) error {
	for _, item := range averages {
		name := latexName(item.Variable.String())
		d.raw(`\subsubsection{Calculating \( ` + name + ` \)}`)
		switch avg := item.Average.(type) {
		case lab.ShortAverage:
			d.shortAverage(name, avg)
		case lab.LongAverage:
			if err := d.longAverage(name, avg); err != nil {
				return err
			}
		default:
			return errVerboseRequired("average of " + item.Variable.String())
		}
	}
	return nil
}

func (d *texDocument) shortAverage(x string, a lab.ShortAverage) {
	d.math(`%s_{av}=%s`, x, number(a.Result))
	d.math(`\delta_{%s}=%s`, x, number(a.MeasurementError))
	d.raw(fmt.Sprintf(`\( {\beta}=%s \) \( t_{\beta}(\infty)=%s \)`, number(a.Confidence), number(a.TInf)))
	d.math(`\Delta %s=\frac{\delta %s}{3} \cdot t_{\beta}(\infty)=\frac{%s}{3} \cdot %s=%s`,
		x, x, number(a.MeasurementError), number(a.TInf), number(a.Error))
	d.epsilon(x, a.Error, a.Result, a.Epsilon)
	d.statement(x, a.Estimate, a.Confidence)
}

func (d *texDocument) longAverage(x string, a lab.LongAverage) error {
	n := len(a.Measurements)
	sum, err := stats.Sum(a.Measurements)
	if err != nil {
		return err
	}

	values := make([]string, n)
	deviations := make([]string, n)
	for i, v := range a.Measurements {
		values[i] = number(v)
		deviations[i] = "(" + number(a.Deviations[i]) + ")^2"
	}

	d.math(`%s_{av}=\frac{1}{n}\displaystyle\sum_{i=1}^{n} %s_{i}=\frac{%s}{%d}=\frac{%s}{%d}=%s`,
		x, x, strings.Join(values, "+"), n, number(sum), n, number(a.Result))
	d.math(`S_{%s}=\sqrt{\frac{\displaystyle\sum_{i=1}^{n} (%s_{i} - %s_{av})^2}{n(n-1)}}=\sqrt{\frac{%s}{%d \cdot %d}}=%s`,
		x, x, x, strings.Join(deviations, "+"), n, n-1, number(a.StdError))
	d.raw(fmt.Sprintf(`\( {\beta}=%s \) \( t_{\beta}(%d)=%s \) \( t_{\beta}(\infty)=%s \)`,
		number(a.Confidence), n, number(a.TN), number(a.TInf)))
	d.math(`\Delta %s_{S}=S_{%s} \cdot t_{\beta}(n)=%s \cdot %s=%s`,
		x, x, number(a.StdError), number(a.TN), number(a.SampleDelta))
	d.math(`\Delta %s_{\delta}=\frac{\delta %s}{3} \cdot t_{\beta}(\infty)=\frac{%s}{3} \cdot %s=%s`,
		x, x, number(a.MeasurementError), number(a.TInf), number(a.InstrumentDelta))

	switch a.Branch {
	case lab.BranchSampleDominant:
		d.math(`\Delta %s_{S}>3 \Delta %s_{\delta} \Rightarrow \Delta %s=\Delta %s_{S}=%s`, x, x, x, x, number(a.Error))
	case lab.BranchInstrumentDominant:
		d.math(`\Delta %s_{\delta}>3 \Delta %s_{S} \Rightarrow \Delta %s=\Delta %s_{\delta}=%s`, x, x, x, x, number(a.Error))
	default:
		d.math(`\Delta %s=\sqrt{\Delta %s_{S}^2+\Delta %s_{\delta}^2}=\sqrt{%s^2+%s^2}=%s`,
			x, x, x, number(a.SampleDelta), number(a.InstrumentDelta), number(a.Error))
	}

	d.epsilon(x, a.Error, a.Result, a.Epsilon)
	d.statement(x, a.Estimate, a.Confidence)
	return nil
}

func (d *texDocument) formula(named lab.NamedFormula) error {
	f, ok := named.Result.(lab.DetailedFormula)
	if !ok {
		return errVerboseRequired("formula " + named.Name)
	}
	name := latexName(named.Name)
	d.raw(`\subsubsection{Calculating \( ` + name + ` \)}`)

	formula := f.Formula
	if f.Expr != nil {
		formula = f.Expr.LaTeX()
	}
	d.math(`%s=%s=%s`, name, formula, number(f.Result))

	terms := make([]string, len(f.Contributions))
	squares := make([]string, len(f.Contributions))
	for i, c := range f.Contributions {
		v := latexName(c.Variable.String())
		derivative := c.DerivativeText
		if c.Derivative != nil {
			derivative = c.Derivative.LaTeX()
		}
		d.math(`\Delta %s_{%s}=\frac{\partial %s}{\partial %s} \cdot \Delta %s=%s \cdot %s=%s \cdot %s=%s`,
			name, v, name, v, v, derivative, number(c.InputError), number(c.DerivativeValue), number(c.InputError), number(c.Result))
		terms[i] = fmt.Sprintf(`\Delta %s_{%s}^2`, name, v)
		squares[i] = number(c.Square)
	}
	if len(terms) > 0 {
		d.math(`\Delta %s=\sqrt{%s}=\sqrt{%s}=%s`, name, strings.Join(terms, "+"), strings.Join(squares, "+"), number(f.Error))
	} else {
		d.math(`\Delta %s=%s`, name, number(f.Error))
	}

	d.epsilon(name, f.Error, f.Result, f.Epsilon)
	d.statement(name, f.Estimate, f.Confidence)
	return nil
}

func (d *texDocument) epsilon(x string, delta, result, epsilon float64) {
	d.math(`\varepsilon=\frac{\Delta %s}{%s_{av}} \cdot 100\%%=\frac{%s}{%s} \cdot 100\%%=%s\%%`,
		x, x, number(delta), number(result), number(epsilon))
}

func (d *texDocument) statement(x string, e lab.Estimate, confidence float64) {
	d.raw(fmt.Sprintf(`\( %s=(%s \pm %s) \) \( \varepsilon=%s\%% \) at \( {\beta}=%s \)`,
		x, number(e.Result), number(e.Error), number(e.Epsilon), number(confidence)))
}
