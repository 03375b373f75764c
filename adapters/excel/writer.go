package excel

import (
	"fmt"
	"io"
	"math"

	"labsolver/domain/lab"
	"labsolver/internal/errors"

	"github.com/xuri/excelize/v2"
)

// Sheet names of an exported workbook
const (
	SheetSummary       = "Summary"
	SheetAverages      = "Averages"
	SheetFormulas      = "Formulas"
	SheetContributions = "Contributions"
	SheetConstants     = "Constants"
)

// commonLabel marks common measurements in the experiment column
const commonLabel = "common"

// WorkbookRenderer exports a run as an .xlsx workbook, one row per average,
// formula and propagation term
type WorkbookRenderer struct{}

// NewWorkbookRenderer creates a workbook renderer
func NewWorkbookRenderer() *WorkbookRenderer {
	return &WorkbookRenderer{}
}

// Render writes the workbook to w
func (r *WorkbookRenderer) Render(w io.Writer, run *lab.RunResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := r.fill(f, run); err != nil {
		return errors.Render("failed to build workbook", err)
	}
	if err := f.Write(w); err != nil {
		return errors.Render("failed to write workbook", err)
	}
	return nil
}

func (r *WorkbookRenderer) fill(f *excelize.File, run *lab.RunResult) error {
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	s := &sheetWriter{f: f, header: header}

	round := ""
	if run.Settings.Rounds() {
		round = fmt.Sprint(run.Settings.RoundingDigits)
	}
	s.open(SheetSummary, "Key", "Value")
	s.row("Run", run.ID.String())
	s.row("Input", run.Fingerprint.String())
	s.row("Confidence level", run.Settings.ConfidenceLevel)
	s.row("Significant digits", round)
	s.row("Experiments", len(run.Experiments))

	s.open(SheetAverages, "Experiment", "Variable", "Result", "Error", "Epsilon, %", "Measurements", "Branch")
	s.averages(commonLabel, run.Common)
	for _, experiment := range run.Experiments {
		s.averages(experiment.Index, experiment.Averages)
	}

	s.open(SheetFormulas, "Experiment", "Formula", "Result", "Error", "Epsilon, %")
	for _, experiment := range run.Experiments {
		for _, nf := range experiment.Formulas {
			e := nf.Result.Summary()
			s.row(experiment.Index, nf.Name, cell(e.Result), cell(e.Error), cell(e.Epsilon))
		}
	}

	if run.Settings.Verbose {
		s.open(SheetContributions, "Experiment", "Formula", "Variable", "Derivative", "Derivative value", "Input error", "Term")
		for _, experiment := range run.Experiments {
			for _, nf := range experiment.Formulas {
				detailed, ok := nf.Result.(lab.DetailedFormula)
				if !ok {
					continue
				}
				for _, c := range detailed.Contributions {
					s.row(experiment.Index, nf.Name, c.Variable.String(), c.DerivativeText,
						cell(c.DerivativeValue), cell(c.InputError), cell(c.Result))
				}
			}
		}
	}

	if len(run.Constants) > 0 {
		s.open(SheetConstants, "Constant", "Value")
		for _, c := range run.Constants {
			s.row(c.Variable.String(), cell(c.Value))
		}
	}
	return s.err
}

// sheetWriter appends rows to the current sheet and keeps the first error
type sheetWriter struct {
	f      *excelize.File
	header int
	sheet  string
	next   int
	err    error
}

func (s *sheetWriter) open(sheet string, columns ...interface{}) {
	if s.err != nil {
		return
	}
	if sheet != SheetSummary {
		if _, err := s.f.NewSheet(sheet); err != nil {
			s.err = err
			return
		}
	}
	s.sheet, s.next = sheet, 1
	s.row(columns...)
	if s.err == nil {
		s.err = s.f.SetRowStyle(sheet, 1, 1, s.header)
	}
}

func (s *sheetWriter) row(values ...interface{}) {
	if s.err != nil {
		return
	}
	start, err := excelize.CoordinatesToCellName(1, s.next)
	if err != nil {
		s.err = err
		return
	}
	if err := s.f.SetSheetRow(s.sheet, start, &values); err != nil {
		s.err = err
		return
	}
	s.next++
}

func (s *sheetWriter) averages(experiment interface{}, averages lab.Averages) {
	for _, item := range averages {
		e := item.Average.Summary()
		var count interface{} = ""
		branch := ""
		switch a := item.Average.(type) {
		case lab.ShortAverage:
			count = 1
		case lab.LongAverage:
			count = len(a.Measurements)
			branch = string(a.Branch)
		}
		s.row(experiment, item.Variable.String(), cell(e.Result), cell(e.Error), cell(e.Epsilon), count, branch)
	}
}

// cell keeps finite numbers numeric; spreadsheets have no infinity
func cell(x float64) interface{} {
	if math.IsInf(x, 0) || math.IsNaN(x) {
		return fmt.Sprint(x)
	}
	return x
}
