package analysis

import (
	"context"
	"fmt"
	"time"

	"labsolver/domain/core"
	"labsolver/domain/lab"
	"labsolver/internal"
	"labsolver/internal/errors"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds how many experiments are evaluated at once
const DefaultWorkers = 4

// Engine sequences the estimators over a whole run: common averages once,
// then every experiment independently against them.
type Engine struct {
	logger  *internal.Logger
	workers int
}

// NewEngine creates an engine. workers < 1 falls back to DefaultWorkers.
func NewEngine(logger *internal.Logger, workers int) *Engine {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Engine{logger: logger, workers: workers}
}

// EvaluateTask runs a loaded task
func (e *Engine) EvaluateTask(ctx context.Context, task *lab.Task) (*lab.RunResult, error) {
	run, err := e.Evaluate(ctx, task.Formulas, task.Common, task.Experiments, task.Constants, task.Symbols, task.Settings)
	if err != nil {
		return nil, err
	}
	run.Fingerprint = task.Fingerprint
	return run, nil
}

// Evaluate computes the run result. Experiments are independent and may be
// evaluated concurrently; the output keeps their input order. Any failure
// aborts the whole run and no partial result is returned.
func (e *Engine) Evaluate(ctx context.Context, formulas []lab.Formula, common lab.Measurements, experiments []lab.Measurements, constants lab.Constants, symbols []lab.Symbol, settings lab.Settings) (*lab.RunResult, error) {
	if err := settings.Validate(); err != nil {
		return nil, errors.ConfigInvalid(err.Error())
	}

	runID := core.NewRunID()
	logger := e.logger.With("run_id", runID.String())
	started := time.Now()

	commonAverages, err := e.EvaluateAverages(common, settings)
	if err != nil {
		return nil, errors.Evaluation("common measurements", err)
	}
	logger.Debug("Evaluated %d common measurements", len(commonAverages))

	results := make([]lab.ExperimentResult, len(experiments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range experiments {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := e.EvaluateExperiment(formulas, commonAverages, experiments[i], constants, settings)
			if err != nil {
				return errors.Evaluation(fmt.Sprintf("experiment %d", i+1), err)
			}
			result.Index = i + 1
			results[i] = *result
			logger.Debug("Evaluated experiment %d: %d averages, %d formulas", i+1, len(result.Averages), len(result.Formulas))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("Run aborted: %v", err)
		return nil, err
	}

	run := &lab.RunResult{
		ID:          runID,
		Common:      commonAverages,
		Experiments: results,
		Symbols:     symbols,
		Settings:    settings,
	}
	if settings.Verbose {
		run.Constants = constants
	}

	logger.Info("Evaluated %d experiments and %d formulas in %s", len(experiments), len(formulas), time.Since(started))
	return run, nil
}

// EvaluateAverages estimates every measurement in order
func (e *Engine) EvaluateAverages(measurements lab.Measurements, settings lab.Settings) (lab.Averages, error) {
	averages := make(lab.Averages, 0, len(measurements))
	for _, m := range measurements {
		avg, err := EstimateAverage(m.Sample, settings)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", m.Variable, err)
		}
		e.logger.Trace("%s = %v ± %v (%v%%)", m.Variable, avg.Summary().Result, avg.Summary().Error, avg.Summary().Epsilon)
		averages = append(averages, lab.VariableAverage{Variable: m.Variable, Average: avg})
	}
	return averages, nil
}

// EvaluateExperiment estimates the experiment's own measurements and then
// every formula against them plus the shared common averages and constants
func (e *Engine) EvaluateExperiment(formulas []lab.Formula, common lab.Averages, measurements lab.Measurements, constants lab.Constants, settings lab.Settings) (*lab.ExperimentResult, error) {
	local, err := e.EvaluateAverages(measurements, settings)
	if err != nil {
		return nil, err
	}

	named := make([]lab.NamedFormula, 0, len(formulas))
	for _, f := range formulas {
		result, err := EvaluateFormula(f, common, local, constants, settings)
		if err != nil {
			return nil, err
		}
		e.logger.Trace("%s = %v ± %v (%v%%)", f.Name, result.Summary().Result, result.Summary().Error, result.Summary().Epsilon)
		named = append(named, lab.NamedFormula{Name: f.Name, Result: result})
	}
	return &lab.ExperimentResult{Averages: local, Formulas: named}, nil
}
