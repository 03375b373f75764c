package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"labsolver/domain/lab"
	"labsolver/internal"
	"labsolver/internal/errors"
	"labsolver/ports"
)

// Actions that write to standard output instead of a file
const (
	ActionPrint = "print"
	ActionTeX   = "tex"
)

// Format names the kind of document an action produces
type Format string

const (
	FormatJSON     Format = "json"
	FormatTeX      Format = "tex"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatWorkbook Format = "xlsx"
)

// Renderers holds one renderer per output format
type Renderers struct {
	JSON     ports.ReportRenderer
	TeX      ports.ReportRenderer
	Markdown ports.ReportRenderer
	HTML     ports.ReportRenderer
	Workbook ports.ReportRenderer
}

// LoaderFactory picks a loader for an input path
type LoaderFactory func(path string) ports.TaskLoader

// LabService runs the load → evaluate → render pipeline
type LabService struct {
	loaders   LoaderFactory
	evaluator ports.RunEvaluator
	renderers Renderers
	logger    *internal.Logger
}

// Outcome describes what one pipeline execution produced
type Outcome struct {
	Run    *lab.RunResult
	Format Format
	// Path is empty when the document went to standard output
	Path      string
	RuntimeMs int64
}

// NewLabService creates the pipeline
func NewLabService(loaders LoaderFactory, evaluator ports.RunEvaluator, renderers Renderers, logger *internal.Logger) *LabService {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &LabService{
		loaders:   loaders,
		evaluator: evaluator,
		renderers: renderers,
		logger:    logger,
	}
}

// Target resolves an action into a format and an output path. print and tex
// go to stdout; any other action is a file path whose extension picks the format.
func Target(action string) (Format, string) {
	switch action {
	case ActionPrint:
		return FormatJSON, ""
	case ActionTeX:
		return FormatTeX, ""
	}
	switch strings.ToLower(filepath.Ext(action)) {
	case ".xlsx":
		return FormatWorkbook, action
	case ".md", ".markdown":
		return FormatMarkdown, action
	case ".html", ".htm":
		return FormatHTML, action
	default:
		return FormatTeX, action
	}
}

// Execute loads inputPath, evaluates it and renders the result as action
// selects. Every action except print forces a verbose run, since documents
// need the derivation trail.
func (s *LabService) Execute(ctx context.Context, inputPath, action string, stdout io.Writer) (*Outcome, error) {
	started := time.Now()
	format, path := Target(action)

	renderer, err := s.renderer(format)
	if err != nil {
		return nil, err
	}

	task, err := s.loaders(inputPath).Load(inputPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", inputPath)
	}
	if action != ActionPrint {
		task.Settings.Verbose = true
	}
	s.logger.Debug("Loaded %s: %d formulas, %d experiments", inputPath, len(task.Formulas), len(task.Experiments))

	run, err := s.evaluator.EvaluateTask(ctx, task)
	if err != nil {
		return nil, err
	}

	if path == "" {
		if err := renderer.Render(stdout, run); err != nil {
			return nil, err
		}
	} else {
		// render fully before touching the file so a failure leaves nothing behind
		var buf bytes.Buffer
		if err := renderer.Render(&buf, run); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return nil, errors.Render(fmt.Sprintf("failed to save %s", path), err)
		}
		s.logger.Info("Saved %s report to %s", format, path)
	}

	return &Outcome{
		Run:       run,
		Format:    format,
		Path:      path,
		RuntimeMs: time.Since(started).Milliseconds(),
	}, nil
}

func (s *LabService) renderer(format Format) (ports.ReportRenderer, error) {
	var r ports.ReportRenderer
	switch format {
	case FormatJSON:
		r = s.renderers.JSON
	case FormatTeX:
		r = s.renderers.TeX
	case FormatMarkdown:
		r = s.renderers.Markdown
	case FormatHTML:
		r = s.renderers.HTML
	case FormatWorkbook:
		r = s.renderers.Workbook
	}
	if r == nil {
		return nil, errors.InvalidInput(fmt.Sprintf("no renderer configured for %s output", format))
	}
	return r, nil
}
