package report

import (
	"bytes"
	"fmt"
	"io"

	"labsolver/domain/lab"
	"labsolver/internal/errors"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// MarkdownRenderer writes a summary of a run as Markdown tables. Lean runs
// render fine; verbose runs also list the propagation terms of each formula.
type MarkdownRenderer struct{}

// NewMarkdownRenderer creates a Markdown renderer
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render writes the Markdown document to w
func (r *MarkdownRenderer) Render(w io.Writer, run *lab.RunResult) error {
	if _, err := w.Write(r.Document(run)); err != nil {
		return errors.Render("failed to write Markdown report", err)
	}
	return nil
}

// Document builds the Markdown source. Symbol substitutions apply to
// variable and formula names only.
func (r *MarkdownRenderer) Document(run *lab.RunResult) []byte {
	var b bytes.Buffer
	name := func(s string) string { return ApplySymbols(s, run.Symbols) }

	b.WriteString("# Lab report\n\n")
	fmt.Fprintf(&b, "Run `%s`", run.ID)
	if run.Fingerprint != "" {
		fmt.Fprintf(&b, ", input `%s`", run.Fingerprint.Short())
	}
	fmt.Fprintf(&b, ", β = %s", number(run.Settings.ConfidenceLevel))
	if run.Settings.Rounds() {
		fmt.Fprintf(&b, ", %d significant digits", run.Settings.RoundingDigits)
	}
	b.WriteString("\n\n")

	if len(run.Common) > 0 {
		b.WriteString("## Common\n\n")
		writeAverages(&b, run.Common, name)
	}

	if len(run.Constants) > 0 {
		b.WriteString("## Constants\n\n")
		b.WriteString("| Constant | Value |\n|---|---|\n")
		for _, c := range run.Constants {
			fmt.Fprintf(&b, "| %s | %s |\n", name(c.Variable.String()), number(c.Value))
		}
		b.WriteString("\n")
	}

	for _, experiment := range run.Experiments {
		fmt.Fprintf(&b, "## Experiment %d\n\n", experiment.Index)
		if len(experiment.Averages) > 0 {
			b.WriteString("### Direct measurements\n\n")
			writeAverages(&b, experiment.Averages, name)
		}
		if len(experiment.Formulas) > 0 {
			b.WriteString("### Indirect measurements\n\n")
			writeFormulas(&b, experiment.Formulas, name)
		}
	}
	return b.Bytes()
}

func writeAverages(b *bytes.Buffer, averages lab.Averages, name func(string) string) {
	b.WriteString("| Variable | Result | Error | ε, % | Measurements | Branch |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, item := range averages {
		e := item.Average.Summary()
		count, branch := "", ""
		switch a := item.Average.(type) {
		case lab.ShortAverage:
			count = "1"
		case lab.LongAverage:
			count = fmt.Sprint(len(a.Measurements))
			branch = string(a.Branch)
		}
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s |\n",
			name(item.Variable.String()), number(e.Result), number(e.Error), number(e.Epsilon), count, branch)
	}
	b.WriteString("\n")
}

func writeFormulas(b *bytes.Buffer, formulas []lab.NamedFormula, name func(string) string) {
	b.WriteString("| Formula | Result | Error | ε, % |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, f := range formulas {
		e := f.Result.Summary()
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n", name(f.Name), number(e.Result), number(e.Error), number(e.Epsilon))
	}
	b.WriteString("\n")

	for _, f := range formulas {
		detailed, ok := f.Result.(lab.DetailedFormula)
		if !ok {
			continue
		}
		fmt.Fprintf(b, "**%s** = `%s`\n\n", name(f.Name), detailed.Formula)
		for _, c := range detailed.Contributions {
			fmt.Fprintf(b, "- ∂%s/∂%s = `%s` = %s, × %s = %s\n",
				name(f.Name), name(c.Variable.String()), c.DerivativeText,
				number(c.DerivativeValue), number(c.InputError), number(c.Result))
		}
		if len(detailed.Contributions) > 0 {
			b.WriteString("\n")
		}
	}
}

// HTMLRenderer converts the Markdown report to a standalone HTML page
type HTMLRenderer struct {
	markdown *MarkdownRenderer
}

// NewHTMLRenderer creates an HTML renderer
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{markdown: NewMarkdownRenderer()}
}

// Render writes the HTML page to w
func (r *HTMLRenderer) Render(w io.Writer, run *lab.RunResult) error {
	// parsers keep state, so each render gets its own
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: "Lab report",
		Flags: html.CommonFlags | html.CompletePage,
	})
	page := markdown.Render(p.Parse(r.markdown.Document(run)), renderer)
	if _, err := w.Write(page); err != nil {
		return errors.Render("failed to write HTML report", err)
	}
	return nil
}
