package report

import (
	"encoding/json"
	"io"

	"labsolver/domain/lab"
	"labsolver/internal/errors"
)

// JSONPrinter dumps the raw run result
type JSONPrinter struct {
	indent string
}

// NewJSONPrinter creates a printer with two-space indentation
func NewJSONPrinter() *JSONPrinter {
	return &JSONPrinter{indent: "  "}
}

// Render writes the run as JSON
func (p *JSONPrinter) Render(w io.Writer, run *lab.RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", p.indent)
	if err := enc.Encode(run); err != nil {
		return errors.Render("failed to encode run result", err)
	}
	return nil
}
