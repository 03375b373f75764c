// Package report renders run results as TeX, Markdown, HTML or JSON.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"labsolver/domain/lab"
	"labsolver/internal/symbolic"
)

// number prints a value exactly as the engine produced it: the shortest
// representation that parses back to the same float
func number(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}

// ApplySymbols replaces every configured symbol in document order
func ApplySymbols(text string, symbols []lab.Symbol) string {
	for _, s := range symbols {
		if s.From == "" {
			continue
		}
		text = strings.ReplaceAll(text, s.From, s.To)
	}
	return text
}

// measurementError returns the instrument error carried by a verbose average
func measurementError(avg lab.AverageResult) (float64, bool) {
	switch a := avg.(type) {
	case lab.ShortAverage:
		return a.MeasurementError, true
	case lab.LongAverage:
		return a.MeasurementError, true
	default:
		return 0, false
	}
}

func latexName(name string) string {
	return symbolic.SymbolLaTeX(name)
}

func errVerboseRequired(what string) error {
	return fmt.Errorf("%s has no derivation trail; evaluate the run in verbose mode", what)
}
