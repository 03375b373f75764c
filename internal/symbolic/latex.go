package symbolic

import "strings"

var greek = map[string]bool{
	"alpha": true, "beta": true, "gamma": true, "delta": true, "epsilon": true,
	"varepsilon": true, "zeta": true, "eta": true, "theta": true, "vartheta": true,
	"iota": true, "kappa": true, "lambda": true, "mu": true, "nu": true, "xi": true,
	"pi": true, "rho": true, "sigma": true, "tau": true, "upsilon": true, "phi": true,
	"varphi": true, "chi": true, "psi": true, "omega": true,
	"Gamma": true, "Delta": true, "Theta": true, "Lambda": true, "Xi": true, "Pi": true,
	"Sigma": true, "Upsilon": true, "Phi": true, "Psi": true, "Omega": true,
}

// SymbolLaTeX renders a variable name: greek letter names become commands and
// the text after the first underscore becomes a subscript.
func SymbolLaTeX(name string) string {
	base, sub, hasSub := strings.Cut(name, "_")
	out := base
	if greek[base] {
		out = "\\" + base
	}
	if hasSub && sub != "" {
		out += "_{" + SymbolLaTeX(sub) + "}"
	}
	return out
}
