package analyzer

import "github.com/fatih/color"

// Severity ranks how much damage a statement can do to a live database.
type Severity int

const (
	Safe Severity = iota
	Low
	Medium
	// High statements take a blocking lock or rewrite a table.
	High
	// Critical statements destroy data.
	Critical
)

var severityLabels = [...]string{
	Safe:     "SAFE",
	Low:      "LOW",
	Medium:   "MEDIUM",
	High:     "HIGH",
	Critical: "CRITICAL",
}

var severityAttrs = [...][]color.Attribute{
	Safe:     {color.FgGreen},
	Low:      {color.FgCyan},
	Medium:   {color.FgYellow},
	High:     {color.FgRed},
	Critical: {color.FgHiRed, color.Bold},
}

func (s Severity) valid() bool {
	return s >= Safe && s <= Critical
}

func (s Severity) String() string {
	if !s.valid() {
		return "UNKNOWN"
	}

	return severityLabels[s]
}

// Color is the terminal color the label is printed in.
func (s Severity) Color() *color.Color {
	if !s.valid() {
		return color.New(color.Reset)
	}

	return color.New(severityAttrs[s]...)
}
