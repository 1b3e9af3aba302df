package ui

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Banner is printed at the start of an interactive run
const Banner = `
  ┌────────────────────────────────────────────┐
  │  paystubdl  ·  payroll statement archiver  │
  └────────────────────────────────────────────┘
`

var (
	// Stdout receives normal command output
	Stdout io.Writer = os.Stdout
	// Stderr receives errors and warnings
	Stderr io.Writer = os.Stderr

	colorEnabled = isTerminal(os.Stdout)
)

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes when
// stdout is a terminal
func colorize(colorString string) func(string) string {
	return func(text string) string {
		if !colorEnabled {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// SetColor forces colored output on or off
func SetColor(enabled bool) {
	colorEnabled = enabled
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// PrintBanner prints the banner in color
func PrintBanner() {
	fmt.Fprint(Stdout, Cyan(Banner))
}

// PrintError prints an error message in red on stderr
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(Stderr, Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Stderr, Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Fprintln(Stdout, Green(msg))
}

// PrintInfo prints a label and value pair
func PrintInfo(label string, value string) {
	fmt.Fprintf(Stdout, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow on stderr
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(Stderr, Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Stderr, Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	fmt.Fprintln(Stdout, Magenta(msg))
}

// RunSummary is the subset of a finished pass shown to the user
type RunSummary struct {
	Listed       int
	Downloaded   int
	Skipped      int
	Filtered     int
	StoppedEarly bool
}

// PrintRunSummary prints the counters of a finished retrieval pass
func PrintRunSummary(s RunSummary) {
	PrintInfo("Statements listed", fmt.Sprintf("%d", s.Listed))
	PrintInfo("Downloaded", fmt.Sprintf("%d", s.Downloaded))
	PrintInfo("Already present", fmt.Sprintf("%d", s.Skipped))
	if s.Filtered > 0 {
		PrintInfo("Other years", fmt.Sprintf("%d", s.Filtered))
	}
	if s.StoppedEarly {
		fmt.Fprintln(Stdout, Dim("stopped early: the rest of the archive is already on disk"))
	}
}
