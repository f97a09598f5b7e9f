package ui

import (
	"fmt"
	"io"
	"os"
)

// Banner printed at the start of an interactive run
const Banner = `
  _                   _
 | |___ __ _____ ___ | |_ ___ __ _ _ __ _ _ __  ___ _ _
 |  _\ V  V / -_) -_)|  _(_-</ _| '_/ _' | '_ \/ -_) '_|
  \__|\_/\_/\___\___| \__/__/\__|_| \__,_| .__/\___|_|
                                         |_|
`

// ANSI color codes
const (
	codeCyan    = "\033[36m"
	codeYellow  = "\033[33m"
	codeRed     = "\033[31m"
	codeGreen   = "\033[32m"
	codeMagenta = "\033[35m"
	codeDim     = "\033[2m"
	codeReset   = "\033[0m"
)

// Terminal writes colored status lines
type Terminal struct {
	out   io.Writer
	color bool
}

// NewTerminal creates a Terminal over out; color false prints plain text
func NewTerminal(out io.Writer, color bool) *Terminal {
	if out == nil {
		out = os.Stdout
	}
	return &Terminal{out: out, color: color}
}

// Writer returns the underlying writer
func (t *Terminal) Writer() io.Writer {
	return t.out
}

func (t *Terminal) paint(code, text string) string {
	if !t.color {
		return text
	}
	return code + text + codeReset
}

// Cyan colors text cyan
func (t *Terminal) Cyan(text string) string { return t.paint(codeCyan, text) }

// Yellow colors text yellow
func (t *Terminal) Yellow(text string) string { return t.paint(codeYellow, text) }

// Red colors text red
func (t *Terminal) Red(text string) string { return t.paint(codeRed, text) }

// Green colors text green
func (t *Terminal) Green(text string) string { return t.paint(codeGreen, text) }

// Magenta colors text magenta
func (t *Terminal) Magenta(text string) string { return t.paint(codeMagenta, text) }

// Dim dims text
func (t *Terminal) Dim(text string) string { return t.paint(codeDim, text) }

// PrintBanner prints the banner
func (t *Terminal) PrintBanner() {
	fmt.Fprint(t.out, t.Cyan(Banner))
}

// PrintError prints an error message in red
func (t *Terminal) PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(t.out, t.Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(t.out, t.Red(msg))
	}
}

// PrintSuccess prints a success message in green
func (t *Terminal) PrintSuccess(msg string) {
	fmt.Fprintln(t.out, t.Green(msg))
}

// PrintInfo prints a label and value
func (t *Terminal) PrintInfo(label string, value string) {
	fmt.Fprintf(t.out, "%s: %s\n", t.Cyan(label), t.Yellow(value))
}

// PrintWarning prints a warning message in yellow
func (t *Terminal) PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(t.out, t.Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(t.out, t.Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func (t *Terminal) PrintHighlight(msg string) {
	fmt.Fprintln(t.out, t.Magenta(msg))
}
