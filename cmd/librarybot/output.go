package main

import (
	"fmt"
	"io"
	"os"
)

// stderr receives every status line so stdout stays clean for answers
// and JSON that users may pipe elsewhere.
var stderr io.Writer = os.Stderr

// style is an ANSI SGR sequence with the glyph that marks its lines.
type style struct {
	sgr   string
	glyph string
}

var (
	styleOK   = style{"32", "✓"}
	styleFail = style{"31", "✗"}
	styleWarn = style{"33", "⚠"}
	styleStep = style{"36", "→"}
	styleBold = style{"1", ""}
)

func (s style) paint(text string) string {
	if noColor {
		return text
	}
	return "\033[" + s.sgr + "m" + text + "\033[0m"
}

func (s style) line(format string, args []any) {
	fmt.Fprintln(stderr, s.paint(s.glyph+" "+fmt.Sprintf(format, args...)))
}

func printSuccess(format string, args ...any) { styleOK.line(format, args) }

func printError(format string, args ...any) { styleFail.line(format, args) }

func printWarning(format string, args ...any) { styleWarn.line(format, args) }

func printStep(format string, args ...any) { styleStep.line(format, args) }

// printStatus writes an indented "Label: value" pair.
func printStatus(label, format string, args ...any) {
	fmt.Fprintf(stderr, "  %s %s\n", styleBold.paint(label+":"), fmt.Sprintf(format, args...))
}
