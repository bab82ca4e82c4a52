package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"mediaflow/internal/preflight"
)

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const checkLabelWidth = 22

// checkBadge maps a preflight result to its label and terminal colour.
func checkBadge(r preflight.Result) (string, string) {
	switch {
	case r.Passed:
		return "OK", ansiGreen
	case r.Advisory:
		return "WARN", ansiYellow
	default:
		return "ERROR", ansiRed
	}
}

func renderCheck(r preflight.Result, colorize bool) string {
	label, color := checkBadge(r)
	badge := "[" + label + "]"
	if r.Detail != "" {
		badge += " " + r.Detail
	}
	line := fmt.Sprintf("  %-*s %s", checkLabelWidth, r.Name+":", badge)
	if colorize {
		return color + line + ansiReset
	}
	return line
}

func writeCheckSection(out io.Writer, title string, results []preflight.Result, colorize bool) {
	heading := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(heading))
	if colorize {
		heading, rule = ansiBlue+heading+ansiReset, ansiBlue+rule+ansiReset
	}
	fmt.Fprintln(out, heading)
	fmt.Fprintln(out, rule)
	if len(results) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for _, r := range results {
		fmt.Fprintln(out, renderCheck(r, colorize))
	}
	fmt.Fprintln(out)
}

// shouldColorize reports whether writer is an interactive terminal.
func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
