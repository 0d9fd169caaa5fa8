package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"mintada/internal/catalog"
	"mintada/internal/lifecycle"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const statusLabelWidth = 20

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	base := fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// sampleTypeLabel colours the role column when writing to a terminal.
func sampleTypeLabel(t catalog.SampleType, colorize bool) string {
	label := t.String()
	if !colorize {
		return label
	}
	switch t {
	case catalog.SampleReference:
		return ansiGreen + label + ansiReset
	case catalog.SamplePastSale:
		return ansiYellow + label + ansiReset
	default:
		return label
	}
}

func dash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

// printResult reports a lifecycle outcome: warnings first, then the coin.
func printResult(w io.Writer, verb string, res *lifecycle.Result) {
	colorize := shouldColorize(w)
	for _, warning := range res.Warnings {
		fmt.Fprintln(w, renderStatusLine("Warning", statusWarn, warning, colorize))
	}
	fmt.Fprintln(w, renderStatusLine(verb, statusOK, fmt.Sprintf("coin %d now has %d samples", res.Coin.ID, len(res.Coin.Samples)), colorize))
	fmt.Fprintln(w, renderSamples(res.Coin, nil, colorize))
}
