package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const statusLabelWidth = 18

var statusStyles = map[statusKind]struct {
	label  string
	colors text.Colors
}{
	statusInfo:  {"INFO", text.Colors{text.FgBlue}},
	statusOK:    {"OK", text.Colors{text.FgGreen}},
	statusWarn:  {"WARN", text.Colors{text.FgYellow}},
	statusError: {"ERROR", text.Colors{text.FgRed}},
}

// renderStatusLine formats "  Label:   [KIND] message" with the label column
// padded to statusLabelWidth.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style := statusStyles[kind]
	line := fmt.Sprintf("  %-*s [%s]", statusLabelWidth, label+":", style.label)
	if message != "" {
		line += " " + message
	}
	if colorize {
		return style.colors.Sprint(line)
	}
	return line
}

// renderCheckLine renders a pass/fail check, using failKind when it failed.
func renderCheckLine(label string, passed bool, failKind statusKind, message string, colorize bool) string {
	if passed {
		return renderStatusLine(label, statusOK, message, colorize)
	}
	return renderStatusLine(label, failKind, message, colorize)
}

func renderSectionHeader(title string, colorize bool) []string {
	heading := "== " + strings.TrimSpace(title) + " =="
	rule := strings.Repeat("-", len(heading))
	if colorize {
		heading, rule = text.Bold.Sprint(heading), text.FgBlue.Sprint(rule)
	}
	return []string{heading, rule}
}

func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
