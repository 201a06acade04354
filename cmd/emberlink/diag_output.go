package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"emberlink/internal/diag"
	"emberlink/internal/driver"
)

var (
	errorWord   = color.New(color.FgRed, color.Bold)
	warningWord = color.New(color.FgYellow, color.Bold)
	infoWord    = color.New(color.FgCyan)
)

// printUnitDiagnostics renders every unit bag in manifest order. When a
// manifest never made it into the file set there is no file to resolve
// spans against, so those diagnostics fall back to a location-free line.
func printUnitDiagnostics(out io.Writer, res *driver.Result, useColor, includeNotes bool) {
	for _, unit := range res.Units {
		if unit.Bag == nil || unit.Bag.Len() == 0 {
			continue
		}
		text := diag.FormatDiagnostics(unit.Bag.Items(), unit.Fset, includeNotes)
		if text == "" {
			for _, d := range unit.Bag.Items() {
				line := fmt.Sprintf("%s %s %s", severityWord(d.Severity), d.Code.ID(), d.Message)
				fmt.Fprintln(out, colorizeDiagLine(line, useColor))
			}
			continue
		}
		for _, line := range strings.Split(text, "\n") {
			fmt.Fprintln(out, colorizeDiagLine(line, useColor))
		}
	}
}

func severityWord(sev diag.Severity) string {
	switch sev {
	case diag.SevError:
		return "error"
	case diag.SevWarning:
		return "warning"
	default:
		return "info"
	}
}

func colorizeDiagLine(line string, useColor bool) string {
	if !useColor {
		return line
	}
	word, rest, found := strings.Cut(line, " ")
	if !found {
		return line
	}
	switch word {
	case "error":
		return errorWord.Sprint(word) + " " + rest
	case "warning":
		return warningWord.Sprint(word) + " " + rest
	case "note", "info":
		return infoWord.Sprint(word) + " " + rest
	}
	return line
}
