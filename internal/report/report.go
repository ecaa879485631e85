// Package report renders a run's diagnostics as a Markdown document.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/daxida/kty/internal/archive"
	"github.com/daxida/kty/internal/domain"
)

// maxCell truncates long messages so the tables stay readable.
const maxCell = 120

// Render returns the Markdown report for one language pair.
func Render(pair string, diag *domain.Diagnostics) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Diagnostics: %s\n\n", pair)

	kinds := diag.Kinds()
	if len(kinds) == 0 {
		sb.WriteString("No diagnostics.\n")
		return sb.String()
	}

	summary := [][]string{{"Kind", "Count"}}
	for _, k := range kinds {
		summary = append(summary, []string{string(k), strconv.Itoa(diag.Count(k))})
	}
	summary = append(summary, []string{"total", strconv.Itoa(diag.Total())})
	writeTable(&sb, summary)

	for _, k := range kinds {
		samples := diag.Samples(k)
		if len(samples) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n## %s (%d of %d)\n\n", k, len(samples), diag.Count(k))
		rows := [][]string{{"Subject", "Message"}}
		for _, s := range samples {
			rows = append(rows, []string{cell(s.Subject), cell(s.Message)})
		}
		writeTable(&sb, rows)
	}
	return sb.String()
}

// Save writes the report to dir as <pair>-diagnostics.md and returns its name.
func Save(dir, pair string, diag *domain.Diagnostics) (string, error) {
	name := pair + "-diagnostics.md"
	if err := archive.WriteDir(dir, []archive.Entry{{Name: name, Data: []byte(Render(pair, diag))}}); err != nil {
		return "", err
	}
	return name, nil
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, maxCell, "…")
}

// writeTable writes rows as a Markdown table, padding cells to the widest
// display width in each column. The first row is the header.
func writeTable(sb *strings.Builder, rows [][]string) {
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, c := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(c), 3)
		}
	}

	line := func(row []string) {
		sb.WriteString("|")
		for i, c := range row {
			sb.WriteString(" ")
			sb.WriteString(runewidth.FillRight(c, widths[i]))
			sb.WriteString(" |")
		}
		sb.WriteString("\n")
	}

	line(rows[0])
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	line(sep)
	for _, row := range rows[1:] {
		line(row)
	}
}
