package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/vigilsec/zoneguard/internal/engine"
	"github.com/vigilsec/zoneguard/internal/rules"
)

var findingHeaders = []string{"Severity", "Rule", "Title", "Evidence"}

// WriteTables renders one severity-ordered finding table per scanned domain.
func WriteTables(w io.Writer, batch *engine.BatchResult, noColor bool) {
	for _, result := range batch.Results {
		fmt.Fprintln(w)
		writeDomainHeader(w, result, noColor)

		if result.Status == engine.StatusFailed {
			for _, e := range result.Errors {
				fmt.Fprintf(w, "  %s: %s\n", e.Source, e.Message)
			}
			continue
		}
		if len(result.Findings) == 0 {
			fmt.Fprintln(w, "  No findings.")
			continue
		}

		var rows [][]string
		for _, f := range rules.SortForPresentation(result.Findings) {
			rows = append(rows, []string{
				string(f.Severity),
				f.RuleID,
				f.Title,
				truncate(formatEvidence(f.Evidence), 48),
			})
		}

		if noColor {
			writeSimpleTable(w, findingHeaders, rows)
			continue
		}

		t := table.New().
			Headers(findingHeaders...).
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
				}
				if col == 0 && row >= 0 && row < len(rows) {
					return severityStyle(engine.Severity(rows[row][0]))
				}
				return lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
			})
		for _, row := range rows {
			t.Row(row...)
		}
		fmt.Fprintln(w, t.Render())
	}
}

func writeDomainHeader(w io.Writer, result engine.DomainScanResult, noColor bool) {
	if noColor {
		fmt.Fprintf(w, "%s [%s]\n", result.Domain, result.Status)
		return
	}
	style := lipgloss.NewStyle().Bold(true)
	fmt.Fprintf(w, "%s [%s]\n", style.Render(result.Domain), statusStyle(result.Status).Render(string(result.Status)))
}

func severityStyle(s engine.Severity) lipgloss.Style {
	switch s {
	case engine.SeverityCritical:
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	case engine.SeverityWarning:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	}
}

func statusStyle(s engine.ScanStatus) lipgloss.Style {
	switch s {
	case engine.StatusOK:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	case engine.StatusPartial:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	}
}

// formatEvidence renders evidence as "key=value" pairs in key order.
func formatEvidence(evidence map[string]string) string {
	if len(evidence) == 0 {
		return ""
	}
	keys := make([]string, 0, len(evidence))
	for k := range evidence {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+evidence[k])
	}
	return strings.Join(parts, "; ")
}

func writeSimpleTable(w io.Writer, headers []string, rows [][]string) {
	// Calculate column widths.
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	for i, h := range headers {
		if i > 0 {
			fmt.Fprint(w, " | ")
		}
		fmt.Fprintf(w, "%-*s", widths[i], h)
	}
	fmt.Fprintln(w)

	for i, width := range widths {
		if i > 0 {
			fmt.Fprint(w, "-+-")
		}
		fmt.Fprint(w, strings.Repeat("-", width))
	}
	fmt.Fprintln(w)

	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(w, " | ")
			}
			fmt.Fprintf(w, "%-*s", widths[i], cell)
		}
		fmt.Fprintln(w)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max < 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
