package output

import (
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/vigilsec/zoneguard/internal/engine"
	"github.com/vigilsec/zoneguard/internal/rules"
)

// WritePDF renders the human-readable report: an executive summary followed
// by per-domain finding tables with remediation guidance.
func WritePDF(path string, batch *engine.BatchResult) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Domain Security Report", false)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "Domain Security Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s by zoneguard %s",
		batch.CompletedAt.UTC().Format(time.RFC1123), Version), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	writePDFSummary(pdf, batch)

	for _, result := range batch.Results {
		writePDFDomain(pdf, result)
	}

	return pdf.OutputFileAndClose(path)
}

func writePDFSummary(pdf *gofpdf.Fpdf, batch *engine.BatchResult) {
	s := batch.Summary

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, "Executive Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, fmt.Sprintf(
		"%d domains were scanned: %d fully collected, %d with partial data, %d unreachable. "+
			"The scan produced %d critical, %d warning and %d informational findings.",
		len(batch.Results), s.DomainsOK, s.DomainsPartial, s.DomainsFailed,
		s.CriticalCount, s.WarningCount, s.InfoCount), "", "L", false)

	if s.CriticalCount > 0 {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(180, 30, 30)
		pdf.CellFormat(0, 6, "Critical issues requiring immediate attention:", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, result := range batch.Results {
			for _, f := range result.Findings {
				if f.Severity == engine.SeverityCritical {
					pdf.CellFormat(0, 5, fmt.Sprintf("  - %s: %s", result.Domain, f.Title), "", 1, "L", false, 0, "")
				}
			}
		}
		pdf.SetTextColor(0, 0, 0)
	}
	pdf.Ln(4)
}

func writePDFDomain(pdf *gofpdf.Fpdf, result engine.DomainScanResult) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(0, 8, fmt.Sprintf("%s  [%s]", result.Domain, result.Status), "", 1, "L", true, 0, "")
	pdf.Ln(1)

	if result.Status == engine.StatusFailed {
		pdf.SetFont("Helvetica", "I", 10)
		for _, e := range result.Errors {
			pdf.CellFormat(0, 5, fmt.Sprintf("%s collection failed: %s", e.Source, e.Message), "", 1, "L", false, 0, "")
		}
		pdf.Ln(3)
		return
	}

	if len(result.Findings) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 5, "No findings.", "", 1, "L", false, 0, "")
		pdf.Ln(3)
		return
	}

	for _, f := range rules.SortForPresentation(result.Findings) {
		r, g, b := severityColor(f.Severity)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetTextColor(r, g, b)
		pdf.CellFormat(0, 6, fmt.Sprintf("[%s] %s (%s)", f.Severity, f.Title, f.RuleID), "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "", 9)
		pdf.MultiCell(0, 4.5, f.Description, "", "L", false)
		if rec := rules.Recommendation(f.RuleID); rec != "" {
			pdf.SetFont("Helvetica", "I", 9)
			pdf.MultiCell(0, 4.5, "Remediation: "+rec, "", "L", false)
		}
		pdf.Ln(1.5)
	}
	pdf.Ln(3)
}

func severityColor(s engine.Severity) (int, int, int) {
	switch s {
	case engine.SeverityCritical:
		return 180, 30, 30
	case engine.SeverityWarning:
		return 200, 120, 0
	default:
		return 90, 90, 90
	}
}
