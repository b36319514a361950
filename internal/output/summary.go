// Package output handles all zoneguard CLI output formatting.
package output

import (
	"fmt"
	"io"

	"github.com/vigilsec/zoneguard/internal/engine"
)

// Version is set via ldflags at build time.
var Version = "dev"

// WriteHeader prints the zoneguard banner.
func WriteHeader(w io.Writer, noColor bool) {
	if noColor {
		fmt.Fprintf(w, "zoneguard %s — DNS & WHOIS security scanner\n\n", Version)
	} else {
		fmt.Fprintf(w, "\033[1mzoneguard %s\033[0m — DNS & WHOIS security scanner\n\n", Version)
	}
}

// WriteSummary prints the post-scan executive summary.
func WriteSummary(w io.Writer, batch *engine.BatchResult, noColor bool) {
	s := batch.Summary

	fmt.Fprintln(w)
	if noColor {
		fmt.Fprintf(w, "Domains: %d scanned (%d ok, %d partial, %d failed)\n",
			len(batch.Results), s.DomainsOK, s.DomainsPartial, s.DomainsFailed)
		fmt.Fprintf(w, "Findings: %d critical, %d warning, %d info\n",
			s.CriticalCount, s.WarningCount, s.InfoCount)
	} else {
		fmt.Fprintf(w, "\033[1mDomains:\033[0m %d scanned (%d ok, %d partial, %d failed)\n",
			len(batch.Results), s.DomainsOK, s.DomainsPartial, s.DomainsFailed)
		fmt.Fprintf(w, "\033[1mFindings:\033[0m \033[31m%d critical\033[0m, \033[33m%d warning\033[0m, %d info\n",
			s.CriticalCount, s.WarningCount, s.InfoCount)
	}

	if s.CriticalCount > 0 {
		fmt.Fprintln(w)
		for _, result := range batch.Results {
			for _, f := range result.Findings {
				if f.Severity != engine.SeverityCritical {
					continue
				}
				if noColor {
					fmt.Fprintf(w, "! %s: %s\n", result.Domain, f.Title)
				} else {
					fmt.Fprintf(w, "\033[31m!\033[0m %s: %s\n", result.Domain, f.Title)
				}
			}
		}
	}

	if s.DomainsFailed > 0 {
		fmt.Fprintln(w)
		for _, result := range batch.Results {
			if result.Status != engine.StatusFailed {
				continue
			}
			if noColor {
				fmt.Fprintf(w, "! %s: scan failed\n", result.Domain)
			} else {
				fmt.Fprintf(w, "\033[33m!\033[0m %s: scan failed\n", result.Domain)
			}
		}
	}

	fmt.Fprintf(w, "\nCompleted in %.1fs\n", batch.DurationSecs)
}
