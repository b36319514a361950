package output

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/vigilsec/zoneguard/internal/engine"
)

// Report is the machine-readable report schema built from a BatchResult.
type Report struct {
	Domains DomainMap      `json:"domains"`
	Summary engine.Summary `json:"summary"`
}

// DomainReport is one domain's entry in the machine-readable report.
type DomainReport struct {
	Status   engine.ScanStatus       `json:"status"`
	DNS      engine.DNSRecords       `json:"dns,omitempty"`
	Whois    *engine.WhoisRecord     `json:"whois,omitempty"`
	Findings []engine.Finding        `json:"findings"`
	Errors   []engine.CollectorError `json:"errors,omitempty"`
}

type domainEntry struct {
	domain string
	report DomainReport
}

// DomainMap marshals as a JSON object whose keys appear in batch (input)
// order, instead of the alphabetical order encoding/json gives maps.
type DomainMap []domainEntry

// MarshalJSON implements json.Marshaler.
func (m DomainMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.domain)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(e.report)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// BuildReport converts a batch result into the report schema.
func BuildReport(batch *engine.BatchResult) Report {
	report := Report{
		Domains: make(DomainMap, 0, len(batch.Results)),
		Summary: batch.Summary,
	}
	for _, r := range batch.Results {
		report.Domains = append(report.Domains, domainEntry{
			domain: r.Domain,
			report: DomainReport{
				Status:   r.Status,
				DNS:      r.Snapshot.DNS,
				Whois:    r.Snapshot.Whois,
				Findings: r.Findings,
				Errors:   r.Errors,
			},
		})
	}
	return report
}

// WriteJSON writes the machine-readable report as indented JSON to w.
func WriteJSON(w io.Writer, batch *engine.BatchResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildReport(batch))
}
