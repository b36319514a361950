// Package engine orchestrates domain security scans and owns the result model.
package engine

import (
	"context"
	"time"
)

// Severity is the ordinal risk level of a finding.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
	SeverityInfo     Severity = "INFO"
)

// Rank returns the presentation rank of a severity, lower is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

// ScanStatus describes how much of a domain's collection succeeded.
type ScanStatus string

const (
	StatusOK      ScanStatus = "OK"
	StatusPartial ScanStatus = "PARTIAL"
	StatusFailed  ScanStatus = "FAILED"
)

// DNS record type keys used in DNSRecords. Derived keys (SPF, DMARC, DKIM)
// hold records extracted from TXT lookups; AXFR holds hostnames leaked by a
// successful zone transfer.
const (
	TypeA     = "A"
	TypeAAAA  = "AAAA"
	TypeCNAME = "CNAME"
	TypeMX    = "MX"
	TypeNS    = "NS"
	TypeSOA   = "SOA"
	TypeTXT   = "TXT"
	TypeCAA   = "CAA"
	TypeSPF   = "SPF"
	TypeDMARC = "DMARC"
	TypeDKIM  = "DKIM"
	TypeAXFR  = "AXFR"
)

// DNSRecords maps a record type to its ordered values. A present key with an
// empty slice means the type was queried and returned no answers; an absent
// key means the type was never collected.
type DNSRecords map[string][]string

// Get returns the values for a record type, or nil.
func (r DNSRecords) Get(recordType string) []string {
	if r == nil {
		return nil
	}
	return r[recordType]
}

// Has reports whether the record type has at least one value.
func (r DNSRecords) Has(recordType string) bool {
	return len(r.Get(recordType)) > 0
}

// WhoisRecord holds normalized registration metadata for a domain.
type WhoisRecord struct {
	Registrar        string     `json:"registrar,omitempty"`
	Created          *time.Time `json:"created,omitempty"`
	Expires          *time.Time `json:"expires,omitempty"`
	NameServers      []string   `json:"name_servers,omitempty"`
	PrivacyProtected bool       `json:"privacy_protected"`
}

// DomainSnapshot is the immutable point-in-time view of a domain's public
// DNS footprint and registration metadata. Partial collection failures leave
// the corresponding portion nil rather than half-populated.
type DomainSnapshot struct {
	Domain string       `json:"domain"`
	DNS    DNSRecords   `json:"dns,omitempty"`
	Whois  *WhoisRecord `json:"whois,omitempty"`
}

// Empty reports whether no collector contributed any data.
func (s DomainSnapshot) Empty() bool {
	return s.DNS == nil && s.Whois == nil
}

// Finding is a single classified security observation. Evidence maps the
// snapshot fields that triggered the rule to the observed values.
type Finding struct {
	RuleID      string            `json:"rule_id"`
	Severity    Severity          `json:"severity"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Evidence    map[string]string `json:"evidence,omitempty"`
}

// CollectorError records a failed collector call for one domain.
type CollectorError struct {
	Source  string `json:"source"` // "dns" or "whois"
	Message string `json:"message"`
}

// DomainScanResult is the outcome of scanning a single domain.
type DomainScanResult struct {
	Domain   string           `json:"domain"`
	Snapshot DomainSnapshot   `json:"snapshot"`
	Findings []Finding        `json:"findings"`
	Status   ScanStatus       `json:"status"`
	Errors   []CollectorError `json:"errors,omitempty"`
}

// Summary provides aggregate counts over a batch.
type Summary struct {
	CriticalCount  int `json:"critical_count"`
	WarningCount   int `json:"warning_count"`
	InfoCount      int `json:"info_count"`
	DomainsOK      int `json:"domains_ok"`
	DomainsPartial int `json:"domains_partial"`
	DomainsFailed  int `json:"domains_failed"`
}

// BatchResult is the top-level output of a scan run. Results are ordered by
// the caller's requested domain order regardless of completion order.
type BatchResult struct {
	Results      []DomainScanResult `json:"results"`
	Summary      Summary            `json:"summary"`
	StartedAt    time.Time          `json:"started_at"`
	CompletedAt  time.Time          `json:"completed_at"`
	DurationSecs float64            `json:"duration_secs"`
}

// DNSCollector retrieves the DNS portion of a snapshot.
type DNSCollector interface {
	Collect(ctx context.Context, domain string) (DNSRecords, error)
}

// WhoisCollector retrieves the WHOIS portion of a snapshot.
type WhoisCollector interface {
	Collect(ctx context.Context, domain string) (*WhoisRecord, error)
}

// RuleEvaluator classifies a snapshot into findings. Implementations must be
// pure: the same snapshot always yields the same findings in the same order.
type RuleEvaluator interface {
	Evaluate(snapshot DomainSnapshot) []Finding
}

// Collectors holds the injectable collector implementations.
type Collectors struct {
	DNS   DNSCollector
	Whois WhoisCollector
}

// ProgressReporter is called by the engine to report scan progress.
type ProgressReporter interface {
	Domain(num, total int, domain string)
	Detail(msg string)
	Warn(msg string)
}
