package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/vigilsec/zoneguard/internal/engine"
)

func testBatch() *engine.BatchResult {
	return &engine.BatchResult{
		Results: []engine.DomainScanResult{
			{
				Domain: "zulu.example.com",
				Status: engine.StatusOK,
				Snapshot: engine.DomainSnapshot{
					Domain: "zulu.example.com",
					DNS:    engine.DNSRecords{engine.TypeA: {"192.0.2.1"}},
					Whois:  &engine.WhoisRecord{Registrar: "Example Registrar", PrivacyProtected: true},
				},
				Findings: []engine.Finding{
					{RuleID: "caa_missing", Severity: engine.SeverityInfo, Title: "No CAA record"},
				},
			},
			{
				Domain: "alpha.example.com",
				Status: engine.StatusFailed,
				Snapshot: engine.DomainSnapshot{
					Domain: "alpha.example.com",
				},
				Findings: []engine.Finding{},
				Errors: []engine.CollectorError{
					{Source: "dns", Message: "timeout"},
					{Source: "whois", Message: "timeout"},
				},
			},
		},
		Summary: engine.Summary{InfoCount: 1, DomainsOK: 1, DomainsFailed: 1},
	}
}

func TestWriteJSON_PreservesInputOrder(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, testBatch()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	// zulu was requested first and must appear first even though alpha
	// sorts before it alphabetically.
	zulu := strings.Index(out, `"zulu.example.com"`)
	alpha := strings.Index(out, `"alpha.example.com"`)
	if zulu == -1 || alpha == -1 {
		t.Fatalf("report missing domains:\n%s", out)
	}
	if zulu > alpha {
		t.Errorf("domain order is alphabetical, want input order:\n%s", out)
	}
}

func TestWriteJSON_SchemaRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, testBatch()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded struct {
		Domains map[string]struct {
			Status   engine.ScanStatus       `json:"status"`
			DNS      map[string][]string     `json:"dns"`
			Whois    *engine.WhoisRecord     `json:"whois"`
			Findings []engine.Finding        `json:"findings"`
			Errors   []engine.CollectorError `json:"errors"`
		} `json:"domains"`
		Summary engine.Summary `json:"summary"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}

	zulu, ok := decoded.Domains["zulu.example.com"]
	if !ok {
		t.Fatal("zulu.example.com missing from report")
	}
	if zulu.Status != engine.StatusOK {
		t.Errorf("status = %s, want OK", zulu.Status)
	}
	if len(zulu.Findings) != 1 || zulu.Findings[0].RuleID != "caa_missing" {
		t.Errorf("findings = %+v", zulu.Findings)
	}
	if zulu.Whois == nil || zulu.Whois.Registrar != "Example Registrar" {
		t.Errorf("whois = %+v", zulu.Whois)
	}

	alpha := decoded.Domains["alpha.example.com"]
	if alpha.Status != engine.StatusFailed {
		t.Errorf("alpha status = %s, want FAILED", alpha.Status)
	}
	if len(alpha.Errors) != 2 {
		t.Errorf("alpha errors = %+v, want both collector errors", alpha.Errors)
	}
	if alpha.Findings == nil {
		t.Error("findings must serialize as an empty array, not null")
	}

	if decoded.Summary != testBatch().Summary {
		t.Errorf("summary = %+v", decoded.Summary)
	}
}

func TestWriteTables_NoColorSmoke(t *testing.T) {
	var buf bytes.Buffer
	WriteTables(&buf, testBatch(), true)
	out := buf.String()

	if !strings.Contains(out, "zulu.example.com [OK]") {
		t.Errorf("missing domain header:\n%s", out)
	}
	if !strings.Contains(out, "caa_missing") {
		t.Errorf("missing finding row:\n%s", out)
	}
	if !strings.Contains(out, "dns: timeout") {
		t.Errorf("failed domain should list collector errors:\n%s", out)
	}
}

func TestFormatEvidence(t *testing.T) {
	got := formatEvidence(map[string]string{"CNAME": "orphan.example.net", "A": "absent"})
	if got != "A=absent; CNAME=orphan.example.net" {
		t.Errorf("formatEvidence = %q", got)
	}
	if formatEvidence(nil) != "" {
		t.Error("nil evidence should render empty")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := truncate("0123456789", 8); got != "01234..." {
		t.Errorf("got %q", got)
	}
}
