package rules

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/vigilsec/zoneguard/internal/engine"
)

func testEngine() *Engine {
	return NewEngine(Thresholds{ExpiryCriticalDays: 30, ExpiryWarningDays: 90})
}

func healthySnapshot() engine.DomainSnapshot {
	created := time.Date(2015, 3, 1, 0, 0, 0, 0, time.UTC)
	expires := time.Now().AddDate(2, 0, 0)
	return engine.DomainSnapshot{
		Domain: "example.com",
		DNS: engine.DNSRecords{
			engine.TypeA:     {"192.0.2.10"},
			engine.TypeAAAA:  {"2001:db8::10"},
			engine.TypeCNAME: {},
			engine.TypeMX:    {"10 mail.example.com"},
			engine.TypeNS:    {"ns1.example.com", "ns2.example.com"},
			engine.TypeSOA:   {"ns1.example.com hostmaster.example.com 2024010101 7200 3600 1209600 3600"},
			engine.TypeTXT:   {"v=spf1 include:_spf.example.net -all"},
			engine.TypeCAA:   {`0 issue "letsencrypt.org"`},
			engine.TypeSPF:   {"v=spf1 include:_spf.example.net -all"},
			engine.TypeDMARC: {"v=DMARC1; p=reject; rua=mailto:dmarc@example.com"},
			engine.TypeDKIM:  {"default: v=DKIM1; k=rsa; p=MIGf..."},
		},
		Whois: &engine.WhoisRecord{
			Registrar:        "Example Registrar",
			Created:          &created,
			Expires:          &expires,
			NameServers:      []string{"ns1.example.com", "ns2.example.com"},
			PrivacyProtected: true,
		},
	}
}

func findByRule(findings []engine.Finding, ruleID string) []engine.Finding {
	var out []engine.Finding
	for _, f := range findings {
		if f.RuleID == ruleID {
			out = append(out, f)
		}
	}
	return out
}

func TestEvaluate_HealthySnapshotIsClean(t *testing.T) {
	findings := testEngine().Evaluate(healthySnapshot())
	if len(findings) != 0 {
		t.Errorf("healthy snapshot produced %d findings: %+v", len(findings), findings)
	}
}

func TestEvaluate_IsDeterministic(t *testing.T) {
	snap := healthySnapshot()
	snap.DNS[engine.TypeSPF] = []string{}
	snap.DNS[engine.TypeDMARC] = []string{}
	snap.DNS[engine.TypeCAA] = []string{}
	snap.Whois.PrivacyProtected = false

	e := testEngine()
	first := e.Evaluate(snap)
	for i := 0; i < 10; i++ {
		again := e.Evaluate(snap)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differed:\nfirst = %+v\nagain = %+v", i, first, again)
		}
	}
	if len(first) == 0 {
		t.Fatal("expected findings from the degraded snapshot")
	}
}

func TestExpiryRule_Boundaries(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		days     int
		wantRule string
	}{
		{"29 days is critical", 29, RuleExpiryImminent},
		{"30 days is critical", 30, RuleExpiryImminent},
		{"89 days is warning", 89, RuleExpiryApproach},
		{"90 days is warning", 90, RuleExpiryApproach},
		{"91 days is clean", 91, ""},
		{"already expired is critical", -3, RuleExpiryImminent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testEngine()
			e.now = func() time.Time { return now }

			expires := now.AddDate(0, 0, tt.days)
			snap := engine.DomainSnapshot{
				Domain: "example.com",
				Whois:  &engine.WhoisRecord{Expires: &expires, PrivacyProtected: true},
			}

			findings := e.Evaluate(snap)
			expiry := append(findByRule(findings, RuleExpiryImminent), findByRule(findings, RuleExpiryApproach)...)

			if tt.wantRule == "" {
				if len(expiry) != 0 {
					t.Fatalf("expected no expiry finding, got %+v", expiry)
				}
				return
			}
			if len(expiry) != 1 || expiry[0].RuleID != tt.wantRule {
				t.Fatalf("findings = %+v, want exactly one %s", expiry, tt.wantRule)
			}
			wantSev := engine.SeverityCritical
			if tt.wantRule == RuleExpiryApproach {
				wantSev = engine.SeverityWarning
			}
			if expiry[0].Severity != wantSev {
				t.Errorf("severity = %s, want %s", expiry[0].Severity, wantSev)
			}
		})
	}
}

func TestDanglingCNAME(t *testing.T) {
	snap := engine.DomainSnapshot{
		Domain: "shop.example.com",
		DNS: engine.DNSRecords{
			engine.TypeA:     {},
			engine.TypeAAAA:  {},
			engine.TypeCNAME: {"orphan.example.net"},
		},
	}

	findings := findByRule(testEngine().Evaluate(snap), RuleDanglingCNAME)
	if len(findings) != 1 {
		t.Fatalf("dangling findings = %d, want exactly 1", len(findings))
	}
	f := findings[0]
	if f.Severity != engine.SeverityWarning {
		t.Errorf("severity = %s, want WARNING", f.Severity)
	}
	if f.Evidence[engine.TypeCNAME] != "orphan.example.net" {
		t.Errorf("evidence = %+v, want the CNAME target", f.Evidence)
	}
}

func TestDanglingCNAME_TakeoverServiceEnrichment(t *testing.T) {
	snap := engine.DomainSnapshot{
		Domain: "docs.example.com",
		DNS: engine.DNSRecords{
			engine.TypeA:     {},
			engine.TypeAAAA:  {},
			engine.TypeCNAME: {"old-site.github.io"},
		},
	}

	findings := findByRule(testEngine().Evaluate(snap), RuleDanglingCNAME)
	if len(findings) != 1 {
		t.Fatalf("dangling findings = %d, want 1", len(findings))
	}
	if !strings.Contains(findings[0].Description, "GitHub Pages") {
		t.Errorf("description should name the takeover-prone provider, got %q", findings[0].Description)
	}
}

func TestDanglingCNAME_ResolvedCNAMEIsClean(t *testing.T) {
	snap := engine.DomainSnapshot{
		Domain: "www.example.com",
		DNS: engine.DNSRecords{
			engine.TypeA:     {"192.0.2.20"},
			engine.TypeCNAME: {"lb.example.net"},
		},
	}
	if findings := findByRule(testEngine().Evaluate(snap), RuleDanglingCNAME); len(findings) != 0 {
		t.Errorf("resolved CNAME flagged: %+v", findings)
	}
}

func TestMailRules(t *testing.T) {
	t.Run("missing SPF and DMARC", func(t *testing.T) {
		snap := healthySnapshot()
		snap.DNS[engine.TypeSPF] = []string{}
		snap.DNS[engine.TypeDMARC] = []string{}

		findings := testEngine().Evaluate(snap)
		if len(findByRule(findings, RuleSPFMissing)) != 1 {
			t.Error("want spf_missing")
		}
		if len(findByRule(findings, RuleDMARCMissing)) != 1 {
			t.Error("want dmarc_missing")
		}
	})

	t.Run("permissive SPF escalates to critical", func(t *testing.T) {
		snap := healthySnapshot()
		snap.DNS[engine.TypeSPF] = []string{"v=spf1 +all"}

		findings := findByRule(testEngine().Evaluate(snap), RuleSPFPermissive)
		if len(findings) != 1 || findings[0].Severity != engine.SeverityCritical {
			t.Errorf("findings = %+v, want one CRITICAL spf_permissive", findings)
		}
	})

	t.Run("dmarc p=none escalates to critical", func(t *testing.T) {
		snap := healthySnapshot()
		snap.DNS[engine.TypeDMARC] = []string{"v=DMARC1; p=none; rua=mailto:dmarc@example.com"}

		findings := findByRule(testEngine().Evaluate(snap), RuleDMARCPermissive)
		if len(findings) != 1 || findings[0].Severity != engine.SeverityCritical {
			t.Errorf("findings = %+v, want one CRITICAL dmarc_permissive", findings)
		}
	})

	t.Run("dkim only checked for mail domains", func(t *testing.T) {
		snap := healthySnapshot()
		snap.DNS[engine.TypeDKIM] = []string{}
		snap.DNS[engine.TypeMX] = []string{}

		findings := testEngine().Evaluate(snap)
		if len(findByRule(findings, RuleDKIMMissing)) != 0 {
			t.Error("dkim_missing should not fire without MX records")
		}

		snap.DNS[engine.TypeMX] = []string{"10 mail.example.com"}
		findings = testEngine().Evaluate(snap)
		if len(findByRule(findings, RuleDKIMMissing)) != 1 {
			t.Error("dkim_missing should fire for mail domains without a selector")
		}
	})
}

func TestNSExposure(t *testing.T) {
	t.Run("single nameserver", func(t *testing.T) {
		snap := healthySnapshot()
		snap.DNS[engine.TypeNS] = []string{"ns1.example.com"}
		snap.Whois.NameServers = []string{"ns1.example.com"}

		findings := findByRule(testEngine().Evaluate(snap), RuleNSExposure)
		if len(findings) != 1 || findings[0].Severity != engine.SeverityWarning {
			t.Errorf("findings = %+v, want one WARNING", findings)
		}
	})

	t.Run("delegation mismatch is critical", func(t *testing.T) {
		snap := healthySnapshot()
		snap.Whois.NameServers = []string{"ns1.oldprovider.net", "ns2.oldprovider.net"}

		findings := findByRule(testEngine().Evaluate(snap), RuleNSExposure)
		if len(findings) != 1 || findings[0].Severity != engine.SeverityCritical {
			t.Errorf("findings = %+v, want one CRITICAL mismatch", findings)
		}
	})

	t.Run("case and trailing dots are normalized", func(t *testing.T) {
		snap := healthySnapshot()
		snap.Whois.NameServers = []string{"NS1.EXAMPLE.COM.", "NS2.Example.Com"}

		if findings := findByRule(testEngine().Evaluate(snap), RuleNSExposure); len(findings) != 0 {
			t.Errorf("normalized identical sets flagged: %+v", findings)
		}
	})
}

func TestZoneTransferRule(t *testing.T) {
	snap := healthySnapshot()
	snap.DNS[engine.TypeAXFR] = []string{"internal.example.com", "vpn.example.com"}

	findings := findByRule(testEngine().Evaluate(snap), RuleZoneTransfer)
	if len(findings) != 1 || findings[0].Severity != engine.SeverityCritical {
		t.Fatalf("findings = %+v, want one CRITICAL zone_transfer", findings)
	}
	if findings[0].Evidence[engine.TypeAXFR] == "" {
		t.Error("zone transfer finding should carry leaked names as evidence")
	}
}

func TestWhoisOnlySnapshotSkipsDNSRules(t *testing.T) {
	expires := time.Now().AddDate(1, 0, 0)
	snap := engine.DomainSnapshot{
		Domain: "example.com",
		Whois:  &engine.WhoisRecord{Expires: &expires, PrivacyProtected: false},
	}

	findings := testEngine().Evaluate(snap)
	for _, f := range findings {
		if f.RuleID != RuleWhoisPrivacy {
			t.Errorf("unexpected DNS-based finding %s for a WHOIS-only snapshot", f.RuleID)
		}
	}
	if len(findByRule(findings, RuleWhoisPrivacy)) != 1 {
		t.Error("want whois_privacy_disabled")
	}
}

func TestSortForPresentation(t *testing.T) {
	findings := []engine.Finding{
		{RuleID: "a", Severity: engine.SeverityInfo},
		{RuleID: "b", Severity: engine.SeverityCritical},
		{RuleID: "c", Severity: engine.SeverityWarning},
		{RuleID: "d", Severity: engine.SeverityCritical},
		{RuleID: "e", Severity: engine.SeverityInfo},
	}

	sorted := SortForPresentation(findings)
	var order []string
	for _, f := range sorted {
		order = append(order, f.RuleID)
	}
	want := []string{"b", "d", "c", "a", "e"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v (severity groups, stable within group)", order, want)
	}

	// Input must be untouched.
	if findings[0].RuleID != "a" {
		t.Error("input slice was mutated")
	}
}

func TestRuleOrderIsUniqueAndStable(t *testing.T) {
	order := testEngine().RuleOrder()
	if len(order) == 0 {
		t.Fatal("rule set is empty")
	}
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if seen[id] {
			t.Errorf("duplicate rule id %s", id)
		}
		seen[id] = true
	}
	if order[0] != RuleZoneTransfer {
		t.Errorf("first rule = %s, want %s", order[0], RuleZoneTransfer)
	}

	// Every id that can appear in a report must be listed, including both
	// expiry rules.
	for _, id := range []string{RuleExpiryImminent, RuleExpiryApproach} {
		if !seen[id] {
			t.Errorf("rule order does not list %s", id)
		}
	}
}

func TestEveryRuleHasARecommendation(t *testing.T) {
	ids := []string{
		RuleZoneTransfer, RuleNSExposure, RuleSPFMissing, RuleSPFPermissive,
		RuleDMARCMissing, RuleDMARCPermissive, RuleDKIMMissing,
		RuleExpiryImminent, RuleExpiryApproach, RuleWhoisPrivacy,
		RuleDanglingCNAME, RuleCAAMissing, RuleMXMissing,
		RuleApexUnresolvable, RuleSOAMissing,
	}
	for _, id := range ids {
		if Recommendation(id) == "" {
			t.Errorf("rule %s has no recommendation text", id)
		}
	}
}
