// Package rules implements the deterministic finding rule set applied to
// domain snapshots.
package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/vigilsec/zoneguard/internal/engine"
)

// Thresholds holds the configurable rule parameters.
type Thresholds struct {
	ExpiryCriticalDays int
	ExpiryWarningDays  int
}

// rule is one detection check. Checks are pure functions of the snapshot and
// may append any number of findings.
type rule struct {
	id    string
	check func(e *Engine, snap engine.DomainSnapshot) []engine.Finding
}

// Engine evaluates the static rule set in declaration order.
type Engine struct {
	thresholds Thresholds
	rules      []rule

	// now is injectable for expiry boundary tests.
	now func() time.Time
}

// NewEngine builds a rule engine with the given thresholds.
func NewEngine(t Thresholds) *Engine {
	e := &Engine{
		thresholds: t,
		now:        time.Now,
	}
	e.rules = []rule{
		{id: RuleZoneTransfer, check: (*Engine).checkZoneTransfer},
		{id: RuleNSExposure, check: (*Engine).checkNSExposure},
		{id: RuleSPFMissing, check: (*Engine).checkSPFMissing},
		{id: RuleSPFPermissive, check: (*Engine).checkSPFPermissive},
		{id: RuleDMARCMissing, check: (*Engine).checkDMARCMissing},
		{id: RuleDMARCPermissive, check: (*Engine).checkDMARCPermissive},
		{id: RuleDKIMMissing, check: (*Engine).checkDKIMMissing},
		{id: RuleExpiryImminent, check: (*Engine).checkExpiryImminent},
		{id: RuleExpiryApproach, check: (*Engine).checkExpiryApproaching},
		{id: RuleWhoisPrivacy, check: (*Engine).checkWhoisPrivacy},
		{id: RuleDanglingCNAME, check: (*Engine).checkDanglingCNAME},
		{id: RuleCAAMissing, check: (*Engine).checkCAAMissing},
		{id: RuleMXMissing, check: (*Engine).checkMXMissing},
		{id: RuleApexUnresolvable, check: (*Engine).checkApexUnresolvable},
		{id: RuleSOAMissing, check: (*Engine).checkSOAMissing},
	}
	return e
}

// Rule identifiers. Stable: they key the recommendation catalog and appear in
// machine-readable reports.
const (
	RuleZoneTransfer     = "zone_transfer"
	RuleNSExposure       = "ns_exposure"
	RuleSPFMissing       = "spf_missing"
	RuleSPFPermissive    = "spf_permissive"
	RuleDMARCMissing     = "dmarc_missing"
	RuleDMARCPermissive  = "dmarc_permissive"
	RuleDKIMMissing      = "dkim_missing"
	RuleExpiryImminent   = "expiry_imminent"
	RuleExpiryApproach   = "expiry_approaching"
	RuleWhoisPrivacy     = "whois_privacy_disabled"
	RuleDanglingCNAME    = "dangling_cname"
	RuleCAAMissing       = "caa_missing"
	RuleMXMissing        = "mx_missing"
	RuleApexUnresolvable = "apex_unresolvable"
	RuleSOAMissing       = "soa_missing"
)

// Evaluate runs every rule against the snapshot in declaration order.
// It is a pure function of the snapshot and the engine's thresholds.
func (e *Engine) Evaluate(snap engine.DomainSnapshot) []engine.Finding {
	findings := []engine.Finding{}
	for _, r := range e.rules {
		findings = append(findings, r.check(e, snap)...)
	}
	return findings
}

// RuleOrder returns the rule identifiers in evaluation order.
func (e *Engine) RuleOrder() []string {
	ids := make([]string, len(e.rules))
	for i, r := range e.rules {
		ids[i] = r.id
	}
	return ids
}

// SortForPresentation orders findings CRITICAL > WARNING > INFO while keeping
// rule-evaluation order within each severity. The input is not modified.
func SortForPresentation(findings []engine.Finding) []engine.Finding {
	out := make([]engine.Finding, 0, len(findings))
	for rank := 0; rank <= 2; rank++ {
		for _, f := range findings {
			if f.Severity.Rank() == rank {
				out = append(out, f)
			}
		}
	}
	return out
}

// --- DNS exposure rules ---

func (e *Engine) checkZoneTransfer(snap engine.DomainSnapshot) []engine.Finding {
	leaked := snap.DNS.Get(engine.TypeAXFR)
	if len(leaked) == 0 {
		return nil
	}
	return []engine.Finding{{
		RuleID:   RuleZoneTransfer,
		Severity: engine.SeverityCritical,
		Title:    "DNS zone transfer enabled",
		Description: fmt.Sprintf("At least one authoritative nameserver answered an AXFR request and leaked %d records, exposing the full zone contents to anyone.",
			len(leaked)),
		Evidence: map[string]string{engine.TypeAXFR: strings.Join(capList(leaked, 10), ", ")},
	}}
}

func (e *Engine) checkNSExposure(snap engine.DomainSnapshot) []engine.Finding {
	ns := snap.DNS.Get(engine.TypeNS)
	if snap.DNS == nil {
		return nil
	}

	var findings []engine.Finding
	if len(ns) > 0 && len(ns) < 2 {
		findings = append(findings, engine.Finding{
			RuleID:      RuleNSExposure,
			Severity:    engine.SeverityWarning,
			Title:       "Single authoritative nameserver",
			Description: "The zone is served by a single nameserver. An outage of that host takes the whole domain offline.",
			Evidence:    map[string]string{engine.TypeNS: strings.Join(ns, ", ")},
		})
	}

	// Delegation published in WHOIS must agree with the live NS set.
	if snap.Whois != nil && len(snap.Whois.NameServers) > 0 && len(ns) > 0 {
		dnsSet := normalizeHostSet(ns)
		whoisSet := normalizeHostSet(snap.Whois.NameServers)
		if !sameHostSet(dnsSet, whoisSet) {
			findings = append(findings, engine.Finding{
				RuleID:      RuleNSExposure,
				Severity:    engine.SeverityCritical,
				Title:       "Inconsistent nameserver delegation",
				Description: "The NS records served by DNS do not match the name servers registered in WHOIS. Stale or hijacked delegation can hand zone control to a third party.",
				Evidence: map[string]string{
					engine.TypeNS:       strings.Join(dnsSet, ", "),
					"whois.nameservers": strings.Join(whoisSet, ", "),
				},
			})
		}
	}
	return findings
}

// --- Mail authentication rules ---

func (e *Engine) checkSPFMissing(snap engine.DomainSnapshot) []engine.Finding {
	if snap.DNS == nil || snap.DNS.Has(engine.TypeSPF) {
		return nil
	}
	return []engine.Finding{{
		RuleID:      RuleSPFMissing,
		Severity:    engine.SeverityWarning,
		Title:       "No SPF record",
		Description: "No v=spf1 TXT record was found. Any server can send mail claiming to be this domain.",
		Evidence:    map[string]string{engine.TypeSPF: "absent"},
	}}
}

func (e *Engine) checkSPFPermissive(snap engine.DomainSnapshot) []engine.Finding {
	var findings []engine.Finding
	for _, spf := range snap.DNS.Get(engine.TypeSPF) {
		lower := strings.ToLower(spf)
		if strings.Contains(lower, "+all") || strings.Contains(lower, "?all") {
			findings = append(findings, engine.Finding{
				RuleID:      RuleSPFPermissive,
				Severity:    engine.SeverityCritical,
				Title:       "Permissive SPF policy",
				Description: "The SPF record ends in +all or ?all, authorizing every host on the internet to send mail for this domain.",
				Evidence:    map[string]string{engine.TypeSPF: spf},
			})
		}
	}
	return findings
}

func (e *Engine) checkDMARCMissing(snap engine.DomainSnapshot) []engine.Finding {
	if snap.DNS == nil || snap.DNS.Has(engine.TypeDMARC) {
		return nil
	}
	return []engine.Finding{{
		RuleID:      RuleDMARCMissing,
		Severity:    engine.SeverityWarning,
		Title:       "No DMARC record",
		Description: "No v=DMARC1 record was found at _dmarc." + snap.Domain + ". Receivers have no policy for handling spoofed mail.",
		Evidence:    map[string]string{engine.TypeDMARC: "absent"},
	}}
}

func (e *Engine) checkDMARCPermissive(snap engine.DomainSnapshot) []engine.Finding {
	var findings []engine.Finding
	for _, dmarc := range snap.DNS.Get(engine.TypeDMARC) {
		policy := dmarcPolicy(dmarc)
		if policy == "none" {
			findings = append(findings, engine.Finding{
				RuleID:      RuleDMARCPermissive,
				Severity:    engine.SeverityCritical,
				Title:       "DMARC policy set to none",
				Description: "The DMARC record requests no action against failing mail (p=none), so spoofed messages are still delivered.",
				Evidence:    map[string]string{engine.TypeDMARC: dmarc},
			})
		}
	}
	return findings
}

func (e *Engine) checkDKIMMissing(snap engine.DomainSnapshot) []engine.Finding {
	// Only meaningful for domains that actually receive mail.
	if !snap.DNS.Has(engine.TypeMX) || snap.DNS.Has(engine.TypeDKIM) {
		return nil
	}
	return []engine.Finding{{
		RuleID:      RuleDKIMMissing,
		Severity:    engine.SeverityWarning,
		Title:       "No DKIM selector found",
		Description: "The domain has MX records but none of the common DKIM selectors resolve. Outbound mail cannot be cryptographically attributed to the domain.",
		Evidence:    map[string]string{engine.TypeMX: strings.Join(snap.DNS.Get(engine.TypeMX), ", ")},
	}}
}

// --- Registration rules ---

func (e *Engine) checkExpiryImminent(snap engine.DomainSnapshot) []engine.Finding {
	daysLeft, evidence, ok := e.expiryDays(snap)
	if !ok || daysLeft > e.thresholds.ExpiryCriticalDays {
		return nil
	}
	return []engine.Finding{{
		RuleID:      RuleExpiryImminent,
		Severity:    engine.SeverityCritical,
		Title:       "Domain registration about to expire",
		Description: fmt.Sprintf("The registration expires in %d days. A lapsed domain can be re-registered by anyone and hijacked.", daysLeft),
		Evidence:    evidence,
	}}
}

func (e *Engine) checkExpiryApproaching(snap engine.DomainSnapshot) []engine.Finding {
	daysLeft, evidence, ok := e.expiryDays(snap)
	if !ok || daysLeft <= e.thresholds.ExpiryCriticalDays || daysLeft > e.thresholds.ExpiryWarningDays {
		return nil
	}
	return []engine.Finding{{
		RuleID:      RuleExpiryApproach,
		Severity:    engine.SeverityWarning,
		Title:       "Domain registration expiring soon",
		Description: fmt.Sprintf("The registration expires in %d days. Confirm auto-renewal is in place.", daysLeft),
		Evidence:    evidence,
	}}
}

// expiryDays returns whole days until the registration expires, plus the
// evidence both expiry rules attach.
func (e *Engine) expiryDays(snap engine.DomainSnapshot) (int, map[string]string, bool) {
	if snap.Whois == nil || snap.Whois.Expires == nil {
		return 0, nil, false
	}
	daysLeft := int(snap.Whois.Expires.Sub(e.now()).Hours() / 24)
	evidence := map[string]string{
		"whois.expires": snap.Whois.Expires.UTC().Format(time.RFC3339),
	}
	return daysLeft, evidence, true
}

func (e *Engine) checkWhoisPrivacy(snap engine.DomainSnapshot) []engine.Finding {
	if snap.Whois == nil || snap.Whois.PrivacyProtected {
		return nil
	}
	return []engine.Finding{{
		RuleID:      RuleWhoisPrivacy,
		Severity:    engine.SeverityInfo,
		Title:       "WHOIS privacy disabled",
		Description: "Registrant contact details are published in WHOIS, exposing PII that is routinely harvested for phishing.",
		Evidence:    map[string]string{"whois.privacy_protected": "false"},
	}}
}

// --- Resolution rules ---

func (e *Engine) checkDanglingCNAME(snap engine.DomainSnapshot) []engine.Finding {
	cnames := snap.DNS.Get(engine.TypeCNAME)
	if len(cnames) == 0 || snap.DNS.Has(engine.TypeA) || snap.DNS.Has(engine.TypeAAAA) {
		return nil
	}
	var findings []engine.Finding
	for _, target := range cnames {
		desc := "The CNAME target does not resolve to any A or AAAA record."
		if service := takeoverService(target); service != "" {
			desc += fmt.Sprintf(" The target is hosted on %s, where unclaimed names can be registered by anyone (subdomain takeover).", service)
		}
		findings = append(findings, engine.Finding{
			RuleID:      RuleDanglingCNAME,
			Severity:    engine.SeverityWarning,
			Title:       "Dangling CNAME",
			Description: desc,
			Evidence:    map[string]string{engine.TypeCNAME: target},
		})
	}
	return findings
}

func (e *Engine) checkCAAMissing(snap engine.DomainSnapshot) []engine.Finding {
	if snap.DNS == nil || snap.DNS.Has(engine.TypeCAA) {
		return nil
	}
	return []engine.Finding{{
		RuleID:      RuleCAAMissing,
		Severity:    engine.SeverityInfo,
		Title:       "No CAA record",
		Description: "Without a CAA record any certificate authority may issue certificates for the domain.",
		Evidence:    map[string]string{engine.TypeCAA: "absent"},
	}}
}

func (e *Engine) checkMXMissing(snap engine.DomainSnapshot) []engine.Finding {
	if snap.DNS == nil || snap.DNS.Has(engine.TypeMX) {
		return nil
	}
	return []engine.Finding{{
		RuleID:      RuleMXMissing,
		Severity:    engine.SeverityInfo,
		Title:       "No MX records",
		Description: "The domain cannot receive mail. If that is intentional, publish a null MX (RFC 7505) to say so explicitly.",
		Evidence:    map[string]string{engine.TypeMX: "absent"},
	}}
}

func (e *Engine) checkApexUnresolvable(snap engine.DomainSnapshot) []engine.Finding {
	if snap.DNS == nil {
		return nil
	}
	if snap.DNS.Has(engine.TypeA) || snap.DNS.Has(engine.TypeAAAA) || snap.DNS.Has(engine.TypeCNAME) {
		return nil
	}
	return []engine.Finding{{
		RuleID:      RuleApexUnresolvable,
		Severity:    engine.SeverityWarning,
		Title:       "Apex does not resolve",
		Description: "No A, AAAA or CNAME records exist at the zone apex. The domain is unreachable over IPv4 and IPv6.",
		Evidence:    map[string]string{engine.TypeA: "absent", engine.TypeAAAA: "absent"},
	}}
}

func (e *Engine) checkSOAMissing(snap engine.DomainSnapshot) []engine.Finding {
	if snap.DNS == nil || snap.DNS.Has(engine.TypeSOA) {
		return nil
	}
	return []engine.Finding{{
		RuleID:      RuleSOAMissing,
		Severity:    engine.SeverityWarning,
		Title:       "No SOA record",
		Description: "The zone apex returned no SOA record, which points to a broken or misconfigured zone.",
		Evidence:    map[string]string{engine.TypeSOA: "absent"},
	}}
}

// --- helpers ---

// dmarcPolicy extracts the p= tag from a DMARC record, lowercased.
func dmarcPolicy(record string) string {
	for _, tag := range strings.Split(record, ";") {
		tag = strings.TrimSpace(tag)
		if strings.HasPrefix(strings.ToLower(tag), "p=") {
			return strings.ToLower(strings.TrimSpace(tag[2:]))
		}
	}
	return ""
}

func normalizeHostSet(hosts []string) []string {
	seen := make(map[string]bool, len(hosts))
	var out []string
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(h), "."))
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out
}

func sameHostSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, h := range a {
		set[h] = true
	}
	for _, h := range b {
		if !set[h] {
			return false
		}
	}
	return true
}

func capList(values []string, max int) []string {
	if len(values) <= max {
		return values
	}
	return values[:max]
}
