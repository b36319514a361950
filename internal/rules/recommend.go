package rules

// recommendations is the canonical remediation text per rule. Renderers look
// findings up here; the text never feeds back into classification.
var recommendations = map[string]string{
	RuleZoneTransfer:     "Restrict AXFR on every authoritative nameserver to the IP addresses of your secondary servers (allow-transfer ACL or TSIG-signed transfers).",
	RuleNSExposure:       "Serve the zone from at least two nameservers in separate networks and keep the registrar's delegation in sync with the NS records published in the zone.",
	RuleSPFMissing:       "Publish a TXT record such as \"v=spf1 include:<your-mail-provider> -all\" listing the hosts allowed to send mail for the domain.",
	RuleSPFPermissive:    "Replace the +all/?all qualifier with -all (hard fail) or ~all (soft fail) so unauthorized senders are rejected.",
	RuleDMARCMissing:     "Publish a _dmarc TXT record, starting with \"v=DMARC1; p=quarantine; rua=mailto:dmarc@<domain>\" and tightening to p=reject once reports look clean.",
	RuleDMARCPermissive:  "Move the DMARC policy from p=none to p=quarantine or p=reject; p=none only monitors and never blocks spoofed mail.",
	RuleDKIMMissing:      "Enable DKIM signing at your mail provider and publish the selector key under <selector>._domainkey.<domain>.",
	RuleExpiryImminent:   "Renew the registration immediately and enable auto-renewal; an expired domain can be re-registered by anyone.",
	RuleExpiryApproach:   "Verify the registrar has current billing details and auto-renewal enabled before the expiry date.",
	RuleWhoisPrivacy:     "Enable the registrar's WHOIS privacy / proxy service to stop publishing registrant contact details.",
	RuleDanglingCNAME:    "Remove the CNAME record or re-claim the target resource at the hosting provider before someone else does.",
	RuleCAAMissing:       "Publish a CAA record (e.g. '0 issue \"letsencrypt.org\"') restricting which certificate authorities may issue for the domain.",
	RuleMXMissing:        "If the domain should receive mail, publish MX records; otherwise publish a null MX (\"0 .\") per RFC 7505.",
	RuleApexUnresolvable: "Publish A/AAAA records (or an ALIAS/ANAME at providers that support apex aliases) so the domain resolves.",
	RuleSOAMissing:       "Check the zone file and primary nameserver configuration; every zone must serve exactly one SOA record at its apex.",
}

// Recommendation returns the canonical remediation text for a rule ID, or ""
// for unknown rules.
func Recommendation(ruleID string) string {
	return recommendations[ruleID]
}
