// Package collect implements the DNS and WHOIS collectors.
package collect

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/zap"

	"github.com/vigilsec/zoneguard/internal/engine"
)

// ErrNXDomain is returned inside a DNSLookupError when the zone apex does
// not exist.
var ErrNXDomain = errors.New("domain does not exist (NXDOMAIN)")

// defaultDKIMSelectors are probed for DKIM keys when no explicit selectors
// are configured. Covers the big mail providers plus the usual defaults.
var defaultDKIMSelectors = []string{"google", "default", "mail", "selector1", "selector2"}

// DNSCollector retrieves the DNS portion of a domain snapshot using direct
// queries against a recursive resolver.
type DNSCollector struct {
	// Server is the resolver address as host:port. Empty means the first
	// nameserver from /etc/resolv.conf.
	Server string

	// Timeout bounds each individual query exchange.
	Timeout time.Duration

	// AXFR enables the zone-transfer probe against the domain's nameservers.
	AXFR bool

	// DKIMSelectors overrides the probed selector list.
	DKIMSelectors []string

	Logger *zap.SugaredLogger
}

// apexTypes are the record types queried at the zone apex, in collection
// order.
var apexTypes = []struct {
	key   string
	qtype uint16
}{
	{engine.TypeA, dns.TypeA},
	{engine.TypeAAAA, dns.TypeAAAA},
	{engine.TypeCNAME, dns.TypeCNAME},
	{engine.TypeMX, dns.TypeMX},
	{engine.TypeNS, dns.TypeNS},
	{engine.TypeSOA, dns.TypeSOA},
	{engine.TypeTXT, dns.TypeTXT},
	{engine.TypeCAA, dns.TypeCAA},
}

// Collect queries every supported record type for the domain and returns a
// normalized record set. A record type with no answers is recorded as an
// empty set; only transport failures and a non-existent apex are errors.
func (c *DNSCollector) Collect(ctx context.Context, domain string) (engine.DNSRecords, error) {
	server, err := c.resolverAddr()
	if err != nil {
		return nil, &engine.DNSLookupError{Domain: domain, Err: err}
	}

	records := make(engine.DNSRecords, len(apexTypes)+4)

	for _, at := range apexTypes {
		values, err := c.query(ctx, domain, at.qtype, server)
		if err != nil {
			if errors.Is(err, ErrNXDomain) {
				// NXDOMAIN at the apex means the whole collection fails.
				return nil, &engine.DNSLookupError{Domain: domain, Err: ErrNXDomain}
			}
			return nil, &engine.DNSLookupError{Domain: domain, Err: err}
		}
		records[at.key] = values
	}

	records[engine.TypeSPF] = extractSPF(records[engine.TypeTXT])

	dmarc, err := c.lookupDMARC(ctx, domain, server)
	if err != nil {
		return nil, &engine.DNSLookupError{Domain: domain, Err: err}
	}
	records[engine.TypeDMARC] = dmarc

	dkim, err := c.lookupDKIM(ctx, domain, server)
	if err != nil {
		return nil, &engine.DNSLookupError{Domain: domain, Err: err}
	}
	records[engine.TypeDKIM] = dkim

	if c.AXFR {
		if leaked := c.probeZoneTransfer(ctx, domain, records[engine.TypeNS]); len(leaked) > 0 {
			records[engine.TypeAXFR] = leaked
		}
	}

	if c.Logger != nil {
		c.Logger.Debugw("dns collection complete", "domain", domain, "types", len(records))
	}
	return records, nil
}

// query performs a single typed query and normalizes the answers.
// NXDOMAIN is only an error for the zone apex; callers of subdomain lookups
// filter it out themselves.
func (c *DNSCollector) query(ctx context.Context, name string, qtype uint16, server string) ([]string, error) {
	client := &dns.Client{Timeout: c.Timeout}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), qtype)
	msg.RecursionDesired = true

	resp, _, err := client.ExchangeContext(ctx, msg, server)
	if err != nil {
		return nil, fmt.Errorf("query %s %s: %w", dns.TypeToString[qtype], name, err)
	}

	switch resp.Rcode {
	case dns.RcodeSuccess:
		// Empty answer section: the type simply has no records.
	case dns.RcodeNameError:
		return nil, ErrNXDomain
	default:
		return nil, fmt.Errorf("query %s %s: server returned %s", dns.TypeToString[qtype], name, dns.RcodeToString[resp.Rcode])
	}

	values := []string{}
	for _, rr := range resp.Answer {
		if v, ok := normalizeRR(rr, qtype); ok {
			values = append(values, v)
		}
	}
	// Resolvers rotate answer order; sort for reproducible snapshots.
	sort.Strings(values)
	return values, nil
}

// normalizeRR renders a resource record into its snapshot value form.
// Records whose type does not match the question (e.g. CNAMEs in an A
// answer) are skipped.
func normalizeRR(rr dns.RR, qtype uint16) (string, bool) {
	switch r := rr.(type) {
	case *dns.A:
		return r.A.String(), qtype == dns.TypeA
	case *dns.AAAA:
		return r.AAAA.String(), qtype == dns.TypeAAAA
	case *dns.CNAME:
		return strings.TrimSuffix(r.Target, "."), qtype == dns.TypeCNAME
	case *dns.MX:
		return fmt.Sprintf("%d %s", r.Preference, strings.TrimSuffix(r.Mx, ".")), qtype == dns.TypeMX
	case *dns.NS:
		return strings.TrimSuffix(r.Ns, "."), qtype == dns.TypeNS
	case *dns.SOA:
		return fmt.Sprintf("%s %s %d %d %d %d %d",
			strings.TrimSuffix(r.Ns, "."), strings.TrimSuffix(r.Mbox, "."),
			r.Serial, r.Refresh, r.Retry, r.Expire, r.Minttl), qtype == dns.TypeSOA
	case *dns.TXT:
		return strings.Join(r.Txt, ""), qtype == dns.TypeTXT
	case *dns.CAA:
		return fmt.Sprintf("%d %s %q", r.Flag, r.Tag, r.Value), qtype == dns.TypeCAA
	default:
		return "", false
	}
}

// lookupDMARC queries _dmarc.<domain> for a DMARC policy. Absence of the
// subdomain (NXDOMAIN) is normal and yields an empty set; transport failures
// must not masquerade as "no policy published" and are returned to the
// caller.
func (c *DNSCollector) lookupDMARC(ctx context.Context, domain, server string) ([]string, error) {
	values, err := c.query(ctx, "_dmarc."+domain, dns.TypeTXT, server)
	if err != nil {
		if errors.Is(err, ErrNXDomain) {
			return []string{}, nil
		}
		return nil, err
	}
	dmarc := []string{}
	for _, v := range values {
		if strings.HasPrefix(strings.ToLower(v), "v=dmarc1") {
			dmarc = append(dmarc, v)
		}
	}
	return dmarc, nil
}

// lookupDKIM probes the configured DKIM selectors under _domainkey. An
// unpublished selector (NXDOMAIN) is skipped; transport failures abort the
// probe and are returned to the caller.
func (c *DNSCollector) lookupDKIM(ctx context.Context, domain, server string) ([]string, error) {
	selectors := c.DKIMSelectors
	if len(selectors) == 0 {
		selectors = defaultDKIMSelectors
	}
	dkim := []string{}
	for _, sel := range selectors {
		values, err := c.query(ctx, sel+"._domainkey."+domain, dns.TypeTXT, server)
		if err != nil {
			if errors.Is(err, ErrNXDomain) {
				continue
			}
			return nil, err
		}
		for _, v := range values {
			lower := strings.ToLower(v)
			if strings.HasPrefix(lower, "v=dkim1") || strings.Contains(lower, "k=rsa") || strings.Contains(lower, "p=") {
				dkim = append(dkim, sel+": "+v)
			}
		}
	}
	return dkim, nil
}

// extractSPF filters v=spf1 records out of the apex TXT set.
func extractSPF(txt []string) []string {
	spf := []string{}
	for _, t := range txt {
		if strings.HasPrefix(strings.ToLower(t), "v=spf1") {
			spf = append(spf, t)
		}
	}
	return spf
}

// resolverAddr returns the configured resolver or the system default.
func (c *DNSCollector) resolverAddr() (string, error) {
	if c.Server != "" {
		return c.Server, nil
	}
	conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(conf.Servers) == 0 {
		return "", fmt.Errorf("no resolver configured: %w", err)
	}
	return net.JoinHostPort(conf.Servers[0], conf.Port), nil
}
