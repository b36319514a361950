package collect

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const (
	axfrDialTimeout = 10 * time.Second
	axfrReadTimeout = 30 * time.Second
)

// probeZoneTransfer attempts AXFR against each of the domain's nameservers
// and returns the union of leaked in-zone hostnames. Refused transfers are
// the expected case and produce no output.
func (c *DNSCollector) probeZoneTransfer(ctx context.Context, domain string, nameservers []string) []string {
	seen := make(map[string]bool)
	var leaked []string

	for _, ns := range nameservers {
		// Respect cancellation between nameserver attempts.
		select {
		case <-ctx.Done():
			return leaked
		default:
		}

		hostnames, err := attemptAXFR(domain, strings.TrimSuffix(ns, "."))
		if err != nil {
			continue
		}
		if c.Logger != nil {
			c.Logger.Warnw("zone transfer allowed", "domain", domain, "nameserver", ns, "records", len(hostnames))
		}
		for _, h := range hostnames {
			if !seen[h] {
				seen[h] = true
				leaked = append(leaked, h)
			}
		}
	}
	return leaked
}

// attemptAXFR performs a DNS zone transfer against a single nameserver.
func attemptAXFR(domain, nameserver string) ([]string, error) {
	transfer := &dns.Transfer{
		DialTimeout: axfrDialTimeout,
		ReadTimeout: axfrReadTimeout,
	}

	msg := new(dns.Msg)
	msg.SetAxfr(dns.Fqdn(domain))

	channel, err := transfer.In(msg, net.JoinHostPort(nameserver, "53"))
	if err != nil {
		return nil, fmt.Errorf("AXFR to %s: %w", nameserver, err)
	}

	seen := make(map[string]bool)
	var hostnames []string
	domainSuffix := "." + strings.ToLower(domain)

	for envelope := range channel {
		if envelope.Error != nil {
			return nil, fmt.Errorf("AXFR envelope from %s: %w", nameserver, envelope.Error)
		}
		for _, rr := range envelope.RR {
			name := strings.ToLower(strings.TrimSuffix(rr.Header().Name, "."))
			if name == "" {
				continue
			}
			if !strings.HasSuffix(name, domainSuffix) && name != strings.ToLower(domain) {
				continue
			}
			if !seen[name] {
				seen[name] = true
				hostnames = append(hostnames, name)
			}
		}
	}

	return hostnames, nil
}
