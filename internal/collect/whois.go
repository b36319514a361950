package collect

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
	"go.uber.org/zap"

	"github.com/vigilsec/zoneguard/internal/engine"
)

// privacyMarkers are phrases registrars use when registrant details are
// redacted or proxied.
var privacyMarkers = []string{
	"redacted for privacy",
	"whois privacy",
	"whoisguard",
	"privacy service",
	"privacyguardian",
	"domains by proxy",
	"contact privacy",
	"identity protection",
	"data protected",
	"gdpr masked",
}

// dateLayouts are fallbacks for registries the parser leaves as raw strings.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02-Jan-2006",
	"2006.01.02 15:04:05",
	"2006/01/02 15:04:05",
}

// WhoisCollector retrieves registration metadata for a domain.
type WhoisCollector struct {
	Timeout time.Duration
	Logger  *zap.SugaredLogger
}

// Collect fetches and parses the WHOIS record for a domain. Unparseable or
// rate-limited responses fail outright; a partially parsed record would make
// "missing expiry" indistinguishable from "expires never" downstream.
func (c *WhoisCollector) Collect(ctx context.Context, domain string) (*engine.WhoisRecord, error) {
	raw, err := c.fetch(ctx, domain)
	if err != nil {
		return nil, &engine.WhoisLookupError{Domain: domain, Err: err}
	}

	parsed, err := whoisparser.Parse(raw)
	if err != nil {
		return nil, &engine.WhoisLookupError{Domain: domain, Err: fmt.Errorf("parse response: %w", err)}
	}

	record := &engine.WhoisRecord{
		PrivacyProtected: detectPrivacy(parsed, raw),
	}
	if parsed.Registrar != nil {
		record.Registrar = parsed.Registrar.Name
	}
	if parsed.Domain != nil {
		record.Created = parseWhoisDate(parsed.Domain.CreatedDateInTime, parsed.Domain.CreatedDate)
		record.Expires = parseWhoisDate(parsed.Domain.ExpirationDateInTime, parsed.Domain.ExpirationDate)
		for _, ns := range parsed.Domain.NameServers {
			ns = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(ns), "."))
			if ns != "" {
				record.NameServers = append(record.NameServers, ns)
			}
		}
	}

	if c.Logger != nil {
		c.Logger.Debugw("whois collection complete",
			"domain", domain, "registrar", record.Registrar, "privacy", record.PrivacyProtected)
	}
	return record, nil
}

// fetch runs the blocking WHOIS query in a goroutine so the context deadline
// is honored even though the client has no context support.
func (c *WhoisCollector) fetch(ctx context.Context, domain string) (string, error) {
	client := whois.NewClient()
	if c.Timeout > 0 {
		client.SetTimeout(c.Timeout)
	}

	type reply struct {
		raw string
		err error
	}
	ch := make(chan reply, 1)
	go func() {
		raw, err := client.Whois(domain)
		ch <- reply{raw: raw, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return "", fmt.Errorf("fetch: %w", r.err)
		}
		return r.raw, nil
	}
}

// detectPrivacy reports whether the registrant is behind a privacy or proxy
// service. Registries express this inconsistently, so both the parsed
// registrant and the raw text are checked.
func detectPrivacy(parsed whoisparser.WhoisInfo, raw string) bool {
	lower := strings.ToLower(raw)
	for _, marker := range privacyMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	if parsed.Registrant != nil {
		name := strings.ToLower(parsed.Registrant.Name + " " + parsed.Registrant.Organization)
		for _, marker := range []string{"privacy", "redacted", "proxy", "protected"} {
			if strings.Contains(name, marker) {
				return true
			}
		}
	}
	return false
}

// parseWhoisDate prefers the parser's typed date and falls back to the raw
// string for registries with unusual formats.
func parseWhoisDate(typed *time.Time, raw string) *time.Time {
	if typed != nil {
		t := typed.UTC()
		return &t
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
