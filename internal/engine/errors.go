package engine

import "fmt"

// DNSLookupError reports a transport-level DNS collection failure for one
// domain. Individual empty record sets are not errors.
type DNSLookupError struct {
	Domain string
	Err    error
}

func (e *DNSLookupError) Error() string {
	return fmt.Sprintf("dns lookup for %s: %v", e.Domain, e.Err)
}

func (e *DNSLookupError) Unwrap() error { return e.Err }

// WhoisLookupError reports a failed or unparseable WHOIS response for one
// domain. Partial parses are never returned; they surface as this error.
type WhoisLookupError struct {
	Domain string
	Err    error
}

func (e *WhoisLookupError) Error() string {
	return fmt.Sprintf("whois lookup for %s: %v", e.Domain, e.Err)
}

func (e *WhoisLookupError) Unwrap() error { return e.Err }

// ConfigError reports invalid scan configuration. It is fatal and raised
// before any collector runs.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid config: " + e.Reason
}
