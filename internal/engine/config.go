package engine

import (
	"fmt"
	"strings"
	"time"
)

// Default thresholds and pool sizing.
const (
	DefaultThreads        = 10
	DefaultTimeout        = 5 * time.Second
	DefaultExpiryCritical = 30
	DefaultExpiryWarning  = 90
)

// Config holds the runtime configuration for a scan batch.
type Config struct {
	Domains            []string
	Threads            int
	Timeout            time.Duration // per collector call
	RateLimit          int           // lookups per second across all workers, 0 = unlimited
	ExpiryCriticalDays int
	ExpiryWarningDays  int
}

// Validate checks the configuration before any scanning begins.
// Violations are returned as a *ConfigError.
func (c Config) Validate() error {
	if len(c.Domains) == 0 {
		return &ConfigError{Reason: "no domains to scan"}
	}
	for _, d := range c.Domains {
		if !validDomain(d) {
			return &ConfigError{Reason: fmt.Sprintf("malformed domain %q", d)}
		}
	}
	if c.Threads < 1 {
		return &ConfigError{Reason: fmt.Sprintf("thread count must be >= 1, got %d", c.Threads)}
	}
	if c.Timeout <= 0 {
		return &ConfigError{Reason: "per-domain timeout must be positive"}
	}
	if c.ExpiryCriticalDays < 0 || c.ExpiryWarningDays < 0 {
		return &ConfigError{Reason: "expiry horizons must not be negative"}
	}
	if c.ExpiryCriticalDays > c.ExpiryWarningDays {
		return &ConfigError{Reason: fmt.Sprintf("critical expiry horizon (%d) exceeds warning horizon (%d)",
			c.ExpiryCriticalDays, c.ExpiryWarningDays)}
	}
	return nil
}

// validDomain applies a light syntactic check: at least two non-empty labels,
// no spaces, no scheme. Full RFC validation is the resolver's job.
func validDomain(domain string) bool {
	if domain == "" || strings.ContainsAny(domain, " \t/") {
		return false
	}
	labels := strings.Split(strings.TrimSuffix(domain, "."), ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if label == "" || len(label) > 63 {
			return false
		}
	}
	return true
}
