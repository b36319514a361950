package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Run scans every configured domain and returns the batch result.
//
// Domains are distributed across a bounded worker pool of cfg.Threads
// goroutines. Each worker writes its result into the slot matching the
// domain's input position, so result ordering is independent of completion
// order. Collector failures are isolated per domain and per collector; the
// only fatal error is an invalid configuration.
//
// Cancelling ctx stops scheduling of not-yet-started domains and propagates
// to in-flight collector calls, but results for domains that already
// completed are kept and the batch is still returned.
func Run(ctx context.Context, cfg Config, collectors Collectors, rules RuleEvaluator, progress ProgressReporter) (*BatchResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	batch := &BatchResult{
		Results:   make([]DomainScanResult, len(cfg.Domains)),
		StartedAt: time.Now(),
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit)
	}

	work := make(chan int, len(cfg.Domains))
	for i := range cfg.Domains {
		work <- i
	}
	close(work)

	var wg sync.WaitGroup
	threads := cfg.Threads
	if threads > len(cfg.Domains) {
		threads = len(cfg.Domains)
	}
	for w := 0; w < threads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				domain := cfg.Domains[i]
				select {
				case <-ctx.Done():
					// Never started: record the cancellation, keep the slot.
					batch.Results[i] = cancelledResult(domain, ctx.Err())
					continue
				default:
				}

				progress.Domain(i+1, len(cfg.Domains), domain)
				batch.Results[i] = scanDomain(ctx, cfg, domain, collectors, rules, limiter, progress)
			}
		}()
	}
	wg.Wait()

	batch.CompletedAt = time.Now()
	batch.DurationSecs = batch.CompletedAt.Sub(batch.StartedAt).Seconds()
	batch.Summary = Aggregate(batch.Results)

	return batch, nil
}

// scanDomain runs both collectors for one domain, derives the scan status and
// evaluates the rule set against whatever data was collected. DNS and WHOIS
// are both attempted even if one fails.
func scanDomain(ctx context.Context, cfg Config, domain string, collectors Collectors, rules RuleEvaluator, limiter *rate.Limiter, progress ProgressReporter) DomainScanResult {
	result := DomainScanResult{
		Domain:   domain,
		Snapshot: DomainSnapshot{Domain: domain},
		Findings: []Finding{},
	}

	dnsOK := false
	if err := limiter.Wait(ctx); err == nil {
		dnsCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		records, err := collectors.DNS.Collect(dnsCtx, domain)
		cancel()
		if err != nil {
			progress.Warn(fmt.Sprintf("%s: dns collection failed: %s", domain, err))
			result.Errors = append(result.Errors, CollectorError{Source: "dns", Message: err.Error()})
		} else {
			result.Snapshot.DNS = records
			dnsOK = true
		}
	} else {
		result.Errors = append(result.Errors, CollectorError{Source: "dns", Message: err.Error()})
	}

	whoisOK := false
	if err := limiter.Wait(ctx); err == nil {
		whoisCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
		record, err := collectors.Whois.Collect(whoisCtx, domain)
		cancel()
		if err != nil {
			progress.Warn(fmt.Sprintf("%s: whois collection failed: %s", domain, err))
			result.Errors = append(result.Errors, CollectorError{Source: "whois", Message: err.Error()})
		} else {
			result.Snapshot.Whois = record
			whoisOK = true
		}
	} else {
		result.Errors = append(result.Errors, CollectorError{Source: "whois", Message: err.Error()})
	}

	switch {
	case dnsOK && whoisOK:
		result.Status = StatusOK
	case dnsOK || whoisOK:
		result.Status = StatusPartial
	default:
		result.Status = StatusFailed
	}

	// Rules never run against an empty snapshot: a domain that was never
	// reachable must not produce "missing record" findings.
	if result.Status != StatusFailed {
		result.Findings = rules.Evaluate(result.Snapshot)
		progress.Detail(fmt.Sprintf("%s: %d findings (%s)", domain, len(result.Findings), result.Status))
	}

	return result
}

func cancelledResult(domain string, cause error) DomainScanResult {
	msg := "scan cancelled"
	if cause != nil {
		msg = fmt.Sprintf("scan cancelled: %v", cause)
	}
	return DomainScanResult{
		Domain:   domain,
		Snapshot: DomainSnapshot{Domain: domain},
		Findings: []Finding{},
		Status:   StatusFailed,
		Errors: []CollectorError{
			{Source: "dns", Message: msg},
			{Source: "whois", Message: msg},
		},
	}
}

// Aggregate recomputes the batch summary from scratch as a pure reduction
// over the per-domain results.
func Aggregate(results []DomainScanResult) Summary {
	var s Summary
	for _, r := range results {
		switch r.Status {
		case StatusOK:
			s.DomainsOK++
		case StatusPartial:
			s.DomainsPartial++
		case StatusFailed:
			s.DomainsFailed++
		}
		for _, f := range r.Findings {
			switch f.Severity {
			case SeverityCritical:
				s.CriticalCount++
			case SeverityWarning:
				s.WarningCount++
			case SeverityInfo:
				s.InfoCount++
			}
		}
	}
	return s
}
