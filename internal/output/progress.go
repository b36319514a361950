package output

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Progress reports live scan activity on stderr. It counts domains and
// collector warnings as they stream by so Complete can recap what may have
// scrolled out of view.
type Progress struct {
	w       io.Writer
	verbose bool
	silent  bool

	mu       sync.Mutex
	start    time.Time
	scanned  int
	warnings int
}

// NewProgress creates a progress reporter. A silent reporter counts but
// never writes.
func NewProgress(w io.Writer, verbose, silent bool) *Progress {
	return &Progress{
		w:       w,
		verbose: verbose,
		silent:  silent,
		start:   time.Now(),
	}
}

// Domain announces that a domain's scan is starting.
func (p *Progress) Domain(num, total int, domain string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scanned++
	if p.silent {
		return
	}
	fmt.Fprintf(p.w, "[%d/%d] %s\n", num, total, domain)
}

// Detail prints per-domain detail, verbose mode only.
func (p *Progress) Detail(msg string) {
	if !p.verbose || p.silent {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "      %s\n", msg)
}

// Warn reports a collector problem. Warnings are counted even when silent.
func (p *Progress) Warn(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.warnings++
	if p.silent {
		return
	}
	fmt.Fprintf(p.w, "  !   %s\n", msg)
}

// Complete prints a closing line with totals and elapsed time.
func (p *Progress) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.silent {
		return
	}
	elapsed := time.Since(p.start).Seconds()
	if p.warnings > 0 {
		fmt.Fprintf(p.w, "Scanned %d domains in %.1fs, %d collector warnings\n", p.scanned, elapsed, p.warnings)
		return
	}
	fmt.Fprintf(p.w, "Scanned %d domains in %.1fs\n", p.scanned, elapsed)
}
