package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestProgress_CountsWarningsInClosingLine(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, false, false)

	p.Domain(1, 2, "a.example.com")
	p.Warn("a.example.com: whois collection failed: timeout")
	p.Domain(2, 2, "b.example.com")
	p.Complete()

	out := buf.String()
	if !strings.Contains(out, "[1/2] a.example.com") {
		t.Errorf("missing domain line:\n%s", out)
	}
	if !strings.Contains(out, "whois collection failed") {
		t.Errorf("missing warning line:\n%s", out)
	}
	if !strings.Contains(out, "Scanned 2 domains") || !strings.Contains(out, "1 collector warnings") {
		t.Errorf("closing line should recap totals:\n%s", out)
	}
}

func TestProgress_CleanRunOmitsWarningCount(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, false, false)

	p.Domain(1, 1, "a.example.com")
	p.Complete()

	if strings.Contains(buf.String(), "warnings") {
		t.Errorf("clean run should not mention warnings:\n%s", buf.String())
	}
}

func TestProgress_SilentWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, true, true)

	p.Domain(1, 1, "a.example.com")
	p.Detail("detail")
	p.Warn("warning")
	p.Complete()

	if buf.Len() != 0 {
		t.Errorf("silent reporter wrote %q", buf.String())
	}
}

func TestProgress_DetailRequiresVerbose(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, false, false)

	p.Detail("only in verbose mode")
	if buf.Len() != 0 {
		t.Errorf("detail written without verbose: %q", buf.String())
	}
}
