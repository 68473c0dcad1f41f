package format

import (
	"bytes"
	"strings"
	"testing"
)

type rowsFixture struct{}

func (rowsFixture) Header() []string { return []string{"ID", "Applied"} }
func (rowsFixture) Rows(colored bool) [][]string {
	return [][]string{{"7", Status("yes", colored)}, {"8", Status("no", colored)}}
}

func TestWriteJSONEnvelope(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Write(&buf, Envelope{Data: map[string]int{"count": 3}}, "json", false); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != `{"data":{"count":3}}` {
		t.Fatalf("unexpected json: %s", got)
	}
}

func TestWriteTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Write(&buf, Envelope{Data: rowsFixture{}}, "table", false); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"ID", "APPLIED", "7", "yes", "8"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in table output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("buffers must not get ANSI colors:\n%q", out)
	}
}

func TestWriteTableUnsupported(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Write(&buf, 42, "table", false); err == nil {
		t.Fatalf("expected error for non-tabular value")
	}
	if err := Write(&buf, 42, "yaml", false); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	if got := Truncate("hello world", 6); got != "hello…" {
		t.Fatalf("got %q", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
}
