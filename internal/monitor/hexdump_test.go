package monitor

import (
	"strings"
	"testing"
)

func TestHexDumpFormatsASCIIGutter(t *testing.T) {
	data := []byte("Hi!")
	out := hexDump(0x1234, data)
	if !strings.Contains(out, "48 69 21") {
		t.Fatalf("hex dump missing expected hex bytes, got:\n%s", out)
	}
	if !strings.Contains(out, "Hi!") {
		t.Fatalf("hex dump missing ASCII gutter, got:\n%s", out)
	}
}

func TestHexDumpEscapesNonPrintable(t *testing.T) {
	out := hexDump(0, []byte{0x00, 0x01, 0x7F})
	if !strings.Contains(out, "...") {
		t.Fatalf("non-printable bytes should render as '.', got:\n%s", out)
	}
}

func TestHexDumpMultipleRows(t *testing.T) {
	data := make([]byte, 20)
	for i := range data {
		data[i] = byte(i)
	}
	out := hexDump(0, data)
	if n := strings.Count(out, "\n"); n != 2 {
		t.Fatalf("20 bytes should produce 2 rows, got %d newlines", n)
	}
}
