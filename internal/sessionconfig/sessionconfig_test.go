package sessionconfig

import (
	"os"
	"path/filepath"
	"testing"

	"dosemu/internal/cpu"
	"dosemu/internal/machine"
	"dosemu/internal/memory"
	"dosemu/internal/trace"
)

func newTestMachine() *machine.Machine {
	return &machine.Machine{
		Mem:         memory.New(),
		Regs:        cpu.NewState(),
		Breakpoints: make(map[uint32]bool),
		Trace:       trace.New(false),
	}
}

func TestApplyBreakAndTraceDirectives(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.cfg")
	content := "# a comment\n\nbreak 1000:0010\ntrace on\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m := newTestMachine()

	if err := Apply(path, m); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	addr := memory.Linear(0x1000, 0x0010)
	if !m.Breakpoints[addr] {
		t.Fatalf("breakpoint directive should set %#x", addr)
	}
	if *m.Trace != *trace.New(true) {
		t.Fatalf("trace on directive should enable tracing")
	}
}

func TestApplyRejectsUnknownDirective(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.cfg")
	if err := os.WriteFile(path, []byte("bogus\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m := newTestMachine()
	if err := Apply(path, m); err == nil {
		t.Fatalf("expected an error for an unknown directive")
	}
}

func TestParseSegOff(t *testing.T) {
	addr, err := parseSegOff("2000:0100")
	if err != nil {
		t.Fatalf("parseSegOff: %v", err)
	}
	if want := memory.Linear(0x2000, 0x0100); addr != want {
		t.Fatalf("parseSegOff = %#x, want %#x", addr, want)
	}
}
