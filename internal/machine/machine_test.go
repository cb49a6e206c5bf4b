package machine

import (
	"os"
	"path/filepath"
	"testing"

	"dosemu/internal/cpu"
	"dosemu/internal/memory"
)

func TestScanForInt21Finds(t *testing.T) {
	m := &Machine{Mem: memory.New(), Regs: cpu.NewState()}
	m.Regs.CS = 0x1000
	m.Regs.IP = 0

	m.Mem.WriteByteSeg(m.Regs.CS, 10, 0xCD)
	m.Mem.WriteByteSeg(m.Regs.CS, 11, 0x21)

	if !m.scanForInt21() {
		t.Fatalf("scanForInt21 should find the INT 21h ten bytes ahead")
	}
	if m.Regs.IP != 10 {
		t.Fatalf("IP after scan = %#x, want 10", m.Regs.IP)
	}
}

func TestScanForInt21NotFound(t *testing.T) {
	m := &Machine{Mem: memory.New(), Regs: cpu.NewState()}
	m.Regs.CS = 0x1000
	m.Regs.IP = 0
	// Fresh memory is sentinel-filled; no CD 21 pair exists within range.

	if m.scanForInt21() {
		t.Fatalf("scanForInt21 should not find INT 21h in untouched sentinel memory")
	}
}

func TestNewLoadRunImmediateExit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exit.com")
	// INT 20h: terminate immediately, nothing else to execute.
	if err := os.WriteFile(path, []byte{0xCD, 0x20}, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m, err := New(false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := m.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := m.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if m.Regs.Running {
		t.Fatalf("Running should be false after INT 20h")
	}
}

func TestLinearReflectsCSIP(t *testing.T) {
	m := &Machine{Mem: memory.New(), Regs: cpu.NewState()}
	m.Regs.CS = 0x2000
	m.Regs.IP = 0x0010
	if got, want := m.Linear(), memory.Linear(0x2000, 0x0010); got != want {
		t.Fatalf("Linear() = %#x, want %#x", got, want)
	}
}
