package dos

import (
	"bytes"
	"os"
	"testing"
	"time"

	"dosemu/internal/cpu"
	"dosemu/internal/ioadapter"
	"dosemu/internal/memory"
)

func TestDispatchGetVersion(t *testing.T) {
	d := &Dispatcher{table: map[uint8]Handler{0x30: {"get DOS version", svcGetVersion}}}
	mem := memory.New()
	regs := cpu.NewState()
	regs.SetReg16(cpu.RegAX, 0x3000)

	if err := d.Dispatch(mem, regs); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got := regs.GetReg16(cpu.RegAX); got != 0x0005 {
		t.Fatalf("AX after get-version = %#x, want 0x0005", got)
	}
}

func TestDispatchGetDrive(t *testing.T) {
	d := &Dispatcher{table: map[uint8]Handler{0x19: {"get current drive", svcGetDrive}}}
	mem := memory.New()
	regs := cpu.NewState()
	regs.SetReg16(cpu.RegAX, 0x1900)

	if err := d.Dispatch(mem, regs); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if got := regs.GetReg8(cpu.RegAL); got != 0x02 {
		t.Fatalf("AL after get-drive = %#x, want 0x02 (C:)", got)
	}
}

func TestDispatchExitClearsRunning(t *testing.T) {
	d := &Dispatcher{table: map[uint8]Handler{0x4C: {"exit program", svcExit}}}
	mem := memory.New()
	regs := cpu.NewState()
	regs.SetReg16(cpu.RegAX, 0x4C00)

	if err := d.Dispatch(mem, regs); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if regs.Running {
		t.Fatalf("AH=4Ch should clear Running")
	}
}

func TestDispatchUnrecognizedFunctionIsANoOp(t *testing.T) {
	d := &Dispatcher{table: map[uint8]Handler{}}
	mem := memory.New()
	regs := cpu.NewState()
	regs.SetReg16(cpu.RegAX, 0xFF00)

	if err := d.Dispatch(mem, regs); err != nil {
		t.Fatalf("Dispatch of an unknown AH should never error: %v", err)
	}
}

func TestSvcSetDTAUpdatesDispatcherState(t *testing.T) {
	d := &Dispatcher{}
	regs := cpu.NewState()
	regs.DS = 0x3000
	regs.SetReg16(cpu.RegDX, 0x00A0)

	svcSetDTA(d, nil, regs)

	if d.dtaSeg != 0x3000 || d.dtaOff != 0x00A0 {
		t.Fatalf("DTA = %04X:%04X, want 3000:00A0", d.dtaSeg, d.dtaOff)
	}
}

func TestFeedPromptDetectsCRLFGreaterThan(t *testing.T) {
	d := &Dispatcher{}
	for _, c := range []byte("hi\r\n>") {
		d.feedPrompt(c)
	}
	if !d.InputEnabled {
		t.Fatalf("InputEnabled should be set after CR LF '>'")
	}

	d.feedPrompt('\r')
	if d.InputEnabled {
		t.Fatalf("InputEnabled should clear on the next CR")
	}
}

func TestSvcReadCharEchoReturnsImmediatelyAvailableByte(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	var out bytes.Buffer
	adapter, err := ioadapter.NewFromFD(int(r.Fd()), &out)
	if err != nil {
		t.Fatalf("NewFromFD: %v", err)
	}
	defer adapter.Restore()

	if _, err := w.Write([]byte("Q")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	d := &Dispatcher{io: adapter}
	regs := cpu.NewState()

	svcReadCharEcho(d, nil, regs)

	if got := regs.GetReg8(cpu.RegAL); got != 'Q' {
		t.Fatalf("AL = %q, want 'Q'", got)
	}
	if out.String() != "Q" {
		t.Fatalf("echoed output = %q, want %q", out.String(), "Q")
	}
}

// TestSvcReadCharEchoRetriesOnMiss exercises the read-character service's
// one-shot retry: a miss on the first poll must sleep briefly and poll
// again before giving up, per the reference implementation's usleep+retry,
// rather than reporting AL=0 on the very first empty read.
func TestSvcReadCharEchoRetriesOnMiss(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	var out bytes.Buffer
	adapter, err := ioadapter.NewFromFD(int(r.Fd()), &out)
	if err != nil {
		t.Fatalf("NewFromFD: %v", err)
	}
	defer adapter.Restore()

	go func() {
		// Delay just long enough that the first, immediate poll inside
		// svcReadCharEcho misses, but short enough that its ~1ms retry
		// sleep gives the second poll time to see it.
		time.Sleep(300 * time.Microsecond)
		w.Write([]byte("Z"))
	}()

	d := &Dispatcher{io: adapter}
	regs := cpu.NewState()

	svcReadCharEcho(d, nil, regs)

	if got := regs.GetReg8(cpu.RegAL); got != 'Z' {
		t.Fatalf("AL = %q, want 'Z' (retry should have picked up the delayed write)", got)
	}
}

func TestSvcReadCharEchoReturnsZeroWhenStillEmptyAfterRetry(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	var out bytes.Buffer
	adapter, err := ioadapter.NewFromFD(int(r.Fd()), &out)
	if err != nil {
		t.Fatalf("NewFromFD: %v", err)
	}
	defer adapter.Restore()

	d := &Dispatcher{io: adapter}
	regs := cpu.NewState()
	regs.SetReg8(cpu.RegAL, 0xFF)

	svcReadCharEcho(d, nil, regs)

	if got := regs.GetReg8(cpu.RegAL); got != 0 {
		t.Fatalf("AL = %#x, want 0 when no input ever arrives", got)
	}
}

func TestNewDispatcherDefaultsDTAToPSP0080(t *testing.T) {
	d := New(nil, nil)
	if d.dtaSeg != 0x2000 || d.dtaOff != 0x0080 {
		t.Fatalf("default DTA = %04X:%04X, want 2000:0080", d.dtaSeg, d.dtaOff)
	}
	if _, ok := d.table[0x4C]; !ok {
		t.Fatalf("dispatch table should register AH=4Ch")
	}
}
