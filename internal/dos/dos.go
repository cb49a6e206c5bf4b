/*
 * dosemu - DOS INT 21h service layer
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package dos implements the small slice of the INT 21h service surface a
// Racter-class console program actually calls: character and string
// console I/O, FCB file access, drive/DTA/version queries and program
// termination.
package dos

import (
	"time"

	"dosemu/internal/cpu"
	"dosemu/internal/ioadapter"
	"dosemu/internal/memory"
	"dosemu/internal/trace"
)

// Func services one AH-selected request. It may mutate regs and guest
// memory. It has no error result: in-band DOS failures are reported to the
// guest through AL the way real DOS does, so Dispatch never fails.
type Func func(d *Dispatcher, mem *memory.Memory, regs *cpu.State)

// Handler pairs a service routine with a human-readable description, used
// for tracing, in the style of a syscall dispatch table.
type Handler struct {
	Desc string
	Func Func
}

// Dispatcher holds all state the DOS service layer needs: open FCB
// handles, the current DTA pointer and the prompt-detection window. It is
// owned by exactly one Machine and passed by pointer; there is no
// package-level DOS state.
type Dispatcher struct {
	io *ioadapter.Adapter
	tr *trace.Logger

	handles [16]*handle

	dtaSeg, dtaOff uint16

	// promptWindow and InputEnabled replicate the reference emulator's
	// Racter prompt-detection heuristic byte for byte, including the fact
	// that InputEnabled is computed but never consulted by the read path
	// below — this is the original implementation's behavior, not an
	// oversight introduced here.
	promptWindow [4]byte
	InputEnabled bool

	table map[uint8]Handler
}

// New returns a Dispatcher with the DTA defaulted to PSP:0080h, matching a
// freshly loaded DOS process.
func New(io *ioadapter.Adapter, tr *trace.Logger) *Dispatcher {
	d := &Dispatcher{
		io:     io,
		tr:     tr,
		dtaSeg: 0x2000,
		dtaOff: 0x0080,
	}
	d.table = map[uint8]Handler{
		0x01: {"read character with echo", svcReadCharEcho},
		0x02: {"write character", svcWriteChar},
		0x06: {"direct console I/O", svcDirectConsoleIO},
		0x09: {"write string", svcWriteString},
		0x0C: {"clear keyboard buffer and read", svcClearAndRead},
		0x0F: {"open file using FCB", svcOpenFCB},
		0x10: {"close file using FCB", svcCloseFCB},
		0x14: {"sequential read using FCB", svcReadFCB},
		0x16: {"create file using FCB", svcCreateFCB},
		0x19: {"get current drive", svcGetDrive},
		0x1A: {"set DTA", svcSetDTA},
		0x25: {"set interrupt vector", svcSetVector},
		0x30: {"get DOS version", svcGetVersion},
		0x35: {"get interrupt vector", svcGetVector},
		0x4C: {"exit program", svcExit},
	}
	return d
}

// Dispatch implements cpu.Int21Handler: it selects a service by AH and
// calls it, tracing both recognized and unrecognized requests.
func (d *Dispatcher) Dispatch(mem *memory.Memory, regs *cpu.State) error {
	ah := byte(regs.GetReg16(cpu.RegAX) >> 8)

	h, ok := d.table[ah]
	if !ok {
		d.tr.Unhandled(ah)
		return nil
	}
	d.tr.Int21(ah, h.Desc)
	h.Func(d, mem, regs)
	return nil
}

func setAL(regs *cpu.State, v byte) {
	regs.SetReg8(cpu.RegAL, v)
}

func svcReadCharEcho(d *Dispatcher, _ *memory.Memory, regs *cpu.State) {
	c, ok := d.io.ReadByte()
	if !ok {
		// This is one of the only two legitimate suspension points in the
		// whole emulator: sleep once and retry before giving up, matching
		// the reference DOS call rather than failing the read outright.
		time.Sleep(time.Millisecond)
		c, ok = d.io.ReadByte()
		if !ok {
			setAL(regs, 0)
			return
		}
	}
	setAL(regs, c)
	if c != '\n' {
		d.io.WriteByte(c)
	}
}

func svcWriteChar(d *Dispatcher, _ *memory.Memory, regs *cpu.State) {
	c := byte(regs.GetReg16(cpu.RegDX))
	d.io.WriteByte(c)
	d.feedPrompt(c)
}

func svcDirectConsoleIO(d *Dispatcher, _ *memory.Memory, regs *cpu.State) {
	dl := byte(regs.GetReg16(cpu.RegDX))
	if dl == 0xFF {
		c, ok := d.io.ReadByte()
		if ok {
			setAL(regs, c)
			regs.SetFlag(cpu.FlagZF, false)
		} else {
			regs.SetFlag(cpu.FlagZF, true)
		}
		return
	}
	d.io.WriteByte(dl)
	d.feedPrompt(dl)
}

func svcWriteString(d *Dispatcher, mem *memory.Memory, regs *cpu.State) {
	addr := memory.Linear(regs.DS, regs.GetReg16(cpu.RegDX))
	for {
		c := mem.ReadByte(addr)
		if c == '$' {
			break
		}
		d.io.WriteByte(c)
		d.feedPrompt(c)
		addr++
	}
}

func svcClearAndRead(d *Dispatcher, mem *memory.Memory, regs *cpu.State) {
	d.io.Drain()

	subfunc := byte(regs.GetReg16(cpu.RegAX))
	switch subfunc {
	case 0x01, 0x06, 0x07, 0x08, 0x0A:
		regs.SetReg16(cpu.RegAX, uint16(subfunc)<<8|uint16(subfunc))
		if h, ok := d.table[subfunc]; ok {
			h.Func(d, mem, regs)
		}
	}
}

func svcOpenFCB(d *Dispatcher, mem *memory.Memory, regs *cpu.State) {
	addr := memory.Linear(regs.DS, regs.GetReg16(cpu.RegDX))
	setAL(regs, d.openFCB(mem, addr, false))
}

func svcCreateFCB(d *Dispatcher, mem *memory.Memory, regs *cpu.State) {
	addr := memory.Linear(regs.DS, regs.GetReg16(cpu.RegDX))
	setAL(regs, d.openFCB(mem, addr, true))
}

func svcCloseFCB(d *Dispatcher, _ *memory.Memory, regs *cpu.State) {
	addr := memory.Linear(regs.DS, regs.GetReg16(cpu.RegDX))
	setAL(regs, d.closeFCB(addr))
}

func svcReadFCB(d *Dispatcher, mem *memory.Memory, regs *cpu.State) {
	addr := memory.Linear(regs.DS, regs.GetReg16(cpu.RegDX))
	setAL(regs, d.readFCB(mem, addr))
}

func svcGetDrive(_ *Dispatcher, _ *memory.Memory, regs *cpu.State) {
	setAL(regs, 0x02) // C:
}

func svcSetDTA(d *Dispatcher, _ *memory.Memory, regs *cpu.State) {
	d.dtaSeg = regs.DS
	d.dtaOff = regs.GetReg16(cpu.RegDX)
}

func svcSetVector(_ *Dispatcher, _ *memory.Memory, _ *cpu.State) {
	// Interrupt vector installation is a no-op: nothing in this machine
	// ever dispatches through the guest's IVT.
}

func svcGetVersion(_ *Dispatcher, _ *memory.Memory, regs *cpu.State) {
	regs.SetReg16(cpu.RegAX, 0x0005)
	regs.SetReg16(cpu.RegBX, 0)
	regs.SetReg16(cpu.RegCX, 0)
}

func svcGetVector(_ *Dispatcher, _ *memory.Memory, regs *cpu.State) {
	regs.ES = 0
	regs.SetReg16(cpu.RegBX, 0)
}

func svcExit(_ *Dispatcher, _ *memory.Memory, regs *cpu.State) {
	regs.Running = false
}

// feedPrompt slides c into the 4-byte rolling window and updates
// InputEnabled exactly as the reference Racter prompt-detection heuristic
// does.
func (d *Dispatcher) feedPrompt(c byte) {
	d.promptWindow[0] = d.promptWindow[1]
	d.promptWindow[1] = d.promptWindow[2]
	d.promptWindow[2] = d.promptWindow[3]
	d.promptWindow[3] = c

	if d.promptWindow[1] == '\r' && d.promptWindow[2] == '\n' && d.promptWindow[3] == '>' {
		d.InputEnabled = true
	} else if c == '\r' {
		d.InputEnabled = false
	}
}
