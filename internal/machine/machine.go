/*
 * dosemu - Main execution loop and watchdog
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

// Package machine aggregates guest memory, CPU state, the DOS service
// layer and the host I/O adaptor into a single Machine, and drives the
// sequential fetch/execute loop with a stall watchdog.
//
// This is the one deliberate architectural break from the teacher: instead
// of a goroutine-driven core.Start/Stop life cycle reading from a channel,
// Run is a plain blocking for loop. The guest program here is strictly
// single-threaded, so there is nothing to schedule.
package machine

import (
	"time"

	"dosemu/internal/cpu"
	"dosemu/internal/dos"
	"dosemu/internal/ioadapter"
	"dosemu/internal/loader"
	"dosemu/internal/memory"
	"dosemu/internal/trace"
)

// Watchdog thresholds: after this many consecutive non-executed
// instructions, scan ahead for the next INT 21h and jump to it; after this
// many consecutive idle cycles, yield the host CPU briefly.
const (
	stallThreshold = 10000
	scanWindow     = 100
	idleThreshold  = 100
)

// Machine is the single aggregate of emulator state. Every subsystem
// operates on a *Machine (or the narrower state it owns) instead of a
// package-level global.
type Machine struct {
	Mem  *memory.Memory
	Regs *cpu.State
	DOS  *dos.Dispatcher
	IO   *ioadapter.Adapter

	Trace *trace.Logger

	// Breakpoints is consulted by the monitor's run command; the free-run
	// loop below never stops on it.
	Breakpoints map[uint32]bool
}

// New wires together a fresh Machine. debug enables instruction and
// syscall tracing to stderr.
func New(debug bool) (*Machine, error) {
	io, err := ioadapter.New()
	if err != nil {
		return nil, err
	}
	tr := trace.New(debug)
	return &Machine{
		Mem:         memory.New(),
		Regs:        cpu.NewState(),
		DOS:         dos.New(io, tr),
		IO:          io,
		Trace:       tr,
		Breakpoints: make(map[uint32]bool),
	}, nil
}

// Load reads path into guest memory and positions the register file at the
// program's entry point.
func (m *Machine) Load(path string) error {
	img, err := loader.Load(path, m.Mem)
	if err != nil {
		return err
	}
	img.Apply(m.Regs)
	return nil
}

// Linear returns the current CS:IP linear address.
func (m *Machine) Linear() uint32 {
	return memory.Linear(m.Regs.CS, m.Regs.IP)
}

// Step executes exactly one instruction and reports whether it was
// recognized (false for a stall-worthy unimplemented opcode).
func (m *Machine) Step() (bool, error) {
	return cpu.Step(m.Mem, m.Regs, m.DOS.Dispatch, m.Trace)
}

// Run executes instructions until the guest clears Regs.Running or the
// watchdog gives up on a stuck program. It never returns an error for a
// watchdog timeout — that terminates the guest the same way a real DOS
// session ending uncleanly would, with exit code 0.
func (m *Machine) Run() error {
	cyclesWithoutIO := 0

	for m.Regs.Running {
		executed, err := m.Step()
		if err != nil {
			return err
		}

		if !executed {
			cyclesWithoutIO++
			if cyclesWithoutIO > stallThreshold {
				if !m.scanForInt21() {
					m.Trace.Printf("Program appears stuck, terminating")
					m.Regs.Running = false
					break
				}
				cyclesWithoutIO = 0
			}
		} else {
			cyclesWithoutIO = 0
		}

		if cyclesWithoutIO > idleThreshold {
			time.Sleep(time.Millisecond)
		}
	}

	m.IO.Restore()
	return nil
}

// scanForInt21 looks scanWindow bytes ahead of the current IP for a CD 21
// byte pair (INT 21h) and, if found, jumps IP directly to it. This mirrors
// the reference emulator's recovery from a fetch loop stuck on bytes it
// doesn't recognize as an instruction (most commonly the 0xCC sentinel
// fill of never-loaded memory).
func (m *Machine) scanForInt21() bool {
	addr := m.Linear()
	for i := 0; i < scanWindow; i++ {
		if m.Mem.ReadByte(addr+uint32(i)) == 0xCD && m.Mem.ReadByte(addr+uint32(i+1)) == 0x21 {
			m.Regs.IP += uint16(i)
			return true
		}
	}
	return false
}
