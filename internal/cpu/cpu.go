/*
 * dosemu - Real-mode x86 register file and flags
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

// Package cpu implements the 16-bit real-mode register file, flags and
// instruction interpreter the guest runs under.
//
// Like internal/memory, State is a plain struct meant to live inside a
// single Machine and be passed by pointer; there is no package-level CPU
// singleton here the way the teacher's cpuState lived in sysCPU.
package cpu

// General register indices, in the standard x86 ModRM encoding order used
// by the 8/16-bit register-field bits of an instruction byte.
const (
	RegAX = iota
	RegCX
	RegDX
	RegBX
	RegSP
	RegBP
	RegSI
	RegDI
)

// 8-bit sub-register indices, again in standard ModRM reg-field order.
const (
	RegAL = iota
	RegCL
	RegDL
	RegBL
	RegAH
	RegCH
	RegDH
	RegBH
)

// Flags bit positions. Only these four flags are modelled; anything else
// (PF, AF, OF, TF, DF, ...) does not exist in this machine.
const (
	FlagCF uint16 = 1 << 0
	FlagZF uint16 = 1 << 6
	FlagSF uint16 = 1 << 7
	FlagIF uint16 = 1 << 9
)

// State is the 16-bit real-mode register file: eight general-purpose
// registers (SP and BP included, at RegSP/RegBP), four segment registers,
// IP, and the flags word.
type State struct {
	GPR   [8]uint16 // AX, CX, DX, BX, SP, BP, SI, DI
	CS    uint16
	DS    uint16
	ES    uint16
	SS    uint16
	IP    uint16
	Flags uint16

	// Running is cleared by INT 20h/21h-AH=4Ch and by the watchdog to stop
	// the main loop.
	Running bool
}

// NewState returns a register file with IF set and Running true, matching
// a freshly loaded DOS process image.
func NewState() *State {
	return &State{
		Flags:   FlagIF,
		Running: true,
	}
}

// GetReg8 reads an 8-bit sub-register by its ModRM reg-field index.
func (s *State) GetReg8(r int) byte {
	gpr := r & 3
	if r&4 != 0 {
		return byte(s.GPR[gpr] >> 8)
	}
	return byte(s.GPR[gpr])
}

// SetReg8 writes an 8-bit sub-register by its ModRM reg-field index,
// leaving the other half of the parent 16-bit register untouched.
func (s *State) SetReg8(r int, v byte) {
	gpr := r & 3
	if r&4 != 0 {
		s.GPR[gpr] = (s.GPR[gpr] & 0x00ff) | (uint16(v) << 8)
		return
	}
	s.GPR[gpr] = (s.GPR[gpr] & 0xff00) | uint16(v)
}

// GetReg16 reads a 16-bit general-purpose register.
func (s *State) GetReg16(r int) uint16 {
	return s.GPR[r&7]
}

// SetReg16 writes a 16-bit general-purpose register.
func (s *State) SetReg16(r int, v uint16) {
	s.GPR[r&7] = v
}

// SetFlag sets or clears a single flag bit.
func (s *State) SetFlag(mask uint16, on bool) {
	if on {
		s.Flags |= mask
	} else {
		s.Flags &^= mask
	}
}

// Flag reports whether a single flag bit is set.
func (s *State) Flag(mask uint16) bool {
	return s.Flags&mask != 0
}
