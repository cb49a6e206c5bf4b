/*
 * dosemu - Instruction interpreter
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

package cpu

import "dosemu/internal/memory"

// Tracer receives one call per fetched opcode when tracing is enabled. A
// nil Tracer disables tracing entirely.
type Tracer interface {
	TraceInstr(cs, ip uint16, opcode byte)
}

// Int21Handler services AH-selected DOS requests. Returning an error stops
// the machine; (*dos.Dispatcher).Dispatch is the production implementation.
type Int21Handler func(mem *memory.Memory, regs *State) error

// Step fetches and executes exactly one instruction at CS:IP.
//
// It reports whether an instruction was actually recognized and executed
// (false for a sentinel/unimplemented byte, which the watchdog uses to
// detect a stall) and an error only for conditions serious enough to halt
// the machine outright (currently: int21 returning one).
func Step(mem *memory.Memory, regs *State, int21 Int21Handler, tr Tracer) (bool, error) {
	startIP := regs.IP
	opcode := fetch8(mem, regs)

	if tr != nil {
		tr.TraceInstr(regs.CS, startIP, opcode)
	}

	switch {
	case opcode == OpNOP:
		return true, nil

	case opcode >= 0xB0 && opcode <= 0xB3:
		imm := fetch8(mem, regs)
		regs.SetReg8(int(opcode-0xB0), imm)
		return true, nil

	case opcode >= 0xB4 && opcode <= 0xB7:
		imm := fetch8(mem, regs)
		regs.SetReg8(int(opcode-0xB4)+4, imm)
		return true, nil

	case opcode >= 0xB8 && opcode <= 0xBF:
		imm := fetch16(mem, regs)
		regs.SetReg16(int(opcode-0xB8), imm)
		return true, nil

	case opcode == OpMovRM8R8:
		modrm := fetch8(mem, regs)
		if modrm&0xC0 == 0xC0 {
			reg := int((modrm >> 3) & 7)
			rm := int(modrm & 7)
			regs.SetReg8(rm, regs.GetReg8(reg))
		}
		return true, nil

	case opcode == OpCmpALimm:
		imm := fetch8(mem, regs)
		cmpAL(regs, imm)
		return true, nil

	case opcode == OpJZ:
		rel := int8(fetch8(mem, regs))
		if regs.Flag(FlagZF) {
			regs.IP = uint16(int32(regs.IP) + int32(rel))
		}
		return true, nil

	case opcode == OpJNZ:
		rel := int8(fetch8(mem, regs))
		if !regs.Flag(FlagZF) {
			regs.IP = uint16(int32(regs.IP) + int32(rel))
		}
		return true, nil

	case opcode == OpJMPrel8:
		rel := int8(fetch8(mem, regs))
		regs.IP = uint16(int32(regs.IP) + int32(rel))
		return true, nil

	case opcode == OpPushAX:
		push16(mem, regs, regs.GetReg16(RegAX))
		return true, nil

	case opcode == OpPopAX:
		regs.SetReg16(RegAX, pop16(mem, regs))
		return true, nil

	case opcode == OpINT:
		vector := fetch8(mem, regs)
		switch vector {
		case 0x20:
			regs.Running = false
		case 0x21:
			if int21 != nil {
				if err := int21(mem, regs); err != nil {
					return true, err
				}
			}
		default:
			// Unrecognized interrupt vector: silently ignored, matching the
			// documented policy of never failing on an unknown request.
		}
		return true, nil

	case opcode == OpIRET:
		regs.IP = pop16(mem, regs)
		regs.CS = pop16(mem, regs)
		regs.Flags = pop16(mem, regs)
		return true, nil

	case opcode == OpRETF:
		regs.IP = pop16(mem, regs)
		regs.CS = pop16(mem, regs)
		return true, nil

	case opcode == OpRET:
		regs.IP = pop16(mem, regs)
		return true, nil
	}

	// Unimplemented opcode byte (including the 0xCC sentinel fill): leave
	// IP where it landed after the opcode fetch and report nothing executed
	// so the watchdog can notice the machine isn't making progress.
	return false, nil
}

func fetch8(mem *memory.Memory, regs *State) byte {
	v := mem.ReadByteSeg(regs.CS, regs.IP)
	regs.IP++
	return v
}

func fetch16(mem *memory.Memory, regs *State) uint16 {
	v := mem.ReadWordSeg(regs.CS, regs.IP)
	regs.IP += 2
	return v
}

func push16(mem *memory.Memory, regs *State, v uint16) {
	sp := regs.GetReg16(RegSP) - 2
	regs.SetReg16(RegSP, sp)
	mem.WriteWordSeg(regs.SS, sp, v)
}

func pop16(mem *memory.Memory, regs *State) uint16 {
	sp := regs.GetReg16(RegSP)
	v := mem.ReadWordSeg(regs.SS, sp)
	regs.SetReg16(RegSP, sp+2)
	return v
}

// cmpAL implements CMP AL, imm8 with the machine's deliberately non-standard
// flag semantics: SF is taken from bit 15 of the 16-bit widened subtraction
// rather than bit 7 of the 8-bit result. This matches the reference C
// implementation's `uint16_t result = al - imm` and is intentional, not a
// bug to be fixed here.
func cmpAL(regs *State, imm byte) {
	al := uint16(regs.GetReg8(RegAL))
	result := al - uint16(imm)
	regs.SetFlag(FlagZF, byte(result) == 0)
	regs.SetFlag(FlagSF, result&0x8000 != 0)
	regs.SetFlag(FlagCF, al < uint16(imm))
}
