/*
   Opcode map for disassembly and tracing

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   ROBERT M SUPNIK BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

package cpu

// Opcode byte values this interpreter recognizes. Anything not in this list
// (and not in Mnemonic below) is an unimplemented opcode: silently skipped
// per the documented error-handling policy, never a fatal error.
const (
	OpNOP       = 0x90
	OpMovALimm  = 0xB0 // MOV AL, imm8 (B0-B3 cover AL/CL/DL/BL)
	OpMovBLimm  = 0xB3
	OpMovAHimm  = 0xB4 // MOV AH, imm8 (B4-B7 cover AH/CH/DH/BH)
	OpMovBHimm  = 0xB7
	OpMovAXimm  = 0xB8 // MOV r16, imm16 (B8-BF cover AX..DI)
	OpMovDIimm  = 0xBF
	OpMovRM8R8  = 0x88 // MOV r/m8, r8 (mod=3 register-to-register only)
	OpCmpALimm  = 0x3C
	OpJZ        = 0x74
	OpJNZ       = 0x75
	OpJMPrel8   = 0xEB
	OpPushAX    = 0x50
	OpPopAX     = 0x58
	OpINT       = 0xCD
	OpIRET      = 0xCF
	OpRETF      = 0xCB
	OpRET       = 0xC3
)

// Mnemonic maps an opcode byte to its assembly mnemonic, used by trace
// output. Purely diagnostic: nothing on the execution path consults this
// table.
var Mnemonic = map[byte]string{
	OpNOP:      "NOP",
	OpMovRM8R8: "MOV r/m8,r8",
	OpCmpALimm: "CMP AL,imm8",
	OpJZ:       "JZ rel8",
	OpJNZ:      "JNZ rel8",
	OpJMPrel8:  "JMP rel8",
	OpPushAX:   "PUSH AX",
	OpPopAX:    "POP AX",
	OpINT:      "INT imm8",
	OpIRET:     "IRET",
	OpRETF:     "RETF",
	OpRET:      "RET",
}

func init() {
	regNames8 := []string{"AL", "CL", "DL", "BL"}
	for i, n := range regNames8 {
		Mnemonic[byte(0xB0+i)] = "MOV " + n + ",imm8"
		Mnemonic[byte(0xB4+i)] = "MOV " + highReg(n) + ",imm8"
	}
	regNames16 := []string{"AX", "CX", "DX", "BX", "SP", "BP", "SI", "DI"}
	for i, n := range regNames16 {
		Mnemonic[byte(0xB8+i)] = "MOV " + n + ",imm16"
	}
}

func highReg(low string) string {
	switch low {
	case "AL":
		return "AH"
	case "CL":
		return "CH"
	case "DL":
		return "DH"
	case "BL":
		return "BH"
	}
	return low
}

// Describe returns the mnemonic for opcode, or a placeholder for opcodes
// this interpreter does not implement.
func Describe(opcode byte) string {
	if m, ok := Mnemonic[opcode]; ok {
		return m
	}
	return "??"
}
