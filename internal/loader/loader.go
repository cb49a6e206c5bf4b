/*
 * dosemu - Guest image loader
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

// Package loader builds the initial guest memory image (PSP, environment
// block and program bytes) from a COM or MZ/EXE file on disk, and returns
// the register file a real DOS loader would hand off to the program.
package loader

import (
	"encoding/binary"
	"fmt"
	"os"

	"dosemu/internal/cpu"
	"dosemu/internal/memory"
)

// Segment layout. Matches the reference loader: environment block, PSP and
// program image each get a fixed paragraph, leaving the rest of the 1 MiB
// window free for the program's own use.
const (
	SegEnv  = 0x1000
	SegPSP  = 0x2000
	SegLoad = 0x2010

	pspSize = 256
	envSize = 256

	maxCOMSize = 0x10000 - pspSize
)

// Field offsets within the 256-byte Program Segment Prefix.
const (
	pspWarmboot    = 0x00
	pspOldCallJmp  = 0x05
	pspOldCallOff  = 0x06
	pspOldCallSeg  = 0x08
	pspTermAddr    = 0x0A
	pspCtrlCAddr   = 0x0E
	pspErrorAddr   = 0x12
	pspEnvp        = 0x2C
	pspMSCall      = 0x50
	pspFCB1        = 0x5C
	pspFCB2        = 0x6C
	pspCmdLen      = 0x80
	pspCmd         = 0x81
	handlerTerm    = 0x81
	handlerCtrlC   = 0x82
	handlerErr     = 0x83
)

// Image describes the loaded program's entry register state, separate from
// the guest memory side effects Load applies directly.
type Image struct {
	CS, DS, ES, SS uint16
	IP             uint16
	SP             uint16
}

// Load reads path (COM or MZ/EXE format), writes its PSP, environment block
// and code bytes into mem, and returns the register values the program
// should start executing with.
func Load(path string, mem *memory.Memory) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("loader: %w", err)
	}

	buildPSP(mem)
	mem.Fill(memory.Linear(SegEnv, 0), envSize, 0)

	if len(data) >= 2 && data[0] == 'M' && data[1] == 'Z' {
		return loadEXE(data, mem)
	}
	return loadCOM(data, mem)
}

func buildPSP(mem *memory.Memory) {
	base := memory.Linear(SegPSP, 0)
	mem.Fill(base, pspSize, 0)

	mem.WriteByte(base+pspWarmboot, 0xCD)
	mem.WriteByte(base+pspWarmboot+1, 0x20)

	mem.WriteByte(base+pspOldCallJmp, 0x9A)
	mem.WriteWord(base+pspOldCallOff, pspMSCall)
	mem.WriteWord(base+pspOldCallSeg, SegPSP)

	mem.WriteWord(base+pspTermAddr, handlerTerm)
	mem.WriteWord(base+pspTermAddr+2, SegPSP)
	mem.WriteWord(base+pspCtrlCAddr, handlerCtrlC)
	mem.WriteWord(base+pspCtrlCAddr+2, SegPSP)
	mem.WriteWord(base+pspErrorAddr, handlerErr)
	mem.WriteWord(base+pspErrorAddr+2, SegPSP)

	mem.WriteWord(base+pspEnvp, SegEnv)

	mem.WriteByte(base+pspMSCall, 0xCD)
	mem.WriteByte(base+pspMSCall+1, 0x21)
	mem.WriteByte(base+pspMSCall+2, 0xCB)

	// Dummy interrupt handlers: each is a single IRET, reached through the
	// termination/ctrl-c/critical-error vectors set up above.
	mem.WriteByte(base+handlerTerm, 0xCF)
	mem.WriteByte(base+handlerCtrlC, 0xCF)
	mem.WriteByte(base+handlerErr, 0xCF)
}

func loadCOM(data []byte, mem *memory.Memory) (Image, error) {
	if len(data) > maxCOMSize {
		return Image{}, fmt.Errorf("loader: COM file too large (%d bytes, max %d)", len(data), maxCOMSize)
	}
	mem.CopyIn(memory.Linear(SegPSP, 0x100), data)

	return Image{
		CS: SegPSP,
		DS: SegPSP,
		ES: SegPSP,
		SS: SegPSP,
		IP: 0x100,
		SP: 0xFFFE,
	}, nil
}

// exeHeader mirrors the 28-byte MZ header this loader understands: magic,
// image sizing, relocation table and initial register fields.
type exeHeader struct {
	Magic         [2]byte
	LastPageSize  uint16
	FilePages     uint16
	NumReloc      uint16
	HdrParagraphs uint16
	MinAlloc      uint16
	MaxAlloc      uint16
	InitSS        uint16
	InitSP        uint16
	Checksum      uint16
	InitIP        uint16
	InitCS        uint16
	RelocTable    uint16
	Overlay       uint16
}

const exeHeaderSize = 28

func loadEXE(data []byte, mem *memory.Memory) (Image, error) {
	if len(data) < exeHeaderSize {
		return Image{}, fmt.Errorf("loader: EXE header truncated")
	}
	var hdr exeHeader
	hdr.Magic[0], hdr.Magic[1] = data[0], data[1]
	hdr.LastPageSize = binary.LittleEndian.Uint16(data[2:4])
	hdr.FilePages = binary.LittleEndian.Uint16(data[4:6])
	hdr.NumReloc = binary.LittleEndian.Uint16(data[6:8])
	hdr.HdrParagraphs = binary.LittleEndian.Uint16(data[8:10])
	hdr.MinAlloc = binary.LittleEndian.Uint16(data[10:12])
	hdr.MaxAlloc = binary.LittleEndian.Uint16(data[12:14])
	hdr.InitSS = binary.LittleEndian.Uint16(data[14:16])
	hdr.InitSP = binary.LittleEndian.Uint16(data[16:18])
	hdr.Checksum = binary.LittleEndian.Uint16(data[18:20])
	hdr.InitIP = binary.LittleEndian.Uint16(data[20:22])
	hdr.InitCS = binary.LittleEndian.Uint16(data[22:24])
	hdr.RelocTable = binary.LittleEndian.Uint16(data[24:26])
	hdr.Overlay = binary.LittleEndian.Uint16(data[26:28])

	headerBytes := int(hdr.HdrParagraphs) * 16

	var imageBytes int
	if hdr.LastPageSize == 0 {
		imageBytes = int(hdr.FilePages) * 512
	} else {
		imageBytes = (int(hdr.FilePages)-1)*512 + int(hdr.LastPageSize)
	}
	codeBytes := imageBytes - headerBytes
	if codeBytes < 0 || headerBytes+codeBytes > len(data) {
		return Image{}, fmt.Errorf("loader: EXE image size inconsistent with file length")
	}

	loadBase := memory.Linear(SegLoad, 0)
	mem.CopyIn(loadBase, data[headerBytes:headerBytes+codeBytes])

	// Process the relocation table: each entry is an off:seg pair pointing
	// at a word in the loaded image that needs the load segment added to
	// it (not overwritten — a relocated image may already encode a nonzero
	// base from its own segment arithmetic).
	for i := 0; i < int(hdr.NumReloc); i++ {
		entry := int(hdr.RelocTable) + i*4
		if entry+4 > len(data) {
			break
		}
		off := binary.LittleEndian.Uint16(data[entry : entry+2])
		seg := binary.LittleEndian.Uint16(data[entry+2 : entry+4])
		addr := loadBase + uint32(seg)*16 + uint32(off)
		patched := mem.ReadWord(addr) + SegLoad
		mem.WriteWord(addr, patched)
	}

	return Image{
		CS: SegLoad + hdr.InitCS,
		DS: SegPSP,
		ES: SegPSP,
		SS: SegLoad + hdr.InitSS,
		IP: hdr.InitIP,
		SP: hdr.InitSP,
	}, nil
}

// Apply copies an Image's register values into regs, leaving AX cleared and
// interrupts enabled, matching a freshly started DOS process.
func (img Image) Apply(regs *cpu.State) {
	*regs = *cpu.NewState()
	regs.CS, regs.DS, regs.ES, regs.SS = img.CS, img.DS, img.ES, img.SS
	regs.IP = img.IP
	regs.SetReg16(cpu.RegSP, img.SP)
}
