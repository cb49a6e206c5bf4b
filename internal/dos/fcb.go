/*
 * dosemu - FCB-based file access
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

package dos

import (
	"os"
	"strings"

	"dosemu/internal/memory"
)

// Field offsets within a 37-byte unopened FCB.
const (
	fcbDrive     = 0
	fcbName      = 1 // 8 bytes, space-padded
	fcbExt       = 9 // 3 bytes, space-padded
	fcbCurBlock  = 12
	fcbRecSize   = 14
	fcbFileSize  = 16
	fcbDate      = 20
	fcbTime      = 22
	fcbReserved  = 24 // 8 bytes, unused by this emulator
	fcbCurRecord = 32
	fcbRandRec   = 33

	fcbLen = 37
)

// driveC is the fixed drive number every opened FCB reports, matching the
// single-drive filesystem model this emulator presents to the guest.
const driveC = 3

// fcbFilename renders the 8.3 filename stored in an FCB as a host filename,
// trimming the space padding DOS uses inside fixed-width fields.
func fcbFilename(mem *memory.Memory, addr uint32) string {
	name := strings.TrimRight(string(mem.Slice(addr+fcbName, 8)), " ")
	ext := strings.TrimRight(string(mem.Slice(addr+fcbExt, 3)), " ")
	if ext == "" {
		return name
	}
	return name + "." + ext
}

// handle tracks one open FCB-based file: the host *os.File and the linear
// address of the guest FCB that identifies it, mirroring the reference
// loader's "FCB pointer identity" bookkeeping.
type handle struct {
	file    *os.File
	fcbAddr uint32
}

// findHandle returns the index of the handle whose FCB lives at addr, or -1.
func (d *Dispatcher) findHandle(addr uint32) int {
	for i, h := range d.handles {
		if h != nil && h.fcbAddr == addr {
			return i
		}
	}
	return -1
}

// freeSlot returns the index of an unused handle slot, or -1 if all 16 are
// in use.
func (d *Dispatcher) freeSlot() int {
	for i, h := range d.handles {
		if h == nil {
			return i
		}
	}
	return -1
}

// openFCB implements AH=0Fh (open) and AH=16h (create) FCB operations.
func (d *Dispatcher) openFCB(mem *memory.Memory, addr uint32, create bool) byte {
	name := fcbFilename(mem, addr)

	idx := d.findHandle(addr)
	var f *os.File
	var err error
	if create {
		if idx == -1 {
			idx = d.freeSlot()
		}
		if idx == -1 {
			return 0xFF
		}
		f, err = os.Create(name)
	} else {
		idx = d.freeSlot()
		if idx == -1 {
			return 0xFF
		}
		f, err = os.OpenFile(name, os.O_RDWR, 0)
		if err != nil {
			f, err = os.Open(name)
		}
	}
	if err != nil {
		return 0xFF
	}

	d.handles[idx] = &handle{file: f, fcbAddr: addr}

	mem.WriteWord(addr+fcbCurBlock, 0)
	mem.WriteByte(addr+fcbCurRecord, 0)
	mem.WriteWord(addr+fcbRecSize, 128)

	var size uint32
	if !create {
		if info, statErr := f.Stat(); statErr == nil {
			size = uint32(info.Size())
		}
	}
	mem.WriteWord(addr+fcbFileSize, uint16(size))
	mem.WriteWord(addr+fcbFileSize+2, uint16(size>>16))
	mem.WriteByte(addr+fcbDrive, driveC)

	return 0
}

// closeFCB implements AH=10h.
func (d *Dispatcher) closeFCB(addr uint32) byte {
	idx := d.findHandle(addr)
	if idx < 0 {
		return 0xFF
	}
	_ = d.handles[idx].file.Close()
	d.handles[idx] = nil
	return 0
}

// readFCB implements AH=14h: sequential read into the current DTA using
// the FCB's record size.
func (d *Dispatcher) readFCB(mem *memory.Memory, addr uint32) byte {
	idx := d.findHandle(addr)
	if idx < 0 {
		return 0xFF
	}
	recSize := mem.ReadWord(addr + fcbRecSize)
	if recSize == 0 {
		recSize = 128
	}
	dta := memory.Linear(d.dtaSeg, d.dtaOff)
	buf := mem.Slice(dta, int(recSize))
	n, err := d.handles[idx].file.Read(buf)
	if err != nil || uint16(n) != recSize {
		return 0x01
	}
	cur := mem.ReadByte(addr + fcbCurRecord)
	mem.WriteByte(addr+fcbCurRecord, cur+1)
	return 0
}
