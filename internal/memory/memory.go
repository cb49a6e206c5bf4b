/*
 * dosemu - Flat real-mode guest memory
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

// Package memory implements the guest's flat real-mode address space.
//
// Unlike the IBM 370 simulator this is descended from, which keeps one
// package-level mem singleton reached by every subsystem, Memory here is a
// plain value owned by a single Machine and passed by pointer. Nothing in
// this package keeps process-global state.
package memory

import "encoding/binary"

// Size is the guest address space: a real-mode CPU addresses exactly 1 MiB
// through segment:offset pairs.
const Size = 1 << 20

// sentinel fills guest memory at creation so execution of never-loaded
// bytes is obvious in a trace instead of silently decoding as NOP.
const sentinel = 0xCC

// Memory is the guest's flat 1 MiB address space.
type Memory struct {
	bytes [Size]byte
}

// New returns a freshly sentinel-filled guest memory.
func New() *Memory {
	m := &Memory{}
	for i := range m.bytes {
		m.bytes[i] = sentinel
	}
	return m
}

// Linear converts a real-mode segment:offset pair to a flat address,
// truncated to 20 bits so segment arithmetic wraps the way real-mode
// addressing wraps at the top of the 1 MiB window.
func Linear(seg, off uint16) uint32 {
	return (uint32(seg)<<4 + uint32(off)) & (Size - 1)
}

// ReadByte returns the byte at the given linear address.
func (m *Memory) ReadByte(addr uint32) byte {
	return m.bytes[addr&(Size-1)]
}

// WriteByte stores a byte at the given linear address.
func (m *Memory) WriteByte(addr uint32, v byte) {
	m.bytes[addr&(Size-1)] = v
}

// ReadWord returns the little-endian 16-bit word at addr.
func (m *Memory) ReadWord(addr uint32) uint16 {
	addr &= Size - 1
	if addr == Size-1 {
		return uint16(m.bytes[addr]) | uint16(m.bytes[0])<<8
	}
	return binary.LittleEndian.Uint16(m.bytes[addr : addr+2])
}

// WriteWord stores the little-endian 16-bit word v at addr.
func (m *Memory) WriteWord(addr uint32, v uint16) {
	addr &= Size - 1
	if addr == Size-1 {
		m.bytes[addr] = byte(v)
		m.bytes[0] = byte(v >> 8)
		return
	}
	binary.LittleEndian.PutUint16(m.bytes[addr:addr+2], v)
}

// ReadByteSeg reads a byte at seg:off.
func (m *Memory) ReadByteSeg(seg, off uint16) byte {
	return m.ReadByte(Linear(seg, off))
}

// WriteByteSeg writes a byte at seg:off.
func (m *Memory) WriteByteSeg(seg, off uint16, v byte) {
	m.WriteByte(Linear(seg, off), v)
}

// ReadWordSeg reads a little-endian word at seg:off.
func (m *Memory) ReadWordSeg(seg, off uint16) uint16 {
	return m.ReadWord(Linear(seg, off))
}

// WriteWordSeg writes a little-endian word at seg:off.
func (m *Memory) WriteWordSeg(seg, off uint16, v uint16) {
	m.WriteWord(Linear(seg, off), v)
}

// Fill sets count bytes starting at addr to v.
func (m *Memory) Fill(addr uint32, count int, v byte) {
	addr &= Size - 1
	for i := 0; i < count; i++ {
		m.bytes[(addr+uint32(i))&(Size-1)] = v
	}
}

// CopyIn copies src into guest memory starting at addr, wrapping at the
// 1 MiB boundary.
func (m *Memory) CopyIn(addr uint32, src []byte) {
	addr &= Size - 1
	for i, b := range src {
		m.bytes[(addr+uint32(i))&(Size-1)] = b
	}
}

// Slice returns a read/write view of count bytes starting at addr, for
// callers (the FCB layer, the monitor's hex dump) that want a contiguous
// range directly. The caller must not use this across a 1 MiB wraparound.
func (m *Memory) Slice(addr uint32, count int) []byte {
	addr &= Size - 1
	return m.bytes[addr : addr+uint32(count)]
}
