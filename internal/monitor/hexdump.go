/*
 * dosemu - Hex dump formatting for the operator monitor
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

package monitor

import "strings"

var hexMap = "0123456789ABCDEF"

func formatByte(str *strings.Builder, b byte) {
	str.WriteByte(hexMap[(b>>4)&0xf])
	str.WriteByte(hexMap[b&0xf])
}

func formatWord16(str *strings.Builder, w uint16) {
	str.WriteByte(hexMap[(w>>12)&0xf])
	str.WriteByte(hexMap[(w>>8)&0xf])
	str.WriteByte(hexMap[(w>>4)&0xf])
	str.WriteByte(hexMap[w&0xf])
}

// hexDump renders data, read from linear address addr, as 16-byte rows of hex plus
// an ASCII gutter, in the teacher's fixed-width formatting style.
func hexDump(addr uint32, data []byte) string {
	var out strings.Builder
	for row := 0; row < len(data); row += 16 {
		end := row + 16
		if end > len(data) {
			end = len(data)
		}
		line := data[row:end]

		formatWord16(&out, uint16(addr>>16))
		out.WriteByte(':')
		formatWord16(&out, uint16(addr)+uint16(row))
		out.WriteString("  ")

		for i := 0; i < 16; i++ {
			if i < len(line) {
				formatByte(&out, line[i])
				out.WriteByte(' ')
			} else {
				out.WriteString("   ")
			}
		}

		out.WriteByte(' ')
		for _, b := range line {
			if b >= 0x20 && b < 0x7f {
				out.WriteByte(b)
			} else {
				out.WriteByte('.')
			}
		}
		out.WriteByte('\n')
	}
	return out.String()
}
