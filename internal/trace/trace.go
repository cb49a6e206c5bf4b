/*
 * dosemu - Per-instruction and per-syscall tracing
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

// Package trace prints per-instruction and per-syscall diagnostics to
// stderr when a Logger is enabled. A nil *Logger (the zero value of the
// pointer) disables tracing entirely; nothing in the hot execution path
// needs to check a separate boolean.
package trace

import (
	"fmt"
	"os"

	"dosemu/internal/cpu"
)

// Logger is a small, struct-scoped stand-in for the teacher's package-level
// debug file: unlike that package, a Logger belongs to one Machine and is
// never reached through a global.
type Logger struct {
	enabled bool
}

// New returns a Logger. enabled mirrors the -d/--debug flag.
func New(enabled bool) *Logger {
	return &Logger{enabled: enabled}
}

// TraceInstr implements cpu.Tracer.
func (l *Logger) TraceInstr(cs, ip uint16, opcode byte) {
	if l == nil || !l.enabled {
		return
	}
	fmt.Fprintf(os.Stderr, "Execute: %04X:%04X: %02X %s\n", cs, ip, opcode, cpu.Describe(opcode))
}

// Int21 logs an AH-selected DOS service dispatch.
func (l *Logger) Int21(ah byte, desc string) {
	if l == nil || !l.enabled {
		return
	}
	fmt.Fprintf(os.Stderr, "DOS INT 21h AH=%02X %s\n", ah, desc)
}

// Unhandled logs a DOS function this interpreter does not implement.
func (l *Logger) Unhandled(ah byte) {
	if l == nil || !l.enabled {
		return
	}
	fmt.Fprintf(os.Stderr, "Unhandled DOS INT 21h function: %02X\n", ah)
}

// Printf logs a free-form diagnostic line, for watchdog events.
func (l *Logger) Printf(format string, a ...any) {
	if l == nil || !l.enabled {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", a...)
}
