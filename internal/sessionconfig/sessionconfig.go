/*
 * dosemu - Startup breakpoint/trace directive file
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

// Package sessionconfig loads the optional -b/--breakpoints directive
// file: one line-oriented "break <seg:off>" or "trace on|off" directive
// per line, applied to a Machine before the guest starts running.
//
// This is a scaled-down version of the device-configuration file format
// the teacher parses for its model registry; there are no attachable
// devices in this machine, so the format here is just the two directives
// above.
package sessionconfig

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"dosemu/internal/machine"
	"dosemu/internal/memory"
	"dosemu/internal/trace"
)

// Apply reads path line by line and applies each directive to m. Blank
// lines and lines starting with '#' are ignored.
func Apply(path string, m *machine.Machine) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("sessionconfig: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := applyLine(line, m); err != nil {
			return fmt.Errorf("sessionconfig: line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}

func applyLine(line string, m *machine.Machine) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch strings.ToLower(fields[0]) {
	case "break":
		if len(fields) != 2 {
			return fmt.Errorf("break requires a seg:off address")
		}
		addr, err := parseSegOff(fields[1])
		if err != nil {
			return err
		}
		m.Breakpoints[addr] = true

	case "trace":
		if len(fields) != 2 {
			return fmt.Errorf("trace requires on|off")
		}
		switch strings.ToLower(fields[1]) {
		case "on":
			*m.Trace = *trace.New(true)
		case "off":
			*m.Trace = *trace.New(false)
		default:
			return fmt.Errorf("trace expects on|off, got %q", fields[1])
		}

	default:
		return fmt.Errorf("unknown directive %q", fields[0])
	}
	return nil
}

func parseSegOff(s string) (uint32, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("address must be seg:off, got %q", s)
	}
	seg, err := strconv.ParseUint(parts[0], 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid segment %q: %w", parts[0], err)
	}
	off, err := strconv.ParseUint(parts[1], 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid offset %q: %w", parts[1], err)
	}
	return memory.Linear(uint16(seg), uint16(off)), nil
}
