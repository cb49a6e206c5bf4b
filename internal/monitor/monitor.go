/*
 * dosemu - Interactive operator monitor
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

// Package monitor implements a small liner-backed operator console for
// stepping, breakpointing and inspecting a Machine by hand — a debugging
// convenience the purely-batch reference emulator never had.
package monitor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/peterh/liner"

	"dosemu/internal/cpu"
	"dosemu/internal/machine"
	"dosemu/internal/memory"
)

type cmd struct {
	name    string
	min     int
	process func(args []string, m *machine.Machine) (bool, error)
}

var cmdList = []cmd{
	{name: "step", min: 1, process: cmdStep},
	{name: "run", min: 1, process: cmdRun},
	{name: "break", min: 2, process: cmdBreak},
	{name: "regs", min: 2, process: cmdRegs},
	{name: "mem", min: 2, process: cmdMem},
	{name: "quit", min: 1, process: cmdQuit},
}

func matchList(name string) []cmd {
	if name == "" {
		return nil
	}
	var matches []cmd
	for _, c := range cmdList {
		if len(name) >= c.min && len(name) <= len(c.name) && strings.HasPrefix(c.name, name) {
			matches = append(matches, c)
		}
	}
	return matches
}

// ProcessCommand parses and runs one monitor command line. It returns true
// when the monitor should exit (the guest then free-runs to completion).
func ProcessCommand(line string, m *machine.Machine) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	match := matchList(strings.ToLower(fields[0]))
	if len(match) == 0 {
		return false, errors.New("command not found: " + fields[0])
	}
	if len(match) > 1 {
		return false, errors.New("ambiguous command: " + fields[0])
	}

	return match[0].process(fields[1:], m)
}

// Run starts the interactive console loop. It returns once the operator
// quits the monitor (not once the guest program finishes).
func Run(m *machine.Machine) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	for {
		input, err := line.Prompt("dosemu> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return
			}
			return
		}
		line.AppendHistory(input)

		quit, err := ProcessCommand(input, m)
		if err != nil {
			fmt.Println("Error: " + err.Error())
			continue
		}
		if quit {
			return
		}
	}
}

func cmdStep(_ []string, m *machine.Machine) (bool, error) {
	executed, err := m.Step()
	if err != nil {
		return false, err
	}
	if !executed {
		fmt.Printf("(no instruction recognized at %04X:%04X)\n", m.Regs.CS, m.Regs.IP)
	}
	printRegs(m)
	return false, nil
}

func cmdRun(_ []string, m *machine.Machine) (bool, error) {
	for m.Regs.Running {
		if m.Breakpoints[m.Linear()] {
			fmt.Printf("breakpoint at %04X:%04X\n", m.Regs.CS, m.Regs.IP)
			return false, nil
		}
		if _, err := m.Step(); err != nil {
			return false, err
		}
	}
	return false, nil
}

func cmdBreak(args []string, m *machine.Machine) (bool, error) {
	if len(args) != 1 {
		return false, errors.New("usage: break <seg:off>")
	}
	addr, err := parseSegOff(args[0])
	if err != nil {
		return false, err
	}
	if m.Breakpoints[addr] {
		delete(m.Breakpoints, addr)
		fmt.Printf("breakpoint cleared at %s\n", args[0])
	} else {
		m.Breakpoints[addr] = true
		fmt.Printf("breakpoint set at %s\n", args[0])
	}
	return false, nil
}

func cmdRegs(_ []string, m *machine.Machine) (bool, error) {
	printRegs(m)
	return false, nil
}

func cmdMem(args []string, m *machine.Machine) (bool, error) {
	if len(args) != 2 {
		return false, errors.New("usage: mem <seg:off> <len>")
	}
	addr, err := parseSegOff(args[0])
	if err != nil {
		return false, err
	}
	count, err := strconv.Atoi(args[1])
	if err != nil || count <= 0 {
		return false, errors.New("invalid length")
	}
	fmt.Print(hexDump(addr, m.Mem.Slice(addr, count)))
	return false, nil
}

func cmdQuit(_ []string, _ *machine.Machine) (bool, error) {
	return true, nil
}

func printRegs(m *machine.Machine) {
	r := m.Regs
	fmt.Printf("AX=%04X CX=%04X DX=%04X BX=%04X SP=%04X BP=%04X SI=%04X DI=%04X\n",
		r.GetReg16(cpu.RegAX), r.GetReg16(cpu.RegCX), r.GetReg16(cpu.RegDX), r.GetReg16(cpu.RegBX),
		r.GetReg16(cpu.RegSP), r.GetReg16(cpu.RegBP), r.GetReg16(cpu.RegSI), r.GetReg16(cpu.RegDI))
	fmt.Printf("CS=%04X DS=%04X ES=%04X SS=%04X IP=%04X FLAGS=%04X\n",
		r.CS, r.DS, r.ES, r.SS, r.IP, r.Flags)
}

func parseSegOff(s string) (uint32, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, errors.New("address must be seg:off")
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
