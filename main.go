/*
 * dosemu - Main process.
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

package main

import (
	"fmt"
	"log/slog"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"dosemu/internal/logsetup"
	"dosemu/internal/machine"
	"dosemu/internal/monitor"
	"dosemu/internal/sessionconfig"
)

var Logger *slog.Logger

func main() {
	optDebug := getopt.BoolLong("debug", 'd', "Enable verbose instruction and syscall tracing")
	optInteractive := getopt.BoolLong("interactive", 'i', "Start the operator monitor instead of free-running")
	optBreakpoints := getopt.StringLong("breakpoints", 'b', "", "Breakpoint/trace directive file")
	optLogFile := getopt.StringLong("log", 'l', "", "Host-level log file")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	args := getopt.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s <image-path> [-d] [-i] [-b FILE] [-l FILE]\n", os.Args[0])
		os.Exit(2)
	}

	var logFile *os.File
	if *optLogFile != "" {
		logFile, _ = os.Create(*optLogFile)
	}
	Logger = logsetup.New(logFile, *optDebug)
	slog.SetDefault(Logger)

	m, err := machine.New(*optDebug)
	if err != nil {
		Logger.Error("failed to initialize machine", "error", err)
		os.Exit(3)
	}

	if err := m.Load(args[0]); err != nil {
		Logger.Error("failed to load image", "path", args[0], "error", err)
		os.Exit(4)
	}

	if *optBreakpoints != "" {
		if err := sessionconfig.Apply(*optBreakpoints, m); err != nil {
			Logger.Error("failed to apply breakpoint file", "error", err)
			os.Exit(4)
		}
	}

	if !*optDebug {
		fmt.Fprintln(os.Stderr, "Note: This is a minimal DOS emulator for a single legacy console binary.")
		fmt.Fprintln(os.Stderr, "It implements just enough to handle basic I/O.")
		fmt.Fprintln(os.Stderr)
	}

	if *optInteractive {
		monitor.Run(m)
	}

	if err := m.Run(); err != nil {
		Logger.Error("machine halted with error", "error", err)
		os.Exit(1)
	}
}
