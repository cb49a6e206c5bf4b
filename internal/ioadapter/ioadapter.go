/*
 * dosemu - Host terminal adaptor
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

// Package ioadapter gives the DOS service layer non-blocking access to the
// host's stdin, the way a real piped console feeds a DOS program one
// keystroke at a time without ever stalling the emulator waiting on input
// that may never come.
package ioadapter

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

const bufSize = 256

// Adapter wraps host stdin/stdout. It keeps no process-global state; each
// Machine owns exactly one Adapter.
type Adapter struct {
	fd int

	buf []byte
	pos int
	len int

	out io.Writer
}

// New places stdin in non-blocking mode and returns an Adapter over it.
// Callers should call Restore to restore blocking mode on exit.
func New() (*Adapter, error) {
	return NewFromFD(int(os.Stdin.Fd()), os.Stdout)
}

// NewFromFD is the same as New but over an arbitrary readable fd and
// output sink, so tests can drive the adaptor over a pipe instead of the
// process's real stdin/stdout.
func NewFromFD(fd int, out io.Writer) (*Adapter, error) {
	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	if err != nil {
		return nil, err
	}
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_SETFL, flags|unix.O_NONBLOCK); err != nil {
		return nil, err
	}
	return &Adapter{
		fd:  fd,
		buf: make([]byte, bufSize),
		out: out,
	}, nil
}

// ReadByte returns the next input byte and true, or false if none is
// available right now. It never blocks: a poll(2) with a zero timeout
// decides whether a host read would succeed before attempting one.
func (a *Adapter) ReadByte() (byte, bool) {
	if a.pos < a.len {
		b := a.buf[a.pos]
		a.pos++
		return b, true
	}

	pfd := []unix.PollFd{{Fd: int32(a.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(pfd, 0)
	if err != nil || n <= 0 {
		return 0, false
	}

	nr, err := unix.Read(a.fd, a.buf)
	if err != nil || nr <= 0 {
		return 0, false
	}
	a.len = nr
	a.pos = 0
	b := a.buf[a.pos]
	a.pos++
	return b, true
}

// Drain discards any buffered or immediately-available input, used to
// service the "clear keyboard buffer" DOS request.
func (a *Adapter) Drain() {
	a.pos = 0
	a.len = 0
	scratch := make([]byte, bufSize)
	for {
		pfd := []unix.PollFd{{Fd: int32(a.fd), Events: unix.POLLIN}}
		n, err := unix.Poll(pfd, 0)
		if err != nil || n <= 0 {
			return
		}
		nr, err := unix.Read(a.fd, scratch)
		if err != nil || nr <= 0 {
			return
		}
	}
}

// WriteByte writes one byte to stdout. Write errors (e.g. a closed pipe on
// the reading end) are intentionally ignored: guest output is best-effort,
// never a reason to abort the emulated program.
func (a *Adapter) WriteByte(b byte) {
	_, _ = a.out.Write([]byte{b})
}

// Restore clears the non-blocking flag this Adapter set on stdin.
func (a *Adapter) Restore() {
	flags, err := unix.FcntlInt(uintptr(a.fd), unix.F_GETFL, 0)
	if err != nil {
		return
	}
	_, _ = unix.FcntlInt(uintptr(a.fd), unix.F_SETFL, flags&^unix.O_NONBLOCK)
}
