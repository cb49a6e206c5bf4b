package trace

import "testing"

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	// None of these should panic on a nil *Logger, matching a disabled
	// trace configuration.
	l.TraceInstr(0, 0, 0)
	l.Int21(0x30, "get DOS version")
	l.Unhandled(0xFF)
	l.Printf("hello %d", 1)
}

func TestDisabledLoggerIsSafe(t *testing.T) {
	l := New(false)
	l.TraceInstr(0x1000, 0x0100, 0x90)
	l.Int21(0x30, "get DOS version")
	l.Unhandled(0xFF)
	l.Printf("hello")
}

func TestEnabledLoggerDoesNotPanic(t *testing.T) {
	l := New(true)
	l.TraceInstr(0x1000, 0x0100, 0x90)
	l.Int21(0x30, "get DOS version")
	l.Unhandled(0xFF)
	l.Printf("hello %s", "world")
}
