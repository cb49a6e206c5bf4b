package cpu

import "testing"

func TestReg8AliasesReg16(t *testing.T) {
	s := NewState()
	s.SetReg16(RegAX, 0x1234)
	if got := s.GetReg8(RegAL); got != 0x34 {
		t.Fatalf("AL = %#x, want 0x34", got)
	}
	if got := s.GetReg8(RegAH); got != 0x12 {
		t.Fatalf("AH = %#x, want 0x12", got)
	}

	s.SetReg8(RegAL, 0xFF)
	if got := s.GetReg16(RegAX); got != 0x12FF {
		t.Fatalf("AX after SetReg8(AL) = %#x, want 0x12FF", got)
	}

	s.SetReg8(RegAH, 0x00)
	if got := s.GetReg16(RegAX); got != 0x00FF {
		t.Fatalf("AX after SetReg8(AH) = %#x, want 0x00FF", got)
	}
}

func TestFlags(t *testing.T) {
	s := NewState()
	if !s.Flag(FlagIF) {
		t.Fatalf("NewState should start with IF set")
	}
	s.SetFlag(FlagZF, true)
	if !s.Flag(FlagZF) {
		t.Fatalf("ZF should be set")
	}
	s.SetFlag(FlagZF, false)
	if s.Flag(FlagZF) {
		t.Fatalf("ZF should be cleared")
	}
}

func TestNewStateStartsRunning(t *testing.T) {
	s := NewState()
	if !s.Running {
		t.Fatalf("a freshly constructed State should be Running")
	}
}
