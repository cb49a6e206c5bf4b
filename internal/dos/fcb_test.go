package dos

import (
	"os"
	"testing"

	"dosemu/internal/memory"
)

func writeFCBName(mem *memory.Memory, addr uint32, name, ext string) {
	mem.CopyIn(addr+fcbName, []byte(name))
	mem.CopyIn(addr+fcbExt, []byte(ext))
}

func TestOpenReadCloseFCBRoundTrip(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	defer os.Chdir(wd)

	content := make([]byte, 128)
	copy(content, []byte("HELLO FROM AN FCB RECORD"))
	if err := os.WriteFile("DOSTEST1.TXT", content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	mem := memory.New()
	fcbAddr := uint32(0x5000)
	writeFCBName(mem, fcbAddr, "DOSTEST1", "TXT")

	d := &Dispatcher{dtaSeg: 0x6000, dtaOff: 0}

	if al := d.openFCB(mem, fcbAddr, false); al != 0 {
		t.Fatalf("openFCB = %#x, want 0", al)
	}
	if mem.ReadByte(fcbAddr+fcbDrive) != driveC {
		t.Fatalf("FCB drive byte not set to driveC after open")
	}
	if d.findHandle(fcbAddr) < 0 {
		t.Fatalf("openFCB did not register a handle")
	}

	if al := d.readFCB(mem, fcbAddr); al != 0 {
		t.Fatalf("readFCB = %#x, want 0", al)
	}
	got := mem.Slice(memory.Linear(d.dtaSeg, d.dtaOff), len(content))
	for i := range content {
		if got[i] != content[i] {
			t.Fatalf("DTA byte %d = %#x, want %#x", i, got[i], content[i])
		}
	}
	if cur := mem.ReadByte(fcbAddr + fcbCurRecord); cur != 1 {
		t.Fatalf("current record = %d, want 1 after one read", cur)
	}

	if al := d.closeFCB(fcbAddr); al != 0 {
		t.Fatalf("closeFCB = %#x, want 0", al)
	}
	if d.findHandle(fcbAddr) >= 0 {
		t.Fatalf("closeFCB should release the handle")
	}
}

func TestCreateFCBCreatesFileOnDisk(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	defer os.Chdir(wd)

	mem := memory.New()
	fcbAddr := uint32(0x5000)
	writeFCBName(mem, fcbAddr, "NEWFILE", "DAT")

	d := &Dispatcher{}
	if al := d.openFCB(mem, fcbAddr, true); al != 0 {
		t.Fatalf("createFCB = %#x, want 0", al)
	}
	if _, err := os.Stat("NEWFILE.DAT"); err != nil {
		t.Fatalf("create did not produce NEWFILE.DAT: %v", err)
	}
}

func TestFCBFilenameTrimsPadding(t *testing.T) {
	mem := memory.New()
	addr := uint32(0x8000)
	writeFCBName(mem, addr, "FOO", "")
	mem.Fill(addr+fcbName+3, 5, ' ')
	if got := fcbFilename(mem, addr); got != "FOO" {
		t.Fatalf("fcbFilename = %q, want %q", got, "FOO")
	}
}

func TestOpenFCBFailsWhenHandleTableFull(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	defer os.Chdir(wd)

	content := make([]byte, 128)
	if err := os.WriteFile("FULL.TXT", content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	mem := memory.New()
	d := &Dispatcher{}
	for i := 0; i < 16; i++ {
		d.handles[i] = &handle{fcbAddr: uint32(0x9000 + i)}
	}

	addr := uint32(0xA000)
	writeFCBName(mem, addr, "FULL", "TXT")
	if al := d.openFCB(mem, addr, false); al != 0xFF {
		t.Fatalf("openFCB with a full handle table = %#x, want 0xFF", al)
	}
}
