package main

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"testing"
)

func TestGPUSnapshot_RoundTrip(t *testing.T) {
	rig := newGPURig(t)
	rig.setDisplay(4, 3, 8)
	rig.bus.Write32(rig.reg(GPU_REG_PALADDR), 0x1234)
	rig.issue(GPU_CMD_CLEAR, paramBuilder{}.u32(0xFF405060))

	var buf bytes.Buffer
	if err := WriteSnapshot(&buf, rig.chip.TakeSnapshot()); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}
	snap, err := ReadSnapshot(&buf)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}

	other := newGPURig(t)
	if err := other.chip.RestoreSnapshot(snap); err != nil {
		t.Fatalf("RestoreSnapshot: %v", err)
	}
	s := other.chip.Snapshot()
	if s.Display.Width != 4 || s.Display.Height != 3 || s.Display.Pitch != 8 {
		t.Fatalf("restored geometry %+v", s.Display)
	}
	if s.PaletteOffset != 0x1234 {
		t.Fatalf("restored PALADDR = %#x, want 0x1234", s.PaletteOffset)
	}
	if got := other.pixel(3, 2); got != 0xFF405060 {
		t.Fatalf("restored pixel = %08X, want FF405060", got)
	}
	if !other.chip.HasContent() {
		t.Fatalf("restored chip reports no content")
	}
}

func TestGPUSnapshot_RestoreDropsPendingCommand(t *testing.T) {
	rig := newGPURig(t)
	snap := rig.chip.TakeSnapshot()

	rig.cmd(GPU_CMD_CLEAR)
	if rig.status()&GPU_STATUS_PENDING == 0 {
		t.Fatalf("CLEAR without parameters should be pending")
	}
	if err := rig.chip.RestoreSnapshot(snap); err != nil {
		t.Fatalf("RestoreSnapshot: %v", err)
	}
	if rig.status()&GPU_STATUS_PENDING != 0 {
		t.Fatalf("pending command survived restore")
	}
}

func TestGPUSnapshot_SizeMismatch(t *testing.T) {
	cfg := DefaultGPUConfig()
	cfg.VRAMSize = 0x1000
	small := NewGPUChip(cfg)

	rig := newGPURig(t)
	if err := small.RestoreSnapshot(rig.chip.TakeSnapshot()); err == nil {
		t.Fatalf("restore into a smaller VRAM succeeded")
	}
}

func TestGPUSnapshot_BadMagic(t *testing.T) {
	if _, err := ReadSnapshot(bytes.NewReader([]byte("IEMS\x01\x00\x00\x00"))); err == nil {
		t.Fatalf("ReadSnapshot accepted a foreign magic")
	}
	if _, err := ReadSnapshot(bytes.NewReader([]byte("AI"))); err == nil {
		t.Fatalf("ReadSnapshot accepted a truncated header")
	}
}

func TestGPUSnapshot_OversizedVRAMRejected(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(snapshotMagic)
	binary.Write(&buf, binary.LittleEndian, uint32(snapshotVersion))
	binary.Write(&buf, binary.LittleEndian, struct {
		Width, Height, Pitch uint16
		BPP                  uint8
		FBAddr, FontAddr     uint32
		FontW, FontH         uint8
		PalAddr              uint32
		VRAMLen              uint32
	}{320, 200, 320, 32, 0, GPU_FONT_OFFSET, 8, 8, 0, GPU_VRAM_SIZE + 1})

	// No gzip body follows: the length alone must be refused.
	if _, err := ReadSnapshot(&buf); err == nil {
		t.Fatalf("ReadSnapshot accepted %d bytes of vram", GPU_VRAM_SIZE+1)
	}
}

func TestGPUSnapshot_File(t *testing.T) {
	rig := newGPURig(t)
	rig.setDisplay(2, 2, 2)
	rig.issue(GPU_CMD_CLEAR, paramBuilder{}.u32(0xFF00FF00))

	path := filepath.Join(t.TempDir(), "state.aizg")
	if err := SaveSnapshotToFile(rig.chip, path); err != nil {
		t.Fatalf("SaveSnapshotToFile: %v", err)
	}
	other := newGPURig(t)
	if err := LoadSnapshotFromFile(other.chip, path); err != nil {
		t.Fatalf("LoadSnapshotFromFile: %v", err)
	}
	if got := other.pixel(1, 1); got != 0xFF00FF00 {
		t.Fatalf("pixel after load = %08X, want FF00FF00", got)
	}
	if err := LoadSnapshotFromFile(other.chip, filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("loading a missing snapshot succeeded")
	}
}
