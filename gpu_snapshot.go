// gpu_snapshot.go - GPU state snapshot: registers plus video memory, saved gzip compressed

package main

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const (
	snapshotMagic   = "AIZG"
	snapshotVersion = 1
)

// GPUSnapshot holds the configuration registers and the full contents of
// video memory. The dispatcher is not captured; a restored chip starts idle.
type GPUSnapshot struct {
	Display       DisplayConfig
	Font          FontConfig
	PaletteOffset uint32
	VRAM          []byte
}

// TakeSnapshot copies the registers and video memory.
func (chip *GPUChip) TakeSnapshot() *GPUSnapshot {
	chip.mutex.RLock()
	defer chip.mutex.RUnlock()

	return &GPUSnapshot{
		Display:       chip.regs.display,
		Font:          chip.regs.font,
		PaletteOffset: chip.regs.paletteOffset,
		VRAM:          bytes.Clone(chip.vram.data),
	}
}

// RestoreSnapshot loads snap into the chip and drops any pending command.
// Video memory sizes must match.
func (chip *GPUChip) RestoreSnapshot(snap *GPUSnapshot) error {
	chip.mutex.Lock()
	defer chip.mutex.Unlock()

	if len(snap.VRAM) != chip.vram.Len() {
		return fmt.Errorf("snapshot holds %d bytes of vram, chip has %d", len(snap.VRAM), chip.vram.Len())
	}
	copy(chip.vram.data, snap.VRAM)
	chip.regs.display = snap.Display
	chip.regs.font = snap.Font
	chip.regs.paletteOffset = snap.PaletteOffset
	chip.dispatcher.Reset()
	chip.hasContent = true
	return nil
}

// WriteSnapshot serialises snap: magic, version, register block, then the
// uncompressed VRAM length followed by gzip data.
func WriteSnapshot(w io.Writer, snap *GPUSnapshot) error {
	var buf bytes.Buffer

	buf.WriteString(snapshotMagic)
	binary.Write(&buf, binary.LittleEndian, uint32(snapshotVersion))

	d, f := snap.Display, snap.Font
	binary.Write(&buf, binary.LittleEndian, d.Width)
	binary.Write(&buf, binary.LittleEndian, d.Height)
	binary.Write(&buf, binary.LittleEndian, d.Pitch)
	buf.WriteByte(d.BitsPerPixel)
	binary.Write(&buf, binary.LittleEndian, d.FramebufferOffset)
	binary.Write(&buf, binary.LittleEndian, f.FontOffset)
	buf.WriteByte(f.GlyphWidth)
	buf.WriteByte(f.GlyphHeight)
	binary.Write(&buf, binary.LittleEndian, snap.PaletteOffset)

	binary.Write(&buf, binary.LittleEndian, uint32(len(snap.VRAM)))
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(snap.VRAM); err != nil {
		return fmt.Errorf("compressing vram: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("closing gzip: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// ReadSnapshot parses data written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*GPUSnapshot, error) {
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("reading magic: %w", err)
	}
	if string(magic) != snapshotMagic {
		return nil, fmt.Errorf("invalid snapshot magic: %q", string(magic))
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("reading version: %w", err)
	}
	if version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version: %d", version)
	}

	var hdr struct {
		Width, Height, Pitch uint16
		BPP                  uint8
		FBAddr, FontAddr     uint32
		FontW, FontH         uint8
		PalAddr              uint32
		VRAMLen              uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("reading registers: %w", err)
	}

	if hdr.VRAMLen > GPU_VRAM_SIZE {
		return nil, fmt.Errorf("snapshot vram of %d bytes exceeds %d", hdr.VRAMLen, GPU_VRAM_SIZE)
	}

	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening gzip reader: %w", err)
	}
	defer gz.Close()

	vram := make([]byte, hdr.VRAMLen)
	if _, err := io.ReadFull(io.LimitReader(gz, int64(hdr.VRAMLen)), vram); err != nil {
		return nil, fmt.Errorf("decompressing vram: %w", err)
	}

	return &GPUSnapshot{
		Display: DisplayConfig{
			Width:             hdr.Width,
			Height:            hdr.Height,
			Pitch:             hdr.Pitch,
			BitsPerPixel:      hdr.BPP,
			FramebufferOffset: hdr.FBAddr,
		},
		Font: FontConfig{
			FontOffset:  hdr.FontAddr,
			GlyphWidth:  hdr.FontW,
			GlyphHeight: hdr.FontH,
		},
		PaletteOffset: hdr.PalAddr,
		VRAM:          vram,
	}, nil
}

// SaveSnapshotToFile writes the chip's current state to path.
func SaveSnapshotToFile(chip *GPUChip, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteSnapshot(f, chip.TakeSnapshot()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadSnapshotFromFile restores the chip from a file written by SaveSnapshotToFile.
func LoadSnapshotFromFile(chip *GPUChip, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()
	snap, err := ReadSnapshot(f)
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", path, err)
	}
	return chip.RestoreSnapshot(snap)
}
