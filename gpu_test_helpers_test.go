package main

import (
	"encoding/binary"
	"errors"
	"testing"
)

// gpuRig wires a chip onto a bus the way the host does, so tests drive the
// device with guest-width stores.
type gpuRig struct {
	t    *testing.T
	chip *GPUChip
	bus  *MachineBus
	errs []*GPUError
}

func newGPURig(t *testing.T) *gpuRig {
	t.Helper()
	cfg := DefaultGPUConfig()
	rig := &gpuRig{t: t, chip: NewGPUChip(cfg), bus: NewMachineBus()}
	rig.chip.SetDiagnosticHandler(func(e *GPUError) {
		rig.errs = append(rig.errs, e)
	})
	rig.bus.MapIO("GPU", cfg.MMIOBase, cfg.MMIOBase+GPU_MMIO_SIZE-1, rig.chip.HandleRead, rig.chip.HandleWrite)
	rig.bus.MapIO("VRAM", cfg.VRAMBase, cfg.VRAMBase+uint32(cfg.VRAMSize)-1, rig.chip.HandleVRAMRead, rig.chip.HandleVRAMWrite)
	return rig
}

func (r *gpuRig) reg(off uint32) uint32 {
	return GPU_MMIO_BASE + off
}

func (r *gpuRig) setDisplay(w, h, pitch uint16) {
	r.bus.Write16(r.reg(GPU_REG_WIDTH), w)
	r.bus.Write16(r.reg(GPU_REG_HEIGHT), h)
	r.bus.Write16(r.reg(GPU_REG_PITCH), pitch)
}

// params streams p into the PARAM window, cycling through its offsets.
func (r *gpuRig) params(p []byte) {
	window := uint32(GPU_REG_PARAM_END - GPU_REG_PARAM + 1)
	for i, b := range p {
		r.bus.Write8(r.reg(GPU_REG_PARAM+uint32(i)%window), b)
	}
}

func (r *gpuRig) cmd(op uint16) {
	r.bus.Write16(r.reg(GPU_REG_CMD), op)
}

// issue writes the parameters first, then the command.
func (r *gpuRig) issue(op uint16, p []byte) {
	r.params(p)
	r.cmd(op)
}

func (r *gpuRig) status() uint32 {
	return r.bus.Read32(r.reg(GPU_REG_STATUS))
}

func (r *gpuRig) pixel(x, y int) uint32 {
	r.t.Helper()
	v, ok := r.chip.Pixel(x, y)
	if !ok {
		r.t.Fatalf("pixel (%d,%d) outside the display", x, y)
	}
	return v
}

func (r *gpuRig) count(kind error) int {
	n := 0
	for _, e := range r.errs {
		if errors.Is(e, kind) {
			n++
		}
	}
	return n
}

func (r *gpuRig) loadFont(glyphs map[uint16][]byte, w, h uint8) {
	r.t.Helper()
	f := FontConfig{FontOffset: GPU_FONT_OFFSET, GlyphWidth: w, GlyphHeight: h}
	for code, bits := range glyphs {
		if err := r.chip.LoadVRAM(uint32(f.GlyphOffset(code)), bits); err != nil {
			r.t.Fatalf("LoadVRAM glyph %d: %v", code, err)
		}
	}
	r.bus.Write8(r.reg(GPU_REG_FONTW), w)
	r.bus.Write8(r.reg(GPU_REG_FONTH), h)
}

// paramBuilder assembles little-endian parameter blocks.
type paramBuilder []byte

func (b paramBuilder) u16(v uint16) paramBuilder {
	return binary.LittleEndian.AppendUint16(b, v)
}

func (b paramBuilder) u32(v uint32) paramBuilder {
	return binary.LittleEndian.AppendUint32(b, v)
}

func putsParams(x, y uint16, fg, bg uint32, s string) []byte {
	b := paramBuilder{}.u16(x).u16(y).u16(uint16(len(s))).u32(fg).u32(bg)
	for i := 0; i < len(s); i++ {
		b = b.u16(uint16(s[i]))
	}
	return b
}
