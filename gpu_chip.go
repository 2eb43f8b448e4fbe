// gpu_chip.go - AIZ-32 GPU core: MMIO entry points, video memory window and host API

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package main

import (
	"errors"
	"fmt"
	"image"
	"sync"
)

// GPUConfig fixes the memory map and the register values loaded at reset.
type GPUConfig struct {
	MMIOBase uint32
	VRAMBase uint32
	VRAMSize int
	Display  DisplayConfig
	Font     FontConfig
}

func DefaultGPUConfig() GPUConfig {
	return GPUConfig{
		MMIOBase: GPU_MMIO_BASE,
		VRAMBase: GPU_VRAM_BASE,
		VRAMSize: GPU_VRAM_SIZE,
		Display: DisplayConfig{
			Width:        GPU_DEFAULT_WIDTH,
			Height:       GPU_DEFAULT_HEIGHT,
			Pitch:        GPU_DEFAULT_PITCH,
			BitsPerPixel: GPU_DEFAULT_BPP,
		},
		Font: FontConfig{
			FontOffset:  GPU_FONT_OFFSET,
			GlyphWidth:  GPU_DEFAULT_FONTW,
			GlyphHeight: GPU_DEFAULT_FONTH,
		},
	}
}

// GPUStats counts dispatches and locally handled faults.
type GPUStats struct {
	Dispatched     uint64
	ConfigErrors   uint64
	ProtocolErrors uint64
	BoundsErrors   uint64
	VRAMWrites     uint64
	LastError      string
}

// GPUState is a point-in-time copy of everything the host may inspect.
type GPUState struct {
	Display        DisplayConfig
	Font           FontConfig
	PaletteOffset  uint32
	Status         uint32
	DispatchState  string
	PendingCommand string
	BufferedBytes  int
	NeededBytes    int
	Stats          GPUStats
}

type GPUChip struct {
	mutex sync.RWMutex

	cfg        GPUConfig
	regs       RegisterFile
	vram       *VideoMemory
	dispatcher *Dispatcher
	renderer   *Renderer

	stats      GPUStats
	diag       func(*GPUError)
	fontROM    []byte
	hasContent bool
}

func NewGPUChip(cfg GPUConfig) *GPUChip {
	if cfg.VRAMSize <= 0 {
		cfg.VRAMSize = GPU_VRAM_SIZE
	}
	chip := &GPUChip{
		cfg:  cfg,
		vram: NewVideoMemory(cfg.VRAMSize),
	}
	chip.renderer = NewRenderer(chip.vram, &chip.regs, chip.report)
	chip.dispatcher = NewDispatcher(chip.execute, chip.report)
	chip.regs.reset(cfg)
	return chip
}

// Config returns the memory map the chip was built with.
func (chip *GPUChip) Config() GPUConfig {
	return chip.cfg
}

// SetDiagnosticHandler installs fn to receive every locally handled fault.
// fn runs with the chip locked and must not call back into it.
func (chip *GPUChip) SetDiagnosticHandler(fn func(*GPUError)) {
	chip.mutex.Lock()
	defer chip.mutex.Unlock()
	chip.diag = fn
}

func (chip *GPUChip) report(err *GPUError) {
	switch {
	case errors.Is(err, ErrConfiguration):
		chip.stats.ConfigErrors++
	case errors.Is(err, ErrProtocol):
		chip.stats.ProtocolErrors++
	case errors.Is(err, ErrBounds):
		chip.stats.BoundsErrors++
	}
	chip.stats.LastError = err.Error()
	if chip.diag != nil {
		chip.diag(err)
	}
}

func (chip *GPUChip) execute(op uint16, params []byte) {
	chip.renderer.Execute(op, params)
	chip.stats.Dispatched++
	chip.hasContent = true
}

// HandleRead services a byte load from the register window.
func (chip *GPUChip) HandleRead(addr uint32) uint8 {
	chip.mutex.RLock()
	defer chip.mutex.RUnlock()

	off := addr - chip.cfg.MMIOBase
	switch {
	case off >= GPU_MMIO_SIZE:
		return 0
	case off >= GPU_REG_STATUS && off < GPU_REG_STATUS+4:
		return lane32(chip.dispatcher.status(), off-GPU_REG_STATUS)
	case off >= GPU_REG_CMD && off <= GPU_REG_PARAM_END:
		return 0 // write only
	}
	return chip.regs.read8(off)
}

// HandleWrite services a byte store to the register window. CMD and PARAM
// stores feed the dispatcher; everything else lands in the register file.
func (chip *GPUChip) HandleWrite(addr uint32, value uint8) {
	chip.mutex.Lock()
	defer chip.mutex.Unlock()

	off := addr - chip.cfg.MMIOBase
	switch {
	case off >= GPU_MMIO_SIZE:
		return
	case off == GPU_REG_CMD || off == GPU_REG_CMD+1:
		chip.dispatcher.WriteCommandByte(off-GPU_REG_CMD, value)
	case off >= GPU_REG_PARAM && off <= GPU_REG_PARAM_END:
		chip.dispatcher.WriteParamByte(value)
	case off >= GPU_REG_STATUS && off < GPU_REG_STATUS+4:
		// read only
	default:
		chip.regs.write8(off, value)
	}
}

// HandleVRAMRead services a byte load from the video memory window.
func (chip *GPUChip) HandleVRAMRead(addr uint32) uint8 {
	chip.mutex.RLock()
	defer chip.mutex.RUnlock()

	v, _ := chip.vram.Read8(addr - chip.cfg.VRAMBase)
	return v
}

// HandleVRAMWrite services a byte store to the video memory window.
func (chip *GPUChip) HandleVRAMWrite(addr uint32, value uint8) {
	chip.mutex.Lock()
	defer chip.mutex.Unlock()

	if chip.vram.Write8(addr-chip.cfg.VRAMBase, value) {
		chip.stats.VRAMWrites++
		chip.hasContent = true
	}
}

// LoadVRAM copies host data such as a font ROM or tile set into video memory.
func (chip *GPUChip) LoadVRAM(offset uint32, data []byte) error {
	chip.mutex.Lock()
	defer chip.mutex.Unlock()
	return chip.vram.Load(offset, data)
}

// InstallFontROM loads rom at the configured font offset and keeps a copy so
// Reset restores it.
func (chip *GPUChip) InstallFontROM(rom []byte) error {
	chip.mutex.Lock()
	defer chip.mutex.Unlock()

	if err := chip.vram.Load(chip.cfg.Font.FontOffset, rom); err != nil {
		return fmt.Errorf("install font rom: %w", err)
	}
	chip.fontROM = append(chip.fontROM[:0], rom...)
	return nil
}

// Snapshot returns a consistent copy of the chip state.
func (chip *GPUChip) Snapshot() GPUState {
	chip.mutex.RLock()
	defer chip.mutex.RUnlock()

	d := chip.dispatcher
	state := GPUState{
		Display:       chip.regs.display,
		Font:          chip.regs.font,
		PaletteOffset: chip.regs.paletteOffset,
		Status:        d.status(),
		DispatchState: d.state.String(),
		BufferedBytes: d.stream.Len(),
		Stats:         chip.stats,
	}
	if d.Pending() {
		state.PendingCommand = d.spec.name
		state.NeededBytes = d.need
	}
	return state
}

// HasContent reports whether the guest has drawn anything since reset.
func (chip *GPUChip) HasContent() bool {
	chip.mutex.RLock()
	defer chip.mutex.RUnlock()
	return chip.hasContent
}

// Pixel returns the stored ARGB value of visible pixel (x, y).
func (chip *GPUChip) Pixel(x, y int) (uint32, bool) {
	chip.mutex.RLock()
	defer chip.mutex.RUnlock()

	d := chip.regs.display
	if x < 0 || y < 0 || x >= int(d.Width) || y >= int(d.Height) {
		return 0, false
	}
	return chip.vram.pixel(pixelOffset(d, x, y))
}

// FrameRGBA converts the visible framebuffer to an opaque RGBA image. An
// undrawable geometry yields a black frame of the programmed size.
func (chip *GPUChip) FrameRGBA() *image.RGBA {
	chip.mutex.RLock()
	defer chip.mutex.RUnlock()

	d := chip.regs.display
	img := image.NewRGBA(image.Rect(0, 0, int(d.Width), int(d.Height)))
	chip.copyFrameLocked(d, img.Pix)
	return img
}

// CopyFrame writes the visible framebuffer as RGBA bytes into dst, which
// must hold width*height*4 bytes, and returns the geometry used.
func (chip *GPUChip) CopyFrame(dst []byte) (int, int) {
	chip.mutex.RLock()
	defer chip.mutex.RUnlock()

	d := chip.regs.display
	if len(dst) < int(d.Width)*int(d.Height)*4 {
		return 0, 0
	}
	chip.copyFrameLocked(d, dst)
	return int(d.Width), int(d.Height)
}

func (chip *GPUChip) copyFrameLocked(d DisplayConfig, pix []byte) {
	w, h := int(d.Width), int(d.Height)
	if d.validate("FRAME") != nil {
		for i := 0; i < w*h; i++ {
			pix[i*4], pix[i*4+1], pix[i*4+2], pix[i*4+3] = 0, 0, 0, 0xFF
		}
		return
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			argb, _ := chip.vram.pixel(pixelOffset(d, x, y))
			i := (y*w + x) * 4
			pix[i] = uint8(argb >> 16)
			pix[i+1] = uint8(argb >> 8)
			pix[i+2] = uint8(argb)
			pix[i+3] = 0xFF
		}
	}
}
