// gpu_registers.go - GPU register file (geometry, framebuffer and font configuration)

package main

// DisplayConfig is the framebuffer geometry programmed by the guest.
type DisplayConfig struct {
	Width             uint16
	Height            uint16
	Pitch             uint16 // pixels per row, may exceed Width
	BitsPerPixel      uint8
	FramebufferOffset uint32 // byte offset of row 0 inside VRAM
}

// FontConfig locates the 1bpp bitmap font inside VRAM.
type FontConfig struct {
	FontOffset  uint32
	GlyphWidth  uint8
	GlyphHeight uint8
}

// RowBytes returns the number of bytes per glyph row (MSB first).
func (f FontConfig) RowBytes() int {
	return (int(f.GlyphWidth) + 7) / 8
}

// GlyphBytes returns the size of one glyph bitmap.
func (f FontConfig) GlyphBytes() int {
	return f.RowBytes() * int(f.GlyphHeight)
}

// GlyphOffset returns the VRAM offset of the bitmap for character code c.
func (f FontConfig) GlyphOffset(c uint16) int {
	return int(f.FontOffset) + int(c)*f.GlyphBytes()
}

// validate reports why the geometry cannot be drawn into, or nil.
func (d DisplayConfig) validate(op string) *GPUError {
	switch {
	case d.BitsPerPixel != GPU_DEFAULT_BPP:
		return configError(op, "unsupported bpp %d", d.BitsPerPixel)
	case d.Width == 0 || d.Height == 0:
		return configError(op, "empty geometry %dx%d", d.Width, d.Height)
	case d.Pitch == 0:
		return configError(op, "zero pitch")
	case d.Pitch < d.Width:
		return configError(op, "pitch %d smaller than width %d", d.Pitch, d.Width)
	}
	return nil
}

func (f FontConfig) validate(op string) *GPUError {
	if f.GlyphWidth == 0 || f.GlyphHeight == 0 {
		return configError(op, "empty glyph %dx%d", f.GlyphWidth, f.GlyphHeight)
	}
	return nil
}

// RegisterFile holds every guest-writable configuration register. All
// fields are byte-lane addressable; wider accesses are composed by the bus.
type RegisterFile struct {
	display       DisplayConfig
	font          FontConfig
	paletteOffset uint32
}

func (r *RegisterFile) reset(cfg GPUConfig) {
	r.display = cfg.Display
	r.font = cfg.Font
	r.paletteOffset = 0
}

// write8 stores one byte. It returns false when the offset does not belong
// to a configuration register, leaving the caller to route it elsewhere.
func (r *RegisterFile) write8(off uint32, value uint8) bool {
	switch {
	case off == GPU_REG_WIDTH || off == GPU_REG_WIDTH+1:
		setLane16(&r.display.Width, off-GPU_REG_WIDTH, value)
	case off == GPU_REG_HEIGHT || off == GPU_REG_HEIGHT+1:
		setLane16(&r.display.Height, off-GPU_REG_HEIGHT, value)
	case off == GPU_REG_PITCH || off == GPU_REG_PITCH+1:
		setLane16(&r.display.Pitch, off-GPU_REG_PITCH, value)
	case off == GPU_REG_BPP:
		r.display.BitsPerPixel = value
	case off >= GPU_REG_FBADDR && off < GPU_REG_FBADDR+4:
		setLane32(&r.display.FramebufferOffset, off-GPU_REG_FBADDR, value)
	case off >= GPU_REG_FONTADDR && off < GPU_REG_FONTADDR+4:
		setLane32(&r.font.FontOffset, off-GPU_REG_FONTADDR, value)
	case off == GPU_REG_FONTW:
		r.font.GlyphWidth = value
	case off == GPU_REG_FONTH:
		r.font.GlyphHeight = value
	case off >= GPU_REG_PALADDR && off < GPU_REG_PALADDR+4:
		setLane32(&r.paletteOffset, off-GPU_REG_PALADDR, value)
	default:
		return false
	}
	return true
}

// read8 returns one byte of a configuration register, 0 for anything else.
func (r *RegisterFile) read8(off uint32) uint8 {
	switch {
	case off == GPU_REG_WIDTH || off == GPU_REG_WIDTH+1:
		return lane16(r.display.Width, off-GPU_REG_WIDTH)
	case off == GPU_REG_HEIGHT || off == GPU_REG_HEIGHT+1:
		return lane16(r.display.Height, off-GPU_REG_HEIGHT)
	case off == GPU_REG_PITCH || off == GPU_REG_PITCH+1:
		return lane16(r.display.Pitch, off-GPU_REG_PITCH)
	case off == GPU_REG_BPP:
		return r.display.BitsPerPixel
	case off >= GPU_REG_FBADDR && off < GPU_REG_FBADDR+4:
		return lane32(r.display.FramebufferOffset, off-GPU_REG_FBADDR)
	case off >= GPU_REG_FONTADDR && off < GPU_REG_FONTADDR+4:
		return lane32(r.font.FontOffset, off-GPU_REG_FONTADDR)
	case off == GPU_REG_FONTW:
		return r.font.GlyphWidth
	case off == GPU_REG_FONTH:
		return r.font.GlyphHeight
	case off >= GPU_REG_PALADDR && off < GPU_REG_PALADDR+4:
		return lane32(r.paletteOffset, off-GPU_REG_PALADDR)
	}
	return 0
}

func setLane16(reg *uint16, lane uint32, value uint8) {
	shift := lane * 8
	*reg = (*reg &^ (0xFF << shift)) | uint16(value)<<shift
}

func setLane32(reg *uint32, lane uint32, value uint8) {
	shift := lane * 8
	*reg = (*reg &^ (0xFF << shift)) | uint32(value)<<shift
}

func lane16(reg uint16, lane uint32) uint8 {
	return uint8(reg >> (lane * 8))
}

func lane32(reg uint32, lane uint32) uint8 {
	return uint8(reg >> (lane * 8))
}
