// gpu_render.go - Rendering engine: clears, gradients and bitmap text

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

import "encoding/binary"

// Renderer executes dispatched commands against video memory using the
// geometry currently held in the register file. Every write is clipped to
// the visible region and to the VRAM extent.
type Renderer struct {
	vram   *VideoMemory
	regs   *RegisterFile
	report func(*GPUError)

	op      string // Command being executed, for diagnostics
	clipped int    // Pixel writes dropped because they fell outside VRAM

	rowBuf    []uint32
	topBuf    []uint32
	bottomBuf []uint32
	glyphBuf  []byte
	copyBuf   []byte
}

func NewRenderer(vram *VideoMemory, regs *RegisterFile, report func(*GPUError)) *Renderer {
	return &Renderer{
		vram:   vram,
		regs:   regs,
		report: report,
	}
}

// Execute decodes a complete parameter block and runs the command.
func (r *Renderer) Execute(op uint16, params []byte) {
	p := &paramReader{data: params}
	r.op = CommandName(op)
	r.clipped = 0

	switch op {
	case GPU_CMD_CLEAR:
		r.Clear(p.u32())

	case GPU_CMD_GRAD_X:
		left := p.u32()
		right := p.u32()
		r.GradX(left, right)

	case GPU_CMD_GRAD_Y:
		top := p.u32()
		bottom := p.u32()
		r.GradY(top, bottom)

	case GPU_CMD_GRAD_XY:
		c00 := p.u32() // top-left
		c10 := p.u32() // top-right
		c01 := p.u32() // bottom-left
		c11 := p.u32() // bottom-right
		r.GradXY(c00, c10, c01, c11)

	case GPU_CMD_PUTCHAR:
		x := p.u16()
		y := p.u16()
		ch := p.u16()
		fg := p.u32()
		bg := p.u32()
		r.Puts(x, y, fg, bg, []uint16{ch})

	case GPU_CMD_PUTS:
		x := p.u16()
		y := p.u16()
		n := p.u16()
		fg := p.u32()
		bg := p.u32()
		codes := make([]uint16, n)
		for i := range codes {
			codes[i] = p.u16()
		}
		r.Puts(x, y, fg, bg, codes)

	case GPU_CMD_FILLRECT:
		x := p.u16()
		y := p.u16()
		w := p.u16()
		h := p.u16()
		r.FillRect(x, y, w, h, p.u32())

	case GPU_CMD_RECT_OUTLINE:
		x := p.u16()
		y := p.u16()
		w := p.u16()
		h := p.u16()
		r.RectOutline(x, y, w, h, p.u32())

	case GPU_CMD_LINE:
		x0 := p.u16()
		y0 := p.u16()
		x1 := p.u16()
		y1 := p.u16()
		r.Line(x0, y0, x1, y1, p.u32())

	case GPU_CMD_BLIT:
		src := p.u32()
		srcW := p.u16()
		srcH := p.u16()
		dstX := p.u16()
		dstY := p.u16()
		r.Blit(src, srcW, srcH, dstX, dstY)

	case GPU_CMD_BLIT_TILEMAP:
		tilemap := p.u32()
		mapW := p.u16()
		mapH := p.u16()
		tileW := p.u16()
		tileH := p.u16()
		tileset := p.u32()
		r.BlitTilemap(tilemap, mapW, mapH, tileW, tileH, tileset)
	}

	if r.clipped > 0 {
		r.report(boundsError(r.op, "skipped %d pixel writes outside %d byte VRAM", r.clipped, r.vram.Len()))
	}
}

// display returns the current geometry, or false after reporting why it
// cannot be drawn into.
func (r *Renderer) display() (DisplayConfig, bool) {
	d := r.regs.display
	if err := d.validate(r.op); err != nil {
		r.report(err)
		return d, false
	}
	return d, true
}

func pixelOffset(d DisplayConfig, x, y int) int {
	return int(d.FramebufferOffset) + (y*int(d.Pitch)+x)*GPU_BYTES_PER_PIXEL
}

// plot writes a single pixel, clipped to the visible region and VRAM.
func (r *Renderer) plot(d DisplayConfig, x, y int, color uint32) {
	if x < 0 || y < 0 || x >= int(d.Width) || y >= int(d.Height) {
		return
	}
	if !r.vram.putPixel(pixelOffset(d, x, y), color) {
		r.clipped++
	}
}

// writeRow stores colors starting at (x, y). The caller has already clipped
// the run to the visible region.
func (r *Renderer) writeRow(d DisplayConfig, x, y int, colors []uint32) {
	off := pixelOffset(d, x, y)
	if row, ok := r.vram.span(off, len(colors)*GPU_BYTES_PER_PIXEL); ok {
		for i, c := range colors {
			binary.LittleEndian.PutUint32(row[i*GPU_BYTES_PER_PIXEL:], c)
		}
		return
	}
	for i, c := range colors {
		if !r.vram.putPixel(off+i*GPU_BYTES_PER_PIXEL, c) {
			r.clipped++
		}
	}
}

func (r *Renderer) row(n int) []uint32 {
	if cap(r.rowBuf) < n {
		r.rowBuf = make([]uint32, n)
	}
	return r.rowBuf[:n]
}

func fillColor(buf []uint32, color uint32) {
	for i := range buf {
		buf[i] = color
	}
}

// Clear writes color as-is to every visible pixel.
func (r *Renderer) Clear(color uint32) {
	d, ok := r.display()
	if !ok {
		return
	}
	row := r.row(int(d.Width))
	fillColor(row, color)
	for y := 0; y < int(d.Height); y++ {
		r.writeRow(d, 0, y, row)
	}
}

// lerpChannel returns a + (b-a)*num/den with floor division, 0 <= num <= den.
func lerpChannel(a, b uint32, num, den int) uint32 {
	return uint32((int(a)*(den-num) + int(b)*num) / den)
}

// lerpRGB interpolates the red, green and blue channels of two ARGB colours.
// Alpha is not interpolated; the result is always opaque.
func lerpRGB(a, b uint32, num, den int) uint32 {
	red := lerpChannel((a>>16)&0xFF, (b>>16)&0xFF, num, den)
	green := lerpChannel((a>>8)&0xFF, (b>>8)&0xFF, num, den)
	blue := lerpChannel(a&0xFF, b&0xFF, num, den)
	return GPU_ALPHA_OPAQUE | red<<16 | green<<8 | blue
}

// GradX paints a horizontal gradient, column x using x/width.
func (r *Renderer) GradX(left, right uint32) {
	d, ok := r.display()
	if !ok {
		return
	}
	w := int(d.Width)
	row := r.row(w)
	for x := range row {
		row[x] = lerpRGB(left, right, x, w)
	}
	for y := 0; y < int(d.Height); y++ {
		r.writeRow(d, 0, y, row)
	}
}

// GradY paints a vertical gradient, row y using y/height.
func (r *Renderer) GradY(top, bottom uint32) {
	d, ok := r.display()
	if !ok {
		return
	}
	h := int(d.Height)
	row := r.row(int(d.Width))
	for y := 0; y < h; y++ {
		fillColor(row, lerpRGB(top, bottom, y, h))
		r.writeRow(d, 0, y, row)
	}
}

// GradXY paints a bilinear gradient between four corner colours.
func (r *Renderer) GradXY(c00, c10, c01, c11 uint32) {
	d, ok := r.display()
	if !ok {
		return
	}
	w, h := int(d.Width), int(d.Height)
	if cap(r.topBuf) < w {
		r.topBuf = make([]uint32, w)
		r.bottomBuf = make([]uint32, w)
	}
	top, bottom := r.topBuf[:w], r.bottomBuf[:w]
	for x := 0; x < w; x++ {
		top[x] = lerpRGB(c00, c10, x, w)
		bottom[x] = lerpRGB(c01, c11, x, w)
	}

	row := r.row(w)
	for y := 0; y < h; y++ {
		for x := range row {
			row[x] = lerpRGB(top[x], bottom[x], y, h)
		}
		r.writeRow(d, 0, y, row)
	}
}

// Puts draws glyphs left to right starting at (x, y), one glyphWidth cell
// per code, without wrapping.
func (r *Renderer) Puts(x, y uint16, fg, bg uint32, codes []uint16) {
	if len(codes) == 0 {
		return
	}
	d, ok := r.display()
	if !ok {
		return
	}
	f := r.regs.font
	if err := f.validate(r.op); err != nil {
		r.report(err)
		return
	}

	for i, code := range codes {
		cx := int(x) + i*int(f.GlyphWidth)
		if cx >= int(d.Width) {
			break
		}
		r.drawGlyph(d, f, cx, int(y), code, fg, bg)
	}
}

// drawGlyph blits one 1bpp glyph, MSB first. A glyph whose bitmap lies
// outside VRAM is skipped entirely so neighbouring cells stay intact.
func (r *Renderer) drawGlyph(d DisplayConfig, f FontConfig, x, y int, code uint16, fg, bg uint32) {
	src, ok := r.vram.span(f.GlyphOffset(code), f.GlyphBytes())
	if !ok {
		r.report(boundsError(r.op, "glyph $%04X at $%08X outside VRAM", code, f.GlyphOffset(code)))
		return
	}
	// The framebuffer may overlap the font, so read the bitmap up front.
	r.glyphBuf = append(r.glyphBuf[:0], src...)

	rowBytes := f.RowBytes()
	for gy := 0; gy < int(f.GlyphHeight); gy++ {
		bits := r.glyphBuf[gy*rowBytes : (gy+1)*rowBytes]
		for gx := 0; gx < int(f.GlyphWidth); gx++ {
			color := bg
			if bits[gx>>3]&(0x80>>(gx&7)) != 0 {
				color = fg
			}
			r.plot(d, x+gx, y+gy, color)
		}
	}
}
