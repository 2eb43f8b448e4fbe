// gpu_render_shapes.go - Rectangles, lines and blits

package main

import "encoding/binary"

// clipSpan clamps [start, start+n) to [0, limit) and returns the visible
// start and length.
func clipSpan(start, n, limit int) (int, int) {
	end := start + n
	if end > limit {
		end = limit
	}
	if start >= end {
		return start, 0
	}
	return start, end - start
}

// FillRect paints a solid rectangle clipped to the visible region.
func (r *Renderer) FillRect(x, y, w, h uint16, color uint32) {
	d, ok := r.display()
	if !ok {
		return
	}
	x0, cw := clipSpan(int(x), int(w), int(d.Width))
	y0, ch := clipSpan(int(y), int(h), int(d.Height))
	if cw == 0 || ch == 0 {
		return
	}
	row := r.row(cw)
	fillColor(row, color)
	for yy := y0; yy < y0+ch; yy++ {
		r.writeRow(d, x0, yy, row)
	}
}

// RectOutline draws a one pixel border around the w x h rectangle at (x, y).
func (r *Renderer) RectOutline(x, y, w, h uint16, color uint32) {
	d, ok := r.display()
	if !ok {
		return
	}
	if w == 0 || h == 0 {
		return
	}
	x0, y0 := int(x), int(y)
	x1, y1 := x0+int(w)-1, y0+int(h)-1
	for xx := x0; xx <= x1; xx++ {
		r.plot(d, xx, y0, color)
		r.plot(d, xx, y1, color)
	}
	for yy := y0 + 1; yy < y1; yy++ {
		r.plot(d, x0, yy, color)
		r.plot(d, x1, yy, color)
	}
}

// Line draws from (x0, y0) to (x1, y1) inclusive using Bresenham's algorithm.
func (r *Renderer) Line(x0, y0, x1, y1 uint16, color uint32) {
	d, ok := r.display()
	if !ok {
		return
	}
	ax, ay := int(x0), int(y0)
	bx, by := int(x1), int(y1)

	dx := bx - ax
	if dx < 0 {
		dx = -dx
	}
	dy := by - ay
	if dy > 0 {
		dy = -dy
	}
	sx, sy := 1, 1
	if ax > bx {
		sx = -1
	}
	if ay > by {
		sy = -1
	}

	e := dx + dy
	for {
		r.plot(d, ax, ay, color)
		if ax == bx && ay == by {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			ax += sx
		}
		if e2 <= dx {
			e += dx
			ay += sy
		}
	}
}

// Blit copies a packed srcW x srcH ARGB image from VRAM offset src to
// (dstX, dstY). Each source row is read before its destination row is
// written, so overlapping regions copy as if through a row buffer.
func (r *Renderer) Blit(src uint32, srcW, srcH, dstX, dstY uint16) {
	d, ok := r.display()
	if !ok {
		return
	}
	dx, cw := clipSpan(int(dstX), int(srcW), int(d.Width))
	dy, ch := clipSpan(int(dstY), int(srcH), int(d.Height))
	if cw == 0 || ch == 0 {
		return
	}

	stride := int(srcW) * GPU_BYTES_PER_PIXEL
	for j := 0; j < ch; j++ {
		srcOff := int(src) + j*stride
		if !r.copyRow(d, srcOff, dx, dy+j, cw) {
			r.report(boundsError(r.op, "source row %d at $%08X outside VRAM", j, srcOff))
		}
	}
}

// BlitTilemap draws a mapW x mapH grid of u16 tile indices from the
// framebuffer origin. Tile n is a packed tileW x tileH ARGB image at
// tileset + n*tileW*tileH*4.
func (r *Renderer) BlitTilemap(tilemap uint32, mapW, mapH, tileW, tileH uint16, tileset uint32) {
	d, ok := r.display()
	if !ok {
		return
	}
	if tileW == 0 || tileH == 0 {
		return
	}
	tw, th := int(tileW), int(tileH)
	tileBytes := tw * th * GPU_BYTES_PER_PIXEL

	for my := 0; my < int(mapH); my++ {
		ty := my * th
		if ty >= int(d.Height) {
			break
		}
		for mx := 0; mx < int(mapW); mx++ {
			tx := mx * tw
			if tx >= int(d.Width) {
				break
			}
			entryOff := int(tilemap) + (my*int(mapW)+mx)*2
			entry, ok := r.vram.span(entryOff, 2)
			if !ok {
				r.report(boundsError(r.op, "map entry (%d,%d) at $%08X outside VRAM", mx, my, entryOff))
				continue
			}
			tile := int(binary.LittleEndian.Uint16(entry))
			r.drawTile(d, int(tileset)+tile*tileBytes, tx, ty, tw, th, tile)
		}
	}
}

func (r *Renderer) drawTile(d DisplayConfig, srcOff, x, y, tw, th, tile int) {
	_, cw := clipSpan(x, tw, int(d.Width))
	_, ch := clipSpan(y, th, int(d.Height))
	if !r.vram.contains(srcOff, tw*th*GPU_BYTES_PER_PIXEL) {
		r.report(boundsError(r.op, "tile %d at $%08X outside VRAM", tile, srcOff))
		return
	}
	for j := 0; j < ch; j++ {
		r.copyRow(d, srcOff+j*tw*GPU_BYTES_PER_PIXEL, x, y+j, cw)
	}
}

// copyRow moves n pixels from VRAM offset srcOff to visible (x, y). It
// reports false when the source run is outside VRAM.
func (r *Renderer) copyRow(d DisplayConfig, srcOff, x, y, n int) bool {
	src, ok := r.vram.span(srcOff, n*GPU_BYTES_PER_PIXEL)
	if !ok {
		return false
	}
	r.copyBuf = append(r.copyBuf[:0], src...)

	dstOff := pixelOffset(d, x, y)
	if dst, ok := r.vram.span(dstOff, len(r.copyBuf)); ok {
		copy(dst, r.copyBuf)
		return true
	}
	for i := 0; i < n; i++ {
		color := binary.LittleEndian.Uint32(r.copyBuf[i*GPU_BYTES_PER_PIXEL:])
		if !r.vram.putPixel(dstOff+i*GPU_BYTES_PER_PIXEL, color) {
			r.clipped++
		}
	}
	return true
}
