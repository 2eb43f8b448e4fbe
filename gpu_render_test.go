package main

import (
	"testing"
)

func channel(c uint32, shift uint) int {
	return int((c >> shift) & 0xFF)
}

func TestRender_ClearFillsFrame(t *testing.T) {
	rig := newGPURig(t)
	rig.issue(GPU_CMD_CLEAR, paramBuilder{}.u32(0xFF000000))

	for y := 0; y < GPU_DEFAULT_HEIGHT; y++ {
		for x := 0; x < GPU_DEFAULT_WIDTH; x++ {
			if got := rig.pixel(x, y); got != 0xFF000000 {
				t.Fatalf("pixel (%d,%d) = 0x%08X, want 0xFF000000", x, y, got)
			}
		}
	}
}

func TestRender_ClearKeepsAlpha(t *testing.T) {
	rig := newGPURig(t)
	rig.issue(GPU_CMD_CLEAR, paramBuilder{}.u32(0x00336699))
	if got := rig.pixel(10, 10); got != 0x00336699 {
		t.Fatalf("pixel = 0x%08X, want colour stored as written", got)
	}
	// Presentation forces opacity.
	img := rig.chip.FrameRGBA()
	if c := img.RGBAAt(10, 10); c.R != 0x33 || c.G != 0x66 || c.B != 0x99 || c.A != 0xFF {
		t.Fatalf("frame pixel %+v, want {33 66 99 FF}", c)
	}
}

func TestRender_GradXFloorsAtNarrowWidth(t *testing.T) {
	rig := newGPURig(t)
	rig.setDisplay(4, 1, 4)
	rig.issue(GPU_CMD_GRAD_X, paramBuilder{}.u32(0xFF000000).u32(0xFF0000FF))

	for x := 0; x < 4; x++ {
		got := rig.pixel(x, 0)
		wantBlue := 0xFF * x / 4
		if channel(got, 16) != 0 || channel(got, 8) != 0 {
			t.Fatalf("column %d = 0x%08X, red and green should stay 0", x, got)
		}
		if channel(got, 0) != wantBlue {
			t.Fatalf("column %d blue = %d, want %d", x, channel(got, 0), wantBlue)
		}
		if got>>24 != 0xFF {
			t.Fatalf("column %d alpha = 0x%02X, want 0xFF", x, got>>24)
		}
	}
}

func TestRender_GradXMonotonic(t *testing.T) {
	rig := newGPURig(t)
	rig.issue(GPU_CMD_GRAD_X, paramBuilder{}.u32(0xFF0000FF).u32(0xFFFF8000))

	prev := rig.pixel(0, 0)
	if prev != 0xFF0000FF {
		t.Fatalf("column 0 = 0x%08X, want left colour", prev)
	}
	for x := 1; x < GPU_DEFAULT_WIDTH; x++ {
		cur := rig.pixel(x, 100)
		if channel(cur, 16) < channel(prev, 16) || channel(cur, 8) < channel(prev, 8) || channel(cur, 0) > channel(prev, 0) {
			t.Fatalf("column %d 0x%08X not monotonic after 0x%08X", x, cur, prev)
		}
		if rig.pixel(x, 0) != rig.pixel(x, GPU_DEFAULT_HEIGHT-1) {
			t.Fatalf("column %d differs between rows", x)
		}
		prev = cur
	}
}

func TestRender_GradY(t *testing.T) {
	rig := newGPURig(t)
	rig.setDisplay(8, 4, 8)
	rig.issue(GPU_CMD_GRAD_Y, paramBuilder{}.u32(0xFF000000).u32(0xFF00FF00))

	for y := 0; y < 4; y++ {
		want := uint32(0xFF000000) | uint32(0xFF*y/4)<<8
		for x := 0; x < 8; x++ {
			if got := rig.pixel(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = 0x%08X, want 0x%08X", x, y, got, want)
			}
		}
	}
}

func TestRender_GradXYCorners(t *testing.T) {
	rig := newGPURig(t)
	rig.setDisplay(100, 100, 100)
	rig.issue(GPU_CMD_GRAD_XY, paramBuilder{}.
		u32(0xFF000000).u32(0xFFFF0000).
		u32(0xFF00FF00).u32(0xFF0000FF))

	tests := []struct {
		x, y    int
		r, g, b int
	}{
		{0, 0, 0, 0, 0},
		{99, 0, 255, 0, 0},
		{0, 99, 0, 255, 0},
		{99, 99, 0, 0, 255},
	}
	const tol = 8
	for _, tc := range tests {
		got := rig.pixel(tc.x, tc.y)
		for _, ch := range []struct {
			name  string
			shift uint
			want  int
		}{{"red", 16, tc.r}, {"green", 8, tc.g}, {"blue", 0, tc.b}} {
			if d := channel(got, ch.shift) - ch.want; d > tol || d < -tol {
				t.Fatalf("corner (%d,%d) %s = %d, want %d±%d", tc.x, tc.y, ch.name, channel(got, ch.shift), ch.want, tol)
			}
		}
	}
	if got := rig.pixel(0, 0); got != 0xFF000000 {
		t.Fatalf("origin = 0x%08X, want exact top-left colour", got)
	}
}

func TestRender_LaterCommandOverwrites(t *testing.T) {
	rig := newGPURig(t)
	rig.issue(GPU_CMD_CLEAR, paramBuilder{}.u32(0xFFABCDEF))
	rig.issue(GPU_CMD_GRAD_X, paramBuilder{}.u32(0xFF000000).u32(0xFF0000FF))

	ref := newGPURig(t)
	ref.issue(GPU_CMD_GRAD_X, paramBuilder{}.u32(0xFF000000).u32(0xFF0000FF))

	for y := 0; y < GPU_DEFAULT_HEIGHT; y += 7 {
		for x := 0; x < GPU_DEFAULT_WIDTH; x += 3 {
			if got, want := rig.pixel(x, y), ref.pixel(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = 0x%08X, want GRAD_X only 0x%08X", x, y, got, want)
			}
		}
	}
}

func TestRender_CommandFirstMatchesParamsFirst(t *testing.T) {
	first := newGPURig(t)
	first.issue(GPU_CMD_CLEAR, paramBuilder{}.u32(0xFF336699))

	late := newGPURig(t)
	late.cmd(GPU_CMD_CLEAR)
	p := paramBuilder{}.u32(0xFF336699)
	late.params(p[:3])
	if got := late.chip.Snapshot().Stats.Dispatched; got != 0 {
		t.Fatalf("dispatched %d commands before the 4th byte", got)
	}
	late.params(p[3:])

	if a, b := first.chip.FrameRGBA(), late.chip.FrameRGBA(); string(a.Pix) != string(b.Pix) {
		t.Fatal("framebuffers differ between parameter orderings")
	}
}

func TestRender_PitchAndFramebufferOffset(t *testing.T) {
	rig := newGPURig(t)
	rig.setDisplay(4, 2, 6)
	rig.bus.Write32(rig.reg(GPU_REG_FBADDR), 0x100)
	rig.issue(GPU_CMD_CLEAR, paramBuilder{}.u32(0xFF112233))

	vram := func(off uint32) uint32 {
		return rig.bus.Read32(GPU_VRAM_BASE + off)
	}
	if got := vram(0x100); got != 0xFF112233 {
		t.Fatalf("first pixel = 0x%08X, want at FBADDR", got)
	}
	if got := vram(0x0FC); got != 0 {
		t.Fatalf("byte before FBADDR written: 0x%08X", got)
	}
	// Pixels 4 and 5 of each row are pitch padding.
	if got := vram(0x100 + 4*4); got != 0 {
		t.Fatalf("pitch padding written: 0x%08X", got)
	}
	if got := vram(0x100 + 6*4); got != 0xFF112233 {
		t.Fatalf("row 1 = 0x%08X, want cleared", got)
	}
}

func TestRender_InvalidGeometryIsNoOp(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *gpuRig)
	}{
		{"pitch below width", func(r *gpuRig) { r.setDisplay(32, 8, 16) }},
		{"16 bpp", func(r *gpuRig) { r.bus.Write8(r.reg(GPU_REG_BPP), 16) }},
		{"zero width", func(r *gpuRig) { r.setDisplay(0, 8, 8) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rig := newGPURig(t)
			tc.setup(rig)
			rig.issue(GPU_CMD_CLEAR, paramBuilder{}.u32(0xFFFFFFFF))

			if got := rig.bus.Read32(GPU_VRAM_BASE); got != 0 {
				t.Fatalf("VRAM written under invalid geometry: 0x%08X", got)
			}
			if rig.count(ErrConfiguration) != 1 {
				t.Fatalf("diagnostics %v, want one configuration error", rig.errs)
			}
			if rig.chip.Snapshot().Stats.Dispatched != 1 {
				t.Fatal("command was not consumed")
			}
		})
	}
}

func TestRender_VRAMOverrunReportedOnce(t *testing.T) {
	rig := newGPURig(t)
	rig.bus.Write32(rig.reg(GPU_REG_FBADDR), GPU_VRAM_SIZE-GPU_DEFAULT_WIDTH*4*10)
	rig.issue(GPU_CMD_CLEAR, paramBuilder{}.u32(0xFF00FF00))

	if rig.pixel(0, 0) != 0xFF00FF00 || rig.pixel(GPU_DEFAULT_WIDTH-1, 9) != 0xFF00FF00 {
		t.Fatal("rows inside VRAM were not cleared")
	}
	if _, ok := rig.chip.Pixel(0, 10); ok {
		t.Fatal("row 10 should lie past the end of VRAM")
	}
	if n := rig.count(ErrBounds); n != 1 {
		t.Fatalf("bounds errors %d, want 1 for the whole command", n)
	}
}

func TestRender_Puts(t *testing.T) {
	rig := newGPURig(t)
	rig.setDisplay(32, 8, 32)
	rig.loadFont(map[uint16][]byte{
		'A': {0xFF, 0x81, 0x81, 0x81, 0x81, 0x81, 0x81, 0xFF},
		'B': {0x80, 0x40, 0x20, 0x10, 0x08, 0x04, 0x02, 0x01},
	}, 8, 8)

	const fg, bg = 0xFFFFFFFF, 0xFF000080
	rig.issue(GPU_CMD_PUTS, putsParams(0, 0, fg, bg, "AB"))

	tests := []struct {
		x, y int
		want uint32
	}{
		{0, 0, fg}, {7, 0, fg}, {3, 3, bg}, {0, 4, fg}, // A box
		{8, 0, fg}, {9, 1, fg}, {9, 0, bg}, {15, 7, fg}, // B diagonal
		{16, 0, 0}, // nothing past the string
	}
	for _, tc := range tests {
		if got := rig.pixel(tc.x, tc.y); got != tc.want {
			t.Fatalf("pixel (%d,%d) = 0x%08X, want 0x%08X", tc.x, tc.y, got, tc.want)
		}
	}
	if len(rig.errs) != 0 {
		t.Fatalf("unexpected diagnostics %v", rig.errs)
	}
}

func TestRender_PutsSkipsUnmappedGlyph(t *testing.T) {
	rig := newGPURig(t)
	rig.setDisplay(24, 8, 24)

	fontAddr := uint32(GPU_VRAM_SIZE - 0x1000)
	rig.bus.Write32(rig.reg(GPU_REG_FONTADDR), fontAddr)
	solid := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	if err := rig.chip.LoadVRAM(fontAddr+'A'*8, solid); err != nil {
		t.Fatal(err)
	}

	// Code 0x300 lands past the end of VRAM.
	p := paramBuilder{}.u16(0).u16(0).u16(3).u32(0xFFFFFFFF).u32(0xFF000000).
		u16('A').u16(0x300).u16('A')
	rig.issue(GPU_CMD_PUTS, p)

	for _, x := range []int{0, 7, 16, 23} {
		if got := rig.pixel(x, 4); got != 0xFFFFFFFF {
			t.Fatalf("neighbour glyph pixel %d = 0x%08X, want drawn", x, got)
		}
	}
	for x := 8; x < 16; x++ {
		if got := rig.pixel(x, 4); got != 0 {
			t.Fatalf("skipped glyph cell pixel %d = 0x%08X, want untouched", x, got)
		}
	}
	if rig.count(ErrBounds) != 1 {
		t.Fatalf("diagnostics %v, want one bounds error", rig.errs)
	}
}

func TestRender_PutsClipsAtRightEdge(t *testing.T) {
	rig := newGPURig(t)
	rig.setDisplay(20, 8, 32)
	rig.loadFont(map[uint16][]byte{'X': {0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}}, 8, 8)
	rig.issue(GPU_CMD_PUTS, putsParams(0, 0, 0xFFFFFFFF, 0xFF000000, "XXXXXX"))

	if got := rig.pixel(19, 0); got != 0xFFFFFFFF {
		t.Fatalf("last visible pixel = 0x%08X, want glyph", got)
	}
	// Pitch padding past the visible width stays untouched.
	if got := rig.bus.Read32(GPU_VRAM_BASE + 20*4); got != 0 {
		t.Fatalf("padding pixel written: 0x%08X", got)
	}
	if len(rig.errs) != 0 {
		t.Fatalf("visible-region clipping reported %v", rig.errs)
	}
}

func TestRender_PutsZeroLength(t *testing.T) {
	rig := newGPURig(t)
	rig.issue(GPU_CMD_CLEAR, paramBuilder{}.u32(0xFF445566))
	before := rig.chip.FrameRGBA()

	rig.cmd(GPU_CMD_PUTS)
	rig.params(putsParams(0, 0, 0xFFFFFFFF, 0xFF000000, ""))

	s := rig.chip.Snapshot()
	if s.Stats.Dispatched != 2 || s.PendingCommand != "" || s.BufferedBytes != 0 {
		t.Fatalf("state %+v, want PUTS dispatched on its header", s)
	}
	if string(rig.chip.FrameRGBA().Pix) != string(before.Pix) {
		t.Fatal("empty PUTS changed the framebuffer")
	}
}

func TestRender_PutChar(t *testing.T) {
	rig := newGPURig(t)
	rig.loadFont(map[uint16][]byte{'Z': {0x81, 0, 0, 0, 0, 0, 0, 0x81}}, 8, 8)
	rig.issue(GPU_CMD_PUTCHAR, paramBuilder{}.u16(40).u16(50).u16('Z').u32(0xFFFF0000).u32(0xFF0000FF))

	if got := rig.pixel(40, 50); got != 0xFFFF0000 {
		t.Fatalf("glyph corner = 0x%08X, want fg", got)
	}
	if got := rig.pixel(41, 50); got != 0xFF0000FF {
		t.Fatalf("glyph gap = 0x%08X, want bg", got)
	}
	if got := rig.pixel(47, 57); got != 0xFFFF0000 {
		t.Fatalf("glyph far corner = 0x%08X, want fg", got)
	}
}

func TestRender_Shapes(t *testing.T) {
	const c = 0xFF00FF00

	tests := []struct {
		name   string
		op     uint16
		params []byte
		set    [][2]int
		unset  [][2]int
	}{
		{
			name:   "fillrect clipped",
			op:     GPU_CMD_FILLRECT,
			params: paramBuilder{}.u16(316).u16(196).u16(10).u16(10).u32(c),
			set:    [][2]int{{316, 196}, {319, 199}},
			unset:  [][2]int{{315, 196}, {316, 195}},
		},
		{
			name:   "outline",
			op:     GPU_CMD_RECT_OUTLINE,
			params: paramBuilder{}.u16(10).u16(10).u16(5).u16(4).u32(c),
			set:    [][2]int{{10, 10}, {14, 10}, {10, 13}, {14, 13}, {12, 13}},
			unset:  [][2]int{{12, 11}, {15, 10}, {10, 14}},
		},
		{
			name:   "line diagonal",
			op:     GPU_CMD_LINE,
			params: paramBuilder{}.u16(3).u16(3).u16(0).u16(0).u32(c),
			set:    [][2]int{{0, 0}, {1, 1}, {2, 2}, {3, 3}},
			unset:  [][2]int{{1, 0}, {2, 1}, {4, 4}},
		},
		{
			name:   "line horizontal",
			op:     GPU_CMD_LINE,
			params: paramBuilder{}.u16(5).u16(20).u16(9).u16(20).u32(c),
			set:    [][2]int{{5, 20}, {7, 20}, {9, 20}},
			unset:  [][2]int{{4, 20}, {10, 20}, {7, 21}},
		},
		{
			name:   "line off screen",
			op:     GPU_CMD_LINE,
			params: paramBuilder{}.u16(318).u16(0).u16(330).u16(0).u32(c),
			set:    [][2]int{{318, 0}, {319, 0}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rig := newGPURig(t)
			rig.issue(tc.op, tc.params)
			for _, p := range tc.set {
				if got := rig.pixel(p[0], p[1]); got != c {
					t.Fatalf("pixel %v = 0x%08X, want drawn", p, got)
				}
			}
			for _, p := range tc.unset {
				if got := rig.pixel(p[0], p[1]); got != 0 {
					t.Fatalf("pixel %v = 0x%08X, want untouched", p, got)
				}
			}
			if len(rig.errs) != 0 {
				t.Fatalf("unexpected diagnostics %v", rig.errs)
			}
		})
	}
}

func TestRender_Blit(t *testing.T) {
	rig := newGPURig(t)
	sprite := paramBuilder{}.u32(0xFF000001).u32(0xFF000002).u32(0xFF000003).u32(0xFF000004)
	if err := rig.chip.LoadVRAM(0x100000, sprite); err != nil {
		t.Fatal(err)
	}
	rig.issue(GPU_CMD_BLIT, paramBuilder{}.u32(0x100000).u16(2).u16(2).u16(5).u16(6))

	want := map[[2]int]uint32{
		{5, 6}: 0xFF000001, {6, 6}: 0xFF000002,
		{5, 7}: 0xFF000003, {6, 7}: 0xFF000004,
		{7, 6}: 0, {5, 8}: 0,
	}
	for p, w := range want {
		if got := rig.pixel(p[0], p[1]); got != w {
			t.Fatalf("pixel %v = 0x%08X, want 0x%08X", p, got, w)
		}
	}
}

func TestRender_BlitSourceOutsideVRAM(t *testing.T) {
	rig := newGPURig(t)
	rig.issue(GPU_CMD_BLIT, paramBuilder{}.u32(GPU_VRAM_SIZE-8).u16(4).u16(2).u16(0).u16(0))

	if n := rig.count(ErrBounds); n != 2 {
		t.Fatalf("bounds errors %d, want one per source row", n)
	}
	if got := rig.pixel(0, 0); got != 0 {
		t.Fatalf("pixel written from out of range source: 0x%08X", got)
	}
}

func TestRender_BlitTilemap(t *testing.T) {
	rig := newGPURig(t)
	const tileset, tilemap = 0x180000, 0x190000

	tiles := paramBuilder{}
	for i := 0; i < 4; i++ {
		tiles = tiles.u32(0xFFAA0000) // tile 0
	}
	for i := 0; i < 4; i++ {
		tiles = tiles.u32(0xFF00BB00) // tile 1
	}
	if err := rig.chip.LoadVRAM(tileset, tiles); err != nil {
		t.Fatal(err)
	}
	if err := rig.chip.LoadVRAM(tilemap, paramBuilder{}.u16(1).u16(0).u16(0).u16(1)); err != nil {
		t.Fatal(err)
	}
	rig.issue(GPU_CMD_BLIT_TILEMAP, paramBuilder{}.u32(tilemap).u16(2).u16(2).u16(2).u16(2).u32(tileset))

	want := map[[2]int]uint32{
		{0, 0}: 0xFF00BB00, {1, 1}: 0xFF00BB00,
		{2, 0}: 0xFFAA0000, {3, 1}: 0xFFAA0000,
		{0, 2}: 0xFFAA0000, {3, 3}: 0xFF00BB00,
		{4, 0}: 0, {0, 4}: 0,
	}
	for p, w := range want {
		if got := rig.pixel(p[0], p[1]); got != w {
			t.Fatalf("pixel %v = 0x%08X, want 0x%08X", p, got, w)
		}
	}
}

func BenchmarkRender_GradXY(b *testing.B) {
	vram := NewVideoMemory(GPU_VRAM_SIZE)
	var regs RegisterFile
	regs.reset(DefaultGPUConfig())
	r := NewRenderer(vram, &regs, func(*GPUError) {})
	p := paramBuilder{}.u32(0xFF000000).u32(0xFFFF0000).u32(0xFF00FF00).u32(0xFF0000FF)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Execute(GPU_CMD_GRAD_XY, p)
	}
}

func BenchmarkRender_Puts(b *testing.B) {
	vram := NewVideoMemory(GPU_VRAM_SIZE)
	var regs RegisterFile
	regs.reset(DefaultGPUConfig())
	r := NewRenderer(vram, &regs, func(*GPUError) {})
	p := putsParams(0, 0, 0xFFFFFFFF, 0xFF000000, "The quick brown fox jumps over the lazy dog")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Execute(GPU_CMD_PUTS, p)
	}
}
