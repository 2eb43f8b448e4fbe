// font_rom.go - 1bpp font ROM builder, loader and PNG font sheet importer

package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"
)

const (
	FONT_ROM_GLYPHS    = 256
	FONT_ROM_THRESHOLD = 0x80 // coverage above this sets a bit
)

// FontROM is a packed 1bpp glyph table ready to be copied into VRAM.
type FontROM struct {
	Name        string
	GlyphWidth  int
	GlyphHeight int
	Data        []byte
}

// GlyphBytes returns the size of one glyph in the ROM.
func (f *FontROM) GlyphBytes() int {
	return (f.GlyphWidth + 7) / 8 * f.GlyphHeight
}

// Glyphs returns the number of complete glyphs in the ROM.
func (f *FontROM) Glyphs() int {
	return len(f.Data) / f.GlyphBytes()
}

type builtinFont struct {
	face   font.Face
	cellW  int
	cellH  int
	scaleH int // render height before resampling, 0 for none
}

var builtinFonts = map[string]builtinFont{
	"basic":       {face: basicfont.Face7x13, cellW: 8, cellH: 13},
	"basic8":      {face: basicfont.Face7x13, cellW: 8, cellH: 8, scaleH: 13},
	"inconsolata": {face: inconsolata.Regular8x16, cellW: 8, cellH: 16},
}

// BuiltinFontNames lists the fonts accepted by BuiltinFontROM.
func BuiltinFontNames() []string {
	names := make([]string, 0, len(builtinFonts))
	for name := range builtinFonts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuiltinFontROM renders one of the bundled faces into a ROM.
func BuiltinFontROM(name string) (*FontROM, error) {
	bf, ok := builtinFonts[name]
	if !ok {
		return nil, fmt.Errorf("unknown font %q (have %s)", name, strings.Join(BuiltinFontNames(), ", "))
	}
	renderH := bf.cellH
	if bf.scaleH > 0 {
		renderH = bf.scaleH
	}
	rom := &FontROM{Name: name, GlyphWidth: bf.cellW, GlyphHeight: bf.cellH}
	rom.Data = BuildFontROM(bf.face, bf.cellW, renderH, bf.cellH)
	return rom, nil
}

// BuildFontROM draws code points 0-255 (Latin-1) with face into cellW x
// renderH cells, resamples them to cellH rows when the two differ and packs
// them MSB first. Control codes are left blank.
func BuildFontROM(face font.Face, cellW, renderH, cellH int) []byte {
	rowBytes := (cellW + 7) / 8
	out := make([]byte, FONT_ROM_GLYPHS*rowBytes*cellH)

	cell := image.NewGray(image.Rect(0, 0, cellW, renderH))
	scaled := cell
	if renderH != cellH {
		scaled = image.NewGray(image.Rect(0, 0, cellW, cellH))
	}
	ascent := face.Metrics().Ascent.Ceil()

	for code := 0; code < FONT_ROM_GLYPHS; code++ {
		if !printableLatin1(rune(code)) {
			continue
		}
		for i := range cell.Pix {
			cell.Pix[i] = 0
		}
		d := font.Drawer{
			Dst:  cell,
			Src:  image.White,
			Face: face,
			Dot:  fixed.P(0, ascent),
		}
		d.DrawString(string(rune(code)))

		if scaled != cell {
			xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), cell, cell.Bounds(), xdraw.Src, nil)
		}
		packGlyph(out[code*rowBytes*cellH:], scaled, 0, 0, cellW, cellH)
	}
	return out
}

func printableLatin1(r rune) bool {
	return (r >= 0x20 && r < 0x7F) || (r >= 0xA0 && r <= 0xFF)
}

// packGlyph thresholds the w x h block at (x0, y0) of img into dst.
func packGlyph(dst []byte, img image.Image, x0, y0, w, h int) {
	rowBytes := (w + 7) / 8
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g := color.GrayModel.Convert(img.At(x0+x, y0+y)).(color.Gray)
			if g.Y > FONT_ROM_THRESHOLD {
				dst[y*rowBytes+x/8] |= 0x80 >> (x % 8)
			}
		}
	}
}

// LoadFontROM reads a raw 1bpp ROM such as font_rom.bin. The file must hold
// whole glyphs of the given size.
func LoadFontROM(path string, glyphW, glyphH int) (*FontROM, error) {
	if glyphW <= 0 || glyphH <= 0 {
		return nil, fmt.Errorf("font %s: invalid glyph size %dx%d", path, glyphW, glyphH)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font rom: %w", err)
	}
	rom := &FontROM{Name: filepath.Base(path), GlyphWidth: glyphW, GlyphHeight: glyphH, Data: data}
	if len(data) == 0 || len(data)%rom.GlyphBytes() != 0 {
		return nil, fmt.Errorf("font %s: %d bytes is not a whole number of %dx%d glyphs", path, len(data), glyphW, glyphH)
	}
	return rom, nil
}

// FontSheetLayout describes a grid of glyph cells in a font sheet image.
type FontSheetLayout struct {
	CellW, CellH   int // grid pitch
	GlyphW, GlyphH int // extracted area inside a cell
	MarginX        int
	MarginY        int
	Cols           int
}

// DefaultFontSheetLayout matches 16x16 sheets of 10x10 cells holding 8x8
// glyphs one pixel in from the left.
func DefaultFontSheetLayout() FontSheetLayout {
	return FontSheetLayout{CellW: 10, CellH: 10, GlyphW: 8, GlyphH: 8, MarginX: 1, Cols: 16}
}

// ImportFontSheet converts a PNG font sheet with light glyphs on a dark
// background into a 256 glyph ROM.
func ImportFontSheet(r io.Reader, layout FontSheetLayout) (*FontROM, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode font sheet: %w", err)
	}
	if layout.Cols <= 0 || layout.GlyphW <= 0 || layout.GlyphH <= 0 {
		return nil, fmt.Errorf("invalid font sheet layout %+v", layout)
	}
	rows := (FONT_ROM_GLYPHS + layout.Cols - 1) / layout.Cols
	b := img.Bounds()
	needW := (layout.Cols-1)*layout.CellW + layout.MarginX + layout.GlyphW
	needH := (rows-1)*layout.CellH + layout.MarginY + layout.GlyphH
	if b.Dx() < needW || b.Dy() < needH {
		return nil, fmt.Errorf("font sheet %dx%d too small, need %dx%d", b.Dx(), b.Dy(), needW, needH)
	}

	rom := &FontROM{Name: "sheet", GlyphWidth: layout.GlyphW, GlyphHeight: layout.GlyphH}
	glyphBytes := rom.GlyphBytes()
	rom.Data = make([]byte, FONT_ROM_GLYPHS*glyphBytes)
	for code := 0; code < FONT_ROM_GLYPHS; code++ {
		cx := b.Min.X + (code%layout.Cols)*layout.CellW + layout.MarginX
		cy := b.Min.Y + (code/layout.Cols)*layout.CellH + layout.MarginY
		packGlyph(rom.Data[code*glyphBytes:], img, cx, cy, layout.GlyphW, layout.GlyphH)
	}
	return rom, nil
}

// OpenFontROM resolves a -font argument: a built-in name, a .png sheet or a
// raw .bin ROM of glyphW x glyphH glyphs.
func OpenFontROM(spec string, glyphW, glyphH int) (*FontROM, error) {
	if _, ok := builtinFonts[spec]; ok {
		return BuiltinFontROM(spec)
	}
	if strings.EqualFold(filepath.Ext(spec), ".png") {
		f, err := os.Open(spec)
		if err != nil {
			return nil, fmt.Errorf("failed to open font sheet: %w", err)
		}
		defer f.Close()
		layout := DefaultFontSheetLayout()
		if glyphW > 0 && glyphH > 0 {
			layout.GlyphW, layout.GlyphH = glyphW, glyphH
			layout.CellW, layout.CellH = glyphW+2, glyphH+2
		}
		rom, err := ImportFontSheet(f, layout)
		if err != nil {
			return nil, err
		}
		rom.Name = filepath.Base(spec)
		return rom, nil
	}
	return LoadFontROM(spec, glyphW, glyphH)
}
