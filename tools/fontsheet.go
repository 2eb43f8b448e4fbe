// fontsheet.go - Render a bitmap face into a 16x16 PNG font sheet for the GPU font importer
//
// Usage: go run ./tools -face basic -out font_sheet.png
//
// Cells are glyph size plus two pixels, glyphs start one pixel in from the
// left edge of their cell. That is the layout the -font importer expects
// when -font-w and -font-h are given.

package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"
)

const sheetCols = 16

var faces = map[string]struct {
	face font.Face
	w, h int
}{
	"basic":       {basicfont.Face7x13, 8, 13},
	"inconsolata": {inconsolata.Regular8x16, 8, 16},
}

func main() {
	faceName := flag.String("face", "basic", "face to render: basic or inconsolata")
	out := flag.String("out", "font_sheet.png", "output PNG path")
	flag.Parse()

	f, ok := faces[*faceName]
	if !ok {
		fmt.Printf("Error: unknown face %q\n", *faceName)
		os.Exit(1)
	}

	cellW, cellH := f.w+2, f.h+2
	sheet := image.NewRGBA(image.Rect(0, 0, sheetCols*cellW, sheetCols*cellH))
	draw.Draw(sheet, sheet.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	ascent := f.face.Metrics().Ascent.Ceil()
	d := font.Drawer{Dst: sheet, Src: image.White, Face: f.face}
	for code := 0x20; code < 0x100; code++ {
		if code >= 0x7F && code < 0xA0 {
			continue
		}
		x := (code%sheetCols)*cellW + 1
		y := (code / sheetCols) * cellH
		d.Dot = fixed.P(x, y+ascent)
		d.DrawString(string(rune(code)))
	}

	file, err := os.Create(*out)
	if err != nil {
		fmt.Printf("Error creating %s: %v\n", *out, err)
		os.Exit(1)
	}
	if err := png.Encode(file, sheet); err != nil {
		file.Close()
		fmt.Printf("Error encoding PNG: %v\n", err)
		os.Exit(1)
	}
	if err := file.Close(); err != nil {
		fmt.Printf("Error closing %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %dx%d sheet of %dx%d glyphs to %s\n", sheet.Rect.Dx(), sheet.Rect.Dy(), f.w, f.h, *out)
}
