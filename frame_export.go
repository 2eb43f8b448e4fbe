// frame_export.go - PNG export and ANSI true-colour terminal preview of the framebuffer

package main

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/term"
)

const (
	ANSI_DEFAULT_COLS = 80
	ANSI_MAX_COLS     = 320
)

// frameImage wraps RGBA bytes in an image without copying.
func frameImage(pix []byte, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 || len(pix) < width*height*4 {
		return nil, &VideoError{
			Operation: "frame export",
			Details:   fmt.Sprintf("%d bytes do not hold a %dx%d frame", len(pix), width, height),
		}
	}
	return &image.RGBA{
		Pix:    pix[:width*height*4],
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}, nil
}

// scaleFrame enlarges img by an integer factor without smoothing.
func scaleFrame(img *image.RGBA, scale int) *image.RGBA {
	scale = ClampScale(scale)
	if scale == 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// EncodeFramePNG writes RGBA frame bytes as a PNG, scaled by an integer factor.
func EncodeFramePNG(w io.Writer, pix []byte, width, height, scale int) error {
	img, err := frameImage(pix, width, height)
	if err != nil {
		return err
	}
	if err := png.Encode(w, scaleFrame(img, scale)); err != nil {
		return &VideoError{Operation: "frame export", Details: "png encode", Err: err}
	}
	return nil
}

// WriteFramePNG saves the chip's visible framebuffer to path.
func WriteFramePNG(path string, gpu *GPUChip, scale int) error {
	img := gpu.FrameRGBA()
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := EncodeFramePNG(f, img.Pix, img.Rect.Dx(), img.Rect.Dy(), scale); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// TerminalColumns returns the width of the terminal on stdout, or 0 when
// stdout is not a terminal.
func TerminalColumns() (int, int) {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0, 0
	}
	cols, rows, err := term.GetSize(fd)
	if err != nil {
		return 0, 0
	}
	return cols, rows
}

// ansiGeometry picks the preview size in character cells. Each cell shows
// two vertically stacked pixels, so pixel aspect ratio is kept.
func ansiGeometry(srcW, srcH, cols, rows int) (int, int) {
	if cols <= 0 {
		cols = ANSI_DEFAULT_COLS
	}
	cols = min(cols, ANSI_MAX_COLS, srcW)
	cellRows := (cols*srcH/srcW + 1) / 2
	if rows > 1 && cellRows > rows-1 {
		cellRows = rows - 1
		cols = max(cellRows*2*srcW/srcH, 1)
	}
	return cols, max(cellRows, 1)
}

// RenderANSI draws img with 24-bit colour escape codes using upper half
// blocks. cols and rows bound the output; zero means no bound.
func RenderANSI(w io.Writer, img *image.RGBA, cols, rows int) error {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil
	}
	cols, cellRows := ansiGeometry(b.Dx(), b.Dy(), cols, rows)

	small := image.NewRGBA(image.Rect(0, 0, cols, cellRows*2))
	xdraw.ApproxBiLinear.Scale(small, small.Bounds(), img, b, xdraw.Src, nil)

	bw := bufio.NewWriter(w)
	for y := 0; y < cellRows*2; y += 2 {
		for x := 0; x < cols; x++ {
			top := small.RGBAAt(x, y)
			bot := small.RGBAAt(x, y+1)
			fmt.Fprintf(bw, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm▀",
				top.R, top.G, top.B, bot.R, bot.G, bot.B)
		}
		bw.WriteString("\x1b[0m\n")
	}
	return bw.Flush()
}
