package main

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEncodeFramePNG_Scale(t *testing.T) {
	pix := []byte{
		0xFF, 0x00, 0x00, 0xFF, 0x00, 0xFF, 0x00, 0xFF,
		0x00, 0x00, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	}
	var buf bytes.Buffer
	if err := EncodeFramePNG(&buf, pix, 2, 2, 3); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 6 || b.Dy() != 6 {
		t.Fatalf("decoded %dx%d, want 6x6", b.Dx(), b.Dy())
	}
	if r, g, b, _ := img.At(5, 0).RGBA(); r != 0 || g != 0xFFFF || b != 0 {
		t.Fatalf("top right block = %d,%d,%d, want green", r, g, b)
	}
	if r, g, b, _ := img.At(2, 5).RGBA(); r != 0 || g != 0 || b != 0xFFFF {
		t.Fatalf("bottom left block = %d,%d,%d, want blue", r, g, b)
	}
}

func TestEncodeFramePNG_ShortBuffer(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeFramePNG(&buf, make([]byte, 10), 2, 2, 1); err == nil {
		t.Fatal("short buffer accepted")
	}
}

func TestWriteFramePNG(t *testing.T) {
	rig := newGPURig(t)
	rig.issue(GPU_CMD_CLEAR, paramBuilder{}.u32(0xFF204060))

	path := filepath.Join(t.TempDir(), "frame.png")
	if err := WriteFramePNG(path, rig.chip, 1); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != GPU_DEFAULT_WIDTH || cfg.Height != GPU_DEFAULT_HEIGHT {
		t.Fatalf("png %dx%d, want %dx%d", cfg.Width, cfg.Height, GPU_DEFAULT_WIDTH, GPU_DEFAULT_HEIGHT)
	}
}

func TestAnsiGeometry(t *testing.T) {
	tests := []struct {
		srcW, srcH, cols, rows int
		wantCols, wantRows     int
	}{
		{320, 200, 80, 0, 80, 25},
		{320, 200, 0, 0, ANSI_DEFAULT_COLS, 25},
		{4, 2, 80, 0, 4, 1},
		{320, 200, 160, 21, 64, 20},
	}
	for _, tc := range tests {
		c, r := ansiGeometry(tc.srcW, tc.srcH, tc.cols, tc.rows)
		if c != tc.wantCols || r != tc.wantRows {
			t.Fatalf("ansiGeometry(%d,%d,%d,%d) = %d,%d, want %d,%d",
				tc.srcW, tc.srcH, tc.cols, tc.rows, c, r, tc.wantCols, tc.wantRows)
		}
	}
}

func TestRenderANSI(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 0xFF, 0x80, 0x00, 0xFF
	}
	var buf bytes.Buffer
	if err := RenderANSI(&buf, img, 8, 0); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("%d lines, want 2", len(lines))
	}
	if n := strings.Count(lines[0], "▀"); n != 8 {
		t.Fatalf("%d cells in row 0, want 8", n)
	}
	if !strings.Contains(lines[0], "\x1b[38;2;255;128;0m") {
		t.Fatalf("row 0 %q lacks the foreground colour", lines[0])
	}
}
