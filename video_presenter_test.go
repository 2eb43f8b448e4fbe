package main

import (
	"testing"
	"time"
)

func TestHeadlessOutput_OutputConfigClampsScale(t *testing.T) {
	out := NewHeadlessOutput()
	if err := out.SetOutputConfig(OutputConfig{Width: 320, Height: 200, Scale: 40, Fullscreen: true}); err != nil {
		t.Fatalf("SetOutputConfig returned error: %v", err)
	}
	got := out.GetOutputConfig()
	if got.Scale != MAX_OUTPUT_SCALE || !got.Fullscreen {
		t.Fatalf("expected Scale=%d, Fullscreen=true; got Scale=%d, Fullscreen=%v", MAX_OUTPUT_SCALE, got.Scale, got.Fullscreen)
	}
}

func TestVideoPresenter_PresentFollowsRegisters(t *testing.T) {
	rig := newGPURig(t)
	out := NewHeadlessOutput()
	p := NewVideoPresenter(rig.chip, out, 3)

	rig.issue(GPU_CMD_CLEAR, paramBuilder{}.u32(0xFF804020))
	if err := p.Present(); err != nil {
		t.Fatal(err)
	}
	cfg := out.GetOutputConfig()
	if cfg.Width != GPU_DEFAULT_WIDTH || cfg.Height != GPU_DEFAULT_HEIGHT || cfg.Scale != 3 {
		t.Fatalf("output config %+v, want %dx%d scale 3", cfg, GPU_DEFAULT_WIDTH, GPU_DEFAULT_HEIGHT)
	}
	snap, err := out.GetSnapshot()
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Buffer) != GPU_DEFAULT_WIDTH*GPU_DEFAULT_HEIGHT*4 {
		t.Fatalf("frame of %d bytes", len(snap.Buffer))
	}
	if px := snap.Buffer[:4]; px[0] != 0x80 || px[1] != 0x40 || px[2] != 0x20 || px[3] != 0xFF {
		t.Fatalf("first pixel % X, want 80 40 20 FF", px)
	}

	// A guest mode change reconfigures the output before the next frame.
	rig.setDisplay(64, 32, 64)
	if err := p.Present(); err != nil {
		t.Fatal(err)
	}
	if cfg := out.GetOutputConfig(); cfg.Width != 64 || cfg.Height != 32 {
		t.Fatalf("output %dx%d after mode change, want 64x32", cfg.Width, cfg.Height)
	}
	if p.Frames() != 2 || out.GetFrameCount() != 2 {
		t.Fatalf("frames presented %d/%d, want 2", p.Frames(), out.GetFrameCount())
	}
}

func TestVideoPresenter_SkipsEmptyGeometry(t *testing.T) {
	rig := newGPURig(t)
	out := NewHeadlessOutput()
	p := NewVideoPresenter(rig.chip, out, 1)

	rig.setDisplay(0, 0, 0)
	if err := p.Present(); err != nil {
		t.Fatal(err)
	}
	if out.GetFrameCount() != 0 {
		t.Fatal("frame presented for an empty display")
	}
}

func TestVideoPresenter_RefreshLoop(t *testing.T) {
	rig := newGPURig(t)
	out := NewHeadlessOutput()
	p := NewVideoPresenter(rig.chip, out, 1)
	if err := p.Start(); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for out.GetFrameCount() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("only %d frames after 2s", out.GetFrameCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
	p.Stop()
	if out.IsStarted() {
		t.Fatal("output still started after Stop")
	}
}

func TestNewVideoOutput_UnknownBackend(t *testing.T) {
	if _, err := NewVideoOutput(99); err == nil {
		t.Fatal("unknown backend accepted")
	}
}
