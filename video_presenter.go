// video_presenter.go - Presents the GPU framebuffer on a video output at the refresh rate

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

/*
video_presenter.go - Video Presenter

The presenter owns the link between the GPU's video memory and a host
window. Once per refresh tick it takes the visible framebuffer as RGBA and
hands it to the output backend.

Technical Details:

    The output geometry follows the guest's WIDTH and HEIGHT registers. When
    the guest reprograms them the output is reconfigured before the next
    frame is sent.
    Frames are double buffered. The chip fills the back buffer under its
    read lock, then the buffers swap, so the backend never sees a frame the
    GPU is still writing.
    An undrawable geometry presents nothing and leaves the last frame up.

*/

package main

import (
	"fmt"
	"sync"
	"time"
)

type VideoPresenter struct {
	mutex sync.Mutex

	gpu    *GPUChip
	output VideoOutput

	scale      int
	fullscreen bool

	frontBuffer []byte
	backBuffer  []byte
	width       int
	height      int

	enabled      bool
	frameCounter uint64
	done         chan struct{}
	stopOnce     sync.Once
}

func NewVideoPresenter(gpu *GPUChip, output VideoOutput, scale int) *VideoPresenter {
	return &VideoPresenter{
		gpu:    gpu,
		output: output,
		scale:  ClampScale(scale),
		done:   make(chan struct{}),
	}
}

// SetFullscreen selects fullscreen output for the next reconfiguration.
func (p *VideoPresenter) SetFullscreen(on bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.fullscreen = on
}

// Start configures the output for the current display registers, starts it
// and begins refreshing at the output's rate.
func (p *VideoPresenter) Start() error {
	p.mutex.Lock()
	d := p.gpu.Snapshot().Display
	if err := p.configureLocked(int(d.Width), int(d.Height)); err != nil {
		p.mutex.Unlock()
		return err
	}
	p.enabled = true
	p.mutex.Unlock()

	if sc, ok := p.output.(StatusCapable); ok {
		sc.SetStatusSource(p.gpu.Snapshot)
	}
	if rc, ok := p.output.(ResetCapable); ok {
		rc.SetHardResetHandler(p.gpu.Reset)
	}
	if err := p.output.Start(); err != nil {
		return fmt.Errorf("failed to start video output: %w", err)
	}
	go p.refreshLoop()
	return nil
}

// Stop ends the refresh loop and stops the output.
func (p *VideoPresenter) Stop() {
	p.stopOnce.Do(func() {
		close(p.done)
	})
	p.mutex.Lock()
	p.enabled = false
	p.mutex.Unlock()
	if err := p.output.Stop(); err != nil {
		fmt.Printf("Error stopping video output: %v\n", err)
	}
}

// Frames returns the number of frames handed to the output.
func (p *VideoPresenter) Frames() uint64 {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.frameCounter
}

func (p *VideoPresenter) configureLocked(w, h int) error {
	if w <= 0 || h <= 0 {
		return nil
	}
	cfg := OutputConfig{
		Width:       w,
		Height:      h,
		Scale:       p.scale,
		RefreshRate: p.output.GetRefreshRate(),
		PixelFormat: PixelFormatRGBA,
		VSync:       true,
		Fullscreen:  p.fullscreen,
	}
	if err := p.output.SetOutputConfig(cfg); err != nil {
		return fmt.Errorf("failed to configure video output: %w", err)
	}
	p.width, p.height = w, h
	p.frontBuffer = make([]byte, w*h*4)
	p.backBuffer = make([]byte, w*h*4)
	return nil
}

// Present sends one frame to the output, reconfiguring it first if the
// guest changed the display geometry.
func (p *VideoPresenter) Present() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	d := p.gpu.Snapshot().Display
	w, h := int(d.Width), int(d.Height)
	if w <= 0 || h <= 0 {
		return nil
	}
	if w != p.width || h != p.height {
		if err := p.configureLocked(w, h); err != nil {
			return err
		}
	}

	// The registers may change between Snapshot and CopyFrame.
	if fw, fh := p.gpu.CopyFrame(p.backBuffer); fw != p.width || fh != p.height {
		return nil
	}
	p.frontBuffer, p.backBuffer = p.backBuffer, p.frontBuffer
	p.frameCounter++
	return p.output.UpdateFrame(p.frontBuffer)
}

func (p *VideoPresenter) refreshLoop() {
	rate := p.output.GetRefreshRate()
	if rate <= 0 {
		rate = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.mutex.Lock()
			enabled := p.enabled
			p.mutex.Unlock()
			if !enabled {
				continue
			}
			if err := p.Present(); err != nil {
				fmt.Printf("Error updating frame: %v\n", err)
			}
		}
	}
}
