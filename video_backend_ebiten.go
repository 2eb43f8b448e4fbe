//go:build !headless

// video_backend_ebiten.go - Ebiten window backend for the GPU host

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

import (
	"bytes"
	"fmt"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.design/x/clipboard"
	"golang.org/x/image/font/basicfont"
)

func init() {
	compiledFeatures = append(compiledFeatures, "video:ebiten")
}

const (
	STATUS_BAR_HEIGHT = 30
	NOTICE_DURATION   = 2 * time.Second
)

// EbitenOutput shows the GPU framebuffer in a window. The presenter pushes
// RGBA frames through UpdateFrame; Draw uploads the latest one each tick.
type EbitenOutput struct {
	mu      sync.RWMutex
	cfg     OutputConfig
	pixels  []byte
	texture *ebiten.Image

	running   atomic.Bool
	frames    atomic.Uint64
	firstDraw chan struct{}
	drawOnce  sync.Once
	vsync     chan struct{}
	closed    chan struct{}
	closeOnce sync.Once

	showStatus  bool
	status      func() GPUState
	notice      string
	noticeUntil time.Time

	clipboardOnce sync.Once
	clipboardErr  error

	resetHandler func()
	resetBusy    atomic.Bool
}

// keyBinding maps a function key to a window action.
type keyBinding struct {
	key    ebiten.Key
	action func(*EbitenOutput)
}

var windowKeys = []keyBinding{
	{ebiten.KeyF9, (*EbitenOutput).copyFrameToClipboard},
	{ebiten.KeyF10, (*EbitenOutput).requestHardReset},
	{ebiten.KeyF11, (*EbitenOutput).toggleFullscreen},
	{ebiten.KeyF12, (*EbitenOutput).toggleStatusBar},
}

func NewEbitenOutput() (VideoOutput, error) {
	return &EbitenOutput{
		cfg: OutputConfig{
			Width:       GPU_DEFAULT_WIDTH,
			Height:      GPU_DEFAULT_HEIGHT,
			Scale:       1,
			RefreshRate: 60,
			PixelFormat: PixelFormatRGBA,
			VSync:       true,
		},
		pixels:     make([]byte, GPU_DEFAULT_WIDTH*GPU_DEFAULT_HEIGHT*4),
		firstDraw:  make(chan struct{}),
		vsync:      make(chan struct{}, 1),
		closed:     make(chan struct{}),
		showStatus: true,
	}, nil
}

// Start opens the window and blocks until the first frame has been drawn.
func (eo *EbitenOutput) Start() error {
	if !eo.running.CompareAndSwap(false, true) {
		return nil
	}
	cfg := eo.GetOutputConfig()
	ebiten.SetWindowTitle("AIZ-32 GPU")
	ebiten.SetWindowSize(cfg.Width*cfg.Scale, cfg.Height*cfg.Scale)
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(cfg.VSync)
	ebiten.SetFullscreen(cfg.Fullscreen)

	go func() {
		defer eo.closeOnce.Do(func() { close(eo.closed) })
		defer eo.running.Store(false)
		if err := ebiten.RunGame(eo); err != nil {
			fmt.Printf("Ebiten error: %v\n", err)
		}
	}()

	select {
	case <-eo.firstDraw:
		return nil
	case <-eo.closed:
		return &VideoError{Operation: "window start", Details: "window closed before the first frame"}
	}
}

// Stop asks the game loop to terminate on its next Update.
func (eo *EbitenOutput) Stop() error {
	eo.running.Store(false)
	return nil
}

func (eo *EbitenOutput) Close() error {
	return eo.Stop()
}

// Done is closed once the window has gone away.
func (eo *EbitenOutput) Done() <-chan struct{} {
	return eo.closed
}

func (eo *EbitenOutput) IsStarted() bool {
	return eo.running.Load()
}

func (eo *EbitenOutput) UpdateFrame(data []byte) error {
	eo.mu.Lock()
	defer eo.mu.Unlock()
	if len(data) < len(eo.pixels) {
		return &VideoError{
			Operation: "frame update",
			Details:   fmt.Sprintf("%d bytes for a %dx%d window", len(data), eo.cfg.Width, eo.cfg.Height),
		}
	}
	copy(eo.pixels, data)
	return nil
}

// SetOutputConfig resizes the window to the guest's display geometry.
// Non-positive sizes keep the current one.
func (eo *EbitenOutput) SetOutputConfig(config OutputConfig) error {
	eo.mu.Lock()
	defer eo.mu.Unlock()

	if config.Width <= 0 {
		config.Width = eo.cfg.Width
	}
	if config.Height <= 0 {
		config.Height = eo.cfg.Height
	}
	if config.RefreshRate <= 0 {
		config.RefreshRate = eo.cfg.RefreshRate
	}
	config.Scale = ClampScale(config.Scale)

	if config.Width != eo.cfg.Width || config.Height != eo.cfg.Height {
		eo.pixels = make([]byte, config.Width*config.Height*4)
		if eo.texture != nil {
			eo.texture.Deallocate()
			eo.texture = nil
		}
	}
	eo.cfg = config

	ebiten.SetFullscreen(config.Fullscreen)
	if !config.Fullscreen {
		ebiten.SetWindowSize(config.Width*config.Scale, config.Height*config.Scale)
	}
	return nil
}

func (eo *EbitenOutput) GetOutputConfig() OutputConfig {
	eo.mu.RLock()
	defer eo.mu.RUnlock()
	return eo.cfg
}

func (eo *EbitenOutput) WaitForVSync() error {
	select {
	case <-eo.vsync:
	case <-eo.closed:
	}
	return nil
}

func (eo *EbitenOutput) GetFrameCount() uint64 {
	return eo.frames.Load()
}

func (eo *EbitenOutput) GetRefreshRate() int {
	return eo.GetOutputConfig().RefreshRate
}

// GetSnapshot copies the frame most recently handed to the window.
func (eo *EbitenOutput) GetSnapshot() (FrameSnapshot, error) {
	eo.mu.RLock()
	defer eo.mu.RUnlock()
	return FrameSnapshot{
		Buffer:    bytes.Clone(eo.pixels),
		Width:     eo.cfg.Width,
		Height:    eo.cfg.Height,
		Format:    eo.cfg.PixelFormat,
		Timestamp: time.Now(),
	}, nil
}

func (eo *EbitenOutput) SetStatusSource(fn func() GPUState) {
	eo.mu.Lock()
	eo.status = fn
	eo.mu.Unlock()
}

func (eo *EbitenOutput) SetHardResetHandler(fn func()) {
	eo.mu.Lock()
	eo.resetHandler = fn
	eo.mu.Unlock()
}

func (eo *EbitenOutput) Update() error {
	if ebiten.IsWindowBeingClosed() || !eo.running.Load() {
		return ebiten.Termination
	}
	for _, b := range windowKeys {
		if inpututil.IsKeyJustPressed(b.key) {
			b.action(eo)
		}
	}
	return nil
}

func (eo *EbitenOutput) toggleFullscreen() {
	eo.mu.Lock()
	eo.cfg.Fullscreen = !eo.cfg.Fullscreen
	cfg := eo.cfg
	eo.mu.Unlock()

	ebiten.SetFullscreen(cfg.Fullscreen)
	if !cfg.Fullscreen {
		ebiten.SetWindowSize(cfg.Width*cfg.Scale, cfg.Height*cfg.Scale)
	}
}

func (eo *EbitenOutput) toggleStatusBar() {
	eo.mu.Lock()
	eo.showStatus = !eo.showStatus
	eo.mu.Unlock()
}

// requestHardReset runs the reset handler off the game loop. Presses while
// a reset is still running are ignored.
func (eo *EbitenOutput) requestHardReset() {
	eo.mu.RLock()
	handler := eo.resetHandler
	eo.mu.RUnlock()
	if handler == nil || !eo.resetBusy.CompareAndSwap(false, true) {
		return
	}
	eo.setNotice("reset")
	go func() {
		defer eo.resetBusy.Store(false)
		handler()
	}()
}

// copyFrameToClipboard puts the current frame on the clipboard as a PNG.
func (eo *EbitenOutput) copyFrameToClipboard() {
	eo.clipboardOnce.Do(func() {
		eo.clipboardErr = clipboard.Init()
	})
	if eo.clipboardErr != nil {
		eo.setNotice("clipboard unavailable")
		return
	}
	snap, _ := eo.GetSnapshot()
	var buf bytes.Buffer
	if err := EncodeFramePNG(&buf, snap.Buffer, snap.Width, snap.Height, 1); err != nil {
		eo.setNotice("copy failed")
		return
	}
	clipboard.Write(clipboard.FmtImage, buf.Bytes())
	eo.setNotice("frame copied")
}

func (eo *EbitenOutput) setNotice(msg string) {
	eo.mu.Lock()
	eo.notice = msg
	eo.noticeUntil = time.Now().Add(NOTICE_DURATION)
	eo.mu.Unlock()
}

func (eo *EbitenOutput) Draw(screen *ebiten.Image) {
	eo.mu.Lock()
	if eo.texture == nil {
		eo.texture = ebiten.NewImage(eo.cfg.Width, eo.cfg.Height)
	}
	eo.texture.WritePixels(eo.pixels)
	texture := eo.texture
	status := eo.status
	if !eo.showStatus {
		status = nil
	}
	notice := eo.notice
	if time.Now().After(eo.noticeUntil) {
		notice = ""
	}
	eo.mu.Unlock()

	screen.DrawImage(texture, nil)
	if status != nil {
		drawGPUStatusBar(screen, status(), notice)
	}

	eo.frames.Add(1)
	eo.drawOnce.Do(func() { close(eo.firstDraw) })
	select {
	case eo.vsync <- struct{}{}:
	default:
	}
}

func (eo *EbitenOutput) Layout(_, _ int) (int, int) {
	eo.mu.RLock()
	defer eo.mu.RUnlock()
	return eo.cfg.Width, eo.cfg.Height
}

type statusToken struct {
	name string
	lit  bool
}

var (
	statusLabelColor = color.RGBA{190, 190, 190, 255}
	statusOffColor   = color.RGBA{120, 120, 120, 255}
	statusOnColor    = color.RGBA{0, 220, 90, 255}
	statusErrColor   = color.RGBA{240, 80, 60, 255}
)

func drawStatusLine(screen *ebiten.Image, x, baselineY int, label string, on color.Color, tokens []statusToken) {
	face := basicfont.Face7x13
	text.Draw(screen, label, face, x, baselineY, statusLabelColor)
	cursorX := x + text.BoundString(face, label).Dx() + 6

	for _, token := range tokens {
		if token.name == "" {
			continue
		}
		var c color.Color = statusOffColor
		if token.lit {
			c = on
		}
		text.Draw(screen, token.name, face, cursorX, baselineY, c)
		cursorX += text.BoundString(face, token.name).Dx() + 8
	}
}

// drawGPUStatusBar overlays geometry, dispatcher state and fault counters
// along the bottom of the frame.
func drawGPUStatusBar(screen *ebiten.Image, s GPUState, notice string) {
	width, height := screen.Bounds().Dx(), screen.Bounds().Dy()
	if STATUS_BAR_HEIGHT >= height {
		return
	}
	y := height - STATUS_BAR_HEIGHT
	ebitenutil.DrawRect(screen, 0, float64(y), float64(width), float64(STATUS_BAR_HEIGHT), color.RGBA{0, 0, 0, 180})

	lastOp := uint16(uint8(s.Status >> GPU_STATUS_OPCODE_SHIFT))
	pending := s.DispatchState
	if s.PendingCommand != "" {
		pending = fmt.Sprintf("%s %d/%d", s.PendingCommand, s.BufferedBytes, s.NeededBytes)
	}
	drawStatusLine(screen, 4, y+12, "GPU", statusOnColor, []statusToken{
		{name: fmt.Sprintf("%dx%d/%d", s.Display.Width, s.Display.Height, s.Display.Pitch), lit: true},
		{name: fmt.Sprintf("FB+%06X", s.Display.FramebufferOffset), lit: s.Display.FramebufferOffset != 0},
		{name: fmt.Sprintf("#%d %s", s.Stats.Dispatched, CommandName(lastOp)), lit: s.Stats.Dispatched > 0},
		{name: pending, lit: s.PendingCommand != ""},
	})

	st := s.Stats
	drawStatusLine(screen, 4, y+25, "ERR", statusErrColor, []statusToken{
		{name: fmt.Sprintf("cfg %d", st.ConfigErrors), lit: st.ConfigErrors > 0},
		{name: fmt.Sprintf("proto %d", st.ProtocolErrors), lit: st.ProtocolErrors > 0},
		{name: fmt.Sprintf("bounds %d", st.BoundsErrors), lit: st.BoundsErrors > 0},
		{name: notice, lit: true},
	})
}
