// main.go - Host entry point: runs a guest script against the AIZ-32 GPU

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
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"
)

func boilerPlate() {
	fmt.Println("\n\033[38;2;255;20;147m ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████\033[0m\n\033[38;2;255;50;147m▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀\033[0m\n\033[38;2;255;80;147m▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███\033[0m\n\033[38;2;255;110;147m░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄\033[0m\n\033[38;2;255;140;147m░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒\033[0m\n\033[38;2;255;170;147m░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░\033[0m\n\033[38;2;255;200;147m ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░\033[0m\n\033[38;2;255;230;147m ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░\033[0m\n\033[38;2;255;255;147m ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░\033[0m")
	fmt.Println("\nAIZ-32 GPU: memory-mapped 2D command processor.")
	fmt.Println("(c) 2024 - 2026 Zayn Otley")
	fmt.Println("https://github.com/IntuitionAmiga/IntuitionEngine")
	fmt.Println("Buy me a coffee: https://ko-fi.com/intuition/tip")
	fmt.Println("License: GPLv3 or later")
}

type hostOptions struct {
	script    string
	font      string
	fontW     int
	fontH     int
	pngPath   string
	scale     int
	ansi      bool
	watch     bool
	window    bool
	debug     bool
	regs      bool
	memviz    string
	loadState string
	saveState string
	statsview bool
	features  bool
	list      bool
}

func main() {
	var opts hostOptions

	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&opts.script, "script", "gradx", "Guest script: built-in name or .lua file")
	flagSet.StringVar(&opts.font, "font", "basic8", "Font ROM: built-in name, .png sheet or raw .bin")
	flagSet.IntVar(&opts.fontW, "font-w", 8, "Glyph width for .png and .bin fonts")
	flagSet.IntVar(&opts.fontH, "font-h", 8, "Glyph height for .png and .bin fonts")
	flagSet.StringVar(&opts.pngPath, "png", "", "Write the final frame to this PNG file")
	flagSet.IntVar(&opts.scale, "scale", 2, "Integer scale for the window and PNG output")
	flagSet.BoolVar(&opts.ansi, "ansi", false, "Print the final frame as true-colour ANSI art")
	flagSet.BoolVar(&opts.watch, "watch", false, "Live ANSI view in the terminal (q quit, r reset, s save PNG)")
	flagSet.BoolVar(&opts.window, "window", false, "Open a window and present frames at the refresh rate")
	flagSet.BoolVar(&opts.debug, "debug", false, "Log GPU diagnostics and unmapped bus accesses")
	flagSet.BoolVar(&opts.regs, "regs", false, "Dump the GPU registers and counters after the run")
	flagSet.StringVar(&opts.memviz, "memviz", "", "Write a Graphviz graph of the GPU state to this file")
	flagSet.StringVar(&opts.loadState, "load-state", "", "Restore GPU registers and VRAM from a snapshot before the guest runs")
	flagSet.StringVar(&opts.saveState, "save-state", "", "Save GPU registers and VRAM to a snapshot after the run")
	flagSet.BoolVar(&opts.statsview, "statsview", false, "Serve runtime statistics (needs -tags statsview)")
	flagSet.BoolVar(&opts.features, "features", false, "Print compiled features and exit")
	flagSet.BoolVar(&opts.list, "list", false, "List built-in guest scripts and fonts and exit")

	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: ./aiz32gpu [-script gradx|file.lua] [-font basic8|file.png|file.bin] [-window|-watch] [-png out.png] [-ansi]")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if opts.features {
		printFeatures()
		return
	}
	if opts.list {
		fmt.Printf("Guest scripts: %s\n", strings.Join(BuiltinGuestNames(), ", "))
		fmt.Printf("Fonts:         %s\n", strings.Join(BuiltinFontNames(), ", "))
		return
	}
	if opts.window && opts.watch {
		fmt.Println("Error: choose one of -window or -watch")
		os.Exit(1)
	}

	if !opts.watch {
		boilerPlate()
	}

	if err := run(opts); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// host bundles the machine assembled for one run.
type host struct {
	gpu    *GPUChip
	bus    *MachineBus
	runner *GuestRunner
	name   string
	source string
}

func newHost(opts hostOptions) (*host, error) {
	rom, err := OpenFontROM(opts.font, opts.fontW, opts.fontH)
	if err != nil {
		return nil, err
	}

	cfg := DefaultGPUConfig()
	cfg.Font.GlyphWidth = uint8(rom.GlyphWidth)
	cfg.Font.GlyphHeight = uint8(rom.GlyphHeight)

	gpu := NewGPUChip(cfg)
	if opts.debug {
		gpu.SetDiagnosticHandler(func(e *GPUError) {
			fmt.Fprintf(os.Stderr, "gpu: %v\n", e)
		})
	}
	if err := gpu.InstallFontROM(rom.Data); err != nil {
		return nil, err
	}

	bus := NewMachineBus()
	bus.Verbose = opts.debug
	bus.MapIO("GPU", cfg.MMIOBase, cfg.MMIOBase+GPU_MMIO_SIZE-1,
		gpu.HandleRead,
		gpu.HandleWrite)
	bus.MapIO("VRAM", cfg.VRAMBase, cfg.VRAMBase+uint32(cfg.VRAMSize)-1,
		gpu.HandleVRAMRead,
		gpu.HandleVRAMWrite)
	bus.SealMappings()

	if opts.loadState != "" {
		if err := LoadSnapshotFromFile(gpu, opts.loadState); err != nil {
			return nil, err
		}
	}

	name, source, err := LoadGuest(opts.script)
	if err != nil {
		return nil, err
	}
	return &host{
		gpu:    gpu,
		bus:    bus,
		runner: NewGuestRunner(bus, cfg.Font),
		name:   name,
		source: source,
	}, nil
}

func run(opts hostOptions) error {
	h, err := newHost(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if opts.statsview {
		if err := launchStatsview(os.Stdout); err != nil {
			return err
		}
	}

	switch {
	case opts.window:
		err = h.runWindow(ctx, opts)
	case opts.watch:
		err = h.runWatch(ctx, opts)
	default:
		fmt.Printf("Running guest: %s\n", h.name)
		err = h.runner.Run(ctx, h.name, h.source)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return h.report(opts)
}

// runWindow presents frames while the guest runs and returns when the
// window is closed or the process is interrupted.
func (h *host) runWindow(ctx context.Context, opts hostOptions) error {
	output, err := NewVideoOutput(VIDEO_BACKEND_EBITEN)
	if err != nil {
		return fmt.Errorf("failed to initialize video: %w", err)
	}
	presenter := NewVideoPresenter(h.gpu, output, opts.scale)
	if err := presenter.Start(); err != nil {
		return err
	}
	defer presenter.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	guestErr := make(chan error, 1)
	go func(out chan<- error) {
		fmt.Printf("Running guest: %s\n", h.name)
		out <- h.runner.Run(ctx, h.name, h.source)
	}(guestErr)
	defer awaitGuest(cancel, &guestErr)

	var closed <-chan struct{}
	if d, ok := output.(interface{ Done() <-chan struct{} }); ok {
		closed = d.Done()
	}

	for {
		select {
		case err := <-guestErr:
			guestErr = nil
			if err != nil {
				return err
			}
		case <-closed:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// awaitGuest cancels a guest still running and waits for it to return, so
// the report afterwards reads settled counters. A nil channel means the
// guest has already been collected.
func awaitGuest(cancel context.CancelFunc, guestErr *chan error) {
	cancel()
	if *guestErr != nil {
		<-*guestErr
	}
}

// runWatch redraws the frame as ANSI art until q is pressed.
func (h *host) runWatch(ctx context.Context, opts hostOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	keys := make(chan byte, 16)
	term := NewTerminalHost(func(key byte) {
		select {
		case keys <- key:
		default:
		}
	})
	if err := term.Start(); err != nil {
		return err
	}
	defer term.Stop()

	guestErr := make(chan error, 1)
	go func(out chan<- error) {
		out <- h.runner.Run(ctx, h.name, h.source)
	}(guestErr)
	defer awaitGuest(cancel, &guestErr)

	out := crlfWriter{os.Stdout}
	status := "q quit  r reset  s save png"
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	fmt.Fprint(out, "\x1b[2J")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-guestErr:
			guestErr = nil
			if err != nil && !errors.Is(err, context.Canceled) {
				status = err.Error()
			} else {
				status = "guest finished  " + status
			}
		case key := <-keys:
			switch watchActionFor(key) {
			case watchQuit:
				return nil
			case watchReset:
				h.gpu.Reset()
				status = "reset"
			case watchSave:
				path := opts.pngPath
				if path == "" {
					path = h.name + ".png"
				}
				if err := WriteFramePNG(path, h.gpu, opts.scale); err != nil {
					status = err.Error()
				} else {
					status = "saved " + path
				}
			}
		case <-ticker.C:
			cols, rows := TerminalColumns()
			fmt.Fprint(out, "\x1b[H")
			if err := RenderANSI(out, h.gpu.FrameRGBA(), cols, rows-1); err != nil {
				return err
			}
			fmt.Fprintf(out, "\x1b[2K%s\n", status)
		}
	}
}

// crlfWriter restores carriage returns that raw terminal mode no longer adds.
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := io.WriteString(c.w, strings.ReplaceAll(string(p), "\n", "\r\n")); err != nil {
		return 0, err
	}
	return len(p), nil
}

// report writes the outputs requested on the command line.
func (h *host) report(opts hostOptions) error {
	if opts.pngPath != "" {
		if err := WriteFramePNG(opts.pngPath, h.gpu, opts.scale); err != nil {
			return err
		}
		fmt.Printf("Frame written to %s\n", opts.pngPath)
	}
	if opts.ansi {
		cols, _ := TerminalColumns()
		if err := RenderANSI(os.Stdout, h.gpu.FrameRGBA(), cols, 0); err != nil {
			return err
		}
	}
	if opts.regs {
		lines := formatIOView(h.bus, h.gpu.Config().MMIOBase, "gpu")
		lines = append(lines, formatDispatchView(h.gpu.Snapshot())...)
		lines = append(lines, formatBusMap(h.bus)...)
		fmt.Println(strings.Join(lines, "\n"))
	}
	if opts.memviz != "" {
		f, err := os.Create(opts.memviz)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", opts.memviz, err)
		}
		WriteStateGraph(f, h.gpu.Snapshot())
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("State graph written to %s\n", opts.memviz)
	}
	if opts.saveState != "" {
		if err := SaveSnapshotToFile(h.gpu, opts.saveState); err != nil {
			return err
		}
		fmt.Printf("GPU state saved to %s\n", opts.saveState)
	}
	if opts.debug {
		s := h.gpu.Snapshot().Stats
		fmt.Printf("guest stores %d, commands %d, faults C%d P%d B%d, bus faults %d\n",
			h.runner.Stores(), s.Dispatched, s.ConfigErrors, s.ProtocolErrors, s.BoundsErrors, h.bus.Faults())
	}
	return nil
}
