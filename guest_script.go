// guest_script.go - Lua guest driver issuing MMIO traffic on the machine bus

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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// GuestRunner executes Lua guest programs against a bus. Each poke is a
// single bus store of the given width, so the device sees exactly the byte
// sequence a compiled guest would produce.
type GuestRunner struct {
	bus    Bus32
	out    io.Writer
	font   FontConfig
	stores atomic.Uint64
}

func NewGuestRunner(bus Bus32, font FontConfig) *GuestRunner {
	return &GuestRunner{
		bus:  bus,
		out:  os.Stdout,
		font: font,
	}
}

// SetOutput redirects the guest's print().
func (g *GuestRunner) SetOutput(w io.Writer) {
	g.out = w
}

// Stores returns the number of bus stores issued so far.
func (g *GuestRunner) Stores() uint64 {
	return g.stores.Load()
}

// LoadGuest resolves a guest by built-in name or file path.
func LoadGuest(name string) (string, string, error) {
	if src, ok := builtinGuests()[name]; ok {
		return name, src, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", "", fmt.Errorf("failed to load guest %q: %w", name, err)
	}
	return strings.TrimSuffix(filepath.Base(name), ".lua"), string(data), nil
}

// Run executes source after the prelude. It returns when the script ends,
// raises an error or ctx is cancelled.
func (g *GuestRunner) Run(ctx context.Context, name, source string) error {
	L := lua.NewState()
	defer L.Close()
	L.SetContext(ctx)

	g.install(L)
	if err := L.DoString(guestPrelude); err != nil {
		return fmt.Errorf("guest prelude: %w", err)
	}
	if err := L.DoString(source); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("guest %s: %w", name, err)
	}
	return nil
}

func (g *GuestRunner) install(L *lua.LState) {
	L.SetGlobal("FONT_ADDR", lua.LNumber(g.font.FontOffset))
	L.SetGlobal("FONT_W", lua.LNumber(g.font.GlyphWidth))
	L.SetGlobal("FONT_H", lua.LNumber(g.font.GlyphHeight))

	L.SetGlobal("poke8", L.NewFunction(func(L *lua.LState) int {
		addr, v := checkU32(L, 1), checkU32(L, 2)
		g.bus.Write8(addr, uint8(v))
		g.stores.Add(1)
		return 0
	}))
	L.SetGlobal("poke16", L.NewFunction(func(L *lua.LState) int {
		addr, v := checkU32(L, 1), checkU32(L, 2)
		g.bus.Write16(addr, uint16(v))
		g.stores.Add(1)
		return 0
	}))
	L.SetGlobal("poke32", L.NewFunction(func(L *lua.LState) int {
		addr, v := checkU32(L, 1), checkU32(L, 2)
		g.bus.Write32(addr, v)
		g.stores.Add(1)
		return 0
	}))
	L.SetGlobal("peek8", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(g.bus.Read8(checkU32(L, 1))))
		return 1
	}))
	L.SetGlobal("peek16", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(g.bus.Read16(checkU32(L, 1))))
		return 1
	}))
	L.SetGlobal("peek32", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(g.bus.Read32(checkU32(L, 1))))
		return 1
	}))
	L.SetGlobal("sleep_ms", L.NewFunction(func(L *lua.LState) int {
		d := time.Duration(L.CheckInt64(1)) * time.Millisecond
		select {
		case <-time.After(d):
		case <-L.Context().Done():
			L.RaiseError("interrupted")
		}
		return 0
	}))
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		parts := make([]string, L.GetTop())
		for i := range parts {
			parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
		}
		fmt.Fprintf(g.out, "guest: %s\n", strings.Join(parts, "\t"))
		return 0
	}))
}

// checkU32 accepts any integral Lua number in the signed or unsigned 32-bit
// range and returns its low 32 bits.
func checkU32(L *lua.LState, n int) uint32 {
	v := L.CheckInt64(n)
	if v < -0x80000000 || v > 0xFFFFFFFF {
		L.ArgError(n, fmt.Sprintf("value %d out of 32-bit range", v))
	}
	return uint32(v)
}
