// machine_bus.go - Machine bus for the AIZ-32 GPU host

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
Buy me a coffee: https://ko-fi.com/intuition/tip

License: GPLv3 or later
*/

/*
machine_bus.go - Machine Bus

This module implements the address space the guest sees: a block of main
memory at address zero plus memory-mapped I/O regions registered by the
peripherals.

Core Features:

    2MB of main memory allocated as a contiguous block.
    Byte-lane memory-mapped I/O via a page table keyed by 256 byte pages.
    Little-endian 8, 16 and 32-bit loads and stores.

Technical Details:

    I/O regions are registered with MapIO and receive single bytes. Wider
    accesses that touch an I/O page are split into byte accesses, low byte
    first, so a 16-bit store to a register pair delivers its low byte before
    its high byte. Peripherals rely on that order.
    Pages with no I/O mapping take a fast path straight into main memory.
    Accesses that hit neither RAM nor a region are dropped (reads yield 0)
    and counted as faults.

*/

package main

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"slices"
	"sync/atomic"
)

const (
	DEFAULT_MEMORY_SIZE = 2 * 1024 * 1024
	PAGE_SIZE           = 0x100
	PAGE_MASK           = 0xFFFFFF00
)

type Bus32 interface {
	/*
		Bus32 defines the guest's view of the machine: byte, halfword and
		word accesses plus a reset. Implementations route accesses to main
		memory or to memory-mapped peripherals.
	*/

	Read8(addr uint32) uint8
	Write8(addr uint32, value uint8)
	Read16(addr uint32) uint16
	Write16(addr uint32, value uint16)
	Read32(addr uint32) uint32
	Write32(addr uint32, value uint32)
	Reset()
	GetMemory() []byte
}

type MachineBus struct {
	memory  []byte
	mapping map[uint32][]IORegion

	// Indexed by (addr >> 8) over main memory, true if the page has I/O.
	ioPageBitmap []bool

	// Print a warning for every unmapped access
	Verbose bool

	faults atomic.Uint64
	sealed atomic.Bool
}

type IORegion struct {
	/*
		IORegion represents a memory-mapped I/O region. Its callbacks are
		invoked for every byte access that falls inside [start, end].
	*/
	name    string
	start   uint32
	end     uint32
	onRead  func(addr uint32) uint8
	onWrite func(addr uint32, value uint8)
}

func NewMachineBus() *MachineBus {
	return &MachineBus{
		memory:       make([]byte, DEFAULT_MEMORY_SIZE),
		mapping:      make(map[uint32][]IORegion),
		ioPageBitmap: make([]bool, DEFAULT_MEMORY_SIZE/PAGE_SIZE),
	}
}

// GetMemory returns a direct reference to main memory.
func (bus *MachineBus) GetMemory() []byte {
	return bus.memory
}

// SealMappings prevents further MapIO calls once a guest is running.
func (bus *MachineBus) SealMappings() {
	bus.sealed.CompareAndSwap(false, true)
}

// Faults returns the number of accesses that hit unmapped space.
func (bus *MachineBus) Faults() uint64 {
	return bus.faults.Load()
}

// MapIO registers a byte-lane I/O region covering [start, end] inclusive.
func (bus *MachineBus) MapIO(name string, start, end uint32, onRead func(addr uint32) uint8, onWrite func(addr uint32, value uint8)) {
	if bus.sealed.Load() {
		panic(fmt.Sprintf("MapIO called after execution started (mapping %s $%08X-$%08X)", name, start, end))
	}
	if end < start {
		panic(fmt.Sprintf("MapIO %s: end $%08X before start $%08X", name, end, start))
	}
	region := IORegion{
		name:    name,
		start:   start,
		end:     end,
		onRead:  onRead,
		onWrite: onWrite,
	}

	lastPage := end & PAGE_MASK
	for page := start & PAGE_MASK; ; page += PAGE_SIZE {
		bus.mapping[page] = append(bus.mapping[page], region)
		if pageIdx := page >> 8; pageIdx < uint32(len(bus.ioPageBitmap)) {
			bus.ioPageBitmap[pageIdx] = true
		}
		if page == lastPage {
			break
		}
	}
}

// Regions lists the mapped regions by start address, for the debug view.
func (bus *MachineBus) Regions() []IORegion {
	seen := make(map[string]bool)
	var out []IORegion
	for _, regions := range bus.mapping {
		for _, r := range regions {
			key := fmt.Sprintf("%s@%08X", r.name, r.start)
			if !seen[key] {
				seen[key] = true
				out = append(out, r)
			}
		}
	}
	slices.SortFunc(out, func(a, b IORegion) int {
		return cmp.Compare(a.start, b.start)
	})
	return out
}

func (r IORegion) String() string {
	return fmt.Sprintf("%-6s $%08X-$%08X", r.name, r.start, r.end)
}

// findIORegion looks up the I/O region for the given address.
func (bus *MachineBus) findIORegion(addr uint32) *IORegion {
	if regions, exists := bus.mapping[addr&PAGE_MASK]; exists {
		for i := range regions {
			if addr >= regions[i].start && addr <= regions[i].end {
				return &regions[i]
			}
		}
	}
	return nil
}

// plain reports whether [addr, addr+n) is main memory with no I/O pages.
func (bus *MachineBus) plain(addr uint32, n uint32) bool {
	end := uint64(addr) + uint64(n)
	if end > uint64(len(bus.memory)) {
		return false
	}
	return !bus.ioPageBitmap[addr>>8] && !bus.ioPageBitmap[uint32(end-1)>>8]
}

func (bus *MachineBus) fault(kind string, addr uint32) {
	bus.faults.Add(1)
	if bus.Verbose {
		fmt.Printf("Warning: %s to unmapped address 0x%08X\n", kind, addr)
	}
}

// Read8WithFault performs a byte load and reports whether the address was mapped.
func (bus *MachineBus) Read8WithFault(addr uint32) (uint8, bool) {
	if region := bus.findIORegion(addr); region != nil {
		if region.onRead == nil {
			return 0, true
		}
		return region.onRead(addr), true
	}
	if addr < uint32(len(bus.memory)) {
		return bus.memory[addr], true
	}
	return 0, false
}

// Write8WithFault performs a byte store and reports whether the address was mapped.
func (bus *MachineBus) Write8WithFault(addr uint32, value uint8) bool {
	if region := bus.findIORegion(addr); region != nil {
		if region.onWrite != nil {
			region.onWrite(addr, value)
		}
		return true
	}
	if addr < uint32(len(bus.memory)) {
		bus.memory[addr] = value
		return true
	}
	return false
}

func (bus *MachineBus) Read8(addr uint32) uint8 {
	if addr < uint32(len(bus.memory)) && !bus.ioPageBitmap[addr>>8] {
		return bus.memory[addr]
	}
	v, ok := bus.Read8WithFault(addr)
	if !ok {
		bus.fault("Read8", addr)
	}
	return v
}

func (bus *MachineBus) Write8(addr uint32, value uint8) {
	if addr < uint32(len(bus.memory)) && !bus.ioPageBitmap[addr>>8] {
		bus.memory[addr] = value
		return
	}
	if !bus.Write8WithFault(addr, value) {
		bus.fault("Write8", addr)
	}
}

func (bus *MachineBus) Read16(addr uint32) uint16 {
	if bus.plain(addr, 2) {
		return binary.LittleEndian.Uint16(bus.memory[addr:])
	}
	return uint16(bus.Read8(addr)) | uint16(bus.Read8(addr+1))<<8
}

// Write16 stores a halfword. Split stores deliver the low byte first.
func (bus *MachineBus) Write16(addr uint32, value uint16) {
	if bus.plain(addr, 2) {
		binary.LittleEndian.PutUint16(bus.memory[addr:], value)
		return
	}
	bus.Write8(addr, uint8(value))
	bus.Write8(addr+1, uint8(value>>8))
}

func (bus *MachineBus) Read32(addr uint32) uint32 {
	if bus.plain(addr, 4) {
		return binary.LittleEndian.Uint32(bus.memory[addr:])
	}
	return uint32(bus.Read16(addr)) | uint32(bus.Read16(addr+2))<<16
}

// Write32 stores a word. Split stores deliver bytes in ascending address order.
func (bus *MachineBus) Write32(addr uint32, value uint32) {
	if bus.plain(addr, 4) {
		binary.LittleEndian.PutUint32(bus.memory[addr:], value)
		return
	}
	bus.Write16(addr, uint16(value))
	bus.Write16(addr+2, uint16(value>>16))
}
