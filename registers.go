// registers.go - Host address map for the AIZ-32 GPU machine

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
registers.go - Master Address Map

This file is the reference for every region the guest can address. The GPU
core defines its detailed register constants in gpu_constants.go.

MEMORY MAP OVERVIEW
===================

Address Range            Size    Device              Constants File
---------------------------------------------------------------------------
0x00000000-0x001FFFFF    2MB     Main RAM            machine_bus.go
0x10000000-0x103FFFFF    4MB     Video RAM           gpu_constants.go
  +0x000000                      Framebuffer (FBADDR default)
  +0x200000              2KB     Font ROM (FONTADDR default, 256 x 8 bytes)
0x1F802000-0x1F8020FF    256B    GPU registers       gpu_constants.go

GPU REGISTERS (relative to 0x1F802000)
======================================

  0x00 WIDTH     u16  RW
  0x02 HEIGHT    u16  RW
  0x04 PITCH     u16  RW   pixels per row
  0x06 BPP       u8   RW   32 only
  0x08 FBADDR    u32  RW   VRAM offset
  0x0C STATUS    u32  RO   bit0 BUSY, bit1 PENDING, 8-15 last opcode, 16-31 count
  0x10 CMD       u16  WO   writing the high byte starts the command
  0x12-0x1F PARAM     WO   every byte stored here appends to the stream
  0x20 FONTADDR  u32  RW   VRAM offset
  0x24 FONTW     u8   RW
  0x25 FONTH     u8   RW
  0x28 PALADDR   u32  RW   stored only

All registers are little-endian and byte addressable.
*/

package main

// =============================================================================
// Region Boundaries
// =============================================================================

const (
	RAM_REGION_BASE = 0x00000000
	RAM_REGION_END  = RAM_REGION_BASE + DEFAULT_MEMORY_SIZE - 1

	VRAM_REGION_BASE = GPU_VRAM_BASE
	VRAM_REGION_END  = GPU_VRAM_BASE + GPU_VRAM_SIZE - 1

	GPU_REGION_BASE = GPU_MMIO_BASE
	GPU_REGION_END  = GPU_MMIO_BASE + GPU_MMIO_SIZE - 1
)

// =============================================================================
// Helper Functions
// =============================================================================

// IsIOAddress returns true if the address is in the GPU register window
func IsIOAddress(addr uint32) bool {
	return addr >= GPU_REGION_BASE && addr <= GPU_REGION_END
}

// IsVRAMAddress returns true if the address is in video memory
func IsVRAMAddress(addr uint32) bool {
	return addr >= VRAM_REGION_BASE && addr <= VRAM_REGION_END
}

// GetIORegion returns the device name for an address
func GetIORegion(addr uint32) string {
	switch {
	case addr <= RAM_REGION_END:
		return "RAM"
	case IsVRAMAddress(addr):
		return "VRAM"
	case IsIOAddress(addr):
		return "GPU"
	default:
		return "Unknown"
	}
}
