// gpu_constants.go - Register map and command opcodes for the AIZ-32 GPU core

package main

// ------------------------------------------------------------------------------
// Memory map
// ------------------------------------------------------------------------------
const (
	GPU_MMIO_BASE = 0x1F802000 // Register window base
	GPU_MMIO_SIZE = 0x100      // Register window length

	GPU_VRAM_BASE = 0x10000000      // Video memory base
	GPU_VRAM_SIZE = 4 * 1024 * 1024 // 4MB, covers 1024x1024x32 plus font ROM

	GPU_FONT_OFFSET = 0x00200000 // Default font ROM offset inside VRAM
)

// ------------------------------------------------------------------------------
// Register offsets (relative to GPU_MMIO_BASE)
// ------------------------------------------------------------------------------
const (
	GPU_REG_WIDTH     = 0x00 // u16
	GPU_REG_HEIGHT    = 0x02 // u16
	GPU_REG_PITCH     = 0x04 // u16, pixels per row
	GPU_REG_BPP       = 0x06 // u8, only 32 is rendered
	GPU_REG_FBADDR    = 0x08 // u32, offset into VRAM
	GPU_REG_STATUS    = 0x0C // u32, read only
	GPU_REG_CMD       = 0x10 // u16, high byte write latches the opcode
	GPU_REG_PARAM     = 0x12 // parameter stream window start
	GPU_REG_PARAM_END = 0x1F // parameter stream window end (inclusive)
	GPU_REG_FONTADDR  = 0x20 // u32, offset into VRAM
	GPU_REG_FONTW     = 0x24 // u8
	GPU_REG_FONTH     = 0x25 // u8
	GPU_REG_PALADDR   = 0x28 // u32, stored only
)

// STATUS bits
const (
	GPU_STATUS_BUSY    = 1 << 0 // Set while a dispatch is running
	GPU_STATUS_PENDING = 1 << 1 // A command is waiting for parameters

	GPU_STATUS_OPCODE_SHIFT = 8  // Last dispatched opcode (low byte)
	GPU_STATUS_COUNT_SHIFT  = 16 // Dispatch counter (16 bits, wraps)
)

// ------------------------------------------------------------------------------
// Command opcodes
// ------------------------------------------------------------------------------
const (
	GPU_CMD_CLEAR        = 0x0001
	GPU_CMD_GRAD_X       = 0x0002
	GPU_CMD_PUTCHAR      = 0x0003
	GPU_CMD_PUTS         = 0x0004
	GPU_CMD_BLIT_TILEMAP = 0x0005
	GPU_CMD_FILLRECT     = 0x0006
	GPU_CMD_GRAD_Y       = 0x0007
	GPU_CMD_RECT_OUTLINE = 0x0008
	GPU_CMD_LINE         = 0x0009
	GPU_CMD_BLIT         = 0x000A
	GPU_CMD_GRAD_XY      = 0x000B
)

// Parameter widths in bytes
const (
	PUTS_HEADER_BYTES = 14 // x, y, len (u16) + fg, bg (u32)
	PUTS_LEN_OFFSET   = 4  // byte offset of len inside the header

	PARAM_STREAM_CAPACITY = PUTS_HEADER_BYTES + 2*0xFFFF
)

// Reset defaults, matching the boot sequence of the reference host.
const (
	GPU_DEFAULT_WIDTH  = 320
	GPU_DEFAULT_HEIGHT = 200
	GPU_DEFAULT_PITCH  = 320
	GPU_DEFAULT_BPP    = 32
	GPU_DEFAULT_FONTW  = 8
	GPU_DEFAULT_FONTH  = 8

	GPU_BYTES_PER_PIXEL = 4
	GPU_ALPHA_OPAQUE    = 0xFF000000
)
