// gpu_vram.go - Video memory owned by the GPU core

package main

import (
	"encoding/binary"
	"fmt"
)

// VideoMemory is a flat byte buffer allocated once at construction. Pixels
// are 32-bit ARGB values stored little-endian, so byte 0 of a pixel is blue
// and byte 3 is alpha.
type VideoMemory struct {
	data []byte
}

func NewVideoMemory(size int) *VideoMemory {
	return &VideoMemory{data: make([]byte, size)}
}

func (v *VideoMemory) Len() int {
	return len(v.data)
}

func (v *VideoMemory) Read8(off uint32) (uint8, bool) {
	if uint64(off) >= uint64(len(v.data)) {
		return 0, false
	}
	return v.data[off], true
}

func (v *VideoMemory) Write8(off uint32, value uint8) bool {
	if uint64(off) >= uint64(len(v.data)) {
		return false
	}
	v.data[off] = value
	return true
}

// Load copies data into video memory at off.
func (v *VideoMemory) Load(off uint32, data []byte) error {
	end := uint64(off) + uint64(len(data))
	if end > uint64(len(v.data)) {
		return fmt.Errorf("vram load of %d bytes at $%08X exceeds %d byte VRAM", len(data), off, len(v.data))
	}
	copy(v.data[off:], data)
	return nil
}

// Clear zeroes the whole buffer in place.
func (v *VideoMemory) Clear() {
	for i := range v.data {
		v.data[i] = 0
	}
}

// contains reports whether [off, off+n) lies inside the buffer.
func (v *VideoMemory) contains(off, n int) bool {
	return off >= 0 && n >= 0 && off+n <= len(v.data)
}

// span returns the byte range [off, off+n) or false when out of bounds.
func (v *VideoMemory) span(off, n int) ([]byte, bool) {
	if !v.contains(off, n) {
		return nil, false
	}
	return v.data[off : off+n], true
}

func (v *VideoMemory) pixel(off int) (uint32, bool) {
	if !v.contains(off, GPU_BYTES_PER_PIXEL) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(v.data[off:]), true
}

func (v *VideoMemory) putPixel(off int, color uint32) bool {
	if !v.contains(off, GPU_BYTES_PER_PIXEL) {
		return false
	}
	binary.LittleEndian.PutUint32(v.data[off:], color)
	return true
}
