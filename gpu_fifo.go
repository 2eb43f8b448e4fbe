// gpu_fifo.go - Command parameter stream

package main

import "encoding/binary"

// ParameterStream is the append-only byte buffer that collects command
// parameters. Bytes are consumed in arrival order and the whole buffer is
// drained once per dispatched command.
type ParameterStream struct {
	buf []byte
}

func NewParameterStream() *ParameterStream {
	return &ParameterStream{
		buf: make([]byte, 0, 64),
	}
}

// Append adds one byte at the running cursor. It reports false when the
// stream is full and the byte was dropped.
func (s *ParameterStream) Append(value uint8) bool {
	if len(s.buf) >= PARAM_STREAM_CAPACITY {
		return false
	}
	s.buf = append(s.buf, value)
	return true
}

// Reset empties the stream, keeping its backing array.
func (s *ParameterStream) Reset() {
	s.buf = s.buf[:0]
}

// Len returns the number of buffered bytes.
func (s *ParameterStream) Len() int {
	return len(s.buf)
}

// Bytes returns the buffered bytes. The slice is only valid until the next
// Append or Reset.
func (s *ParameterStream) Bytes() []byte {
	return s.buf
}

// paramReader decodes little-endian fields from a dispatched parameter block.
// Reads past the end yield zero.
type paramReader struct {
	data []byte
	pos  int
}

func (r *paramReader) u16() uint16 {
	if r.pos+2 > len(r.data) {
		r.pos = len(r.data)
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v
}

func (r *paramReader) u32() uint32 {
	if r.pos+4 > len(r.data) {
		r.pos = len(r.data)
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v
}
