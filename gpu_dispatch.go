// gpu_dispatch.go - Command dispatcher state machine

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
	"encoding/binary"
	"fmt"
)

// dispatchState tracks where the dispatcher is in a command's lifetime.
type dispatchState uint8

const (
	dispatchIdle          dispatchState = iota // Stream holds only pre-loaded parameters
	dispatchAccumulating                       // Fixed-arity command waiting for bytes
	dispatchHeaderPending                      // Variable command waiting for its header
	dispatchPayloadPending                     // Variable command waiting for header-sized payload
)

func (s dispatchState) String() string {
	switch s {
	case dispatchIdle:
		return "IDLE"
	case dispatchAccumulating:
		return "ACCUMULATING"
	case dispatchHeaderPending:
		return "HEADER_PENDING"
	case dispatchPayloadPending:
		return "CHARS_PENDING"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// commandSpec describes a command's parameter arity. bytes is the fixed
// part; variable commands derive their total length from that fixed header.
type commandSpec struct {
	name     string
	bytes    int
	variable func(header []byte) int
}

func putsLength(header []byte) int {
	n := binary.LittleEndian.Uint16(header[PUTS_LEN_OFFSET:])
	return PUTS_HEADER_BYTES + 2*int(n)
}

var gpuCommands = map[uint16]*commandSpec{
	GPU_CMD_CLEAR:        {name: "CLEAR", bytes: 4},
	GPU_CMD_GRAD_X:       {name: "GRAD_X", bytes: 8},
	GPU_CMD_PUTCHAR:      {name: "PUTCHAR", bytes: 14},
	GPU_CMD_PUTS:         {name: "PUTS", bytes: PUTS_HEADER_BYTES, variable: putsLength},
	GPU_CMD_BLIT_TILEMAP: {name: "BLIT_TILEMAP", bytes: 16},
	GPU_CMD_FILLRECT:     {name: "FILLRECT", bytes: 12},
	GPU_CMD_GRAD_Y:       {name: "GRAD_Y", bytes: 8},
	GPU_CMD_RECT_OUTLINE: {name: "RECT_OUTLINE", bytes: 12},
	GPU_CMD_LINE:         {name: "LINE", bytes: 12},
	GPU_CMD_BLIT:         {name: "BLIT", bytes: 12},
	GPU_CMD_GRAD_XY:      {name: "GRAD_XY", bytes: 16},
}

// CommandName returns the mnemonic for an opcode.
func CommandName(op uint16) string {
	if spec, ok := gpuCommands[op]; ok {
		return spec.name
	}
	return fmt.Sprintf("$%04X", op)
}

// Dispatcher sequences CMD and PARAM writes into complete commands.
//
// The opcode becomes known when the high byte of CMD is written. Parameters
// may arrive before or after that write: the bytes already buffered count
// towards the command, so both orderings dispatch on the same byte.
type Dispatcher struct {
	stream *ParameterStream
	state  dispatchState
	cmd    uint16
	spec   *commandSpec
	need   int

	cmdLatch   uint16
	busy       bool
	overflowed bool

	dispatched uint64
	lastOp     uint16

	execute func(op uint16, params []byte)
	report  func(*GPUError)
}

func NewDispatcher(execute func(op uint16, params []byte), report func(*GPUError)) *Dispatcher {
	return &Dispatcher{
		stream:  NewParameterStream(),
		execute: execute,
		report:  report,
	}
}

// Reset drops any pending command and buffered parameters.
func (d *Dispatcher) Reset() {
	d.stream.Reset()
	d.state = dispatchIdle
	d.cmd = 0
	d.spec = nil
	d.need = 0
	d.cmdLatch = 0
	d.busy = false
	d.overflowed = false
	d.dispatched = 0
	d.lastOp = 0
}

// WriteCommandByte handles a byte store to the CMD register. lane 1 (the
// high byte) latches the opcode and starts sequencing.
func (d *Dispatcher) WriteCommandByte(lane uint32, value uint8) {
	setLane16(&d.cmdLatch, lane, value)
	if lane == 1 {
		op := d.cmdLatch
		d.cmdLatch = 0
		d.begin(op)
	}
}

// WriteParamByte appends one byte to the parameter stream.
func (d *Dispatcher) WriteParamByte(value uint8) {
	if !d.stream.Append(value) {
		if !d.overflowed {
			d.report(protocolError("PARAM", "parameter stream full at %d bytes, dropping input", d.stream.Len()))
			d.overflowed = true
		}
		return
	}
	if d.state != dispatchIdle {
		d.advance()
	}
}

func (d *Dispatcher) begin(op uint16) {
	if d.state != dispatchIdle {
		d.report(protocolError(d.spec.name, "aborted by $%04X with %d of %d parameter bytes", op, d.stream.Len(), d.need))
		d.clearStream()
		d.state = dispatchIdle
	}

	spec, ok := gpuCommands[op]
	if !ok {
		d.report(protocolError("CMD", "unknown opcode $%04X, discarding %d parameter bytes", op, d.stream.Len()))
		d.clearStream()
		return
	}

	d.cmd = op
	d.spec = spec
	d.need = spec.bytes
	if spec.variable != nil {
		d.state = dispatchHeaderPending
	} else {
		d.state = dispatchAccumulating
	}
	d.advance()
}

// advance dispatches once enough bytes are buffered. Variable commands
// first resolve their full length from the header.
func (d *Dispatcher) advance() {
	for d.stream.Len() >= d.need {
		if d.state == dispatchHeaderPending {
			d.need = d.spec.variable(d.stream.Bytes()[:d.spec.bytes])
			d.state = dispatchPayloadPending
			continue
		}
		d.dispatch()
		return
	}
}

func (d *Dispatcher) dispatch() {
	params := d.stream.Bytes()
	if extra := len(params) - d.need; extra > 0 {
		d.report(protocolError(d.spec.name, "discarding %d surplus parameter bytes", extra))
		params = params[:d.need]
	}

	d.busy = true
	d.execute(d.cmd, params)
	d.busy = false

	d.dispatched++
	d.lastOp = d.cmd
	d.clearStream()
	d.state = dispatchIdle
	d.spec = nil
	d.need = 0
}

func (d *Dispatcher) clearStream() {
	d.stream.Reset()
	d.overflowed = false
}

// Pending reports whether a command is waiting for parameters.
func (d *Dispatcher) Pending() bool {
	return d.state != dispatchIdle
}

// status composes the STATUS register value.
func (d *Dispatcher) status() uint32 {
	var s uint32
	if d.busy {
		s |= GPU_STATUS_BUSY
	}
	if d.state != dispatchIdle {
		s |= GPU_STATUS_PENDING
	}
	s |= uint32(uint8(d.lastOp)) << GPU_STATUS_OPCODE_SHIFT
	s |= uint32(uint16(d.dispatched)) << GPU_STATUS_COUNT_SHIFT
	return s
}
