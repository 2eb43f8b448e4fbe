// gpu_debug.go - Register viewer, dispatcher dump and memviz state graph for the GPU host

package main

import (
	"fmt"
	"io"

	"github.com/bradleyjkemp/memviz"
)

// IORegisterDesc describes a single I/O register for display.
type IORegisterDesc struct {
	Name   string
	Offset uint32 // from the device base
	Width  int    // 1, 2, or 4 bytes
	Access string // "RW", "RO", "WO"
}

// IODeviceDesc describes a group of I/O registers for a device.
type IODeviceDesc struct {
	Name      string
	Registers []IORegisterDesc
}

var ioDevices = map[string]*IODeviceDesc{
	"gpu": {
		Name: "AIZ-32 GPU",
		Registers: []IORegisterDesc{
			{"WIDTH", GPU_REG_WIDTH, 2, "RW"},
			{"HEIGHT", GPU_REG_HEIGHT, 2, "RW"},
			{"PITCH", GPU_REG_PITCH, 2, "RW"},
			{"BPP", GPU_REG_BPP, 1, "RW"},
			{"FBADDR", GPU_REG_FBADDR, 4, "RW"},
			{"STATUS", GPU_REG_STATUS, 4, "RO"},
			{"CMD", GPU_REG_CMD, 2, "WO"},
			{"PARAM", GPU_REG_PARAM, 1, "WO"},
			{"FONTADDR", GPU_REG_FONTADDR, 4, "RW"},
			{"FONTW", GPU_REG_FONTW, 1, "RW"},
			{"FONTH", GPU_REG_FONTH, 1, "RW"},
			{"PALADDR", GPU_REG_PALADDR, 4, "RW"},
		},
	},
}

// formatIOView renders the register view for a device mapped at base.
// Reads go through the bus, so they see exactly what a guest load sees.
func formatIOView(bus Bus32, base uint32, deviceName string) []string {
	dev, ok := ioDevices[deviceName]
	if !ok {
		return []string{fmt.Sprintf("Unknown device: %s", deviceName)}
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("--- %s Registers ---", dev.Name))

	for _, reg := range dev.Registers {
		addr := base + reg.Offset
		if reg.Access == "WO" {
			lines = append(lines, fmt.Sprintf("  %-10s ($%08X) = --         %s", reg.Name, addr, reg.Access))
			continue
		}
		switch reg.Width {
		case 1:
			val := bus.Read8(addr)
			lines = append(lines, fmt.Sprintf("  %-10s ($%08X) = $%02X       [%d] %s", reg.Name, addr, val, val, reg.Access))
		case 2:
			val := bus.Read16(addr)
			lines = append(lines, fmt.Sprintf("  %-10s ($%08X) = $%04X     [%d] %s", reg.Name, addr, val, val, reg.Access))
		case 4:
			val := bus.Read32(addr)
			lines = append(lines, fmt.Sprintf("  %-10s ($%08X) = $%08X [%d] %s", reg.Name, addr, val, val, reg.Access))
		}
	}

	return lines
}

// formatDispatchView renders the dispatcher and fault counters.
func formatDispatchView(s GPUState) []string {
	lastOp := uint8(s.Status >> GPU_STATUS_OPCODE_SHIFT)
	lines := []string{
		"--- Dispatcher ---",
		fmt.Sprintf("  state      %s", s.DispatchState),
		fmt.Sprintf("  busy       %t", s.Status&GPU_STATUS_BUSY != 0),
		fmt.Sprintf("  buffered   %d bytes", s.BufferedBytes),
	}
	if s.PendingCommand != "" {
		lines = append(lines, fmt.Sprintf("  pending    %s (needs %d bytes)", s.PendingCommand, s.NeededBytes))
	}
	lines = append(lines,
		fmt.Sprintf("  last op    $%02X %s", lastOp, CommandName(uint16(lastOp))),
		"--- Counters ---",
		fmt.Sprintf("  commands   %d", s.Stats.Dispatched),
		fmt.Sprintf("  vram       %d byte stores", s.Stats.VRAMWrites),
		fmt.Sprintf("  config     %d", s.Stats.ConfigErrors),
		fmt.Sprintf("  protocol   %d", s.Stats.ProtocolErrors),
		fmt.Sprintf("  bounds     %d", s.Stats.BoundsErrors),
	)
	if s.Stats.LastError != "" {
		lines = append(lines, fmt.Sprintf("  last error %s", s.Stats.LastError))
	}
	return lines
}

// formatBusMap lists the I/O regions mapped on the bus.
func formatBusMap(bus *MachineBus) []string {
	lines := []string{"--- Bus Map ---"}
	for _, r := range bus.Regions() {
		lines = append(lines, "  "+r.String())
	}
	lines = append(lines, fmt.Sprintf("  faults %d", bus.Faults()))
	return lines
}

// WriteStateGraph writes a Graphviz dot graph of the chip state.
func WriteStateGraph(w io.Writer, s GPUState) {
	memviz.Map(w, &s)
}
