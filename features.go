// features.go - Build feature registry and device report for -features

package main

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// Version is overridden at link time with -ldflags "-X main.Version=...".
var Version = "dev"

// compiledFeatures tracks build-time feature flags via init() registration.
var compiledFeatures []string

// commandNames lists the opcodes the dispatcher accepts, in opcode order.
func commandNames() []string {
	ops := make([]int, 0, len(gpuCommands))
	for op := range gpuCommands {
		ops = append(ops, int(op))
	}
	sort.Ints(ops)
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = fmt.Sprintf("%02X %s", op, gpuCommands[uint16(op)].name)
	}
	return names
}

func printFeatures() {
	cfg := DefaultGPUConfig()
	fmt.Printf("AIZ-32 GPU %s (%s, %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  registers  $%08X, %d bytes\n", cfg.MMIOBase, GPU_MMIO_SIZE)
	fmt.Printf("  vram       $%08X, %d KiB, font at +$%06X\n", cfg.VRAMBase, cfg.VRAMSize/1024, cfg.Font.FontOffset)
	fmt.Printf("  commands   %s\n", strings.Join(commandNames(), ", "))

	features := append([]string(nil), compiledFeatures...)
	sort.Strings(features)
	if len(features) == 0 {
		features = []string{"(none)"}
	}
	fmt.Printf("  build      %s\n", strings.Join(features, " "))
}
