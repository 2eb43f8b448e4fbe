//go:build windows

package main

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/term"
)

// TerminalHost puts the console in raw mode while the watch view runs and
// delivers each key to a callback. Console reads block, so the reader
// goroutine only notices Stop after the next key.
type TerminalHost struct {
	onKey    func(key byte)
	stopCh   chan struct{}
	stopOnce sync.Once

	fd      int
	restore *term.State
}

func NewTerminalHost(onKey func(key byte)) *TerminalHost {
	return &TerminalHost{
		onKey:  onKey,
		stopCh: make(chan struct{}),
	}
}

func (h *TerminalHost) Start() error {
	h.fd = int(os.Stdin.Fd())

	state, err := term.MakeRaw(h.fd)
	if err != nil {
		return fmt.Errorf("terminal_host: failed to set raw mode: %w", err)
	}
	h.restore = state

	go pumpKeys(os.Stdin.Read, nil, h.stopCh, h.onKey)
	return nil
}

func (h *TerminalHost) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
	if h.restore != nil {
		_ = term.Restore(h.fd, h.restore)
		h.restore = nil
	}
}
