//go:build !windows

package main

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"

	"golang.org/x/term"
)

// TerminalHost puts stdin in raw non-blocking mode while the watch view runs
// and delivers each key to a callback.
type TerminalHost struct {
	onKey    func(key byte)
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	fd       int
	restore  *term.State
	nonblock bool
}

func NewTerminalHost(onKey func(key byte)) *TerminalHost {
	return &TerminalHost{
		onKey:  onKey,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (h *TerminalHost) Start() error {
	h.fd = int(os.Stdin.Fd())

	state, err := term.MakeRaw(h.fd)
	if err != nil {
		close(h.done)
		return fmt.Errorf("terminal_host: failed to set raw mode: %w", err)
	}
	h.restore = state

	if err := syscall.SetNonblock(h.fd, true); err != nil {
		h.restoreTerminal()
		close(h.done)
		return fmt.Errorf("terminal_host: failed to set nonblocking stdin: %w", err)
	}
	h.nonblock = true

	go func() {
		defer close(h.done)
		read := func(b []byte) (int, error) { return syscall.Read(h.fd, b) }
		pumpKeys(read, wouldBlock, h.stopCh, h.onKey)
	}()
	return nil
}

func wouldBlock(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, syscall.EINTR)
}

// Stop waits for the reader to exit, then restores stdin.
func (h *TerminalHost) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
	<-h.done
	h.restoreTerminal()
}

func (h *TerminalHost) restoreTerminal() {
	if h.nonblock {
		_ = syscall.SetNonblock(h.fd, false)
		h.nonblock = false
	}
	if h.restore != nil {
		_ = term.Restore(h.fd, h.restore)
		h.restore = nil
	}
}
