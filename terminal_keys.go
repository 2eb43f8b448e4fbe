// terminal_keys.go - Key decoding for the -watch terminal view

package main

import "time"

const KEY_POLL_INTERVAL = 5 * time.Millisecond

type watchAction uint8

const (
	watchNone watchAction = iota
	watchQuit
	watchReset
	watchSave
)

// watchActionFor maps a normalised key to the action the watch loop takes.
func watchActionFor(key byte) watchAction {
	switch key {
	case 'q', 0x03, 0x1B: // q, ^C, Esc
		return watchQuit
	case 'r':
		return watchReset
	case 's':
		return watchSave
	}
	return watchNone
}

// normalizeKey folds raw mode Enter to LF and upper case letters to lower.
func normalizeKey(b byte) byte {
	switch {
	case b == '\r':
		return '\n'
	case b >= 'A' && b <= 'Z':
		return b + ('a' - 'A')
	}
	return b
}

// pumpKeys reads single bytes until stop is closed or read fails with an
// error retry does not accept. Empty and retried reads back off briefly.
func pumpKeys(read func([]byte) (int, error), retry func(error) bool, stop <-chan struct{}, onKey func(byte)) {
	buf := make([]byte, 1)
	for {
		select {
		case <-stop:
			return
		default:
		}

		n, err := read(buf)
		if n > 0 {
			onKey(normalizeKey(buf[0]))
		}
		switch {
		case err != nil && retry != nil && retry(err):
		case err != nil:
			return
		case n > 0:
			continue
		}
		time.Sleep(KEY_POLL_INTERVAL)
	}
}
