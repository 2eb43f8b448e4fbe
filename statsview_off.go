//go:build !statsview

package main

import (
	"errors"
	"io"
)

func launchStatsview(io.Writer) error {
	return errors.New("statsview not compiled in, rebuild with -tags statsview")
}
