//go:build statsview

package main

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const STATSVIEW_ADDR = "localhost:12600"

func init() {
	compiledFeatures = append(compiledFeatures, "statsview")
}

// launchStatsview serves live runtime charts in a goroutine.
func launchStatsview(output io.Writer) error {
	go func() {
		viewer.SetConfiguration(viewer.WithAddr(STATSVIEW_ADDR))
		mgr := statsview.New()
		mgr.Start()
	}()
	fmt.Fprintf(output, "stats server available at http://%s/debug/statsview\n", STATSVIEW_ADDR)
	return nil
}
