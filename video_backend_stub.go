//go:build headless

package main

func init() {
	compiledFeatures = append(compiledFeatures, "video:headless")
}

// NewEbitenOutput falls back to the headless output when built without a
// window system.
func NewEbitenOutput() (VideoOutput, error) {
	return NewHeadlessOutput(), nil
}
