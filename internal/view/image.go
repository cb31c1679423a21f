package view

import (
	"fmt"
	"io"
)

// ZoomableImage flips between fitted and zoomed on each Toggle.
type ZoomableImage struct {
	Src    string
	Alt    string
	Zoomed bool
}

func NewZoomableImage(src, alt string) *ZoomableImage {
	return &ZoomableImage{Src: src, Alt: alt}
}

// Toggle flips the zoom state and returns the new value.
func (z *ZoomableImage) Toggle() bool {
	z.Zoomed = !z.Zoomed
	return z.Zoomed
}

func (z *ZoomableImage) Render(w io.Writer) {
	mode := "fit"
	if z.Zoomed {
		mode = "zoomed"
	}
	fmt.Fprintf(w, "[image %s (%s)] %s\n", z.Alt, mode, z.Src)
}
