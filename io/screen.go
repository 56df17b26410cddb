package io

import (
	"bytes"
	"io"
)

// ANSI escape to home the cursor between frames.
const screenHome = "\x1b[H"

// Screen renders frames as text, two pixel rows per line using the
// Unicode half-block glyphs.
type Screen struct {
	Output io.Writer
	Home   bool // Emit a cursor-home escape before each frame.

	buffer bytes.Buffer
}

var halfBlock = [4]string{
	" ", // neither
	"▀", // upper
	"▄", // lower
	"█", // both
}

// Render writes one frame to the output.
func (sc *Screen) Render(frame Frame) (err error) {
	sc.buffer.Reset()

	if sc.Home {
		sc.buffer.WriteString(screenHome)
	}

	width, height := frame.Width(), frame.Height()
	for y := 0; y < height; y += 2 {
		for x := range width {
			var glyph int
			if frame.Pixel(x, y) {
				glyph |= 1
			}
			if y+1 < height && frame.Pixel(x, y+1) {
				glyph |= 2
			}
			sc.buffer.WriteString(halfBlock[glyph])
		}
		// Raw mode terminals do not translate '\n'.
		sc.buffer.WriteString("\r\n")
	}

	_, err = sc.Output.Write(sc.buffer.Bytes())
	return
}
