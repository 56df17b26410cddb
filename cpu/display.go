package cpu

import (
	"strings"
)

const (
	DISPLAY_WIDTH  = 64
	DISPLAY_HEIGHT = 32
)

// Display is the monochrome framebuffer, one bool per pixel in row-major order.
type Display [DISPLAY_WIDTH * DISPLAY_HEIGHT]bool

// Width of the display in pixels.
func (d *Display) Width() int {
	return DISPLAY_WIDTH
}

// Height of the display in pixels.
func (d *Display) Height() int {
	return DISPLAY_HEIGHT
}

// Pixel returns the state of the pixel at (x, y). Coordinates wrap.
func (d *Display) Pixel(x, y int) bool {
	return d[d.offset(x, y)]
}

func (d *Display) offset(x, y int) int {
	x %= DISPLAY_WIDTH
	if x < 0 {
		x += DISPLAY_WIDTH
	}
	y %= DISPLAY_HEIGHT
	if y < 0 {
		y += DISPLAY_HEIGHT
	}
	return y*DISPLAY_WIDTH + x
}

// Clear turns every pixel off.
func (d *Display) Clear() {
	clear(d[:])
}

// Draw XORs an 8-pixel wide sprite onto the display at (x, y), one row
// per byte. Pixels that fall off an edge wrap to the opposite edge.
// Returns true if any pixel was turned off.
func (d *Display) Draw(x, y int, sprite []uint8) (collision bool) {
	for row, bits := range sprite {
		for col := range 8 {
			if (bits & (0x80 >> col)) == 0 {
				continue
			}
			n := d.offset(x+col, y+row)
			if d[n] {
				collision = true
			}
			d[n] = !d[n]
		}
	}

	return
}

// Lit returns the number of pixels that are on.
func (d *Display) Lit() (count int) {
	for _, on := range d {
		if on {
			count++
		}
	}
	return
}

// String renders the display as rows of '#' and '.'.
func (d *Display) String() string {
	var sb strings.Builder
	sb.Grow((DISPLAY_WIDTH + 1) * DISPLAY_HEIGHT)
	for y := range DISPLAY_HEIGHT {
		for x := range DISPLAY_WIDTH {
			if d[y*DISPLAY_WIDTH+x] {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
