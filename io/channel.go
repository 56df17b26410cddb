// Package io provides the host-side collaborators of the CHIP-8 machine.
// It includes program image loading (ReadRom, Library), keyboard input
// mapping and buffering (Keymap, KeyQueue), a text framebuffer renderer
// (Screen), and tone sinks for the sound timer (Bell, ToneLog).
package io

// Speaker receives tone on/off transitions from the sound timer.
type Speaker interface {
	// Tone is called with true when the tone starts, and false when it stops.
	Tone(on bool)
}

// Frame is a read-only monochrome bitmap.
type Frame interface {
	Width() int
	Height() int
	Pixel(x, y int) bool
}
