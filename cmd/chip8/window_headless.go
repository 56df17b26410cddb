//go:build headless

package main

import (
	"context"

	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/io"
)

// runWindow is not available without a display; the terminal is used instead.
func runWindow(ctx context.Context, emu *emulator.Emulator, keymap io.Keymap) error {
	return errNoWindow
}
