package io

import (
	"errors"

	"github.com/ezrec/chip8/translate"
)

var f = translate.From

var (
	// Channel errors
	ErrChannelFull = errors.New(f("channel full"))

	// Program image errors
	ErrRomSize    = errors.New(f("rom too large"))
	ErrRomMissing = errors.New(f("rom not found"))

	// Keymap errors
	ErrKeymap = errors.New(f("keymap invalid"))
)
