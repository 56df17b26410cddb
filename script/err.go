package script

import (
	"errors"

	"github.com/ezrec/chip8/translate"
)

var f = translate.From

var (
	ErrRegister = errors.New(f("register out of range"))
	ErrCount    = errors.New(f("negative count"))
)
