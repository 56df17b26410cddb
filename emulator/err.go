package emulator

import (
	"errors"

	"github.com/ezrec/chip8/translate"
)

var f = translate.From

var (
	ErrConfig = errors.New(f("invalid configuration"))
	ErrNoRom  = errors.New(f("no program loaded"))
)

// ErrRuntime indicates the location of a machine fault.
type ErrRuntime struct {
	Pc     uint16
	LineNo int // Source line, if the program was assembled. Otherwise 0.
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo > 0 {
		return f("line %d pc 0x%03x: %v", err.LineNo, err.Pc, err.Err)
	}
	return f("pc 0x%03x: %v", err.Pc, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
