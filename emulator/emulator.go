// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/io"
)

// Renderer presents a frame of the display.
type Renderer interface {
	Render(frame io.Frame) error
}

// Emulator state. Machine + host key queue + display sink.
type Emulator struct {
	Verbose      bool         // If set, enables verbose logging.
	*cpu.Machine              // Reference to the machine simulation.
	Program      *cpu.Program // Source listing of the loaded program, may be nil.

	Config Config      // Host settings.
	Keys   io.KeyQueue // Pending key events, applied between steps.
	Screen Renderer    // Display sink, may be nil.

	image  []byte
	frames int
}

// NewEmulator creates a new emulator.
// Unset or negative rates in cfg take their DEFAULT_* values.
func NewEmulator(cfg Config) (emu *Emulator) {
	cfg = cfg.withDefaults()
	emu = &Emulator{
		Verbose: cfg.Verbose,
		Machine: cpu.NewMachine(),
		Config:  cfg,
	}

	emu.Machine.Verbose = cfg.Verbose

	return
}

// Load resets the machine and installs a program image.
// The image is kept so that Reset can restart it. An image too large
// for memory leaves the emulator unchanged.
func (emu *Emulator) Load(image []byte) (err error) {
	if len(image) > cpu.MAX_IMAGE_SIZE {
		err = fmt.Errorf("%w: %d > %d", cpu.ErrImageSize, len(image), cpu.MAX_IMAGE_SIZE)
		return
	}

	emu.Machine.Reset()

	err = emu.Machine.Load(image)
	if err != nil {
		return
	}

	emu.image = bytes.Clone(image)
	emu.Program = nil

	if emu.Verbose {
		log.Printf("emulator: loaded %d byte program", len(image))
	}

	return
}

// LoadProgram installs an assembled program, keeping its listing for
// fault reports.
func (emu *Emulator) LoadProgram(prog *cpu.Program) (err error) {
	err = emu.Load(prog.Binary())
	if err != nil {
		return
	}

	emu.Program = prog
	return
}

// LineNo returns the source line number of the opcode at the program
// counter, or 0 if unknown.
func (emu *Emulator) LineNo() int {
	if emu.Program == nil {
		return 0
	}

	dbg := emu.Program.Debug(emu.Machine.Pc)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// Reset the machine, pending key events, and restart the loaded program.
func (emu *Emulator) Reset() {
	emu.Keys.Rewind()
	emu.Machine.Reset()
	emu.frames = 0

	// The image was accepted by Load, so it still fits.
	_ = emu.Machine.Load(emu.image)
}

// Press queues a key down event.
func (emu *Emulator) Press(key uint8) error {
	return emu.queueKey(key, true)
}

// Release queues a key up event.
func (emu *Emulator) Release(key uint8) error {
	return emu.queueKey(key, false)
}

func (emu *Emulator) queueKey(key uint8, pressed bool) (err error) {
	if key >= cpu.KEY_COUNT {
		err = cpu.ErrKeyIndex
		return
	}

	err = emu.Keys.Send(io.KeyEvent{Key: key, Pressed: pressed})
	return
}

// Frames returns the number of frames run since a reset.
func (emu *Emulator) Frames() int {
	return emu.frames
}

// drainKeys applies all pending key events to the keypad.
func (emu *Emulator) drainKeys() (err error) {
	for {
		event, ok := emu.Keys.Receive()
		if !ok {
			return
		}

		if emu.Verbose {
			log.Printf("emulator: key %X pressed=%v", event.Key, event.Pressed)
		}

		err = emu.Machine.SetKey(int(event.Key), event.Pressed)
		if err != nil {
			return
		}
	}
}

// Tick applies pending key events, and performs a single machine step.
func (emu *Emulator) Tick() (err error) {
	emu.Machine.Verbose = emu.Verbose

	if emu.image == nil {
		err = ErrNoRom
		return
	}

	pc := emu.Machine.Pc
	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{Pc: pc, LineNo: lineno, Err: err}
		}
	}()

	err = emu.drainKeys()
	if err != nil {
		return
	}

	err = emu.Machine.Step()
	return
}

// Frame runs one timer period: the configured number of steps, a timer
// tick, and a render if the display changed.
func (emu *Emulator) Frame() (err error) {
	for range emu.Config.StepsPerFrame() {
		err = emu.Tick()
		if err != nil {
			return
		}
	}

	emu.Machine.TickTimers()
	emu.frames++

	err = emu.Render()
	return
}

// Render presents the display to the screen, if it changed.
func (emu *Emulator) Render() (err error) {
	if !emu.Machine.Dirty || emu.Screen == nil {
		return
	}

	frame := emu.Machine.Framebuffer()
	err = emu.Screen.Render(&frame)
	if err != nil {
		return
	}

	emu.Machine.Dirty = false
	return
}

// Run frames at the configured timer rate until the context is done,
// or the machine faults. A done context is not an error.
func (emu *Emulator) Run(ctx context.Context) (err error) {
	cfg := emu.Config.withDefaults()
	ticker := time.NewTicker(time.Second / time.Duration(cfg.TimerHz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if emu.Verbose {
				log.Printf("emulator: stopped after %d frames", emu.frames)
			}
			return
		case <-ticker.C:
			err = emu.Frame()
			if err != nil {
				return
			}
		}
	}
}

// Halted returns true if the machine has latched a fault.
func (emu *Emulator) Halted() bool {
	return emu.Machine.Fault() != nil
}

// IsFault returns true if err is a machine fault, as opposed to a host error.
func IsFault(err error) bool {
	var rt *ErrRuntime
	return errors.As(err, &rt)
}
