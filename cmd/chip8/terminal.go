package main

import (
	"bufio"
	"context"
	"log"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/io"
	"github.com/ezrec/chip8/translate"
)

const (
	TERMINAL_KEY_HOLD = 150 * time.Millisecond // Terminals report no key up.
	TERMINAL_ESCAPE   = 0x1b
	TERMINAL_CTRL_C   = 0x03

	terminalClear = "\x1b[2J\x1b[H"
)

// autoRelease presses keys, and releases each one after it has not been
// seen for a hold period.
type autoRelease struct {
	Hold    time.Duration
	Press   func(key uint8) error
	Release func(key uint8) error

	mutex  sync.Mutex
	timers [cpu.KEY_COUNT]*time.Timer
}

// Hit presses the key, or extends the hold if already pressed.
func (ar *autoRelease) Hit(key uint8) (err error) {
	ar.mutex.Lock()
	defer ar.mutex.Unlock()

	if timer := ar.timers[key]; timer != nil && timer.Stop() {
		timer.Reset(ar.Hold)
		return
	}

	err = ar.Press(key)
	if err != nil {
		return
	}

	var timer *time.Timer
	timer = time.AfterFunc(ar.Hold, func() {
		ar.mutex.Lock()
		defer ar.mutex.Unlock()
		if ar.timers[key] != timer {
			// Superseded by a later hit.
			return
		}
		ar.timers[key] = nil
		_ = ar.Release(key)
	})
	ar.timers[key] = timer

	return
}

// Stop cancels every pending release.
func (ar *autoRelease) Stop() {
	ar.mutex.Lock()
	defer ar.mutex.Unlock()

	for n, timer := range ar.timers {
		if timer != nil {
			timer.Stop()
			ar.timers[n] = nil
		}
	}
}

// runTerminal plays the emulator on a raw mode terminal.
// Escape or Ctrl-C quits.
func runTerminal(ctx context.Context, emu *emulator.Emulator, keymap io.Keymap) (err error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		err = errNoTerminal
		return
	}

	if width, height, serr := term.GetSize(int(os.Stdout.Fd())); serr == nil {
		if width < cpu.DISPLAY_WIDTH || height < cpu.DISPLAY_HEIGHT/2 {
			log.Print(translate.From("chip8: terminal %dx%d is smaller than %dx%d", width, height, cpu.DISPLAY_WIDTH, cpu.DISPLAY_HEIGHT/2))
		}
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return
	}
	defer term.Restore(fd, state)

	os.Stdout.WriteString(terminalClear)

	emu.Screen = &io.Screen{Output: os.Stdout, Home: true}
	emu.Speaker = &io.Bell{Verbose: emu.Verbose, Output: os.Stdout}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	keys := &autoRelease{
		Hold:    TERMINAL_KEY_HOLD,
		Press:   emu.Press,
		Release: emu.Release,
	}
	defer keys.Stop()

	go func() {
		defer cancel()
		in := bufio.NewReader(os.Stdin)
		for {
			r, _, rerr := in.ReadRune()
			if rerr != nil {
				return
			}
			if r == TERMINAL_ESCAPE || r == TERMINAL_CTRL_C {
				return
			}
			key, ok := keymap.Lookup(r)
			if !ok {
				continue
			}
			if herr := keys.Hit(key); herr != nil && emu.Verbose {
				log.Printf("chip8: key %q: %v", r, herr)
			}
		}
	}()

	err = emu.Run(ctx)
	return
}
