//go:build !headless

package main

import (
	"context"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/io"
)

// Pixel colours, RGBA.
var (
	windowLit  = [4]byte{0x33, 0xff, 0x66, 0xff}
	windowDark = [4]byte{0x00, 0x11, 0x00, 0xff}
)

// ebitenKeys maps the host key runes a keymap can name to ebiten keys.
var ebitenKeys = map[rune]ebiten.Key{
	'0': ebiten.KeyDigit0, '1': ebiten.KeyDigit1, '2': ebiten.KeyDigit2, '3': ebiten.KeyDigit3,
	'4': ebiten.KeyDigit4, '5': ebiten.KeyDigit5, '6': ebiten.KeyDigit6, '7': ebiten.KeyDigit7,
	'8': ebiten.KeyDigit8, '9': ebiten.KeyDigit9,
	'a': ebiten.KeyA, 'b': ebiten.KeyB, 'c': ebiten.KeyC, 'd': ebiten.KeyD,
	'e': ebiten.KeyE, 'f': ebiten.KeyF, 'g': ebiten.KeyG, 'h': ebiten.KeyH,
	'i': ebiten.KeyI, 'j': ebiten.KeyJ, 'k': ebiten.KeyK, 'l': ebiten.KeyL,
	'm': ebiten.KeyM, 'n': ebiten.KeyN, 'o': ebiten.KeyO, 'p': ebiten.KeyP,
	'q': ebiten.KeyQ, 'r': ebiten.KeyR, 's': ebiten.KeyS, 't': ebiten.KeyT,
	'u': ebiten.KeyU, 'v': ebiten.KeyV, 'w': ebiten.KeyW, 'x': ebiten.KeyX,
	'y': ebiten.KeyY, 'z': ebiten.KeyZ,
	',': ebiten.KeyComma, '.': ebiten.KeyPeriod, '/': ebiten.KeySlash,
	';': ebiten.KeySemicolon, '-': ebiten.KeyMinus, '=': ebiten.KeyEqual,
	' ': ebiten.KeySpace,
}

// windowKeys converts a host keymap to ebiten keys. Host keys with no
// ebiten equivalent are logged and skipped.
func windowKeys(keymap io.Keymap) (keys map[ebiten.Key]uint8) {
	keys = map[ebiten.Key]uint8{}
	for r, pad := range keymap {
		key, ok := ebitenKeys[r]
		if !ok {
			log.Printf("chip8: no window key for %q", r)
			continue
		}
		keys[key] = pad
	}

	return
}

// window is an ebiten.Game running the emulator one frame per update.
type window struct {
	ctx    context.Context
	emu    *emulator.Emulator
	keys   map[ebiten.Key]uint8
	pixels []byte
	err    error
}

var _ ebiten.Game = (*window)(nil)

func (w *window) Update() error {
	if w.ctx.Err() != nil || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	for key, pad := range w.keys {
		if inpututil.IsKeyJustPressed(key) {
			_ = w.emu.Press(pad)
		}
		if inpututil.IsKeyJustReleased(key) {
			_ = w.emu.Release(pad)
		}
	}

	err := w.emu.Frame()
	if err != nil {
		w.err = err
		return ebiten.Termination
	}

	return nil
}

func (w *window) Draw(screen *ebiten.Image) {
	frame := w.emu.Framebuffer()
	for n, lit := range frame {
		colour := windowDark
		if lit {
			colour = windowLit
		}
		copy(w.pixels[n*4:], colour[:])
	}

	screen.WritePixels(w.pixels)
	w.emu.Dirty = false
}

func (w *window) Layout(_, _ int) (int, int) {
	return cpu.DISPLAY_WIDTH, cpu.DISPLAY_HEIGHT
}

// runWindow plays the emulator in a window, with an audio beeper.
// Escape, closing the window, or ctx quits.
func runWindow(ctx context.Context, emu *emulator.Emulator, keymap io.Keymap) (err error) {
	bp, err := newBeeper()
	if err != nil {
		log.Printf("chip8: audio: %v", err)
		err = nil
	} else {
		defer bp.Close()
		emu.Speaker = bp
	}

	w := &window{
		ctx:    ctx,
		emu:    emu,
		keys:   windowKeys(keymap),
		pixels: make([]byte, cpu.DISPLAY_WIDTH*cpu.DISPLAY_HEIGHT*4),
	}

	scale := emu.Config.Scale
	ebiten.SetWindowSize(cpu.DISPLAY_WIDTH*scale, cpu.DISPLAY_HEIGHT*scale)
	ebiten.SetWindowTitle("CHIP-8")
	ebiten.SetTPS(emu.Config.TimerHz)

	err = ebiten.RunGame(w)
	if err != nil {
		return
	}

	err = w.err
	return
}
