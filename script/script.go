package script

import (
	"fmt"
	"log"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/emulator"
)

type builtinFunc func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error)

// runner binds the builtins to an emulator.
type runner struct {
	emu *emulator.Emulator
}

// Run executes a Starlark program against the emulator.
// The src argument is as for starlark.ExecFile: nil to read filename,
// or a string, []byte or io.Reader.
func Run(emu *emulator.Emulator, filename string, src any) (err error) {
	r := &runner{emu: emu}

	thread := starlark.Thread{
		Name: filename,
		Print: func(_ *starlark.Thread, msg string) {
			log.Printf("script: %s", msg)
		},
	}
	opts := syntax.FileOptions{}

	_, err = starlark.ExecFileOptions(&opts, &thread, filename, src, r.predeclared())
	if err != nil {
		if emu.Verbose {
			if eval, ok := err.(*starlark.EvalError); ok {
				log.Printf("script: %v", eval.Backtrace())
			}
		}
		return
	}

	return
}

func (r *runner) predeclared() (dict starlark.StringDict) {
	dict = starlark.StringDict{}

	for name, fn := range map[string]builtinFunc{
		"step":    r.repeat(r.emu.Tick),
		"frame":   r.repeat(r.emu.Frame),
		"tick":    r.repeat(r.tickTimers),
		"press":   r.key(r.emu.Press),
		"release": r.key(r.emu.Release),
		"reset":   r.reset,
		"reg":     r.reg,
		"index":   r.value(func() int { return int(r.emu.I) }),
		"pc":      r.value(func() int { return int(r.emu.Pc) }),
		"delay":   r.value(func() int { return int(r.emu.Delay) }),
		"sound":   r.value(func() int { return int(r.emu.Sound) }),
		"pixel":   r.pixel,
		"screen":  r.screen,
	} {
		dict[name] = starlark.NewBuiltin(name, fn)
	}

	return
}

func (r *runner) tickTimers() error {
	r.emu.TickTimers()
	return nil
}

// repeat makes a builtin that calls op n times, n defaulting to 1.
func (r *runner) repeat(op func() error) builtinFunc {
	return func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		n := 1
		err := starlark.UnpackArgs(b.Name(), args, kwargs, "n?", &n)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: %d", ErrCount, n)
		}

		for range n {
			err = op()
			if err != nil {
				return nil, err
			}
		}

		return starlark.None, nil
	}
}

func (r *runner) key(op func(key uint8) error) builtinFunc {
	return func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var k int
		err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &k)
		if err != nil {
			return nil, err
		}
		if k < 0 || k >= cpu.KEY_COUNT {
			return nil, fmt.Errorf("%w: %d", cpu.ErrKeyIndex, k)
		}

		err = op(uint8(k))
		if err != nil {
			return nil, err
		}

		return starlark.None, nil
	}
}

func (r *runner) value(get func() int) builtinFunc {
	return func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0)
		if err != nil {
			return nil, err
		}

		return starlark.MakeInt(get()), nil
	}
}

func (r *runner) reset(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0)
	if err != nil {
		return nil, err
	}

	r.emu.Reset()

	return starlark.None, nil
}

func (r *runner) reg(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var x int
	err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &x)
	if err != nil {
		return nil, err
	}
	if x < 0 || x >= cpu.REGISTER_COUNT {
		return nil, fmt.Errorf("%w: %d", ErrRegister, x)
	}

	return starlark.MakeInt(int(r.emu.V[x])), nil
}

func (r *runner) pixel(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var x, y int
	err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &x, &y)
	if err != nil {
		return nil, err
	}

	return starlark.Bool(r.emu.Display.Pixel(x, y)), nil
}

func (r *runner) screen(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 0)
	if err != nil {
		return nil, err
	}

	frame := r.emu.Framebuffer()

	return starlark.String(frame.String()), nil
}
