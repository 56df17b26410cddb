package script

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/emulator"
)

func newTestEmulator(t *testing.T, words ...uint16) (emu *emulator.Emulator) {
	t.Helper()

	var image []byte
	for _, word := range words {
		image = append(image, byte(word>>8), byte(word))
	}

	emu = emulator.NewEmulator(emulator.DefaultConfig())
	if err := emu.Load(image); err != nil {
		t.Fatal(err)
	}

	return
}

func TestRun_Registers(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t, 0x00e0, 0x6a02, 0xa200)

	src := `
step(3)
if reg(0xa) != 2:
    fail("va = %d" % reg(0xa))
if index() != 0x200:
    fail("i = %x" % index())
if pc() != 0x206:
    fail("pc = %x" % pc())
`

	assert.NoError(Run(emu, "registers.star", src))
}

func TestRun_Keys(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t, 0xf30a, 0x1202)

	src := `
step()
if pc() != 0x200:
    fail("did not wait")
press(0xc)
step()
release(0xc)
step()
if reg(3) != 0xc:
    fail("v3 = %x" % reg(3))
`

	assert.NoError(Run(emu, "keys.star", src))
	assert.False(emu.Machine.Keys[0xc])
}

func TestRun_Timers(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t, 0x6005, 0xf015, 0xf018, 0x1206)

	src := `
step(3)
tick(2)
if delay() != 3 or sound() != 3:
    fail("timers %d %d" % (delay(), sound()))
frame()
if delay() != 2:
    fail("delay %d" % delay())
`

	assert.NoError(Run(emu, "timers.star", src))
	assert.Equal(1, emu.Frames())
}

func TestRun_Screen(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t, 0xa000, 0xd005, 0x1204)

	src := `
step(2)
if not pixel(0, 0):
    fail("pixel 0,0 dark")
if pixel(1, 1):
    fail("pixel 1,1 lit")
rows = screen().splitlines()
if len(rows) != 32:
    fail("rows %d" % len(rows))
if rows[0][:4] != "####":
    fail(rows[0])
reset()
if pc() != 0x200 or pixel(0, 0):
    fail("reset")
`

	assert.NoError(Run(emu, "screen.star", src))
}

func TestRun_Fault(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t, 0x00ee)

	err := Run(emu, "fault.star", "step()\n")
	assert.ErrorIs(err, cpu.ErrStackEmpty)
	assert.True(emulator.IsFault(err))
}

func TestRun_Errors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name string
		src  string
		err  error
	}){
		{"register", "reg(16)\n", ErrRegister},
		{"count", "step(-1)\n", ErrCount},
		{"key", "press(16)\n", cpu.ErrKeyIndex},
		{"syntax", "step(\n", nil},
		{"arity", "pixel(1)\n", nil},
		{"fail", "fail('stop')\n", nil},
	}

	for _, entry := range table {
		emu := newTestEmulator(t, 0x1200)
		err := Run(emu, entry.name+".star", entry.src)
		if entry.err == nil {
			assert.Error(err, entry.name)
		} else {
			assert.ErrorIs(err, entry.err, entry.name)
		}
	}
}

func TestRun_Reader(t *testing.T) {
	assert := assert.New(t)

	emu := newTestEmulator(t, 0x6107)

	assert.NoError(Run(emu, "reader.star", strings.NewReader("step()\nprint(reg(1))\n")))
	assert.Equal(uint8(7), emu.V[1])
}
