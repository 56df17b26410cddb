package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgram_Debug(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		"cls",
		"; comment",
		".byte 1 2 3",
		"jp $200",
	)

	dbg := prog.Debug(0x200)
	assert.Equal(1, dbg.LineNo)
	assert.Equal(0, dbg.Index)

	dbg = prog.Debug(0x204)
	assert.Equal(3, dbg.LineNo)
	assert.Equal(2, dbg.Index)

	dbg = prog.Debug(0x205)
	assert.Equal(4, dbg.LineNo)

	dbg = prog.Debug(0x300)
	assert.Nil(dbg.Opcode)
}

func TestDisassemble(t *testing.T) {
	assert := assert.New(t)

	var listing []string
	var addrs []uint16
	for addr, inst := range Disassemble([]byte{0x00, 0xe0, 0x6a, 0x02, 0x00, 0x00, 0xd1, 0x25, 0xff}) {
		addrs = append(addrs, addr)
		listing = append(listing, inst.String())
	}

	assert.Equal([]uint16{0x200, 0x202, 0x204, 0x206}, addrs)
	assert.Equal([]string{"cls", "ld.byte VA, $02", "??? $0000", "drw V1, V2, 5"}, listing)

	// Early stop.
	count := 0
	for range Disassemble(make([]byte, 16)) {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(2, count)
}

func TestEncode(t *testing.T) {
	assert := assert.New(t)

	for n := range 0x10000 {
		inst, err := Decode(Code(n))
		if err != nil {
			continue
		}
		code, err := Encode(inst)
		if !assert.NoError(err) || !assert.Equal(Code(n), code, inst.String()) {
			return
		}
	}

	_, err := Encode(Instruction{Op: OP_UNKNOWN})
	assert.ErrorIs(err, ErrOpcodeEncode)

	_, err = Encode(Instruction{Op: OP_JP, Addr: 0x1000})
	assert.ErrorIs(err, ErrOperandRange)

	_, err = Encode(Instruction{Op: OP_LD_REG, X: 1, Y: 16})
	assert.ErrorIs(err, ErrOperandRange)
}
