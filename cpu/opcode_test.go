package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode_Nibbles(t *testing.T) {
	assert := assert.New(t)

	code := Code(0xd12f)
	d1, d2, d3, d4 := code.Nibbles()
	assert.Equal([4]uint8{0xd, 0x1, 0x2, 0xf}, [4]uint8{d1, d2, d3, d4})
	assert.Equal(uint8(0x1), code.X())
	assert.Equal(uint8(0x2), code.Y())
	assert.Equal(uint8(0xf), code.N())
	assert.Equal(uint8(0x2f), code.KK())
	assert.Equal(uint16(0x12f), code.NNN())
}

func TestDecode(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		code Code
		inst Instruction
		text string
	}){
		{0x00e0, Instruction{Op: OP_CLS}, "cls"},
		{0x00ee, Instruction{Op: OP_RET}, "ret"},
		{0x1abc, Instruction{Op: OP_JP, Addr: 0xabc}, "jp $ABC"},
		{0x2345, Instruction{Op: OP_CALL, Addr: 0x345}, "call $345"},
		{0x3a12, Instruction{Op: OP_SE_BYTE, X: 0xa, KK: 0x12}, "se.byte VA, $12"},
		{0x4b34, Instruction{Op: OP_SNE_BYTE, X: 0xb, KK: 0x34}, "sne.byte VB, $34"},
		{0x5120, Instruction{Op: OP_SE_REG, X: 1, Y: 2}, "se.reg V1, V2"},
		{0x6a02, Instruction{Op: OP_LD_BYTE, X: 0xa, KK: 0x02}, "ld.byte VA, $02"},
		{0x7cff, Instruction{Op: OP_ADD_BYTE, X: 0xc, KK: 0xff}, "add.byte VC, $FF"},
		{0x8340, Instruction{Op: OP_LD_REG, X: 3, Y: 4}, "ld.reg V3, V4"},
		{0x8341, Instruction{Op: OP_OR, X: 3, Y: 4}, "or V3, V4"},
		{0x8342, Instruction{Op: OP_AND, X: 3, Y: 4}, "and V3, V4"},
		{0x8343, Instruction{Op: OP_XOR, X: 3, Y: 4}, "xor V3, V4"},
		{0x8344, Instruction{Op: OP_ADD_REG, X: 3, Y: 4}, "add.reg V3, V4"},
		{0x8345, Instruction{Op: OP_SUB, X: 3, Y: 4}, "sub V3, V4"},
		{0x8346, Instruction{Op: OP_SHR, X: 3, Y: 4}, "shr V3, V4"},
		{0x8347, Instruction{Op: OP_SUBN, X: 3, Y: 4}, "subn V3, V4"},
		{0x834e, Instruction{Op: OP_SHL, X: 3, Y: 4}, "shl V3, V4"},
		{0x9560, Instruction{Op: OP_SNE_REG, X: 5, Y: 6}, "sne.reg V5, V6"},
		{0xa200, Instruction{Op: OP_LD_I, Addr: 0x200}, "ld.i $200"},
		{0xb300, Instruction{Op: OP_JP_V0, Addr: 0x300}, "jp.v0 $300"},
		{0xc70f, Instruction{Op: OP_RND, X: 7, KK: 0x0f}, "rnd V7, $0F"},
		{0xd125, Instruction{Op: OP_DRW, X: 1, Y: 2, N: 5}, "drw V1, V2, 5"},
		{0xe89e, Instruction{Op: OP_SKP, X: 8}, "skp V8"},
		{0xe8a1, Instruction{Op: OP_SKNP, X: 8}, "sknp V8"},
		{0xf907, Instruction{Op: OP_LD_VX_DT, X: 9}, "ld.vx.dt V9"},
		{0xf90a, Instruction{Op: OP_LD_VX_K, X: 9}, "ld.vx.k V9"},
		{0xf915, Instruction{Op: OP_LD_DT_VX, X: 9}, "ld.dt.vx V9"},
		{0xf918, Instruction{Op: OP_LD_ST_VX, X: 9}, "ld.st.vx V9"},
		{0xf91e, Instruction{Op: OP_ADD_I, X: 9}, "add.i V9"},
		{0xf929, Instruction{Op: OP_LD_F, X: 9}, "ld.f V9"},
		{0xf933, Instruction{Op: OP_LD_B, X: 9}, "ld.b V9"},
		{0xf955, Instruction{Op: OP_LD_MEM_VX, X: 9}, "ld.mem.vx V9"},
		{0xf965, Instruction{Op: OP_LD_VX_MEM, X: 9}, "ld.vx.mem V9"},
	}

	for _, entry := range table {
		inst, err := Decode(entry.code)
		assert.NoError(err, entry.text)
		entry.inst.Code = entry.code
		assert.Equal(entry.inst, inst, entry.text)
		assert.Equal(entry.text, inst.String())
	}
}

func TestDecode_Invalid(t *testing.T) {
	assert := assert.New(t)

	table := []Code{
		0x0000, // no SYS calls
		0x0123,
		0x00e1,
		0x00ef,
		0x5121,
		0x834f,
		0x8348,
		0x9561,
		0xe89f,
		0xe8a2,
		0xf900,
		0xf956,
		0xffff,
	}

	for _, code := range table {
		inst, err := Decode(code)
		assert.ErrorIs(err, ErrOpcodeDecode, "0x%04x", uint16(code))
		assert.Equal(OP_UNKNOWN, inst.Op)
		assert.Equal(code, inst.Code)
	}
}

func TestCodeOp_String(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("???", OP_UNKNOWN.String())
	assert.Equal("ld.vx.mem", OP_LD_VX_MEM.String())
	assert.Equal("CodeOp(99)", CodeOp(99).String())
}

func FuzzDecode(f *testing.F) {
	for _, seed := range []uint16{0x0000, 0x00e0, 0x00ee, 0x8006, 0xd00f, 0xf065, 0xffff} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, word uint16) {
		code := Code(word)

		inst, err := Decode(code)
		if err != nil {
			if inst.Op != OP_UNKNOWN {
				t.Errorf("0x%04x: failed decode returned %v", word, inst.Op)
			}
			return
		}

		if inst.Op == OP_UNKNOWN {
			t.Fatalf("0x%04x: decoded to unknown without error", word)
		}

		if inst.Code != code {
			t.Errorf("0x%04x: code not preserved", word)
		}

		// A decoded instruction always executes or faults, never panics.
		m := NewMachine()
		m.Pc = PROGRAM_START + 2
		m.I = 0xffe
		_ = m.Execute(inst)
	})
}
