package cpu

import (
	"fmt"
)

// Code is a raw 16-bit CHIP-8 opcode, as fetched from memory.
type Code uint16

// Nibbles returns the four nibbles of the opcode, most significant first.
func (code Code) Nibbles() (d1, d2, d3, d4 uint8) {
	d1 = uint8((code >> 12) & 0xf)
	d2 = uint8((code >> 8) & 0xf)
	d3 = uint8((code >> 4) & 0xf)
	d4 = uint8((code >> 0) & 0xf)
	return
}

// X returns the register index held in the second nibble.
func (code Code) X() uint8 {
	return uint8((code >> 8) & 0xf)
}

// Y returns the register index held in the third nibble.
func (code Code) Y() uint8 {
	return uint8((code >> 4) & 0xf)
}

// N returns the low nibble.
func (code Code) N() uint8 {
	return uint8(code & 0xf)
}

// KK returns the low byte.
func (code Code) KK() uint8 {
	return uint8(code & 0xff)
}

// NNN returns the 12-bit address.
func (code Code) NNN() uint16 {
	return uint16(code & 0xfff)
}

// CodeOp is a decoded CHIP-8 operation.
type CodeOp int

//go:generate go tool stringer -linecomment -type=CodeOp
const (
	OP_UNKNOWN   = CodeOp(iota) // ???
	OP_CLS                      // cls
	OP_RET                      // ret
	OP_JP                       // jp
	OP_CALL                     // call
	OP_SE_BYTE                  // se.byte
	OP_SNE_BYTE                 // sne.byte
	OP_SE_REG                   // se.reg
	OP_LD_BYTE                  // ld.byte
	OP_ADD_BYTE                 // add.byte
	OP_LD_REG                   // ld.reg
	OP_OR                       // or
	OP_AND                      // and
	OP_XOR                      // xor
	OP_ADD_REG                  // add.reg
	OP_SUB                      // sub
	OP_SHR                      // shr
	OP_SUBN                     // subn
	OP_SHL                      // shl
	OP_SNE_REG                  // sne.reg
	OP_LD_I                     // ld.i
	OP_JP_V0                    // jp.v0
	OP_RND                      // rnd
	OP_DRW                      // drw
	OP_SKP                      // skp
	OP_SKNP                     // sknp
	OP_LD_VX_DT                 // ld.vx.dt
	OP_LD_VX_K                  // ld.vx.k
	OP_LD_DT_VX                 // ld.dt.vx
	OP_LD_ST_VX                 // ld.st.vx
	OP_ADD_I                    // add.i
	OP_LD_F                     // ld.f
	OP_LD_B                     // ld.b
	OP_LD_MEM_VX                // ld.mem.vx
	OP_LD_VX_MEM                // ld.vx.mem
)

// Instruction is a decoded opcode with its operands.
// Only the operands meaningful to Op are populated.
type Instruction struct {
	Op   CodeOp
	Code Code

	X    uint8  // Register index from d2.
	Y    uint8  // Register index from d3.
	N    uint8  // Sprite height from d4.
	KK   uint8  // Immediate byte.
	Addr uint16 // Immediate 12-bit address.
}

// Decode maps an opcode onto its instruction. Opcodes that match no
// defined pattern return ErrOpcodeDecode.
func Decode(code Code) (inst Instruction, err error) {
	d1, _, _, d4 := code.Nibbles()

	inst = Instruction{Code: code}

	var op CodeOp
	switch d1 {
	case 0x0:
		switch code {
		case 0x00e0:
			op = OP_CLS
		case 0x00ee:
			op = OP_RET
		default:
			err = ErrOpcodeDecode
		}
	case 0x1:
		op = OP_JP
		inst.Addr = code.NNN()
	case 0x2:
		op = OP_CALL
		inst.Addr = code.NNN()
	case 0x3:
		op = OP_SE_BYTE
		inst.X, inst.KK = code.X(), code.KK()
	case 0x4:
		op = OP_SNE_BYTE
		inst.X, inst.KK = code.X(), code.KK()
	case 0x5:
		if d4 != 0 {
			err = ErrOpcodeDecode
			break
		}
		op = OP_SE_REG
		inst.X, inst.Y = code.X(), code.Y()
	case 0x6:
		op = OP_LD_BYTE
		inst.X, inst.KK = code.X(), code.KK()
	case 0x7:
		op = OP_ADD_BYTE
		inst.X, inst.KK = code.X(), code.KK()
	case 0x8:
		inst.X, inst.Y = code.X(), code.Y()
		switch d4 {
		case 0x0:
			op = OP_LD_REG
		case 0x1:
			op = OP_OR
		case 0x2:
			op = OP_AND
		case 0x3:
			op = OP_XOR
		case 0x4:
			op = OP_ADD_REG
		case 0x5:
			op = OP_SUB
		case 0x6:
			op = OP_SHR
		case 0x7:
			op = OP_SUBN
		case 0xe:
			op = OP_SHL
		default:
			err = ErrOpcodeDecode
		}
	case 0x9:
		if d4 != 0 {
			err = ErrOpcodeDecode
			break
		}
		op = OP_SNE_REG
		inst.X, inst.Y = code.X(), code.Y()
	case 0xa:
		op = OP_LD_I
		inst.Addr = code.NNN()
	case 0xb:
		op = OP_JP_V0
		inst.Addr = code.NNN()
	case 0xc:
		op = OP_RND
		inst.X, inst.KK = code.X(), code.KK()
	case 0xd:
		op = OP_DRW
		inst.X, inst.Y, inst.N = code.X(), code.Y(), code.N()
	case 0xe:
		inst.X = code.X()
		switch code.KK() {
		case 0x9e:
			op = OP_SKP
		case 0xa1:
			op = OP_SKNP
		default:
			err = ErrOpcodeDecode
		}
	case 0xf:
		inst.X = code.X()
		switch code.KK() {
		case 0x07:
			op = OP_LD_VX_DT
		case 0x0a:
			op = OP_LD_VX_K
		case 0x15:
			op = OP_LD_DT_VX
		case 0x18:
			op = OP_LD_ST_VX
		case 0x1e:
			op = OP_ADD_I
		case 0x29:
			op = OP_LD_F
		case 0x33:
			op = OP_LD_B
		case 0x55:
			op = OP_LD_MEM_VX
		case 0x65:
			op = OP_LD_VX_MEM
		default:
			err = ErrOpcodeDecode
		}
	}

	if err != nil {
		inst = Instruction{Code: code}
		return
	}

	inst.Op = op
	return
}

// Operand layouts of the instruction forms.
type operandForm int

const (
	FORM_NONE      = operandForm(iota) // cls
	FORM_ADDR                          // jp $NNN
	FORM_REG                           // skp Vx
	FORM_REG_BYTE                      // se.byte Vx, $KK
	FORM_REG_REG                       // se.reg Vx, Vy
	FORM_REG_REG_N                     // drw Vx, Vy, N
)

type encoding struct {
	base Code
	form operandForm
}

// encodings holds the fixed bits and operand layout of each operation.
var encodings = map[CodeOp]encoding{
	OP_CLS:       {0x00e0, FORM_NONE},
	OP_RET:       {0x00ee, FORM_NONE},
	OP_JP:        {0x1000, FORM_ADDR},
	OP_CALL:      {0x2000, FORM_ADDR},
	OP_SE_BYTE:   {0x3000, FORM_REG_BYTE},
	OP_SNE_BYTE:  {0x4000, FORM_REG_BYTE},
	OP_SE_REG:    {0x5000, FORM_REG_REG},
	OP_LD_BYTE:   {0x6000, FORM_REG_BYTE},
	OP_ADD_BYTE:  {0x7000, FORM_REG_BYTE},
	OP_LD_REG:    {0x8000, FORM_REG_REG},
	OP_OR:        {0x8001, FORM_REG_REG},
	OP_AND:       {0x8002, FORM_REG_REG},
	OP_XOR:       {0x8003, FORM_REG_REG},
	OP_ADD_REG:   {0x8004, FORM_REG_REG},
	OP_SUB:       {0x8005, FORM_REG_REG},
	OP_SHR:       {0x8006, FORM_REG_REG},
	OP_SUBN:      {0x8007, FORM_REG_REG},
	OP_SHL:       {0x800e, FORM_REG_REG},
	OP_SNE_REG:   {0x9000, FORM_REG_REG},
	OP_LD_I:      {0xa000, FORM_ADDR},
	OP_JP_V0:     {0xb000, FORM_ADDR},
	OP_RND:       {0xc000, FORM_REG_BYTE},
	OP_DRW:       {0xd000, FORM_REG_REG_N},
	OP_SKP:       {0xe09e, FORM_REG},
	OP_SKNP:      {0xe0a1, FORM_REG},
	OP_LD_VX_DT:  {0xf007, FORM_REG},
	OP_LD_VX_K:   {0xf00a, FORM_REG},
	OP_LD_DT_VX:  {0xf015, FORM_REG},
	OP_LD_ST_VX:  {0xf018, FORM_REG},
	OP_ADD_I:     {0xf01e, FORM_REG},
	OP_LD_F:      {0xf029, FORM_REG},
	OP_LD_B:      {0xf033, FORM_REG},
	OP_LD_MEM_VX: {0xf055, FORM_REG},
	OP_LD_VX_MEM: {0xf065, FORM_REG},
}

// Encode is the inverse of Decode: it builds the opcode for an instruction
// from its Op and operands. The Code field of inst is ignored.
func Encode(inst Instruction) (code Code, err error) {
	enc, ok := encodings[inst.Op]
	if !ok {
		err = ErrOpcodeEncode
		return
	}

	if inst.X >= REGISTER_COUNT || inst.Y >= REGISTER_COUNT || inst.N > 0xf || inst.Addr > 0xfff {
		err = ErrOperandRange
		return
	}

	code = enc.base
	switch enc.form {
	case FORM_ADDR:
		code |= Code(inst.Addr)
	case FORM_REG:
		code |= Code(inst.X) << 8
	case FORM_REG_BYTE:
		code |= Code(inst.X)<<8 | Code(inst.KK)
	case FORM_REG_REG:
		code |= Code(inst.X)<<8 | Code(inst.Y)<<4
	case FORM_REG_REG_N:
		code |= Code(inst.X)<<8 | Code(inst.Y)<<4 | Code(inst.N)
	}

	return
}

// String returns a short mnemonic form of the instruction. The assembler
// accepts this form.
func (inst Instruction) String() string {
	enc, ok := encodings[inst.Op]
	if !ok {
		return fmt.Sprintf("%v $%04X", inst.Op, uint16(inst.Code))
	}

	switch enc.form {
	case FORM_NONE:
		return inst.Op.String()
	case FORM_ADDR:
		return fmt.Sprintf("%v $%03X", inst.Op, inst.Addr)
	case FORM_REG_BYTE:
		return fmt.Sprintf("%v V%X, $%02X", inst.Op, inst.X, inst.KK)
	case FORM_REG_REG:
		return fmt.Sprintf("%v V%X, V%X", inst.Op, inst.X, inst.Y)
	case FORM_REG_REG_N:
		return fmt.Sprintf("%v V%X, V%X, %d", inst.Op, inst.X, inst.Y, inst.N)
	}

	return fmt.Sprintf("%v V%X", inst.Op, inst.X)
}
