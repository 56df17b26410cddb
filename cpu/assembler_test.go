package cpu

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func assemble(t *testing.T, program ...string) (prog *Program) {
	t.Helper()

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	if err != nil {
		t.Fatal(err)
	}

	return
}

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	prog, err := asm.Parse(strings.NewReader(""))
	assert.NoError(err)
	assert.Equal(0, len(prog.Opcodes))

	assert.Equal("0", asm.Equate["LINENO"])
	assert.Equal("0x200", asm.Equate["PROGRAM_START"])
	assert.Equal("5", asm.Equate["FONT_GLYPH_SIZE"])
	assert.Equal("64", asm.Equate["DISPLAY_WIDTH"])
}

func TestAssembler_Scenario(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		"cls",
		"ld.byte VA, 2",
		"ld.i $200",
	)

	expected := []Opcode{
		{1, 0x200, []string{"cls"}, []byte{0x00, 0xe0}, ""},
		{2, 0x202, []string{"ld.byte", "VA", "2"}, []byte{0x6a, 0x02}, ""},
		{3, 0x204, []string{"ld.i", "$200"}, []byte{0xa2, 0x00}, ""},
	}
	assert.Equal(expected, prog.Opcodes)
	assert.Equal([]byte{0x00, 0xe0, 0x6a, 0x02, 0xa2, 0x00}, prog.Binary())
}

// Every decodable opcode prints as text that assembles back to itself.
func TestAssembler_RoundTrip(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	for n := range 0x10000 {
		inst, err := Decode(Code(n))
		if err != nil {
			continue
		}

		prog, err := asm.Parse(strings.NewReader(inst.String()))
		if !assert.NoError(err, inst.String()) {
			return
		}
		if !assert.Equal([]byte{uint8(n >> 8), uint8(n)}, prog.Binary(), inst.String()) {
			return
		}
	}
}

func TestAssembler_Data(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		".byte $F0, 0x90, 144, 'A', -1",
		".word $1234, 0",
	)

	assert.Equal([]byte{0xf0, 0x90, 0x90, 'A', 0xff, 0x12, 0x34, 0x00, 0x00}, prog.Binary())
	assert.Equal(uint16(0x205), prog.Opcodes[1].Addr)
}

func TestAssembler_Equ(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		".equ COUNTER V3",
		".equ STEP 0x10",
		"ld.byte COUNTER, STEP",
		"add.byte COUNTER, $(STEP * 2 + 1)",
		".equ GLYPH $(FONT_ADDR + 5 * FONT_GLYPH_SIZE)",
		"ld.i GLYPH",
		"ld.byte V0, $(LINENO)",
	)

	assert.Equal([]byte{
		0x63, 0x10,
		0x73, 0x21,
		0xa0, 0x19,
		0x60, 0x07,
	}, prog.Binary())
}

func TestAssembler_Label(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		"start: ld.i sprite",
		"loop: call draw",
		"jp loop",
		"draw: DRAW_TOO:",
		"drw V0, V1, 5",
		"ret",
		"sprite:",
		"",
		".byte $F0 $90 $90 $90 $F0",
		"jp start",
		"ld.i $(sprite + 1)",
	)

	assert.Equal([]byte{
		0xa2, 0x0a, // ld.i sprite
		0x22, 0x06, // call draw
		0x12, 0x02, // jp loop
		0xd0, 0x15, // draw: drw
		0x00, 0xee, // ret
		0xf0, 0x90, 0x90, 0x90, 0xf0, // sprite
		0x12, 0x00, // jp start
		0xa2, 0x0b, // ld.i sprite+1
	}, prog.Binary())

	assert.Equal("sprite", prog.Opcodes[0].LinkLabel)
}

func TestAssembler_Macro(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t,
		".macro SETADD vn a b",
		"ld.byte vn, a",
		"add.byte vn, b",
		".endm",
		"SETADD V0 8 8",
		".equ CONST_10 0x10",
		"SETADD V1 CONST_10 $(CONST_10 + 1)",
		".macro WAIT vn",
		"@spin: ld.vx.dt vn",
		"se.byte vn, 0",
		"jp @spin",
		".endm",
		"WAIT V2",
		"WAIT V3",
	)

	assert.Equal([]byte{
		0x60, 0x08,
		0x70, 0x08,
		0x61, 0x10,
		0x71, 0x11,
		0xf2, 0x07, // 0x208
		0x32, 0x00,
		0x12, 0x08,
		0xf3, 0x07, // 0x20e
		0x33, 0x00,
		0x12, 0x0e,
	}, prog.Binary())
}

func TestAssembler_CaseInsensitive(t *testing.T) {
	assert := assert.New(t)

	prog := assemble(t, "LD.BYTE va, $ff", "Se.Reg v1, VF")
	assert.Equal([]byte{0x6a, 0xff, 0x51, 0xf0}, prog.Binary())
}

func TestAssembler_ErrSyntax(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	// Various syntax errors
	table := [](struct {
		prog string
		line int
		err  error
	}){
		{"DUP:\nDUP:\n", 2, ErrLabelDuplicate},
		{"ld.byte V0, nothing", 1, ErrParseNumber("nothing")},
		{"ld.byte V0, $(\"aaa\")", 1, ErrParseExpression("\"aaa\"")},
		{"ld.byte V0, $(more(\"aaa\"))", 1, nil},
		{"ld.byte V0, $(0x10000000)", 1, ErrParseExpression("0x10000000")},
		{"ld.byte V0, 256", 1, ErrOperandRange},
		{"ld.byte VG, 1", 1, ErrRegisterInvalid},
		{"ld.byte V10, 1", 1, ErrRegisterInvalid},
		{"ld.byte V1", 1, ErrOpcodeValueMissing},
		{"ld.byte V1, 2, 3", 1, ErrOpcodeExtraArgs},
		{"drw V1, V2, 16", 1, ErrOperandRange},
		{"jp $1000", 1, ErrOperandRange},
		{"jp 4096", 1, ErrOperandRange},
		{"cls V0", 1, ErrOpcodeExtraArgs},
		{"nop", 1, ErrInstructionInvalid},
		{".byte", 1, ErrOpcodeValueMissing},
		{".byte 256", 1, ErrOperandRange},
		{".word 0x10000", 1, ErrOperandRange},
		{".equ", 1, ErrEquateSyntax},
		{".equ A", 1, ErrEquateSyntax},
		{".equ A 1\n.equ A 2\n", 2, ErrEquateDuplicate},
		{".macro A B C\n.endm\nA 1\n", 3, ErrMacroSyntax},
		{".macro A B\n.macro C\n.endm\n.endm", 2, ErrMacroNesting},
		{".macro A B\n.endm\n.macro A\n.endm\n", 3, ErrMacroDuplicate},
		{".macro A B\n.endm\n.endm\n", 3, ErrMacroLonelyEndm},
		{".macro A\ncls\n", 2, ErrMacroLonely},
		{".macro\n", 1, ErrMacroSyntax},
		{"cls\njp nowhere\ncls\n", 2, ErrLabelMissing("nowhere")},
		{".macro A B\nld.byte V0, B\n.endm\nA V1\n", 4, ErrMacro{}},
	}

	for _, entry := range table {
		_, err := asm.Parse(strings.NewReader(entry.prog))
		if !assert.Error(err, entry.prog) {
			continue
		}

		var syntax *ErrSyntax
		if assert.True(errors.As(err, &syntax), entry.prog) {
			assert.Equal(entry.line, syntax.LineNo, entry.prog)
		}

		switch entry.err.(type) {
		case nil:
		case ErrMacro:
			var macro *ErrMacro
			assert.True(errors.As(err, &macro), entry.prog)
		default:
			assert.ErrorIs(err, entry.err, entry.prog)
		}
	}
}

func TestAssembler_ProgramSize(t *testing.T) {
	assert := assert.New(t)

	lines := make([]string, MAX_IMAGE_SIZE/2)
	for n := range lines {
		lines[n] = "cls"
	}

	asm := &Assembler{}
	_, err := asm.Parse(strings.NewReader(strings.Join(lines, "\n")))
	assert.NoError(err)

	lines = append(lines, ".byte 0")
	_, err = asm.Parse(strings.NewReader(strings.Join(lines, "\n")))
	assert.ErrorIs(err, ErrProgramSize)
}

func TestAssembler_Predefine(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("SPEED", "3")
	asm.Predefine("SPEED", "4")

	prog, err := asm.Parse(strings.NewReader("ld.byte V0, SPEED"))
	assert.NoError(err)
	assert.Equal([]byte{0x60, 0x04}, prog.Binary())
}
