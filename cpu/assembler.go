// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":          "0",
	"PROGRAM_START":   fmt.Sprintf("0x%x", PROGRAM_START),
	"MEMORY_SIZE":     fmt.Sprintf("0x%x", MEMORY_SIZE),
	"FONT_ADDR":       fmt.Sprintf("0x%x", FONT_ADDR),
	"FONT_GLYPH_SIZE": fmt.Sprintf("%d", FONT_GLYPH_SIZE),
	"DISPLAY_WIDTH":   fmt.Sprintf("%d", DISPLAY_WIDTH),
	"DISPLAY_HEIGHT":  fmt.Sprintf("%d", DISPLAY_HEIGHT),
}

// mnemonics maps instruction names to operations.
var mnemonics = func() (names map[string]CodeOp) {
	names = make(map[string]CodeOp, len(encodings))
	for op := range encodings {
		names[op.String()] = op
	}
	return
}()

// Opcode is a single assembled line.
type Opcode struct {
	LineNo    int      // Source line number.
	Addr      uint16   // Memory address of the first byte.
	Words     []string // Source words, after equate substitution.
	Bytes     []byte   // Assembled bytes.
	LinkLabel string   // Label whose address completes the instruction.
}

// Assembler is a single pass macro assembler for CHIP-8 programs.
//
// Each line is an optional set of 'label:' definitions followed by an
// instruction in the form printed by Instruction.String, such as
// 'se.byte VA, $12' or 'jp loop', or by one of the directives:
//
//	.equ NAME VALUE       define an equate
//	.macro NAME ARGS...   begin a macro; '@' is a prefix unique to each expansion
//	.endm                 end a macro
//	.byte VALUE...        emit bytes
//	.word VALUE...        emit big-endian 16-bit words
//
// Values are decimal, 0x hex, $ hex, 'c' characters, or $(...) Starlark
// expressions over the equates and the labels defined so far.
// A ';' starts a comment.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]uint16   // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	expansions int // Macro expansions, for unique '@' prefixes.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int, err error) {
	if len(word) == 0 {
		err = ErrOpcodeValueMissing
		return
	}

	var v64 int64
	if word[0] == '$' {
		var u64 uint64
		u64, err = strconv.ParseUint(word[1:], 16, 16)
		v64 = int64(u64)
	} else {
		v64, err = strconv.ParseInt(word, 0, 32)
	}
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	value = int(v64)
	return
}

// register returns the index of a 'Vx' register word.
func register(word string) (x uint8, err error) {
	if len(word) != 2 || (word[0] != 'V' && word[0] != 'v') {
		err = fmt.Errorf("%w: %v", ErrRegisterInvalid, word)
		return
	}

	value, perr := strconv.ParseUint(word[1:], 16, 4)
	if perr != nil {
		err = fmt.Errorf("%w: %v", ErrRegisterInvalid, word)
		return
	}

	x = uint8(value)
	return
}

// isLabel returns true if word could name a label.
func isLabel(word string) bool {
	for n, r := range word {
		if r == '_' || unicode.IsLetter(r) || (n > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return len(word) > 0
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		v, verr := asm.valueOf(str)
		if verr != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt(v)
	}
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeInt(int(addr))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok || st_int64 > 0xffff || st_int64 < -0x8000 {
		err = ErrParseExpression(expr)
		return
	}
	value = int(st_int64)
	return
}

var (
	charRegexp  = regexp.MustCompile(`'\\?[^']'`)
	parenRegexp = regexp.MustCompile(`\$\([^\$]*\)`)
)

// splitWords breaks a line into words at spaces and commas.
func splitWords(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// parseLine parses a single line as an opcode.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = charRegexp.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line = parenRegexp.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%d", value)
	})
	if err != nil {
		return
	}

	words = splitWords(line)

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]uint16, 16)
		}
		asm.Label[label] = asm.currentAddr()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = args[n]
		}
		defer func() { asm.Equate = old_equate }()

		asm.expansions++
		prefix := fmt.Sprintf("%v_%v_", name, asm.expansions)

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", prefix)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentAddr gets the address of the next assembled byte.
func (asm *Assembler) currentAddr() uint16 {
	if len(asm.Opcode) == 0 {
		return PROGRAM_START
	}

	last := asm.Opcode[len(asm.Opcode)-1]

	return last.Addr + uint16(len(last.Bytes))
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	asm.expansions = 0
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("cpu: asm: %v: %v\n", lineno, text)
		}

		text_comment := strings.Split(text, ";")
		line = strings.TrimSpace(text_comment[0])
		words := splitWords(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	if int(asm.currentAddr()) > MEMORY_SIZE {
		err = fmt.Errorf("%w: %d bytes", ErrProgramSize, int(asm.currentAddr())-PROGRAM_START)
		return
	}

	// Final linking of labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		label := op.LinkLabel
		addr, ok := asm.Label[label]
		if !ok {
			lineno = op.LineNo
			line = strings.Join(op.Words, " ")
			err = ErrLabelMissing(label)
			return
		}
		op.Bytes[0] |= uint8(addr>>8) & 0xf
		op.Bytes[1] |= uint8(addr)
	}

	prog = &Program{
		Opcodes: append([]Opcode(nil), asm.Opcode...),
	}

	return
}

// dataWords emits each word as a value of the given byte width.
func (asm *Assembler) dataWords(words []string, width int) (data []byte, err error) {
	if len(words) == 0 {
		err = ErrOpcodeValueMissing
		return
	}

	limit := 1 << (8 * width)
	for _, word := range words {
		var value int
		value, err = asm.valueOf(word)
		if err != nil {
			return
		}
		if value < -limit/2 || value >= limit {
			err = fmt.Errorf("%w: %v", ErrOperandRange, word)
			return
		}
		if width == 2 {
			data = append(data, uint8(value>>8))
		}
		data = append(data, uint8(value))
	}

	return
}

// operandCount is the number of operand words for each form.
var operandCount = map[operandForm]int{
	FORM_NONE:      0,
	FORM_ADDR:      1,
	FORM_REG:       1,
	FORM_REG_BYTE:  2,
	FORM_REG_REG:   2,
	FORM_REG_REG_N: 3,
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var data []byte
	var label string

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words

	defer func() {
		if len(data) == 0 {
			return
		}
		opcode := Opcode{LineNo: lineno, Addr: asm.currentAddr(), Words: initial_words, Bytes: data, LinkLabel: label}
		asm.Opcode = append(asm.Opcode, opcode)
	}()

	switch words[0] {
	case ".byte":
		data, err = asm.dataWords(words[1:], 1)
		return
	case ".word":
		data, err = asm.dataWords(words[1:], 2)
		return
	}

	op, ok := mnemonics[strings.ToLower(words[0])]
	if !ok {
		err = ErrInstructionInvalid
		return
	}

	form := encodings[op].form
	args := words[1:]
	if len(args) < operandCount[form] {
		err = ErrOpcodeValueMissing
		return
	}
	if len(args) > operandCount[form] {
		err = ErrOpcodeExtraArgs
		return
	}

	inst := Instruction{Op: op}
	var value int

	switch form {
	case FORM_ADDR:
		value, err = asm.valueOf(args[0])
		if err != nil && isLabel(args[0]) {
			err = nil
			label = args[0]
			value = 0
		}
		inst.Addr = uint16(value)
		if value < 0 || value > 0xfff {
			err = fmt.Errorf("%w: %v", ErrOperandRange, args[0])
		}
	case FORM_REG:
		inst.X, err = register(args[0])
	case FORM_REG_BYTE:
		inst.X, err = register(args[0])
		if err != nil {
			return
		}
		value, err = asm.valueOf(args[1])
		inst.KK = uint8(value)
		if err == nil && (value < -0x80 || value > 0xff) {
			err = fmt.Errorf("%w: %v", ErrOperandRange, args[1])
		}
	case FORM_REG_REG:
		inst.X, err = register(args[0])
		if err != nil {
			return
		}
		inst.Y, err = register(args[1])
	case FORM_REG_REG_N:
		inst.X, err = register(args[0])
		if err != nil {
			return
		}
		inst.Y, err = register(args[1])
		if err != nil {
			return
		}
		value, err = asm.valueOf(args[2])
		inst.N = uint8(value)
		if err == nil && (value < 0 || value > 0xf) {
			err = fmt.Errorf("%w: %v", ErrOperandRange, args[2])
		}
	}
	if err != nil {
		return
	}

	code, err := Encode(inst)
	if err != nil {
		return
	}

	data = []byte{uint8(code >> 8), uint8(code)}

	return
}
