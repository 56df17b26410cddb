package cpu

import (
	"iter"
)

// Program is an assembled program listing.
type Program struct {
	Opcodes []Opcode
}

// Debug locates an address within a program listing.
type Debug struct {
	*Opcode
	Index int // Byte offset of the address within the opcode.
}

// Debug returns the opcode holding addr, or an empty Debug if none does.
func (prog *Program) Debug(addr uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if addr >= op.Addr && addr < op.Addr+uint16(len(op.Bytes)) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(addr - op.Addr),
			}
			break
		}
	}

	return
}

// Binary returns the program image, to be loaded at PROGRAM_START.
func (prog *Program) Binary() (image []byte) {
	for _, op := range prog.Opcodes {
		image = append(image, op.Bytes...)
	}

	return
}

// Disassemble decodes an image loaded at PROGRAM_START, one opcode per
// address. Words that do not decode yield an OP_UNKNOWN instruction.
// A trailing odd byte is ignored.
func Disassemble(image []byte) iter.Seq2[uint16, Instruction] {
	return func(yield func(addr uint16, inst Instruction) bool) {
		for n := 0; n+1 < len(image); n += 2 {
			code := Code(uint16(image[n])<<8 | uint16(image[n+1]))
			inst, _ := Decode(code)
			if !yield(uint16(PROGRAM_START+n), inst) {
				return
			}
		}
	}
}
