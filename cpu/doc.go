// Package cpu implements the CHIP-8 virtual machine.
//
// The machine consists of 4KB of byte-addressable memory, sixteen 8-bit
// general-purpose registers (V0-VF), a 16-bit index register (I), a 16-bit
// program counter, a sixteen entry call stack, two 60Hz countdown timers,
// a 64x32 monochrome display and a sixteen key keypad.
//
// Register VF doubles as the carry, borrow and collision flag for the
// arithmetic and sprite drawing instructions.
//
// Each call to Step fetches one big-endian 16-bit opcode at the program
// counter, decodes it into an Instruction, and executes it. The timers are
// decremented separately by TickTimers, at a rate chosen by the host.
package cpu
