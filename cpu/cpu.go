package cpu

import (
	"errors"
	"fmt"
	"log"
	"math/bits"
	"math/rand/v2"
	"strings"

	"github.com/ezrec/chip8/io"
)

// Speaker receives sound timer tone transitions.
type Speaker io.Speaker

// Memory layout and machine sizing.
const (
	MEMORY_SIZE    = 4096
	PROGRAM_START  = 0x200
	MAX_IMAGE_SIZE = MEMORY_SIZE - PROGRAM_START
	REGISTER_COUNT = 16
	KEY_COUNT      = 16
	REG_FLAG       = 0xf // VF, the carry/borrow/collision flag.
)

// Machine is the complete CHIP-8 architectural state.
type Machine struct {
	Verbose bool // Set to enable verbose logging.

	Memory  [MEMORY_SIZE]uint8    // Main memory; font at 0x000, program at 0x200.
	V       [REGISTER_COUNT]uint8 // General purpose registers V0-VF.
	I       uint16                // Index register.
	Pc      uint16                // Program counter.
	Stack   Stack                 // Return address stack.
	Delay   uint8                 // Delay timer.
	Sound   uint8                 // Sound timer; non-zero means the tone is on.
	Display Display               // Framebuffer.
	Keys    [KEY_COUNT]bool       // Keypad state.

	Speaker Speaker      // Tone transition sink, may be nil.
	Random  func() uint8 // Random byte source for RND.

	Dirty bool // Set whenever the display changes. Cleared by the host.
	Ticks int  // Instructions executed since reset.

	fault error // Latched fatal fault.
}

// NewMachine creates a machine in its power-on state.
func NewMachine() (m *Machine) {
	m = &Machine{
		Random: randomByte,
	}

	m.Reset()

	return
}

func randomByte() uint8 {
	return uint8(rand.Uint32())
}

// Reset the machine to its power-on state.
// - Clears memory, registers, stack, timers, display and keys.
// - Installs the font glyphs at FONT_ADDR.
// - Sets the program counter to PROGRAM_START.
// - Clears any latched fault.
func (m *Machine) Reset() {
	if m.Verbose {
		log.Printf("cpu: reset")
	}

	clear(m.Memory[:])
	copy(m.Memory[FONT_ADDR:], Font[:])
	clear(m.V[:])
	m.I = 0
	m.Pc = PROGRAM_START
	m.Stack.Reset()
	m.Delay = 0
	m.setSound(0)
	m.Display.Clear()
	clear(m.Keys[:])
	m.Dirty = true
	m.Ticks = 0
	m.fault = nil
}

// Load copies a program image into memory at PROGRAM_START.
func (m *Machine) Load(image []byte) (err error) {
	if len(image) > MAX_IMAGE_SIZE {
		err = fmt.Errorf("%w: %d > %d", ErrImageSize, len(image), MAX_IMAGE_SIZE)
		return
	}

	copy(m.Memory[PROGRAM_START:], image)

	if m.Verbose {
		log.Printf("cpu: loaded %d bytes", len(image))
	}

	return
}

// Fault returns the latched fatal fault, if any.
func (m *Machine) Fault() error {
	return m.fault
}

// Framebuffer returns a copy of the display.
func (m *Machine) Framebuffer() Display {
	return m.Display
}

// SetKey sets the pressed state of a keypad key.
func (m *Machine) SetKey(index int, pressed bool) (err error) {
	if index < 0 || index >= KEY_COUNT {
		err = ErrKeyIndex
		return
	}

	m.Keys[index] = pressed
	return
}

// TickTimers decrements the delay and sound timers towards zero.
func (m *Machine) TickTimers() {
	if m.Delay > 0 {
		m.Delay--
	}

	if m.Sound > 0 {
		m.setSound(m.Sound - 1)
	}
}

// setSound updates the sound timer, signalling tone edges to the speaker.
func (m *Machine) setSound(value uint8) {
	was := m.Sound != 0
	m.Sound = value
	now := value != 0
	if now != was && m.Speaker != nil {
		m.Speaker.Tone(now)
	}
}

// String returns the current register state as a string.
func (m *Machine) String() (text string) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "   pc: %03X\n", m.Pc)
	fmt.Fprintf(&sb, "    i: %03X\n", m.I)
	for n, v := range m.V {
		fmt.Fprintf(&sb, "   v%X: %02X\n", n, v)
	}
	if ret, ok := m.Stack.Peek(); ok {
		fmt.Fprintf(&sb, "stack: %03X (%d)\n", ret, m.Stack.Sp)
	} else {
		fmt.Fprintf(&sb, "stack: --- (0)\n")
	}
	fmt.Fprintf(&sb, "delay: %02X\n", m.Delay)
	fmt.Fprintf(&sb, "sound: %02X\n", m.Sound)

	text = sb.String()
	return
}

// Fetch reads the big-endian opcode at the program counter, and advances
// the program counter past it.
func (m *Machine) Fetch() (code Code, err error) {
	if int(m.Pc)+2 > MEMORY_SIZE {
		err = fmt.Errorf("%w: pc 0x%04x", ErrAddress, m.Pc)
		return
	}

	code = Code(uint16(m.Memory[m.Pc])<<8 | uint16(m.Memory[m.Pc+1]))
	m.Pc += 2
	return
}

// Step executes a single fetch-decode-execute cycle.
// Any fault is fatal: it is latched, and every later Step returns
// ErrHalted until Reset.
func (m *Machine) Step() (err error) {
	if m.fault != nil {
		err = errors.Join(ErrHalted, m.fault)
		return
	}

	defer func() {
		if err != nil {
			m.fault = err
			if m.Verbose {
				log.Printf("cpu: fault: %v\n%v", err, m)
			}
		}
	}()

	pc := m.Pc

	code, err := m.Fetch()
	if err != nil {
		return
	}

	inst, err := Decode(code)
	if err != nil {
		err = errors.Join(ErrOpcode(code), err)
		return
	}

	if m.Verbose {
		log.Printf("cpu: %03x: %v", pc, inst)
	}

	err = m.Execute(inst)
	if err != nil {
		return
	}

	m.Ticks++

	return
}

// span returns the n bytes of memory starting at addr.
func (m *Machine) span(addr uint16, n int) (mem []uint8, err error) {
	if int(addr)+n > MEMORY_SIZE {
		err = fmt.Errorf("%w: 0x%04x+%d", ErrAddress, addr, n)
		return
	}

	mem = m.Memory[addr : int(addr)+n]
	return
}

// skipIf advances the program counter past the next instruction.
func (m *Machine) skipIf(cond bool) {
	if cond {
		m.Pc += 2
	}
}

// Execute a single decoded instruction. The program counter must
// already be past the instruction's opcode.
func (m *Machine) Execute(inst Instruction) (err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(inst.Code), err)
		}
	}()

	v := &m.V
	x, y := inst.X, inst.Y

	switch inst.Op {
	case OP_CLS:
		m.Display.Clear()
		m.Dirty = true
	case OP_RET:
		var ret uint16
		ret, err = m.Stack.Pop()
		if err != nil {
			return
		}
		m.Pc = ret
	case OP_JP:
		m.Pc = inst.Addr
	case OP_CALL:
		err = m.Stack.Push(m.Pc)
		if err != nil {
			return
		}
		m.Pc = inst.Addr
	case OP_SE_BYTE:
		m.skipIf(v[x] == inst.KK)
	case OP_SNE_BYTE:
		m.skipIf(v[x] != inst.KK)
	case OP_SE_REG:
		m.skipIf(v[x] == v[y])
	case OP_SNE_REG:
		m.skipIf(v[x] != v[y])
	case OP_LD_BYTE:
		v[x] = inst.KK
	case OP_ADD_BYTE:
		v[x] += inst.KK
	case OP_LD_REG:
		v[x] = v[y]
	case OP_OR:
		v[x] |= v[y]
	case OP_AND:
		v[x] &= v[y]
	case OP_XOR:
		v[x] ^= v[y]
	case OP_ADD_REG:
		// Operands in the top byte, so the carry out is the 8-bit carry.
		sum, carry := bits.Add32(uint32(v[x])<<24, uint32(v[y])<<24, 0)
		v[x] = uint8(sum >> 24)
		v[REG_FLAG] = uint8(carry)
	case OP_SUB:
		diff, borrow := bits.Sub(uint(v[x]), uint(v[y]), 0)
		v[x] = uint8(diff)
		v[REG_FLAG] = uint8(1 - borrow)
	case OP_SUBN:
		diff, borrow := bits.Sub(uint(v[y]), uint(v[x]), 0)
		v[x] = uint8(diff)
		v[REG_FLAG] = uint8(1 - borrow)
	case OP_SHR:
		prior := v[x]
		v[x] = prior >> 1
		v[REG_FLAG] = prior & 1
	case OP_SHL:
		prior := v[x]
		v[x] = prior << 1
		v[REG_FLAG] = prior >> 7
	case OP_LD_I:
		m.I = inst.Addr
	case OP_JP_V0:
		m.Pc = uint16(v[0]) + inst.Addr
	case OP_RND:
		v[x] = m.Random() & inst.KK
	case OP_DRW:
		var sprite []uint8
		sprite, err = m.span(m.I, int(inst.N))
		if err != nil {
			return
		}
		collision := m.Display.Draw(int(v[x]), int(v[y]), sprite)
		v[REG_FLAG] = 0
		if collision {
			v[REG_FLAG] = 1
		}
		m.Dirty = true
	case OP_SKP, OP_SKNP:
		key := int(v[x])
		if key >= KEY_COUNT {
			err = fmt.Errorf("%w: V%X=0x%02x", ErrKeyIndex, x, key)
			return
		}
		m.skipIf(m.Keys[key] == (inst.Op == OP_SKP))
	case OP_LD_VX_DT:
		v[x] = m.Delay
	case OP_LD_VX_K:
		pressed := false
		for key, down := range m.Keys {
			if down {
				v[x] = uint8(key)
				pressed = true
				break
			}
		}
		if !pressed {
			// Re-execute this instruction on the next step.
			m.Pc -= 2
		}
	case OP_LD_DT_VX:
		m.Delay = v[x]
	case OP_LD_ST_VX:
		m.setSound(v[x])
	case OP_ADD_I:
		m.I += uint16(v[x])
	case OP_LD_F:
		m.I = FONT_ADDR + uint16(v[x])*FONT_GLYPH_SIZE
	case OP_LD_B:
		var mem []uint8
		mem, err = m.span(m.I, 3)
		if err != nil {
			return
		}
		mem[0] = v[x] / 100
		mem[1] = (v[x] / 10) % 10
		mem[2] = v[x] % 10
	case OP_LD_MEM_VX:
		var mem []uint8
		mem, err = m.span(m.I, int(x)+1)
		if err != nil {
			return
		}
		copy(mem, v[:x+1])
	case OP_LD_VX_MEM:
		var mem []uint8
		mem, err = m.span(m.I, int(x)+1)
		if err != nil {
			return
		}
		copy(v[:x+1], mem)
	default:
		err = ErrOpcodeDecode
	}

	return
}
