// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
	"math/rand/v2"

	"github.com/ezrec/chip8/display"
	"github.com/ezrec/chip8/keypad"
	"github.com/ezrec/chip8/memory"
)

const (
	REGISTERS = 16  // General purpose registers v0-vf.
	VF        = 0xf // Flag register.
)

var _cpu_defines = map[string]string{
	"PROGRAM_START": fmt.Sprintf("%#x", memory.PROGRAM_START),
	"FONT_START":    fmt.Sprintf("%#x", memory.FONT_START),
	"GLYPH_SIZE":    fmt.Sprintf("%d", memory.GLYPH_SIZE),
	"STACK_LIMIT":   fmt.Sprintf("%d", STACK_LIMIT),
	"FLAG_REGISTER": fmt.Sprintf("v%x", VF),
}

// Random is the source of the random instruction.
type Random interface {
	Uint32() uint32
}

// NewRandom returns a deterministic Random for a seed.
func NewRandom(seed uint64) Random {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Cpu is the simulation context for the processor.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Memory  *memory.Memory   // Address space.
	Display *display.Display // Framebuffer.
	Keypad  *keypad.Keypad   // Input matrix, read only.
	Random  Random           // Random byte source.

	Register [REGISTERS]uint8 // Register bank.
	I        uint16           // Index register.
	Pc       uint16           // Program counter.
	Stack    Stack            // Return stack.
	Delay    uint8            // Delay timer.
	Sound    uint8            // Sound timer.

	Ticks int // Cycles executed since reset.
}

// NewCpu creates a processor attached to its collaborators.
// A nil rnd uses a fixed seed.
func NewCpu(mem *memory.Memory, disp *display.Display, keys *keypad.Keypad, rnd Random) (cpu *Cpu) {
	if rnd == nil {
		rnd = NewRandom(0)
	}

	cpu = &Cpu{
		Memory:  mem,
		Display: disp,
		Keypad:  keys,
		Random:  rnd,
	}

	cpu.Reset()

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text += fmt.Sprintf("   pc: %04X\n", cpu.Pc)
	text += fmt.Sprintf("    i: %04X\n", cpu.I)
	for n, val := range cpu.Register {
		text += fmt.Sprintf("   v%X: %02X\n", n, val)
	}
	top, ok := cpu.Stack.Peek()
	if ok {
		text += fmt.Sprintf("stack: %04X (%d)\n", top, cpu.Stack.Depth())
	} else {
		text += "stack: ----\n"
	}
	text += fmt.Sprintf("   dt: %02X\n", cpu.Delay)
	text += fmt.Sprintf("   st: %02X\n", cpu.Sound)

	return
}

// Reset the CPU state.
// - Sets pc to the program start.
// - Clears i, the registers, the stack and both timers.
// - Zeros the tick counter.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Register[:])
	cpu.Stack.Reset()
	cpu.I = 0
	cpu.Pc = memory.PROGRAM_START
	cpu.Delay = 0
	cpu.Sound = 0
	cpu.Ticks = 0
}

// TickTimers counts both timers down by one, stopping at zero.
func (cpu *Cpu) TickTimers() {
	if cpu.Delay > 0 {
		cpu.Delay--
	}
	if cpu.Sound > 0 {
		cpu.Sound--
	}
}

// Sounding is true while the sound timer is running.
func (cpu *Cpu) Sounding() bool {
	return cpu.Sound > 0
}

// FetchCode reads the instruction word at pc.
func (cpu *Cpu) FetchCode() (code Code, err error) {
	word, err := cpu.Memory.ReadWord(int(cpu.Pc))
	if err != nil {
		err = errors.Join(ErrFetch, err)
		return
	}

	code = Code(word)
	return
}

// Tick executes a single CPU instruction cycle.
func (cpu *Cpu) Tick() (err error) {
	code, err := cpu.FetchCode()
	if err != nil {
		return
	}

	if cpu.Verbose {
		log.Printf("%03x: %v", cpu.Pc, code)
	}

	pc := cpu.Pc
	cpu.Pc += 2
	cpu.Ticks++

	err = cpu.Execute(code)
	if err != nil && !errors.Is(err, ErrUnknownInstruction) {
		// Halt on the faulting word.
		cpu.Pc = pc
	}

	return
}

// skipIf steps over the next instruction when cond holds.
func (cpu *Cpu) skipIf(cond bool) {
	if cond {
		cpu.Pc += 2
	}
}

// setFlag writes vf. Callers compute the flag from operand values read before
// any register was modified.
func (cpu *Cpu) setFlag(flag bool) {
	if flag {
		cpu.Register[VF] = 1
	} else {
		cpu.Register[VF] = 0
	}
}

// Execute executes a single decoded instruction.
// pc must already point past the instruction.
func (cpu *Cpu) Execute(code Code) (err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(code), err)
		}
	}()

	x := code.X()
	y := code.Y()
	vx := cpu.Register[x]
	vy := cpu.Register[y]

	switch code.Op() {
	case OP_CLS:
		cpu.Display.Clear()
	case OP_RET:
		pc, ok := cpu.Stack.Pop()
		if !ok {
			err = ErrStackEmpty
			return
		}
		cpu.Pc = pc
	case OP_JP:
		cpu.Pc = code.NNN()
	case OP_CALL:
		if !cpu.Stack.Push(cpu.Pc) {
			err = ErrStackFull
			return
		}
		cpu.Pc = code.NNN()
	case OP_SE_BYTE:
		cpu.skipIf(vx == code.NN())
	case OP_SNE_BYTE:
		cpu.skipIf(vx != code.NN())
	case OP_SE_REG:
		cpu.skipIf(vx == vy)
	case OP_LD_BYTE:
		cpu.Register[x] = code.NN()
	case OP_ADD_BYTE:
		cpu.Register[x] = vx + code.NN()
	case OP_LD_REG:
		cpu.Register[x] = vy
	case OP_OR:
		cpu.Register[x] = vx | vy
	case OP_AND:
		cpu.Register[x] = vx & vy
	case OP_XOR:
		cpu.Register[x] = vx ^ vy
	case OP_ADD_REG:
		sum := uint16(vx) + uint16(vy)
		cpu.Register[x] = uint8(sum)
		cpu.setFlag(sum > 0xff)
	case OP_SUB:
		cpu.Register[x] = vx - vy
		cpu.setFlag(vx > vy)
	case OP_SHR:
		cpu.Register[x] = vx >> 1
		cpu.setFlag(vx&0x01 != 0)
	case OP_SUBN:
		cpu.Register[x] = vy - vx
		cpu.setFlag(vy > vx)
	case OP_SHL:
		cpu.Register[x] = vx << 1
		cpu.setFlag(vx&0x80 != 0)
	case OP_SNE_REG:
		cpu.skipIf(vx != vy)
	case OP_LD_I:
		cpu.I = code.NNN()
	case OP_JP_V0:
		cpu.Pc = code.NNN() + uint16(cpu.Register[0])
	case OP_RND:
		cpu.Register[x] = uint8(cpu.Random.Uint32()) & code.NN()
	case OP_DRW:
		var sprite []byte
		sprite, err = cpu.Memory.Span(int(cpu.I), int(code.N()))
		if err != nil {
			return
		}
		collided := cpu.Display.Blit(int(vx), int(vy), sprite)
		cpu.setFlag(collided)
	case OP_SKP:
		cpu.skipIf(cpu.Keypad.IsDown(vx))
	case OP_SKNP:
		cpu.skipIf(!cpu.Keypad.IsDown(vx))
	case OP_LD_VX_DT:
		cpu.Register[x] = cpu.Delay
	case OP_LD_VX_K:
		key, ok := cpu.Keypad.AnyDown()
		if !ok {
			// Fetch this instruction again next cycle.
			cpu.Pc -= 2
			return
		}
		cpu.Register[x] = key
	case OP_LD_DT_VX:
		cpu.Delay = vx
	case OP_LD_ST_VX:
		cpu.Sound = vx
	case OP_ADD_I:
		cpu.I += uint16(vx)
	case OP_LD_F:
		cpu.I = memory.GlyphAddress(vx)
	case OP_LD_B:
		err = cpu.Memory.Store(int(cpu.I), []byte{vx / 100, (vx / 10) % 10, vx % 10})
	case OP_LD_MEM_VX:
		err = cpu.Memory.Store(int(cpu.I), cpu.Register[:x+1])
	case OP_LD_VX_MEM:
		var span []byte
		span, err = cpu.Memory.Span(int(cpu.I), x+1)
		if err != nil {
			return
		}
		copy(cpu.Register[:], span)
	case OP_UNKNOWN:
		err = ErrUnknownInstruction
	default:
		panic("unhandled op " + code.Op().String())
	}

	return
}
