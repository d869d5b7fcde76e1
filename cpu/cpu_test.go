package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/chip8/display"
	"github.com/ezrec/chip8/keypad"
	"github.com/ezrec/chip8/memory"
)

type fixedRandom uint32

func (fr fixedRandom) Uint32() uint32 {
	return uint32(fr)
}

func newTestCpu() (cpu *Cpu) {
	mem := &memory.Memory{}
	mem.LoadFont()
	return NewCpu(mem, &display.Display{}, &keypad.Keypad{}, fixedRandom(0xa5))
}

// load places code at the program start.
func (cpu *Cpu) load(codes ...Code) {
	for n, code := range codes {
		addr := memory.PROGRAM_START + n*2
		_ = cpu.Memory.Write(addr, byte(code>>8))
		_ = cpu.Memory.Write(addr+1, byte(code))
	}
}

func TestLoadByte(t *testing.T) {
	assert := assert.New(t)

	for x := range uint16(REGISTERS) {
		for _, nn := range []uint16{0x00, 0x01, 0x7f, 0x80, 0xff} {
			cpu := newTestCpu()
			for n := range cpu.Register {
				cpu.Register[n] = uint8(0x10 + n)
			}
			before := cpu.Register

			err := cpu.Execute(MakeCode(OP_LD_BYTE, x, nn))
			assert.NoError(err)

			expected := before
			expected[x] = uint8(nn)
			assert.Equal(expected, cpu.Register, "v%x = %#x", x, nn)
		}
	}
}

func TestArithmetic(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name string
		op   Op
		vx   uint8
		vy   uint8
		out  uint8
		vf   uint8
	}){
		{"add_carry", OP_ADD_REG, 0xff, 0x01, 0x00, 1},
		{"add", OP_ADD_REG, 0x01, 0x01, 0x02, 0},
		{"sub", OP_SUB, 0x05, 0x03, 0x02, 1},
		{"sub_borrow", OP_SUB, 0x03, 0x05, 0xfe, 0},
		{"sub_equal", OP_SUB, 0x05, 0x05, 0x00, 0},
		{"subn", OP_SUBN, 0x03, 0x05, 0x02, 1},
		{"subn_borrow", OP_SUBN, 0x05, 0x03, 0xfe, 0},
		{"shr", OP_SHR, 0x03, 0x00, 0x01, 1},
		{"shr_even", OP_SHR, 0x04, 0x00, 0x02, 0},
		{"shl", OP_SHL, 0x80, 0x00, 0x00, 1},
		{"shl_low", OP_SHL, 0x41, 0x00, 0x82, 0},
		{"or", OP_OR, 0xf0, 0x0f, 0xff, 0x99},
		{"and", OP_AND, 0xf3, 0x3f, 0x33, 0x99},
		{"xor", OP_XOR, 0xff, 0x0f, 0xf0, 0x99},
		{"ld", OP_LD_REG, 0x12, 0x34, 0x34, 0x99},
	}

	for _, entry := range table {
		cpu := newTestCpu()
		cpu.Register[1] = entry.vx
		cpu.Register[2] = entry.vy
		cpu.Register[VF] = 0x99

		err := cpu.Execute(MakeCode(entry.op, 1, 2))
		assert.NoError(err, entry.name)
		assert.Equal(entry.out, cpu.Register[1], entry.name)
		assert.Equal(entry.vf, cpu.Register[VF], entry.name)
		assert.Equal(entry.vy, cpu.Register[2], entry.name)
	}
}

func TestAddByte_NoFlag(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu()
	cpu.Register[3] = 0xff
	cpu.Register[VF] = 0x42

	err := cpu.Execute(MakeCode(OP_ADD_BYTE, 3, 0x02))
	assert.NoError(err)
	assert.Equal(uint8(0x01), cpu.Register[3])
	assert.Equal(uint8(0x42), cpu.Register[VF])
}

func TestFlagRegister_IsDestination(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name string
		op   Op
		vf   uint8
		vy   uint8
		flag uint8
	}){
		{"add", OP_ADD_REG, 0xff, 0x02, 1},
		{"sub", OP_SUB, 0x01, 0x02, 0},
		{"shr", OP_SHR, 0x02, 0x00, 0},
		{"shl", OP_SHL, 0x80, 0x00, 1},
	}

	for _, entry := range table {
		cpu := newTestCpu()
		cpu.Register[VF] = entry.vf
		cpu.Register[1] = entry.vy

		err := cpu.Execute(MakeCode(entry.op, VF, 1))
		assert.NoError(err, entry.name)
		assert.Equal(entry.flag, cpu.Register[VF], entry.name)
	}
}

func TestCallReturn(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu()
	cpu.load(MakeCode(OP_CALL, 0x300))
	_ = cpu.Memory.Store(0x300, []byte{0x00, 0xee})

	err := cpu.Tick()
	assert.NoError(err)
	assert.Equal(uint16(0x300), cpu.Pc)
	assert.Equal(1, cpu.Stack.Depth())

	err = cpu.Tick()
	assert.NoError(err)
	assert.Equal(uint16(0x202), cpu.Pc)
	assert.Equal(0, cpu.Stack.Depth())
}

func TestCallReturn_Nested(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu()

	for n := range STACK_LIMIT - 1 {
		err := cpu.Execute(MakeCode(OP_CALL, uint16(0x300+n*2)))
		assert.NoError(err, n)
	}
	assert.Equal(STACK_LIMIT-1, cpu.Stack.Depth())

	err := cpu.Execute(MakeCode(OP_CALL, 0x400))
	assert.ErrorIs(err, ErrStackFull)
	assert.ErrorIs(err, ErrOpcode(0))
	assert.Equal(STACK_LIMIT-1, cpu.Stack.Depth())

	for n := range STACK_LIMIT - 1 {
		err := cpu.Execute(MakeCode(OP_RET))
		assert.NoError(err, n)
	}
	assert.Equal(uint16(memory.PROGRAM_START), cpu.Pc)
	assert.Equal(0, cpu.Stack.Depth())

	err = cpu.Execute(MakeCode(OP_RET))
	assert.ErrorIs(err, ErrStackEmpty)
}

func TestCallReturn_Overflow(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu()
	cpu.load(MakeCode(OP_CALL, memory.PROGRAM_START))

	for n := range STACK_LIMIT - 1 {
		err := cpu.Tick()
		assert.NoError(err, n)
	}
	assert.Equal(STACK_LIMIT-1, cpu.Stack.Depth())
	before := cpu.Stack

	err := cpu.Tick()
	assert.ErrorIs(err, ErrStackFull)
	assert.Equal(uint16(memory.PROGRAM_START), cpu.Pc)
	assert.Equal(before, cpu.Stack)
}

func TestJump(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu()

	err := cpu.Execute(MakeCode(OP_JP, 0x345))
	assert.NoError(err)
	assert.Equal(uint16(0x345), cpu.Pc)

	cpu.Register[0] = 0x10
	err = cpu.Execute(MakeCode(OP_JP_V0, 0x300))
	assert.NoError(err)
	assert.Equal(uint16(0x310), cpu.Pc)
}

func TestSkip(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name string
		code Code
		skip bool
	}){
		{"se_byte", MakeCode(OP_SE_BYTE, 1, 0x11), true},
		{"se_byte_no", MakeCode(OP_SE_BYTE, 1, 0x12), false},
		{"sne_byte", MakeCode(OP_SNE_BYTE, 1, 0x12), true},
		{"sne_byte_no", MakeCode(OP_SNE_BYTE, 1, 0x11), false},
		{"se_reg", MakeCode(OP_SE_REG, 1, 3), true},
		{"se_reg_no", MakeCode(OP_SE_REG, 1, 2), false},
		{"sne_reg", MakeCode(OP_SNE_REG, 1, 2), true},
		{"sne_reg_no", MakeCode(OP_SNE_REG, 1, 3), false},
		{"skp", MakeCode(OP_SKP, 4), true},
		{"skp_no", MakeCode(OP_SKP, 1), false},
		{"sknp", MakeCode(OP_SKNP, 1), true},
		{"sknp_no", MakeCode(OP_SKNP, 4), false},
	}

	for _, entry := range table {
		cpu := newTestCpu()
		cpu.Register[1] = 0x11
		cpu.Register[2] = 0x22
		cpu.Register[3] = 0x11
		cpu.Register[4] = 0x07
		cpu.Keypad.SetPressed(0x7, true)

		err := cpu.Execute(entry.code)
		assert.NoError(err, entry.name)
		if entry.skip {
			assert.Equal(uint16(0x202), cpu.Pc, entry.name)
		} else {
			assert.Equal(uint16(0x200), cpu.Pc, entry.name)
		}
	}
}

func TestIndex(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu()

	err := cpu.Execute(MakeCode(OP_LD_I, 0x123))
	assert.NoError(err)
	assert.Equal(uint16(0x123), cpu.I)

	cpu.Register[5] = 0xff
	cpu.Register[VF] = 0x33
	err = cpu.Execute(MakeCode(OP_ADD_I, 5))
	assert.NoError(err)
	assert.Equal(uint16(0x222), cpu.I)
	assert.Equal(uint8(0x33), cpu.Register[VF])
}

func TestGlyph(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu()

	for digit := range uint8(16) {
		cpu.Register[2] = 0xf0 | digit
		err := cpu.Execute(MakeCode(OP_LD_F, 2))
		assert.NoError(err)
		assert.Equal(uint16(digit)*memory.GLYPH_SIZE, cpu.I, digit)
	}
}

func TestBCD(t *testing.T) {
	assert := assert.New(t)

	table := []uint8{0, 7, 42, 100, 159, 255}

	for _, value := range table {
		cpu := newTestCpu()
		cpu.I = 0x300
		cpu.Register[6] = value

		err := cpu.Execute(MakeCode(OP_LD_B, 6))
		assert.NoError(err)

		digits, err := cpu.Memory.Span(0x300, 3)
		assert.NoError(err)
		assert.Equal([]byte{value / 100, (value / 10) % 10, value % 10}, digits, value)
		assert.Equal(uint16(0x300), cpu.I)
	}
}

func TestStoreLoad(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu()
	for n := range cpu.Register {
		cpu.Register[n] = uint8(0xa0 + n)
	}
	cpu.I = 0x400

	err := cpu.Execute(MakeCode(OP_LD_MEM_VX, 3))
	assert.NoError(err)

	stored, err := cpu.Memory.Span(0x400, 5)
	assert.NoError(err)
	assert.Equal([]byte{0xa0, 0xa1, 0xa2, 0xa3, 0x00}, stored)
	assert.Equal(uint16(0x400), cpu.I)

	clear(cpu.Register[:])
	err = cpu.Execute(MakeCode(OP_LD_VX_MEM, 2))
	assert.NoError(err)
	assert.Equal(uint8(0xa0), cpu.Register[0])
	assert.Equal(uint8(0xa1), cpu.Register[1])
	assert.Equal(uint8(0xa2), cpu.Register[2])
	assert.Equal(uint8(0x00), cpu.Register[3])
}

func TestAddressRange(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name string
		i    uint16
		code Code
	}){
		{"store", 0xffe, MakeCode(OP_LD_MEM_VX, 3)},
		{"load", 0xfff, MakeCode(OP_LD_VX_MEM, 1)},
		{"bcd", 0xffe, MakeCode(OP_LD_B, 0)},
		{"draw", 0xffc, MakeCode(OP_DRW, 0, 0, 5)},
	}

	for _, entry := range table {
		cpu := newTestCpu()
		cpu.I = entry.i
		before := cpu.Register

		err := cpu.Execute(entry.code)
		var range_err *memory.ErrAddressRange
		assert.True(errors.As(err, &range_err), entry.name)
		assert.Equal(before, cpu.Register, entry.name)
	}
}

func TestRandom(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu()

	err := cpu.Execute(MakeCode(OP_RND, 1, 0x0f))
	assert.NoError(err)
	assert.Equal(uint8(0x05), cpu.Register[1])

	err = cpu.Execute(MakeCode(OP_RND, 1, 0x00))
	assert.NoError(err)
	assert.Equal(uint8(0x00), cpu.Register[1])
}

func TestRandom_Seeded(t *testing.T) {
	assert := assert.New(t)

	run := func(seed uint64) (values []uint8) {
		cpu := NewCpu(&memory.Memory{}, &display.Display{}, &keypad.Keypad{}, NewRandom(seed))
		for range 8 {
			_ = cpu.Execute(MakeCode(OP_RND, 0, 0xff))
			values = append(values, cpu.Register[0])
		}
		return
	}

	assert.Equal(run(1234), run(1234))
}

func TestDraw(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu()
	cpu.Register[0] = 62
	cpu.Register[1] = 30
	cpu.Register[2] = 0x0
	cpu.load(
		MakeCode(OP_LD_F, 2),
		MakeCode(OP_DRW, 0, 1, memory.GLYPH_SIZE),
		MakeCode(OP_DRW, 0, 1, memory.GLYPH_SIZE),
	)

	assert.NoError(cpu.Tick())
	assert.NoError(cpu.Tick())
	assert.Equal(uint8(0), cpu.Register[VF])
	assert.Equal(14, cpu.Display.Lit())
	// Top row of '0' is 0xF0: columns 62, 63, 0, 1.
	assert.True(cpu.Display.Pixel(62, 30))
	assert.True(cpu.Display.Pixel(1, 30))
	assert.False(cpu.Display.Pixel(2, 30))
	// Third row wraps to the top.
	assert.True(cpu.Display.Pixel(62, 0))

	assert.NoError(cpu.Tick())
	assert.Equal(uint8(1), cpu.Register[VF])
	assert.Equal(0, cpu.Display.Lit())

	assert.NoError(cpu.Execute(MakeCode(OP_CLS)))
	assert.Equal(0, cpu.Display.Lit())
}

func TestDraw_FlagRegister(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu()
	cpu.Register[VF] = 10
	cpu.Register[1] = 4
	cpu.I = memory.GlyphAddress(8)

	assert.NoError(cpu.Execute(MakeCode(OP_DRW, VF, 1, 1)))
	assert.True(cpu.Display.Pixel(10, 4))
	assert.Equal(uint8(0), cpu.Register[VF])
}

func TestKeyWait(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu()
	cpu.load(MakeCode(OP_LD_VX_K, 5))

	for range 10 {
		err := cpu.Tick()
		assert.NoError(err)
		assert.Equal(uint16(0x200), cpu.Pc)
	}
	assert.Equal(uint8(0), cpu.Register[5])

	cpu.Keypad.SetPressed(0xc, true)
	cpu.Keypad.SetPressed(0x7, true)
	err := cpu.Tick()
	assert.NoError(err)
	assert.Equal(uint16(0x202), cpu.Pc)
	assert.Equal(uint8(0x7), cpu.Register[5])
}

func TestTimers(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu()
	cpu.Register[1] = 2
	cpu.Register[2] = 1

	assert.NoError(cpu.Execute(MakeCode(OP_LD_DT_VX, 1)))
	assert.NoError(cpu.Execute(MakeCode(OP_LD_ST_VX, 2)))
	assert.Equal(uint8(2), cpu.Delay)
	assert.True(cpu.Sounding())

	cpu.TickTimers()
	assert.NoError(cpu.Execute(MakeCode(OP_LD_VX_DT, 3)))
	assert.Equal(uint8(1), cpu.Register[3])
	assert.False(cpu.Sounding())

	cpu.TickTimers()
	cpu.TickTimers()
	assert.Equal(uint8(0), cpu.Delay)
	assert.Equal(uint8(0), cpu.Sound)
}

func TestUnknown(t *testing.T) {
	assert := assert.New(t)

	table := []Code{0x0000, 0x0123, 0x5121, 0x8008, 0x900f, 0xe0ff, 0xf0ff}

	for _, code := range table {
		cpu := newTestCpu()
		cpu.load(code)
		cpu.Register[4] = 0x44
		cpu.I = 0x321
		before_mem, _ := cpu.Memory.Span(0, memory.SIZE)
		before_mem = append([]byte(nil), before_mem...)
		before_reg := cpu.Register
		before_stack := cpu.Stack

		err := cpu.Tick()
		assert.ErrorIs(err, ErrUnknownInstruction, code)
		assert.ErrorIs(err, ErrOpcode(code), code)
		assert.Equal(uint16(0x202), cpu.Pc, code)
		assert.Equal(before_reg, cpu.Register, code)
		assert.Equal(before_stack, cpu.Stack, code)
		assert.Equal(uint16(0x321), cpu.I, code)
		after_mem, _ := cpu.Memory.Span(0, memory.SIZE)
		assert.Equal(before_mem, after_mem, code)
	}
}

func TestFetch_OutOfRange(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu()
	cpu.Pc = 0xfff

	err := cpu.Tick()
	assert.ErrorIs(err, ErrFetch)
	assert.Equal(uint16(0xfff), cpu.Pc)
	assert.Equal(0, cpu.Ticks)
}

func TestReset(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu()
	cpu.Pc = 0x456
	cpu.I = 0x10
	cpu.Register[3] = 3
	cpu.Delay = 5
	cpu.Sound = 6
	cpu.Stack.Push(0x222)

	cpu.Reset()
	assert.Equal(uint16(memory.PROGRAM_START), cpu.Pc)
	assert.Equal(uint16(0), cpu.I)
	assert.Equal([REGISTERS]uint8{}, cpu.Register)
	assert.True(cpu.Stack.Empty())
	assert.Equal(uint8(0), cpu.Delay)
	assert.Equal(uint8(0), cpu.Sound)
}

func TestDefines(t *testing.T) {
	assert := assert.New(t)

	cpu := newTestCpu()
	defines := map[string]string{}
	for key, value := range cpu.Defines() {
		defines[key] = value
	}

	assert.Equal("0x200", defines["PROGRAM_START"])
	assert.Equal("5", defines["GLYPH_SIZE"])
}
