package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgram_Debug(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Opcodes: []Opcode{
			{LineNo: 1, Address: 0x200, Words: []string{"ld", "v0", "0x10"},
				Codes: []Code{MakeCode(OP_LD_BYTE, 0, 0x10)}},
			{LineNo: 2, Address: 0x202, Words: []string{"ld", "v1", "0x20"},
				Codes: []Code{MakeCode(OP_LD_BYTE, 1, 0x20)}},
			{LineNo: 3, Address: 0x204, Words: []string{"add", "v0", "v1"},
				Codes: []Code{MakeCode(OP_ADD_REG, 0, 1)}},
		},
	}

	dbg := prog.Debug(0x200)
	assert.NotNil(dbg.Opcode)
	assert.Equal(1, dbg.Opcode.LineNo)
	assert.Equal(0, dbg.Index)

	dbg = prog.Debug(0x203)
	assert.NotNil(dbg.Opcode)
	assert.Equal(2, dbg.Opcode.LineNo)
	assert.Equal(1, dbg.Index)

	dbg = prog.Debug(0x204)
	assert.NotNil(dbg.Opcode)
	assert.Equal(3, dbg.Opcode.LineNo)
	assert.Equal(0, dbg.Index)
}

func TestProgram_Debug_NotFound(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Opcodes: []Opcode{
			{LineNo: 1, Address: 0x200, Words: []string{"ld", "v0", "0x10"},
				Codes: []Code{MakeCode(OP_LD_BYTE, 0, 0x10)}},
		},
	}

	dbg := prog.Debug(0x210)
	assert.Nil(dbg.Opcode)
	assert.Equal(0, dbg.Index)

	dbg = prog.Debug(0x1ff)
	assert.Nil(dbg.Opcode)
}

func TestProgram_Debug_Data(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Opcodes: []Opcode{
			{LineNo: 4, Address: 0x300, Words: []string{".byte", "1", "2", "3"},
				Data: []byte{1, 2, 3}},
		},
	}

	dbg := prog.Debug(0x302)
	assert.NotNil(dbg.Opcode)
	assert.Equal(2, dbg.Index)

	dbg = prog.Debug(0x303)
	assert.Nil(dbg.Opcode)
}

func TestProgram_Binary(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{}
	assert.Nil(prog.Binary())

	prog = &Program{
		Opcodes: []Opcode{
			{LineNo: 1, Address: 0x200, Codes: []Code{0x00e0, 0x1200}},
			{LineNo: 2, Address: 0x206, Data: []byte{0xaa}},
		},
	}

	assert.Equal([]byte{0x00, 0xe0, 0x12, 0x00, 0x00, 0x00, 0xaa}, prog.Binary())
}

func TestProgram_Codes(t *testing.T) {
	assert := assert.New(t)

	prog := &Program{
		Opcodes: []Opcode{
			{LineNo: 1, Address: 0x200, Codes: []Code{0x00e0, 0x1200}},
			{LineNo: 2, Address: 0x204, Data: []byte{0xaa}},
			{LineNo: 3, Address: 0x206, Codes: []Code{0x00ee}},
		},
	}

	addrs := []uint16{}
	codes := []Code{}
	for addr, code := range prog.Codes() {
		addrs = append(addrs, addr)
		codes = append(codes, code)
	}

	assert.Equal([]uint16{0x200, 0x202, 0x206}, addrs)
	assert.Equal([]Code{0x00e0, 0x1200, 0x00ee}, codes)
}
