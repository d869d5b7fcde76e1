package cpu

import (
	"fmt"
)

// Op identifies a documented instruction.
type Op int

//go:generate go tool stringer -linecomment -type=Op
const (
	OP_UNKNOWN   = Op(0)  // ????
	OP_CLS       = Op(1)  // 00E0
	OP_RET       = Op(2)  // 00EE
	OP_JP        = Op(3)  // 1NNN
	OP_CALL      = Op(4)  // 2NNN
	OP_SE_BYTE   = Op(5)  // 3XNN
	OP_SNE_BYTE  = Op(6)  // 4XNN
	OP_SE_REG    = Op(7)  // 5XY0
	OP_LD_BYTE   = Op(8)  // 6XNN
	OP_ADD_BYTE  = Op(9)  // 7XNN
	OP_LD_REG    = Op(10) // 8XY0
	OP_OR        = Op(11) // 8XY1
	OP_AND       = Op(12) // 8XY2
	OP_XOR       = Op(13) // 8XY3
	OP_ADD_REG   = Op(14) // 8XY4
	OP_SUB       = Op(15) // 8XY5
	OP_SHR       = Op(16) // 8XY6
	OP_SUBN      = Op(17) // 8XY7
	OP_SHL       = Op(18) // 8XYE
	OP_SNE_REG   = Op(19) // 9XY0
	OP_LD_I      = Op(20) // ANNN
	OP_JP_V0     = Op(21) // BNNN
	OP_RND       = Op(22) // CXNN
	OP_DRW       = Op(23) // DXYN
	OP_SKP       = Op(24) // EX9E
	OP_SKNP      = Op(25) // EXA1
	OP_LD_VX_DT  = Op(26) // FX07
	OP_LD_VX_K   = Op(27) // FX0A
	OP_LD_DT_VX  = Op(28) // FX15
	OP_LD_ST_VX  = Op(29) // FX18
	OP_ADD_I     = Op(30) // FX1E
	OP_LD_F      = Op(31) // FX29
	OP_LD_B      = Op(32) // FX33
	OP_LD_MEM_VX = Op(33) // FX55
	OP_LD_VX_MEM = Op(34) // FX65

	OP_COUNT = 35
)

// Operand layout of an instruction word.
type Form int

const (
	FORM_NONE Form = iota // no operands
	FORM_NNN              // 12-bit address
	FORM_XNN              // register, byte
	FORM_XY               // register, register
	FORM_XYN              // register, register, nibble
	FORM_X                // register
)

type opEncoding struct {
	Base uint16
	Form Form
}

// opTable is indexed by Op.
var opTable = [OP_COUNT]opEncoding{
	OP_UNKNOWN:   {0x0000, FORM_NONE},
	OP_CLS:       {0x00E0, FORM_NONE},
	OP_RET:       {0x00EE, FORM_NONE},
	OP_JP:        {0x1000, FORM_NNN},
	OP_CALL:      {0x2000, FORM_NNN},
	OP_SE_BYTE:   {0x3000, FORM_XNN},
	OP_SNE_BYTE:  {0x4000, FORM_XNN},
	OP_SE_REG:    {0x5000, FORM_XY},
	OP_LD_BYTE:   {0x6000, FORM_XNN},
	OP_ADD_BYTE:  {0x7000, FORM_XNN},
	OP_LD_REG:    {0x8000, FORM_XY},
	OP_OR:        {0x8001, FORM_XY},
	OP_AND:       {0x8002, FORM_XY},
	OP_XOR:       {0x8003, FORM_XY},
	OP_ADD_REG:   {0x8004, FORM_XY},
	OP_SUB:       {0x8005, FORM_XY},
	OP_SHR:       {0x8006, FORM_XY},
	OP_SUBN:      {0x8007, FORM_XY},
	OP_SHL:       {0x800E, FORM_XY},
	OP_SNE_REG:   {0x9000, FORM_XY},
	OP_LD_I:      {0xA000, FORM_NNN},
	OP_JP_V0:     {0xB000, FORM_NNN},
	OP_RND:       {0xC000, FORM_XNN},
	OP_DRW:       {0xD000, FORM_XYN},
	OP_SKP:       {0xE09E, FORM_X},
	OP_SKNP:      {0xE0A1, FORM_X},
	OP_LD_VX_DT:  {0xF007, FORM_X},
	OP_LD_VX_K:   {0xF00A, FORM_X},
	OP_LD_DT_VX:  {0xF015, FORM_X},
	OP_LD_ST_VX:  {0xF018, FORM_X},
	OP_ADD_I:     {0xF01E, FORM_X},
	OP_LD_F:      {0xF029, FORM_X},
	OP_LD_B:      {0xF033, FORM_X},
	OP_LD_MEM_VX: {0xF055, FORM_X},
	OP_LD_VX_MEM: {0xF065, FORM_X},
}

// Form returns the operand layout of the instruction.
func (op Op) Form() Form {
	if op < 0 || op >= OP_COUNT {
		return FORM_NONE
	}
	return opTable[op].Form
}

// Code is a single 16-bit instruction word.
type Code uint16

// DecodeX extracts the X register index from bits 8-11.
func DecodeX(word uint16) int {
	return int((word >> 8) & 0xf)
}

// DecodeY extracts the Y register index from bits 4-7.
func DecodeY(word uint16) int {
	return int((word >> 4) & 0xf)
}

// X returns the first register operand.
func (code Code) X() int {
	return DecodeX(uint16(code))
}

// Y returns the second register operand.
func (code Code) Y() int {
	return DecodeY(uint16(code))
}

// N returns the low nibble.
func (code Code) N() uint8 {
	return uint8(code & 0xf)
}

// NN returns the low byte.
func (code Code) NN() uint8 {
	return uint8(code & 0xff)
}

// NNN returns the low 12 bits.
func (code Code) NNN() uint16 {
	return uint16(code & 0xfff)
}

// Op decodes the instruction word.
func (code Code) Op() Op {
	switch code & 0xf000 {
	case 0x0000:
		switch code & 0x0fff {
		case 0x00e0:
			return OP_CLS
		case 0x00ee:
			return OP_RET
		}
	case 0x1000:
		return OP_JP
	case 0x2000:
		return OP_CALL
	case 0x3000:
		return OP_SE_BYTE
	case 0x4000:
		return OP_SNE_BYTE
	case 0x5000:
		if code.N() == 0 {
			return OP_SE_REG
		}
	case 0x6000:
		return OP_LD_BYTE
	case 0x7000:
		return OP_ADD_BYTE
	case 0x8000:
		switch code.N() {
		case 0x0:
			return OP_LD_REG
		case 0x1:
			return OP_OR
		case 0x2:
			return OP_AND
		case 0x3:
			return OP_XOR
		case 0x4:
			return OP_ADD_REG
		case 0x5:
			return OP_SUB
		case 0x6:
			return OP_SHR
		case 0x7:
			return OP_SUBN
		case 0xe:
			return OP_SHL
		}
	case 0x9000:
		if code.N() == 0 {
			return OP_SNE_REG
		}
	case 0xa000:
		return OP_LD_I
	case 0xb000:
		return OP_JP_V0
	case 0xc000:
		return OP_RND
	case 0xd000:
		return OP_DRW
	case 0xe000:
		switch code.NN() {
		case 0x9e:
			return OP_SKP
		case 0xa1:
			return OP_SKNP
		}
	case 0xf000:
		switch code.NN() {
		case 0x07:
			return OP_LD_VX_DT
		case 0x0a:
			return OP_LD_VX_K
		case 0x15:
			return OP_LD_DT_VX
		case 0x18:
			return OP_LD_ST_VX
		case 0x1e:
			return OP_ADD_I
		case 0x29:
			return OP_LD_F
		case 0x33:
			return OP_LD_B
		case 0x55:
			return OP_LD_MEM_VX
		case 0x65:
			return OP_LD_VX_MEM
		}
	}

	return OP_UNKNOWN
}

// MakeCode encodes an instruction. Operands not used by the op's form are ignored.
// Each operand is masked to the width of its field.
func MakeCode(op Op, operands ...uint16) Code {
	if op <= OP_UNKNOWN || op >= OP_COUNT {
		return 0
	}

	arg := func(n int) uint16 {
		if n < len(operands) {
			return operands[n]
		}
		return 0
	}

	enc := opTable[op]
	word := enc.Base
	switch enc.Form {
	case FORM_NNN:
		word |= arg(0) & 0xfff
	case FORM_XNN:
		word |= (arg(0)&0xf)<<8 | arg(1)&0xff
	case FORM_XY:
		word |= (arg(0)&0xf)<<8 | (arg(1)&0xf)<<4
	case FORM_XYN:
		word |= (arg(0)&0xf)<<8 | (arg(1)&0xf)<<4 | arg(2)&0xf
	case FORM_X:
		word |= (arg(0) & 0xf) << 8
	}

	return Code(word)
}

// Mnemonic returns the assembler mnemonic of the instruction.
func (code Code) Mnemonic() string {
	switch code.Op() {
	case OP_CLS:
		return "cls"
	case OP_RET:
		return "ret"
	case OP_JP, OP_JP_V0:
		return "jp"
	case OP_CALL:
		return "call"
	case OP_SE_BYTE, OP_SE_REG:
		return "se"
	case OP_SNE_BYTE, OP_SNE_REG:
		return "sne"
	case OP_ADD_BYTE, OP_ADD_REG, OP_ADD_I:
		return "add"
	case OP_OR:
		return "or"
	case OP_AND:
		return "and"
	case OP_XOR:
		return "xor"
	case OP_SUB:
		return "sub"
	case OP_SHR:
		return "shr"
	case OP_SUBN:
		return "subn"
	case OP_SHL:
		return "shl"
	case OP_RND:
		return "rnd"
	case OP_DRW:
		return "drw"
	case OP_SKP:
		return "skp"
	case OP_SKNP:
		return "sknp"
	case OP_UNKNOWN:
		return ".word"
	}
	return "ld"
}

// String returns the assembly language representation of this instruction.
func (code Code) String() (out string) {
	op := code.Op()
	name := code.Mnemonic()

	x := code.X()
	y := code.Y()

	switch op {
	case OP_UNKNOWN:
		out = fmt.Sprintf("%v 0x%04x", name, uint16(code))
	case OP_CLS, OP_RET:
		out = name
	case OP_JP, OP_CALL:
		out = fmt.Sprintf("%v 0x%03x", name, code.NNN())
	case OP_JP_V0:
		out = fmt.Sprintf("%v v0, 0x%03x", name, code.NNN())
	case OP_LD_I:
		out = fmt.Sprintf("%v i, 0x%03x", name, code.NNN())
	case OP_LD_VX_DT:
		out = fmt.Sprintf("%v v%x, dt", name, x)
	case OP_LD_VX_K:
		out = fmt.Sprintf("%v v%x, k", name, x)
	case OP_LD_DT_VX:
		out = fmt.Sprintf("%v dt, v%x", name, x)
	case OP_LD_ST_VX:
		out = fmt.Sprintf("%v st, v%x", name, x)
	case OP_ADD_I:
		out = fmt.Sprintf("%v i, v%x", name, x)
	case OP_LD_F:
		out = fmt.Sprintf("%v f, v%x", name, x)
	case OP_LD_B:
		out = fmt.Sprintf("%v b, v%x", name, x)
	case OP_LD_MEM_VX:
		out = fmt.Sprintf("%v [i], v%x", name, x)
	case OP_LD_VX_MEM:
		out = fmt.Sprintf("%v v%x, [i]", name, x)
	default:
		switch op.Form() {
		case FORM_XNN:
			out = fmt.Sprintf("%v v%x, 0x%02x", name, x, code.NN())
		case FORM_XY:
			out = fmt.Sprintf("%v v%x, v%x", name, x, y)
		case FORM_XYN:
			out = fmt.Sprintf("%v v%x, v%x, %d", name, x, y, code.N())
		case FORM_X:
			out = fmt.Sprintf("%v v%x", name, x)
		}
	}

	return
}
