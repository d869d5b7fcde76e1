package cpu

import (
	"iter"

	"github.com/ezrec/chip8/memory"
)

// Opcode represents a line of assembled code with its source location and generated output.
type Opcode struct {
	LineNo    int      // Source line.
	Address   int      // Load address of the first byte.
	Words     []string // Source words, after expansion.
	Codes     []Code   // Instruction words.
	Data      []byte   // Raw bytes from data directives.
	LinkLabel string   // Label whose address is linked into the last Code.
}

// Size returns the number of bytes generated.
func (op *Opcode) Size() int {
	return len(op.Codes)*2 + len(op.Data)
}

// Bytes returns the generated bytes, big-endian for instruction words.
func (op *Opcode) Bytes() (data []byte) {
	data = make([]byte, 0, op.Size())
	for _, code := range op.Codes {
		data = append(data, byte(code>>8), byte(code))
	}
	data = append(data, op.Data...)
	return
}

// Program is an assembled listing.
type Program struct {
	Opcodes []Opcode
}

// Debug locates the opcode that generated the byte at address.
type Debug struct {
	*Opcode
	Index int // Byte offset within the opcode.
}

func (prog *Program) Debug(address uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if int(address) >= op.Address && int(address) < op.Address+op.Size() {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Index:  int(address) - op.Address,
			}
			break
		}
	}

	return
}

// Binary returns the program image, as loaded at memory.PROGRAM_START.
// Gaps left by .org are zero filled.
func (prog *Program) Binary() (image []byte) {
	for _, op := range prog.Opcodes {
		offset := op.Address - memory.PROGRAM_START
		if offset < 0 {
			continue
		}
		end := offset + op.Size()
		if end > len(image) {
			image = append(image, make([]byte, end-len(image))...)
		}
		copy(image[offset:], op.Bytes())
	}

	return
}

// Codes iterates over every instruction word and its address.
func (prog *Program) Codes() iter.Seq2[uint16, Code] {
	return func(yield func(address uint16, code Code) bool) {
		for _, op := range prog.Opcodes {
			address := uint16(op.Address)
			for n, code := range op.Codes {
				if !yield(address+uint16(n*2), code) {
					return
				}
			}
		}
	}
}
