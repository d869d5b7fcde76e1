// Package cpu implements the processor and assembler for the machine.
//
// The processor has sixteen 8-bit registers (v0-vf), a 16-bit index register
// (i), a program counter, a sixteen slot return stack, and two countdown
// timers. Every instruction is one big-endian 16-bit word. Register vf doubles
// as the carry, borrow, shift and collision flag; flag results are always
// written after the data result.
//
// A cycle fetches the word at pc, advances pc by 2, then executes. The key
// wait instruction never blocks: while no key is held it steps pc back so the
// same word is fetched on the next cycle.
//
// The assembler accepts the customary mnemonics, plus labels, macros, equates,
// and compile-time $(...) expressions.
// The sys mnemonic is kept for old listings. Machine code routines are not
// emulated, so the 0nnn word it emits executes as an unknown instruction.
package cpu
