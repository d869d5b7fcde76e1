// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package memory implements the 4KB byte addressable store of the machine.
//
// Every access is bounds checked. A request that touches any byte at or
// beyond SIZE fails with *ErrAddressRange; addresses never wrap.
package memory

import (
	"io"
)

const (
	SIZE          = 4096  // Bytes of addressable memory.
	PROGRAM_START = 0x200 // Load address of program images.
	PROGRAM_SIZE  = SIZE - PROGRAM_START
)

// Memory is the address space.
type Memory struct {
	data [SIZE]byte
}

// check validates that [address, address+length) lies inside the memory.
func check(address int, length int) (err error) {
	if address < 0 || length < 0 || address+length > SIZE {
		err = &ErrAddressRange{Address: address, Length: length}
	}
	return
}

// Reset zeros all of memory.
func (mem *Memory) Reset() {
	clear(mem.data[:])
}

// Read a single byte.
func (mem *Memory) Read(address int) (value byte, err error) {
	err = check(address, 1)
	if err != nil {
		return
	}

	value = mem.data[address]
	return
}

// Write a single byte.
func (mem *Memory) Write(address int, value byte) (err error) {
	err = check(address, 1)
	if err != nil {
		return
	}

	mem.data[address] = value
	return
}

// ReadWord reads a big-endian 16-bit word.
func (mem *Memory) ReadWord(address int) (word uint16, err error) {
	span, err := mem.Span(address, 2)
	if err != nil {
		return
	}

	word = uint16(span[0])<<8 | uint16(span[1])
	return
}

// Span returns a read-only view of length bytes at address.
// The view aliases memory; callers must not modify it.
func (mem *Memory) Span(address int, length int) (span []byte, err error) {
	err = check(address, length)
	if err != nil {
		return
	}

	span = mem.data[address : address+length : address+length]
	return
}

// Store copies data into memory at address.
func (mem *Memory) Store(address int, data []byte) (err error) {
	err = check(address, len(data))
	if err != nil {
		return
	}

	copy(mem.data[address:], data)
	return
}

// Load reads a raw program image into memory at PROGRAM_START.
// Returns the number of bytes loaded.
func (mem *Memory) Load(r io.Reader) (n int, err error) {
	// Read one more than fits, to detect oversized images.
	buf := make([]byte, PROGRAM_SIZE+1)
	n, err = io.ReadFull(r, buf)
	switch err {
	case io.EOF, io.ErrUnexpectedEOF:
		err = nil
	case nil:
		err = &ErrAddressRange{Address: PROGRAM_START, Length: n}
		n = 0
		return
	default:
		return
	}

	err = mem.Store(PROGRAM_START, buf[:n])
	return
}
