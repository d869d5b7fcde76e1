package emulator

import (
	"github.com/ezrec/chip8/translate"
)

var f = translate.From

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Address uint16 // Address of the faulting instruction.
	LineNo  int    // Source line, when the program was assembled.
	Err     error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo > 0 {
		return f("%03x (line %d): %v", err.Address, err.LineNo, err.Err)
	}
	return f("%03x: %v", err.Address, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

// ErrImageLoad indicates the program image could not be read.
type ErrImageLoad struct {
	Path string
	Err  error
}

func (err *ErrImageLoad) Error() string {
	if len(err.Path) > 0 {
		return f("%v: image load: %v", err.Path, err.Err)
	}
	return f("image load: %v", err.Err)
}

func (err *ErrImageLoad) Unwrap() error {
	return err.Err
}
