package memory

import (
	"github.com/ezrec/chip8/translate"
)

var f = translate.From

// ErrAddressRange reports an access outside of the address space.
type ErrAddressRange struct {
	Address int // First address requested.
	Length  int // Number of bytes requested.
}

func (err *ErrAddressRange) Error() string {
	if err.Length == 1 {
		return f("address 0x%04x out of range", err.Address)
	}
	return f("address 0x%04x+%v out of range", err.Address, err.Length)
}

func (err *ErrAddressRange) Is(target error) (ok bool) {
	_, ok = target.(*ErrAddressRange)
	return
}
