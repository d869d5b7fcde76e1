// Package keypad implements the 16 key hexadecimal input matrix.
//
// Key state is updated by the host between cycles and read by the cpu.
package keypad

const KEYS = 16 // Number of keys, 0x0 through 0xF.

// Keypad holds the pressed state of each key.
type Keypad struct {
	down [KEYS]bool
}

// Reset releases all keys.
func (kp *Keypad) Reset() {
	kp.down = [KEYS]bool{}
}

// SetPressed updates the state of a key. Keys outside 0x0-0xF are ignored.
func (kp *Keypad) SetPressed(key uint8, pressed bool) {
	if int(key) >= KEYS {
		return
	}
	kp.down[key] = pressed
}

// IsDown returns true if key is held. Only the low nibble of key is used.
func (kp *Keypad) IsDown(key uint8) bool {
	return kp.down[key&0xf]
}

// AnyDown returns the lowest numbered key that is held.
func (kp *Keypad) AnyDown() (key uint8, ok bool) {
	for n, down := range kp.down {
		if down {
			return uint8(n), true
		}
	}
	return
}

// IsAnyDown returns true if at least one key is held.
func (kp *Keypad) IsAnyDown() (ok bool) {
	_, ok = kp.AnyDown()
	return
}
