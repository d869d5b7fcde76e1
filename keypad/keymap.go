package keypad

import (
	"strings"
)

// Keymap translates host key names into keypad keys.
type Keymap map[string]uint8

// DEFAULT_KEYMAP lays the keypad over the left hand of a QWERTY keyboard:
//
//	1 2 3 C    1 2 3 4
//	4 5 6 D    q w e r
//	7 8 9 E    a s d f
//	A 0 B F    z x c v
var DEFAULT_KEYMAP = Keymap{
	"1": 0x1, "2": 0x2, "3": 0x3, "4": 0xC,
	"q": 0x4, "w": 0x5, "e": 0x6, "r": 0xD,
	"a": 0x7, "s": 0x8, "d": 0x9, "f": 0xE,
	"z": 0xA, "x": 0x0, "c": 0xB, "v": 0xF,
}

// Lookup finds the keypad key for a host key name. Names are case insensitive.
func (km Keymap) Lookup(name string) (key uint8, ok bool) {
	key, ok = km[strings.ToLower(name)]
	return
}

// Apply forwards a host key event to the keypad, if the key is mapped.
func (km Keymap) Apply(kp *Keypad, name string, pressed bool) (ok bool) {
	key, ok := km.Lookup(name)
	if ok {
		kp.SetPressed(key, pressed)
	}
	return
}
