// Package frontend defines the host side of the machine: presenting the
// display, collecting key events, and playing the beeper.
package frontend

import (
	"github.com/ezrec/chip8/display"
	"github.com/ezrec/chip8/keypad"
)

// Frontend is driven once per frame by the emulator.
type Frontend interface {
	// Render presents the display. It must not modify it.
	Render(screen *display.Display) error
	// Poll applies pending host input to keys. Returns quit when the user
	// asked to stop.
	Poll(keys *keypad.Keypad) (quit bool, err error)
	// Play queues one frame of audio samples.
	Play(samples []byte) error
	// Close releases host resources.
	Close() error
}
