package frontend

import (
	"github.com/ezrec/chip8/audio"
	"github.com/ezrec/chip8/display"
	"github.com/ezrec/chip8/keypad"
)

// Headless is a Frontend with no host window. It keeps the last rendered
// frame and counts what it was given.
type Headless struct {
	// Input, if set, is called on every Poll with the number of polls so far.
	Input func(frame int, keys *keypad.Keypad) (quit bool)

	Screen  [display.HEIGHT][display.WIDTH]bool // Last rendered frame.
	Renders int                                 // Number of Render calls.
	Polls   int                                 // Number of Poll calls.
	Samples int                                 // Samples played.
	Beeps   int                                 // Frames with audible samples.
	Closed  bool
}

var _ Frontend = (*Headless)(nil)

func (hl *Headless) Render(screen *display.Display) (err error) {
	hl.Screen = screen.Snapshot()
	hl.Renders++
	return
}

func (hl *Headless) Poll(keys *keypad.Keypad) (quit bool, err error) {
	if hl.Input != nil {
		quit = hl.Input(hl.Polls, keys)
	}
	hl.Polls++
	return
}

func (hl *Headless) Play(samples []byte) (err error) {
	hl.Samples += len(samples)
	if !audio.Silent(samples) {
		hl.Beeps++
	}
	return
}

func (hl *Headless) Close() (err error) {
	hl.Closed = true
	return
}
