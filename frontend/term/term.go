// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package term presents the machine on an ANSI terminal in raw mode.
//
// Two display rows share one character cell, drawn with Unicode half blocks.
// Terminals report key presses but never releases, so a pressed key is held
// down for a number of frames.
package term

import (
	"errors"
	"io"
	"log"
	"os"
	"strings"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"

	"github.com/ezrec/chip8/audio"
	"github.com/ezrec/chip8/display"
	"github.com/ezrec/chip8/frontend"
	"github.com/ezrec/chip8/keypad"
	"github.com/ezrec/chip8/translate"
)

var f = translate.From

const (
	DEFAULT_HOLD = 6 // Frames a key stays down after it is typed.

	KEY_ESCAPE = 0x1b
	KEY_CTRL_C = 0x03

	ansiHome       = "\x1b[H"
	ansiClear      = "\x1b[2J"
	ansiHideCursor = "\x1b[?25l"
	ansiShowCursor = "\x1b[?25h"
	ansiBell       = "\a"
)

var ErrTerminal = errors.New(f("terminal"))

// Latch holds typed keys down for a fixed number of frames.
type Latch struct {
	Hold int // Frames per press. Zero selects DEFAULT_HOLD.

	left [keypad.KEYS]int
}

// Press starts, or restarts, the hold of key.
func (la *Latch) Press(key uint8) {
	if int(key) >= keypad.KEYS {
		return
	}
	hold := la.Hold
	if hold <= 0 {
		hold = DEFAULT_HOLD
	}
	la.left[key] = hold
}

// Frame applies the latched state to keys, then ages every hold by a frame.
func (la *Latch) Frame(keys *keypad.Keypad) {
	for key, left := range la.left {
		keys.SetPressed(uint8(key), left > 0)
		if left > 0 {
			la.left[key]--
		}
	}
}

// Frame renders the display as text, two pixel rows per line.
func Frame(screen *display.Display) string {
	var text strings.Builder

	grid := screen.Snapshot()
	for y := 0; y < display.HEIGHT; y += 2 {
		for x := range display.WIDTH {
			top := grid[y][x]
			bottom := y+1 < display.HEIGHT && grid[y+1][x]
			switch {
			case top && bottom:
				text.WriteRune('█')
			case top:
				text.WriteRune('▀')
			case bottom:
				text.WriteRune('▄')
			default:
				text.WriteRune(' ')
			}
		}
		text.WriteString("\r\n")
	}

	return text.String()
}

// Terminal is a raw mode terminal Frontend.
type Terminal struct {
	Verbose bool
	Keymap  keypad.Keymap
	Latch   Latch

	input   *os.File
	output  io.Writer
	canAttr unix.Termios
	rawAttr unix.Termios
	typed   chan byte
	beeping bool
}

var _ frontend.Frontend = (*Terminal)(nil)

// New puts input into raw mode and starts reading keys from it.
func New(input *os.File, output io.Writer) (tm *Terminal, err error) {
	tm = &Terminal{
		Keymap: keypad.DEFAULT_KEYMAP,
		input:  input,
		output: output,
		typed:  make(chan byte, 64),
	}

	err = termios.Tcgetattr(input.Fd(), &tm.canAttr)
	if err != nil {
		err = errors.Join(ErrTerminal, err)
		return
	}

	tm.rawAttr = tm.canAttr
	termios.Cfmakeraw(&tm.rawAttr)

	err = termios.Tcsetattr(input.Fd(), termios.TCIFLUSH, &tm.rawAttr)
	if err != nil {
		err = errors.Join(ErrTerminal, err)
		return
	}

	go tm.reader()

	_, err = io.WriteString(output, ansiClear+ansiHideCursor)
	return
}

// reader forwards typed bytes until input fails.
func (tm *Terminal) reader() {
	buf := make([]byte, 16)
	for {
		n, err := tm.input.Read(buf)
		for _, b := range buf[:n] {
			tm.typed <- b
		}
		if err != nil {
			close(tm.typed)
			return
		}
	}
}

func (tm *Terminal) Render(screen *display.Display) (err error) {
	if !screen.Dirty {
		return
	}

	_, err = io.WriteString(tm.output, ansiHome+Frame(screen))
	if err != nil {
		return
	}

	screen.Dirty = false
	return
}

// Poll consumes typed keys. Escape, ctrl-C or end of input quits.
func (tm *Terminal) Poll(keys *keypad.Keypad) (quit bool, err error) {
	for {
		select {
		case b, ok := <-tm.typed:
			if !ok || b == KEY_ESCAPE || b == KEY_CTRL_C {
				quit = true
				return
			}
			key, ok := tm.Keymap.Lookup(string(rune(b)))
			if !ok {
				continue
			}
			if tm.Verbose {
				log.Printf("term: key %q", b)
			}
			tm.Latch.Press(key)
		default:
			tm.Latch.Frame(keys)
			return
		}
	}
}

// Play rings the terminal bell when a tone starts.
func (tm *Terminal) Play(samples []byte) (err error) {
	beeping := !audio.Silent(samples)
	if beeping && !tm.beeping {
		_, err = io.WriteString(tm.output, ansiBell)
	}
	tm.beeping = beeping
	return
}

// Close restores the terminal.
func (tm *Terminal) Close() (err error) {
	_, err = io.WriteString(tm.output, ansiShowCursor+"\r\n")

	err_attr := termios.Tcsetattr(tm.input.Fd(), termios.TCIFLUSH, &tm.canAttr)
	if err_attr != nil {
		err = errors.Join(err, ErrTerminal, err_attr)
	}

	return
}
