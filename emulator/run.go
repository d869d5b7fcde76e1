package emulator

import (
	"context"
	"log"
	"time"

	"github.com/ezrec/chip8/frontend"
)

// Run drives the machine at FRAME_HZ until the context is done, the frontend
// asks to quit, Options.Frames frames have run, or the program faults.
//
// Each frame runs CyclesPerFrame cycles, decrements the timers, renders the
// display, plays the beeper, then polls the frontend for input. Only a
// program fault or a frontend failure is returned as an error.
func (emu *Emulator) Run(ctx context.Context, fe frontend.Frontend) (err error) {
	var pace <-chan time.Time
	if !emu.Options.Turbo {
		ticker := time.NewTicker(FramePeriod())
		defer ticker.Stop()
		pace = ticker.C
	}

	if emu.Verbose {
		log.Printf("emulator: run at %v Hz, %v cycles per frame", emu.Hz, emu.CyclesPerFrame())
	}

	for {
		if emu.Options.Frames > 0 && emu.Frames >= emu.Options.Frames {
			return
		}

		if pace != nil {
			select {
			case <-ctx.Done():
				return
			case <-pace:
			}
		} else if ctx.Err() != nil {
			return
		}

		var samples []byte
		samples, err = emu.Frame()
		if err != nil {
			return
		}

		err = fe.Render(emu.Display)
		if err != nil {
			return
		}

		err = fe.Play(samples)
		if err != nil {
			return
		}

		var quit bool
		quit, err = fe.Poll(emu.Keypad)
		if err != nil || quit {
			return
		}
	}
}
