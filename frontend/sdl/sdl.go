// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package sdl presents the machine in an SDL window, with keyboard input and
// queued audio.
package sdl

import (
	"errors"
	"log"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/ezrec/chip8/audio"
	"github.com/ezrec/chip8/display"
	"github.com/ezrec/chip8/frontend"
	"github.com/ezrec/chip8/keypad"
	"github.com/ezrec/chip8/translate"
)

var f = translate.From

const (
	DEFAULT_SCALE = 10 // Window pixels per display pixel.
	TITLE         = "chip8"

	// Queued audio beyond this many frames is dropped, to bound latency.
	AUDIO_QUEUE_FRAMES = 4
)

var ErrSdl = errors.New(f("sdl"))

// Color of lit and unlit pixels.
type Color struct {
	R, G, B uint8
}

var (
	DEFAULT_FOREGROUND = Color{0xe0, 0xf0, 0xe0}
	DEFAULT_BACKGROUND = Color{0x10, 0x18, 0x10}
)

// Window is an SDL Frontend.
type Window struct {
	Verbose    bool
	Keymap     keypad.Keymap
	Foreground Color
	Background Color

	scale    int32
	window   *sdl.Window
	renderer *sdl.Renderer
	audio    sdl.AudioDeviceID
	rects    []sdl.Rect
}

var _ frontend.Frontend = (*Window)(nil)

// New opens a window scaled by scale. Audio is optional: if no device can be
// opened the window is silent.
func New(scale int) (win *Window, err error) {
	if scale <= 0 {
		scale = DEFAULT_SCALE
	}

	err = sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO)
	if err != nil {
		err = errors.Join(ErrSdl, err)
		return
	}

	win = &Window{
		Keymap:     keypad.DEFAULT_KEYMAP,
		Foreground: DEFAULT_FOREGROUND,
		Background: DEFAULT_BACKGROUND,
		scale:      int32(scale),
	}

	win.window, err = sdl.CreateWindow(TITLE,
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		display.WIDTH*win.scale, display.HEIGHT*win.scale,
		sdl.WINDOW_SHOWN)
	if err != nil {
		sdl.Quit()
		err = errors.Join(ErrSdl, err)
		return
	}

	win.renderer, err = sdl.CreateRenderer(win.window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		win.window.Destroy()
		sdl.Quit()
		err = errors.Join(ErrSdl, err)
		return
	}

	spec := &sdl.AudioSpec{
		Freq:     audio.SAMPLE_RATE,
		Format:   sdl.AUDIO_U8,
		Channels: 1,
		Samples:  1024,
	}
	var actual sdl.AudioSpec
	win.audio, err = sdl.OpenAudioDevice("", false, spec, &actual, 0)
	if err != nil {
		log.Print(f("sdl: no audio: %v", err))
		win.audio = 0
		err = nil
	} else {
		sdl.PauseAudioDevice(win.audio, false)
	}

	return
}

// Render draws every lit pixel as a scaled rectangle.
func (win *Window) Render(screen *display.Display) (err error) {
	if !screen.Dirty {
		return
	}

	bg := win.Background
	err = win.renderer.SetDrawColor(bg.R, bg.G, bg.B, 0xff)
	if err != nil {
		return
	}
	err = win.renderer.Clear()
	if err != nil {
		return
	}

	win.rects = win.rects[:0]
	for y, row := range screen.Rows() {
		for x, lit := range row {
			if !lit {
				continue
			}
			win.rects = append(win.rects, sdl.Rect{
				X: int32(x) * win.scale,
				Y: int32(y) * win.scale,
				W: win.scale,
				H: win.scale,
			})
		}
	}

	if len(win.rects) > 0 {
		fg := win.Foreground
		err = win.renderer.SetDrawColor(fg.R, fg.G, fg.B, 0xff)
		if err != nil {
			return
		}
		err = win.renderer.FillRects(win.rects)
		if err != nil {
			return
		}
	}

	win.renderer.Present()
	screen.Dirty = false

	return
}

// Poll drains the SDL event queue. Escape or closing the window quits.
func (win *Window) Poll(keys *keypad.Keypad) (quit bool, err error) {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch ev := event.(type) {
		case *sdl.QuitEvent:
			quit = true
		case *sdl.KeyboardEvent:
			if ev.Repeat != 0 {
				continue
			}
			if ev.Keysym.Sym == sdl.K_ESCAPE {
				quit = true
				continue
			}
			name := sdl.GetKeyName(ev.Keysym.Sym)
			pressed := ev.Type == sdl.KEYDOWN
			if win.Keymap.Apply(keys, name, pressed) && win.Verbose {
				log.Printf("sdl: key %v %v", name, pressed)
			}
		}
	}

	return
}

// Play queues samples on the audio device.
func (win *Window) Play(samples []byte) (err error) {
	if win.audio == 0 {
		return
	}

	if sdl.GetQueuedAudioSize(win.audio) > AUDIO_QUEUE_FRAMES*audio.SAMPLES_PER_FRAME {
		return
	}

	err = sdl.QueueAudio(win.audio, samples)
	return
}

// Close destroys the window and shuts SDL down.
func (win *Window) Close() (err error) {
	if win.audio != 0 {
		sdl.CloseAudioDevice(win.audio)
	}

	err = win.renderer.Destroy()
	if err != nil {
		err = errors.Join(ErrSdl, err)
	}

	err_window := win.window.Destroy()
	if err_window != nil {
		err = errors.Join(err, ErrSdl, err_window)
	}

	sdl.Quit()

	return
}
