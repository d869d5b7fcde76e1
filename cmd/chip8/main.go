// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/ezrec/chip8/emulator"
	"github.com/ezrec/chip8/frontend"
	"github.com/ezrec/chip8/frontend/sdl"
	"github.com/ezrec/chip8/frontend/term"
	"github.com/ezrec/chip8/translate"
)

var f = translate.From

func init() {
	// SDL must stay on the main thread.
	runtime.LockOSThread()
}

func usage() {
	fmt.Fprintln(flag.CommandLine.Output(), f("usage: %v [options] image.ch8", os.Args[0]))
	fmt.Fprintln(flag.CommandLine.Output(), f("       %v [options] -c source.c8s", os.Args[0]))
	flag.PrintDefaults()
}

func fatal(format string, args ...any) {
	log.Print(f(format, args...))
	os.Exit(1)
}

func main() {
	var compile string
	var hz int
	var seed uint64
	var frontend_name string
	var scale int
	var wav string
	var frames int
	var turbo bool
	var verbose bool
	var lang string

	flag.StringVar(&compile, "c", "", ".c8s file to assemble and run")
	flag.IntVar(&hz, "hz", emulator.DEFAULT_HZ, "Cycles per second")
	flag.Uint64Var(&seed, "seed", 0, "Random seed (0 uses the clock)")
	flag.StringVar(&frontend_name, "frontend", "sdl", "Frontend: sdl, term or none")
	flag.IntVar(&scale, "scale", sdl.DEFAULT_SCALE, "SDL window scale")
	flag.StringVar(&wav, "wav", "", "Record the beeper to a .wav file")
	flag.IntVar(&frames, "frames", 0, "Stop after this many frames (0 runs until quit)")
	flag.BoolVar(&turbo, "turbo", false, "Do not pace frames to 60Hz")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.StringVar(&lang, "lang", "", "Message language (BCP 47 tag, default from the host locale)")

	flag.Usage = usage
	flag.Parse()

	if len(lang) != 0 {
		err := translate.Use(lang)
		if err != nil {
			fatal("-lang %v: %v", lang, err)
		}
	}

	image := ""
	switch {
	case len(compile) == 0 && flag.NArg() == 1:
		image = flag.Arg(0)
	case len(compile) != 0 && flag.NArg() == 0:
	default:
		flag.Usage()
		os.Exit(1)
	}

	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	opts := emulator.Options{
		Hz:      hz,
		Seed:    seed,
		Verbose: verbose,
		Turbo:   turbo,
		Frames:  frames,
	}

	if len(wav) != 0 {
		ouf, err := os.Create(wav)
		if err != nil {
			fatal("%v: %v", wav, err)
		}
		defer ouf.Close()
		opts.Wav = ouf
	}

	emu := emulator.NewEmulator(opts)

	if len(compile) != 0 {
		inf, err := os.Open(compile)
		if err != nil {
			fatal("%v: %v", compile, err)
		}
		err = emu.Assemble(inf)
		inf.Close()
		if err != nil {
			fatal("%v: %v", compile, err)
		}
	} else {
		err := emu.LoadFile(image)
		if err != nil {
			log.Print(err)
			flag.Usage()
			os.Exit(1)
		}
	}

	var fe frontend.Frontend
	switch frontend_name {
	case "sdl":
		win, err := sdl.New(scale)
		if err != nil {
			fatal("%v", err)
		}
		win.Verbose = verbose
		fe = win
	case "term":
		tm, err := term.New(os.Stdin, os.Stdout)
		if err != nil {
			fatal("%v", err)
		}
		tm.Verbose = verbose
		fe = tm
	case "none":
		fe = &frontend.Headless{}
	default:
		flag.Usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := emu.Run(ctx, fe)
	stop()

	err_close := fe.Close()
	if err == nil {
		err = err_close
	}

	err_emu := emu.Close()
	if err == nil {
		err = err_emu
	}

	if err != nil {
		log.Print(err)
		if verbose {
			log.Print(emu.Cpu.String())
		}
		os.Exit(1)
	}
}
