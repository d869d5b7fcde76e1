// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"os"
	"time"

	"github.com/ezrec/chip8/audio"
	"github.com/ezrec/chip8/cpu"
	"github.com/ezrec/chip8/display"
	"github.com/ezrec/chip8/internal"
	"github.com/ezrec/chip8/keypad"
	"github.com/ezrec/chip8/memory"
)

const (
	DEFAULT_HZ = 700 // Cycles per second.
	FRAME_HZ   = 60  // Timer decrements, renders and input polls per second.
)

var _emulator_defines = map[string]string{
	"MEMORY_SIZE":    fmt.Sprintf("%#x", memory.SIZE),
	"PROGRAM_SIZE":   fmt.Sprintf("%#x", memory.PROGRAM_SIZE),
	"DISPLAY_WIDTH":  fmt.Sprintf("%d", display.WIDTH),
	"DISPLAY_HEIGHT": fmt.Sprintf("%d", display.HEIGHT),
	"KEYS":           fmt.Sprintf("%d", keypad.KEYS),
	"FRAME_HZ":       fmt.Sprintf("%d", FRAME_HZ),
}

// Options configure an Emulator.
type Options struct {
	Hz      int    // Cycles per second. Zero selects DEFAULT_HZ.
	Seed    uint64 // Random seed.
	Verbose bool   // Trace every cycle.
	Turbo   bool   // Run frames back to back, without pacing them to FRAME_HZ.
	Frames  int    // Stop Run after this many frames. Zero runs until stopped.

	Wav io.WriteSeeker // If set, the beeper is recorded here as a WAV file.
}

// Emulator state. CPU + memory + display + keypad + beeper.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Listing of the running program, if it was assembled.

	Image   []byte          // Program image loaded at memory.PROGRAM_START.
	Hz      int             // Cycles per second.
	Options Options         // Configuration the emulator was created with.
	Beeper  audio.Beeper    // Sound timer tone.
	Record  *audio.Recorder // Beeper recording, if enabled.

	Unknown int // Unknown instructions executed since reset.
	Frames  int // Frames run since reset.
}

// NewEmulator creates a new emulator.
func NewEmulator(opts Options) (emu *Emulator) {
	hz := opts.Hz
	if hz <= 0 {
		hz = DEFAULT_HZ
	}

	emu = &Emulator{
		Verbose: opts.Verbose,
		Cpu: cpu.NewCpu(&memory.Memory{}, &display.Display{}, &keypad.Keypad{},
			cpu.NewRandom(opts.Seed)),
		Program: &cpu.Program{},
		Hz:      hz,
		Options: opts,
	}

	if opts.Wav != nil {
		emu.Record = audio.NewRecorder(opts.Wav)
		emu.Record.Verbose = opts.Verbose
	}

	emu.Reset()

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
	)
}

// Close the emulator, finishing any recording.
func (emu *Emulator) Close() (err error) {
	if emu.Record != nil {
		err = emu.Record.Close()
		emu.Record = nil
	}

	return
}

// Reset the machine: memory holds only the font and the program image, the
// display is clear, no keys are down, and the cpu is at PROGRAM_START.
func (emu *Emulator) Reset() (err error) {
	emu.Memory.Reset()
	emu.Memory.LoadFont()

	err = emu.Memory.Store(memory.PROGRAM_START, emu.Image)
	if err != nil {
		return
	}

	emu.Display.Clear()
	emu.Keypad.Reset()

	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset()

	emu.Unknown = 0
	emu.Frames = 0

	return
}

// Load reads a raw program image and resets the machine with it.
// Images that do not fit above PROGRAM_START fail with *memory.ErrAddressRange.
func (emu *Emulator) Load(r io.Reader) (err error) {
	var staging memory.Memory
	n, err := staging.Load(r)
	if err != nil {
		var range_err *memory.ErrAddressRange
		if !errors.As(err, &range_err) {
			err = &ErrImageLoad{Err: err}
		}
		return
	}

	image, _ := staging.Span(memory.PROGRAM_START, n)
	emu.Image = append([]byte(nil), image...)
	emu.Program = &cpu.Program{}

	err = emu.Reset()
	return
}

// LoadFile loads a raw program image from a file.
func (emu *Emulator) LoadFile(path string) (err error) {
	inf, err := os.Open(path)
	if err != nil {
		err = &ErrImageLoad{Path: path, Err: err}
		return
	}
	defer inf.Close()

	err = emu.Load(inf)
	var load_err *ErrImageLoad
	if errors.As(err, &load_err) {
		load_err.Path = path
	}

	return
}

// Assemble builds a program from source and resets the machine with it.
// The emulator defines are available to the source as equates.
func (emu *Emulator) Assemble(r io.Reader) (err error) {
	asm := &cpu.Assembler{Verbose: emu.Verbose}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}

	prog, err := asm.Parse(r)
	if err != nil {
		return
	}

	image := prog.Binary()
	if len(image) > memory.PROGRAM_SIZE {
		err = &memory.ErrAddressRange{Address: memory.PROGRAM_START, Length: len(image)}
		return
	}

	emu.Image = image
	emu.Program = prog

	err = emu.Reset()
	return
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.Opcode.LineNo
}

// Tick performs a single cycle of the emulator.
//
// Unknown instructions are logged and counted, and execution continues. Any
// other error halts the program and is returned as *ErrRuntime.
func (emu *Emulator) Tick() (err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	pc := emu.Cpu.Pc
	lineno := emu.LineNo()

	err = emu.Cpu.Tick()
	if errors.Is(err, cpu.ErrUnknownInstruction) {
		var code cpu.ErrOpcode
		errors.As(err, &code)
		emu.Unknown++
		log.Print(f("emulator: %03x: %v: %v", pc, cpu.ErrUnknownInstruction, cpu.Code(code)))
		err = nil
		return
	}

	if err != nil {
		err = &ErrRuntime{Address: pc, LineNo: lineno, Err: err}
	}

	return
}

// TickTimers decrements the delay and sound timers once.
func (emu *Emulator) TickTimers() {
	emu.Cpu.TickTimers()
}

// CyclesPerFrame is the number of cycles run between timer decrements.
func (emu *Emulator) CyclesPerFrame() int {
	cycles := emu.Hz / FRAME_HZ
	if cycles < 1 {
		cycles = 1
	}
	return cycles
}

// Frame runs one frame worth of cycles, then decrements the timers.
// Returns the beeper samples for the frame.
func (emu *Emulator) Frame() (samples []byte, err error) {
	for range emu.CyclesPerFrame() {
		err = emu.Tick()
		if err != nil {
			return
		}
	}

	emu.TickTimers()
	emu.Frames++

	samples = emu.Beeper.Frame(emu.Cpu.Sounding())
	if emu.Record != nil {
		err = emu.Record.Play(samples)
	}

	return
}

// FramePeriod is the wall clock time of one frame.
func FramePeriod() time.Duration {
	return time.Second / FRAME_HZ
}
