// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

// Package audio generates the tone played while the sound timer runs.
//
// Samples are mono, 8-bit unsigned, centred on SILENCE.
package audio

const (
	SAMPLE_RATE       = 44100 // Samples per second.
	FRAME_RATE        = 60    // Frames per second; one batch of samples per frame.
	SAMPLES_PER_FRAME = SAMPLE_RATE / FRAME_RATE

	SILENCE        = 0x80 // Sample value of the quiescent line.
	DEFAULT_TONE   = 440  // Hz.
	DEFAULT_VOLUME = 0x30 // Peak deviation from SILENCE.
	MAXIMUM_VOLUME = 0x7f
	MINIMUM_TONE   = 20
	MAXIMUM_TONE   = SAMPLE_RATE / 2
)

// Beeper is a square wave generator.
type Beeper struct {
	Tone   int   // Frequency in Hz. Zero selects DEFAULT_TONE.
	Volume uint8 // Peak deviation. Zero selects DEFAULT_VOLUME.

	phase int // Samples into the current period.
}

func (bp *Beeper) period() int {
	tone := bp.Tone
	switch {
	case tone == 0:
		tone = DEFAULT_TONE
	case tone < MINIMUM_TONE:
		tone = MINIMUM_TONE
	case tone > MAXIMUM_TONE:
		tone = MAXIMUM_TONE
	}
	return SAMPLE_RATE / tone
}

func (bp *Beeper) volume() uint8 {
	switch {
	case bp.Volume == 0:
		return DEFAULT_VOLUME
	case bp.Volume > MAXIMUM_VOLUME:
		return MAXIMUM_VOLUME
	}
	return bp.Volume
}

// Frame returns one frame of samples. While on is false the frame is silent
// and the wave restarts from the beginning of a period at the next tone.
func (bp *Beeper) Frame(on bool) (samples []byte) {
	samples = make([]byte, SAMPLES_PER_FRAME)

	if !on {
		bp.phase = 0
		for n := range samples {
			samples[n] = SILENCE
		}
		return
	}

	period := bp.period()
	high := byte(SILENCE + int(bp.volume()))
	low := byte(SILENCE - int(bp.volume()))
	for n := range samples {
		if bp.phase < period/2 {
			samples[n] = high
		} else {
			samples[n] = low
		}
		bp.phase = (bp.phase + 1) % period
	}

	return
}

// Silent is true when every sample is SILENCE.
func Silent(samples []byte) bool {
	for _, sample := range samples {
		if sample != SILENCE {
			return false
		}
	}
	return true
}
