package audio

import (
	"io"
	"log"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Recorder buffers played samples in memory and writes them as a WAV file on
// Close.
type Recorder struct {
	Verbose bool

	output  io.WriteSeeker
	samples []int
}

// NewRecorder creates a recorder that will write to output.
func NewRecorder(output io.WriteSeeker) *Recorder {
	return &Recorder{
		output: output,
	}
}

// Play appends samples to the recording.
func (rec *Recorder) Play(samples []byte) (err error) {
	for _, sample := range samples {
		rec.samples = append(rec.samples, int(sample))
	}
	return
}

// Len is the number of samples recorded.
func (rec *Recorder) Len() int {
	return len(rec.samples)
}

// Close writes the WAV file. The output itself is not closed.
func (rec *Recorder) Close() (err error) {
	if rec.Verbose {
		log.Print(f("audio: writing %d samples", len(rec.samples)))
	}

	enc := wav.NewEncoder(rec.output, SAMPLE_RATE, 8, 1, 1)

	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 1,
			SampleRate:  SAMPLE_RATE,
		},
		Data:           rec.samples,
		SourceBitDepth: 8,
	}

	err = enc.Write(buf)
	if err != nil {
		err = &ErrRecord{Err: err}
		return
	}

	err = enc.Close()
	if err != nil {
		err = &ErrRecord{Err: err}
		return
	}

	return
}
