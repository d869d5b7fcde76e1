package audio

import (
	"github.com/ezrec/chip8/translate"
)

var f = translate.From

// ErrRecord wraps a failure writing the recording.
type ErrRecord struct {
	Err error
}

func (err *ErrRecord) Error() string {
	return f("audio: record: %v", err.Err)
}

func (err *ErrRecord) Unwrap() error {
	return err.Err
}
