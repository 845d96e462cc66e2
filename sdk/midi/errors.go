package midi

import (
	"errors"
	"fmt"
)

// Errors returned when opening or using a Device.
var (
	ErrNoOutputPorts    = errors.New("no MIDI output ports available")
	ErrInvalidPortIndex = errors.New("invalid MIDI port index")
	ErrAlreadyOpen      = errors.New("device already open")
	ErrClosed           = errors.New("device closed")
	ErrNotOpen          = errors.New("device not open")
)

// RangeError reports a message parameter outside its MIDI bound. It is
// returned before anything is transmitted.
type RangeError struct {
	Param string
	Value int
	Min   int
	Max   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s out of range (%d-%d): %d", e.Param, e.Min, e.Max, e.Value)
}

// TransmissionError describes a send the transport rejected. Devices log and
// record it instead of returning it.
type TransmissionError struct {
	Data []byte
	Err  error
}

func (e *TransmissionError) Error() string {
	return fmt.Sprintf("send % X: %v", e.Data, e.Err)
}

func (e *TransmissionError) Unwrap() error {
	return e.Err
}
