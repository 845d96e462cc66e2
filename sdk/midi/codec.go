package midi

import (
	"github.com/leandrodaf/synthctl/sdk/contracts"
	gomidi "gitlab.com/gomidi/midi/v2"
)

func checkRange(param string, value, min, max int) error {
	if value < min || value > max {
		return &RangeError{Param: param, Value: value, Min: min, Max: max}
	}
	return nil
}

func checkChannel(channel int) error {
	return checkRange("channel", channel, 0, contracts.Channels-1)
}

// NoteOn builds [0x90|channel, note, velocity].
func NoteOn(note, velocity, channel int) (gomidi.Message, error) {
	if err := checkRange("note", note, 0, 127); err != nil {
		return nil, err
	}
	if err := checkRange("velocity", velocity, 1, 127); err != nil {
		return nil, err
	}
	if err := checkChannel(channel); err != nil {
		return nil, err
	}
	return gomidi.NoteOn(uint8(channel), uint8(note), uint8(velocity)), nil
}

// NoteOff builds [0x90|channel, note, 0]. Note On with zero velocity is used
// instead of the 0x80 status so the bytes match what the synthesizers expect.
func NoteOff(note, channel int) (gomidi.Message, error) {
	if err := checkRange("note", note, 0, 127); err != nil {
		return nil, err
	}
	if err := checkChannel(channel); err != nil {
		return nil, err
	}
	return gomidi.Message{byte(contracts.NoteOn) | byte(channel), byte(note), 0}, nil
}

// ProgramChange builds [0xC0|channel, program].
func ProgramChange(program, channel int) (gomidi.Message, error) {
	if err := checkRange("program", program, 0, 127); err != nil {
		return nil, err
	}
	if err := checkChannel(channel); err != nil {
		return nil, err
	}
	return gomidi.ProgramChange(uint8(channel), uint8(program)), nil
}

// ControlChange builds [0xB0|channel, controller, value].
func ControlChange(controller, value, channel int) (gomidi.Message, error) {
	if err := checkRange("controller", controller, 0, 127); err != nil {
		return nil, err
	}
	if err := checkRange("value", value, 0, 127); err != nil {
		return nil, err
	}
	if err := checkChannel(channel); err != nil {
		return nil, err
	}
	return gomidi.ControlChange(uint8(channel), uint8(controller), uint8(value)), nil
}

// AllNotesOff builds Control Change 123 with value 0 on channel.
func AllNotesOff(channel int) (gomidi.Message, error) {
	return ControlChange(contracts.AllNotesOff, 0, channel)
}

// Describe renders raw bytes for logs, e.g. "ProgramChange channel: 0 program: 1".
func Describe(data []byte) string {
	return gomidi.Message(data).String()
}
