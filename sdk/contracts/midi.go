package contracts

// MIDICommand is the status nibble of a channel voice message.
type MIDICommand byte

const (
	// NoteOff is the MIDI command for a Note Off event (0x80).
	NoteOff MIDICommand = 0x80
	// NoteOn is the MIDI command for a Note On event (0x90).
	NoteOn MIDICommand = 0x90
	// ControlChange is the MIDI command for a Control Change event (0xB0).
	ControlChange MIDICommand = 0xB0
	// ProgramChange is the MIDI command for a Program Change event (0xC0).
	ProgramChange MIDICommand = 0xC0
	// ChannelPressure is the MIDI command for a Channel Pressure event (0xD0).
	ChannelPressure MIDICommand = 0xD0
)

// CommandOf returns the command encoded in a status byte.
func CommandOf(status byte) MIDICommand {
	return MIDICommand(status & 0xF0)
}

// DataLength is the number of data bytes that follow the status byte.
func (c MIDICommand) DataLength() int {
	switch c {
	case ProgramChange, ChannelPressure:
		return 1
	}
	return 2
}

const (
	// Channels is the number of voice channels addressable on one port.
	Channels = 16
	// AllNotesOff is the controller number that silences a channel.
	AllNotesOff = 123
)
