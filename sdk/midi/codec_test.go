package midi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecEncodes(t *testing.T) {
	tests := []struct {
		name  string
		build func() ([]byte, error)
		want  []byte
	}{
		{"note on", func() ([]byte, error) { return NoteOn(60, 100, 0) }, []byte{0x90, 60, 100}},
		{"note on channel 15", func() ([]byte, error) { return NoteOn(127, 1, 15) }, []byte{0x9F, 127, 1}},
		{"note off uses zero velocity", func() ([]byte, error) { return NoteOff(60, 2) }, []byte{0x92, 60, 0}},
		{"program change", func() ([]byte, error) { return ProgramChange(5, 0) }, []byte{0xC0, 5}},
		{"program change channel 9", func() ([]byte, error) { return ProgramChange(127, 9) }, []byte{0xC9, 127}},
		{"control change", func() ([]byte, error) { return ControlChange(74, 64, 0) }, []byte{0xB0, 74, 64}},
		{"all notes off", func() ([]byte, error) { return AllNotesOff(3) }, []byte{0xB3, 123, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.build()
			require.NoError(t, err)
			assert.Equal(t, tt.want, []byte(got))
		})
	}
}

func TestCodecRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		build func() ([]byte, error)
		param string
	}{
		{"note too high", func() ([]byte, error) { return NoteOn(128, 100, 0) }, "note"},
		{"negative note", func() ([]byte, error) { return NoteOff(-1, 0) }, "note"},
		{"zero velocity", func() ([]byte, error) { return NoteOn(60, 0, 0) }, "velocity"},
		{"velocity too high", func() ([]byte, error) { return NoteOn(60, 128, 0) }, "velocity"},
		{"channel 16", func() ([]byte, error) { return ProgramChange(1, 16) }, "channel"},
		{"program 128", func() ([]byte, error) { return ProgramChange(128, 0) }, "program"},
		{"controller 128", func() ([]byte, error) { return ControlChange(128, 0, 0) }, "controller"},
		{"value 200", func() ([]byte, error) { return ControlChange(1, 200, 0) }, "value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.build()
			assert.Nil(t, got)

			var rangeErr *RangeError
			require.True(t, errors.As(err, &rangeErr))
			assert.Equal(t, tt.param, rangeErr.Param)
		})
	}
}

func TestDescribe(t *testing.T) {
	msg, err := ProgramChange(1, 0)
	require.NoError(t, err)
	assert.Contains(t, Describe(msg), "ProgramChange")
}

func TestCodecCoversWholeRange(t *testing.T) {
	for ch := 0; ch < 16; ch++ {
		for n := 0; n < 128; n++ {
			off, err := NoteOff(n, ch)
			require.NoError(t, err)
			require.Equal(t, []byte{0x90 | byte(ch), byte(n), 0}, []byte(off))

			for v := 1; v < 128; v++ {
				on, err := NoteOn(n, v, ch)
				require.NoError(t, err)
				require.Equal(t, []byte{0x90 | byte(ch), byte(n), byte(v)}, []byte(on))
			}
		}
	}
}
