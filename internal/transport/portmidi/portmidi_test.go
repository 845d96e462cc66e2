//go:build cgo

package portmidi

import (
	"testing"

	"github.com/rakyll/portmidi"
	"github.com/stretchr/testify/assert"
)

func TestEventBytes(t *testing.T) {
	assert.Equal(t, []byte{0xC3, 5}, eventBytes(portmidi.Event{Status: 0xC3, Data1: 5}))
	assert.Equal(t, []byte{0xB0, 7, 100}, eventBytes(portmidi.Event{Status: 0xB0, Data1: 7, Data2: 100}))
	assert.Equal(t, []byte{0x90, 60, 0}, eventBytes(portmidi.Event{Status: 0x90, Data1: 60}))
}
