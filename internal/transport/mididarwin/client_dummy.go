//go:build !darwin || !cgo
// +build !darwin !cgo

package mididarwin

import (
	"errors"

	"github.com/leandrodaf/synthctl/sdk/contracts"
)

// ErrUnavailable is returned by every call on platforms without CoreMIDI.
var ErrUnavailable = errors.New("CoreMIDI is not available on this platform")

// NewMIDIClient reports that CoreMIDI cannot be used here.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.Transport, error) {
	options.Logger.Debug("CoreMIDI requested on a system without it")
	return nil, ErrUnavailable
}
