//go:build !windows
// +build !windows

package midiwindows

import (
	"errors"

	"github.com/leandrodaf/synthctl/sdk/contracts"
)

// ErrUnavailable is returned on platforms without WinMM.
var ErrUnavailable = errors.New("WinMM is not available on this platform")

// NewMIDIClient reports that WinMM cannot be used here.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.Transport, error) {
	options.Logger.Debug("WinMM requested on a non-Windows system")
	return nil, ErrUnavailable
}
