//go:build !cgo

package portmidi

import (
	"errors"

	"github.com/leandrodaf/synthctl/sdk/contracts"
)

// ErrUnavailable is returned when the binary was built without cgo.
var ErrUnavailable = errors.New("portmidi is not available in this build")

// New reports that PortMidi cannot be used here.
func New(options *contracts.ClientOptions) (contracts.Transport, error) {
	options.Logger.Debug("portmidi requested in a build without cgo")
	return nil, ErrUnavailable
}
