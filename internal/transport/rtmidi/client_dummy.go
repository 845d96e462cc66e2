//go:build !cgo

package rtmidi

import (
	"errors"

	"github.com/leandrodaf/synthctl/sdk/contracts"
)

// ErrUnavailable is returned when the binary was built without cgo.
var ErrUnavailable = errors.New("rtmidi is not available in this build")

// New reports that the rtmidi driver cannot be used here.
func New(options *contracts.ClientOptions) (contracts.Transport, error) {
	options.Logger.Debug("rtmidi requested in a build without cgo")
	return nil, ErrUnavailable
}
