package midi

import (
	"github.com/leandrodaf/synthctl/sdk/contracts"
)

// NewTransport creates the transport selected by the options.
// It applies default options and initializes the backend.
//
// opts ...contracts.Option: A variadic list of option functions to customize the configuration.
//
// Returns:
//   - contracts.Transport: The transport; the caller must Close it.
//   - error: An error, if any occurred during the creation of the transport.
func NewTransport(opts ...contracts.Option) (contracts.Transport, error) {
	options, err := ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	options.Logger = options.Logger.Named("transport")
	return newTransport(&options)
}
