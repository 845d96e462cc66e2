package midi

import (
	"time"

	"github.com/leandrodaf/synthctl/internal/logger"
	"github.com/leandrodaf/synthctl/sdk/contracts"
)

// Defaults applied by ApplyOptions.
const (
	DefaultClientName  = "synthctl"
	DefaultSettleDelay = 500 * time.Millisecond
	DefaultGapDelay    = 500 * time.Millisecond
	DefaultInputBuffer = 256
)

// ApplyOptions sets default values for ClientOptions if not explicitly provided.
//
// opts ...contracts.Option: A variadic list of option functions that can modify ClientOptions.
//
// Returns:
//   - contracts.ClientOptions: A structure containing the finalized client options with defaults applied.
//   - error: An error if the requested log destination cannot be opened.
func ApplyOptions(opts ...contracts.Option) (contracts.ClientOptions, error) {
	options := &contracts.ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	// Set defaults if options are not provided
	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.LogLevel != nil {
		options.Logger.SetLevel(*options.LogLevel)
	}
	if options.LogFilePath != "" {
		if err := options.Logger.SetDestination(contracts.FileLog, options.LogFilePath); err != nil {
			return *options, err
		}
	}

	if options.CoreMIDIConfig == nil {
		options.CoreMIDIConfig = &contracts.CoreMIDIConfig{ClientName: DefaultClientName}
	}
	if options.SweepTiming == nil {
		options.SweepTiming = &contracts.SweepTiming{Settle: DefaultSettleDelay, Gap: DefaultGapDelay}
	}
	if options.InputBufferSize <= 0 {
		options.InputBufferSize = DefaultInputBuffer
	}
	return *options, nil
}
