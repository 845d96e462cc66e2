package midi

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/leandrodaf/synthctl/internal/transport/memory"
	"github.com/leandrodaf/synthctl/internal/transport/mididarwin"
	"github.com/leandrodaf/synthctl/internal/transport/midiwindows"
	"github.com/leandrodaf/synthctl/internal/transport/portmidi"
	"github.com/leandrodaf/synthctl/internal/transport/rtmidi"
	"github.com/leandrodaf/synthctl/sdk/contracts"
)

// ErrUnsupportedTransport is returned for an unknown transport name or a
// native transport on an operating system without one.
var ErrUnsupportedTransport = errors.New("unsupported transport")

// nativeInitializers maps OS names to the platform MIDI API initializers.
var nativeInitializers = map[string]func(*contracts.ClientOptions) (contracts.Transport, error){
	"darwin":  mididarwin.NewMIDIClient,  // macOS (Darwin) CoreMIDI.
	"windows": midiwindows.NewMIDIClient, // Windows WinMM.
}

// transportInitializers maps transport names to their initializers.
var transportInitializers = map[string]func(*contracts.ClientOptions) (contracts.Transport, error){
	contracts.TransportNative:   newNative,
	contracts.TransportRtMidi:   rtmidi.New,
	contracts.TransportPortMidi: portmidi.New,
	contracts.TransportMemory: func(opts *contracts.ClientOptions) (contracts.Transport, error) {
		return memory.New(
			memory.WithLogger(opts.Logger),
			memory.WithEcho(),
			memory.WithInputBufferSize(opts.InputBufferSize),
		), nil
	},
}

func newNative(opts *contracts.ClientOptions) (contracts.Transport, error) {
	if initializer, exists := nativeInitializers[runtime.GOOS]; exists {
		return initializer(opts)
	}
	return nil, fmt.Errorf("%w: native on %s", ErrUnsupportedTransport, runtime.GOOS)
}

// DefaultTransport names the transport used when none is requested: the
// native API on macOS and Windows, rtmidi elsewhere.
func DefaultTransport() string {
	if _, ok := nativeInitializers[runtime.GOOS]; ok {
		return contracts.TransportNative
	}
	return contracts.TransportRtMidi
}

// newTransport builds the transport named in opts.
func newTransport(opts *contracts.ClientOptions) (contracts.Transport, error) {
	name := opts.Transport
	if name == "" {
		name = DefaultTransport()
	}
	initializer, ok := transportInitializers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTransport, name)
	}
	t, err := initializer(opts)
	if err != nil {
		return nil, fmt.Errorf("%s transport: %w", name, err)
	}
	return t, nil
}
