package contracts

import "time"

// Transport names accepted by WithTransport.
const (
	TransportNative   = "native"   // CoreMIDI on macOS, WinMM on Windows.
	TransportRtMidi   = "rtmidi"   // gomidi rtmidi driver.
	TransportPortMidi = "portmidi" // PortMidi.
	TransportMemory   = "memory"   // In-process transport, nothing leaves the host.
)

// CoreMIDIConfig holds configuration for CoreMIDI.
type CoreMIDIConfig struct {
	ClientName string // Name of the MIDI client.
}

// SweepTiming holds the fixed waits of a patch test sweep.
type SweepTiming struct {
	Settle time.Duration // Wait after selecting a patch, before the note sounds.
	Gap    time.Duration // Wait after the note is released, before the next patch.
}

// ClientOptions defines the configuration shared by devices, controllers and repositories.
type ClientOptions struct {
	Logger          Logger          // Logger for logging events and errors.
	LogLevel        *LogLevel       // Level of logging to use, nil keeps the logger's own.
	LogFilePath     string          // File path for logging if file logging is enabled.
	Transport       string          // Transport backend name, empty picks the platform default.
	CoreMIDIConfig  *CoreMIDIConfig // Configuration specific to CoreMIDI.
	SweepTiming     *SweepTiming    // Waits used by the patch test sweep.
	InputBufferSize int             // Pending input messages kept for polling.
}

// Option is a function that modifies ClientOptions.
type Option func(*ClientOptions)

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(opts *ClientOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level.
func WithLogLevel(level LogLevel) Option {
	return func(opts *ClientOptions) {
		opts.LogLevel = &level
	}
}

// WithLogFile sends log output to the given file instead of the console.
func WithLogFile(path string) Option {
	return func(opts *ClientOptions) {
		opts.LogFilePath = path
	}
}

// WithTransport selects the transport backend by name.
func WithTransport(name string) Option {
	return func(opts *ClientOptions) {
		opts.Transport = name
	}
}

// WithCoreMIDIConfig sets the CoreMIDI configuration.
func WithCoreMIDIConfig(config CoreMIDIConfig) Option {
	return func(opts *ClientOptions) {
		opts.CoreMIDIConfig = &config
	}
}

// WithSweepTiming sets the settle and gap waits of the patch test sweep.
func WithSweepTiming(timing SweepTiming) Option {
	return func(opts *ClientOptions) {
		opts.SweepTiming = &timing
	}
}

// WithInputBufferSize sets how many unread input messages a transport keeps.
func WithInputBufferSize(n int) Option {
	return func(opts *ClientOptions) {
		opts.InputBufferSize = n
	}
}
