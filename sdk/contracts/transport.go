package contracts

import "time"

// Transport is the driver binding a Device talks to. A transport holds at
// most one open output and one open input at a time.
type Transport interface {
	ListOutputPorts() ([]string, error) // Names of the available output ports, by index.
	ListInputPorts() ([]string, error)  // Names of the available input ports, by index.
	OpenOutput(index int) error         // Opens the output port at index.
	OpenInput(index int) error          // Opens the input port at index.
	CloseOutput() error                 // Closes the open output port.
	CloseInput() error                  // Closes the open input port.
	SendRaw(data []byte) error          // Writes one complete message to the output port.

	// PollInput returns the next buffered input message and the time elapsed
	// since the message before it. It never blocks; ok is false when nothing
	// is pending or no input is open.
	PollInput() (data []byte, delta time.Duration, ok bool)

	Close() error // Releases the underlying driver.
}
