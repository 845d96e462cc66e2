package midi

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/leandrodaf/synthctl/sdk/contracts"
)

// NoPort passed as the input index to Open means "no input".
const NoPort = -1

type deviceState int

const (
	stateNew deviceState = iota
	stateOpen
	stateClosed
)

// Event is one message read from the input port.
type Event struct {
	Data  []byte        // Raw message bytes.
	Delta time.Duration // Time since the previous input message.
}

func (e Event) String() string {
	return fmt.Sprintf("%s (+%s)", Describe(e.Data), e.Delta)
}

// Device owns one output connection and at most one input connection on a
// transport. Sends are serialized: a message is always written whole before
// the next one starts.
type Device struct {
	logger    contracts.Logger
	transport contracts.Transport
	session   string

	mu      sync.Mutex // Guards state and every transport call.
	state   deviceState
	output  contracts.PortInfo
	input   *contracts.PortInfo
	lastErr error
}

// NewDevice creates a Device on t. Nothing is opened until Open.
func NewDevice(t contracts.Transport, opts ...contracts.Option) (*Device, error) {
	options, err := ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	session := uuid.NewString()
	log := options.Logger.Named("device")
	return &Device{
		logger:    log.With(log.Field().String("session", session)),
		transport: t,
		session:   session,
	}, nil
}

// Session returns the identifier attached to this device's log entries.
func (d *Device) Session() string {
	return d.session
}

// ListOutputPorts enumerates the transport's output ports.
func (d *Device) ListOutputPorts() ([]contracts.PortInfo, error) {
	names, err := d.transport.ListOutputPorts()
	if err != nil {
		return nil, err
	}
	return portInfos(names, contracts.Output), nil
}

// ListInputPorts enumerates the transport's input ports.
func (d *Device) ListInputPorts() ([]contracts.PortInfo, error) {
	names, err := d.transport.ListInputPorts()
	if err != nil {
		return nil, err
	}
	return portInfos(names, contracts.Input), nil
}

func portInfos(names []string, dir contracts.PortDirection) []contracts.PortInfo {
	ports := make([]contracts.PortInfo, len(names))
	for i, name := range names {
		ports[i] = contracts.PortInfo{Index: i, Name: name, Direction: dir}
	}
	return ports
}

// Open connects the output port at outputIndex and, unless inputIndex is
// NoPort, the input port at inputIndex. Output failures are returned; input
// problems are logged and leave the input closed.
func (d *Device) Open(outputIndex, inputIndex int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.state {
	case stateOpen:
		return ErrAlreadyOpen
	case stateClosed:
		return ErrClosed
	}

	outs, err := d.transport.ListOutputPorts()
	if err != nil {
		return fmt.Errorf("list output ports: %w", err)
	}
	if len(outs) == 0 {
		d.logger.Error(ErrNoOutputPorts.Error())
		return ErrNoOutputPorts
	}
	if outputIndex < 0 || outputIndex >= len(outs) {
		d.logger.Error(ErrInvalidPortIndex.Error(), d.logger.Field().Int("output", outputIndex))
		return fmt.Errorf("%w: output %d (valid 0-%d)", ErrInvalidPortIndex, outputIndex, len(outs)-1)
	}
	if err := d.transport.OpenOutput(outputIndex); err != nil {
		return fmt.Errorf("open output %q: %w", outs[outputIndex], err)
	}
	d.output = contracts.PortInfo{Index: outputIndex, Name: outs[outputIndex], Direction: contracts.Output}
	d.state = stateOpen
	d.logger.Info("MIDI output port opened",
		d.logger.Field().Int("index", outputIndex),
		d.logger.Field().String("name", outs[outputIndex]))

	if inputIndex != NoPort {
		d.openInput(inputIndex)
	}
	return nil
}

func (d *Device) openInput(index int) {
	ins, err := d.transport.ListInputPorts()
	if err != nil {
		d.logger.Warn("Could not list MIDI input ports", d.logger.Field().Error("error", err))
		return
	}
	if len(ins) == 0 {
		d.logger.Debug("No MIDI input ports available")
		return
	}
	if index < 0 || index >= len(ins) {
		d.logger.Warn("Invalid MIDI input port", d.logger.Field().Int("input", index))
		return
	}
	if err := d.transport.OpenInput(index); err != nil {
		d.logger.Warn("Could not open MIDI input port",
			d.logger.Field().Int("input", index),
			d.logger.Field().Error("error", err))
		return
	}
	d.input = &contracts.PortInfo{Index: index, Name: ins[index], Direction: contracts.Input}
	d.logger.Info("MIDI input port opened",
		d.logger.Field().Int("index", index),
		d.logger.Field().String("name", ins[index]))
}

// IsOpen reports whether the output port is open.
func (d *Device) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state == stateOpen
}

// Output returns the open output port.
func (d *Device) Output() (contracts.PortInfo, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.output, d.state == stateOpen
}

// Input returns the open input port, if any.
func (d *Device) Input() (contracts.PortInfo, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.input == nil || d.state != stateOpen {
		return contracts.PortInfo{}, false
	}
	return *d.input, true
}

// SendMessage writes data to the output port. Failures are logged and kept
// as LastError; a dropped control message is not worth retrying.
func (d *Device) SendMessage(data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != stateOpen {
		d.recordLocked(&TransmissionError{Data: data, Err: ErrNotOpen})
		return
	}
	if err := d.transport.SendRaw(data); err != nil {
		d.recordLocked(&TransmissionError{Data: data, Err: err})
		return
	}
	d.logger.Debug("MIDI message sent", d.logger.Field().String("message", Describe(data)))
}

func (d *Device) recordLocked(err error) {
	d.lastErr = err
	d.logger.Error("Error sending MIDI message", d.logger.Field().Error("error", err))
}

// LastError returns the most recent transmission failure.
func (d *Device) LastError() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}

// ReadMessage returns the next pending input message without blocking.
func (d *Device) ReadMessage() (Event, bool) {
	d.mu.Lock()
	readable := d.state == stateOpen && d.input != nil
	d.mu.Unlock()
	if !readable {
		return Event{}, false
	}
	data, delta, ok := d.transport.PollInput()
	if !ok {
		return Event{}, false
	}
	return Event{Data: data, Delta: delta}, true
}

// Close closes the output port, then the input port. Closing twice is a no-op.
// A closed Device cannot be opened again.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != stateOpen {
		d.state = stateClosed
		return nil
	}
	d.state = stateClosed

	var errs []error
	if err := d.transport.CloseOutput(); err != nil {
		errs = append(errs, fmt.Errorf("close output: %w", err))
	}
	if d.input != nil {
		if err := d.transport.CloseInput(); err != nil {
			errs = append(errs, fmt.Errorf("close input: %w", err))
		}
		d.input = nil
	}
	d.logger.Info("MIDI ports closed")
	return errors.Join(errs...)
}

func (d *Device) send(msg []byte, err error) error {
	if err != nil {
		return err
	}
	if !d.IsOpen() {
		return ErrNotOpen
	}
	d.SendMessage(msg)
	return nil
}

// NoteOn sends a Note On message.
func (d *Device) NoteOn(note, velocity, channel int) error {
	return d.send(NoteOn(note, velocity, channel))
}

// NoteOff sends a Note On message with zero velocity.
func (d *Device) NoteOff(note, channel int) error {
	return d.send(NoteOff(note, channel))
}

// ProgramChange sends a Program Change message.
func (d *Device) ProgramChange(program, channel int) error {
	return d.send(ProgramChange(program, channel))
}

// ControlChange sends a Control Change message.
func (d *Device) ControlChange(controller, value, channel int) error {
	return d.send(ControlChange(controller, value, channel))
}

// Panic sends All Notes Off on every channel, 0 through 15.
func (d *Device) Panic() error {
	if !d.IsOpen() {
		return ErrNotOpen
	}
	for ch := 0; ch < contracts.Channels; ch++ {
		msg, err := AllNotesOff(ch)
		if err != nil {
			return err
		}
		d.SendMessage(msg)
	}
	d.logger.Info("All notes off sent on every channel")
	return nil
}

// WithDevice opens a Device on t, runs fn and closes the Device on every exit path.
func WithDevice(t contracts.Transport, outputIndex, inputIndex int, fn func(*Device) error, opts ...contracts.Option) (err error) {
	d, err := NewDevice(t, opts...)
	if err != nil {
		return err
	}
	if err := d.Open(outputIndex, inputIndex); err != nil {
		return err
	}
	defer func() {
		if cerr := d.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(d)
}
