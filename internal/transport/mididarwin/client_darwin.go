//go:build darwin && cgo
// +build darwin,cgo

package mididarwin

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/synthctl/internal/transport"
	"github.com/leandrodaf/synthctl/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// Error definitions for CoreMIDI connection and handling issues.
var (
	ErrCreateOutputPort    = errors.New("error creating output port")
	ErrCreateInputPort     = errors.New("error creating input port")
	ErrMIDIConnectionError = errors.New("error connecting to MIDI source")
)

// internalPortConnection is an interface for handling disconnection from a MIDI port.
type internalPortConnection interface {
	Disconnect()
}

// ClientMid is a contracts.Transport backed by CoreMIDI. Outputs are CoreMIDI
// destinations and inputs are CoreMIDI sources.
type ClientMid struct {
	logger     contracts.Logger
	client     coremidi.Client        // CoreMIDI client instance for MIDI operations.
	outputPort *coremidi.OutputPort   // Created on first OpenOutput and reused.
	dest       *coremidi.Destination  // Open output, nil when closed.
	inputPort  *coremidi.InputPort    // Created on first OpenInput and reused.
	portConn   internalPortConnection // Connection to the open source.
	inbox      *transport.Inbox       // Messages received by the CoreMIDI callback.
	mu         sync.Mutex             // Mutex for thread safety on shared resources.
}

// NewMIDIClient creates the CoreMIDI client named by options.CoreMIDIConfig.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.Transport, error) {
	client, err := coremidi.NewClient(options.CoreMIDIConfig.ClientName)
	if err != nil {
		return nil, err
	}
	options.Logger.Info("CoreMIDI client successfully created")

	return &ClientMid{
		logger: options.Logger,
		client: client,
		inbox:  transport.NewInbox(options.InputBufferSize),
	}, nil
}

func (m *ClientMid) ListOutputPorts() ([]string, error) {
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI destinations: %w", err)
	}
	names := make([]string, len(destinations))
	for i, dest := range destinations {
		names[i] = dest.Name()
	}
	return names, nil
}

func (m *ClientMid) ListInputPorts() ([]string, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI sources: %w", err)
	}
	names := make([]string, len(sources))
	for i, source := range sources {
		names[i] = source.Name()
	}
	return names, nil
}

func (m *ClientMid) OpenOutput(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dest != nil {
		return transport.ErrOutputAlreadyOpen
	}

	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI destinations: %w", err)
	}
	if err := transport.CheckIndex(index, len(destinations)); err != nil {
		return fmt.Errorf("%w: output %d", err, index)
	}

	if m.outputPort == nil {
		port, err := coremidi.NewOutputPort(m.client, "Output Port")
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCreateOutputPort, err)
		}
		m.outputPort = &port
	}

	dest := destinations[index]
	m.dest = &dest
	m.logger.Info("MIDI output selected", m.logger.Field().String("port", dest.Name()))
	return nil
}

func (m *ClientMid) OpenInput(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.portConn != nil {
		return transport.ErrInputAlreadyOpen
	}

	sources, err := coremidi.AllSources()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI sources: %w", err)
	}
	if err := transport.CheckIndex(index, len(sources)); err != nil {
		return fmt.Errorf("%w: input %d", err, index)
	}

	if m.inputPort == nil {
		port, err := coremidi.NewInputPort(m.client, "Input Port", m.handleMIDIMessage)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCreateInputPort, err)
		}
		m.inputPort = &port
	}

	m.inbox.Reset()
	source := sources[index]
	conn, err := m.inputPort.Connect(source)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMIDIConnectionError, err)
	}
	m.portConn = conn
	m.logger.Info("MIDI input connected", m.logger.Field().String("port", source.Name()))
	return nil
}

// handleMIDIMessage runs on a CoreMIDI thread and only queues the packet.
func (m *ClientMid) handleMIDIMessage(source coremidi.Source, packet coremidi.Packet) {
	if len(packet.Data) == 0 {
		return
	}
	m.inbox.Push(packet.Data, time.Now())
}

func (m *ClientMid) CloseOutput() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dest == nil {
		return transport.ErrPortNotOpen
	}
	m.dest = nil
	return nil
}

func (m *ClientMid) CloseInput() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.portConn == nil {
		return transport.ErrPortNotOpen
	}
	m.portConn.Disconnect()
	m.portConn = nil
	m.inbox.ReportDropped(m.logger)
	return nil
}

func (m *ClientMid) SendRaw(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dest == nil {
		return transport.ErrPortNotOpen
	}
	packet := coremidi.NewPacket(data, 0)
	return packet.Send(m.outputPort, m.dest)
}

func (m *ClientMid) PollInput() ([]byte, time.Duration, bool) {
	m.mu.Lock()
	open := m.portConn != nil
	m.mu.Unlock()
	if !open {
		return nil, 0, false
	}
	return m.inbox.Pop()
}

// Close disconnects any open source. The CoreMIDI client lives until process exit.
func (m *ClientMid) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.portConn != nil {
		m.portConn.Disconnect()
		m.portConn = nil
	}
	m.dest = nil
	return nil
}
