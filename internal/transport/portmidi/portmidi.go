//go:build cgo

// Package portmidi implements contracts.Transport on PortMidi.
package portmidi

import (
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/synthctl/internal/transport"
	"github.com/leandrodaf/synthctl/sdk/contracts"
	"github.com/rakyll/portmidi"
)

const (
	streamBuffer = 1024
	readBatch    = 64
)

// Transport drives PortMidi streams. PortMidi enumerates inputs and outputs
// in one device list; this transport presents them as two separate lists.
type Transport struct {
	logger contracts.Logger
	mu     sync.Mutex
	out    *portmidi.Stream
	in     *portmidi.Stream
	inbox  *transport.Inbox
}

// New initializes PortMidi.
func New(options *contracts.ClientOptions) (contracts.Transport, error) {
	if err := portmidi.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portmidi: %w", err)
	}
	options.Logger.Debug("portmidi transport created",
		options.Logger.Field().Int("devices", portmidi.CountDevices()))
	return &Transport{
		logger: options.Logger,
		inbox:  transport.NewInbox(options.InputBufferSize),
	}, nil
}

// devices returns the PortMidi ids and names of every device in one direction.
func devices(output bool) ([]portmidi.DeviceID, []string) {
	var ids []portmidi.DeviceID
	var names []string
	for i := 0; i < portmidi.CountDevices(); i++ {
		id := portmidi.DeviceID(i)
		info := portmidi.Info(id)
		if info == nil {
			continue
		}
		if (output && info.IsOutputAvailable) || (!output && info.IsInputAvailable) {
			ids = append(ids, id)
			names = append(names, info.Name)
		}
	}
	return ids, names
}

func (t *Transport) ListOutputPorts() ([]string, error) {
	_, names := devices(true)
	return names, nil
}

func (t *Transport) ListInputPorts() ([]string, error) {
	_, names := devices(false)
	return names, nil
}

func (t *Transport) OpenOutput(index int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.out != nil {
		return transport.ErrOutputAlreadyOpen
	}
	ids, names := devices(true)
	if err := transport.CheckIndex(index, len(ids)); err != nil {
		return fmt.Errorf("%w: output %d", err, index)
	}
	out, err := portmidi.NewOutputStream(ids[index], streamBuffer, 0)
	if err != nil {
		return fmt.Errorf("open output %q: %w", names[index], err)
	}
	t.out = out
	t.logger.Info("MIDI output opened", t.logger.Field().String("port", names[index]))
	return nil
}

func (t *Transport) OpenInput(index int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.in != nil {
		return transport.ErrInputAlreadyOpen
	}
	ids, names := devices(false)
	if err := transport.CheckIndex(index, len(ids)); err != nil {
		return fmt.Errorf("%w: input %d", err, index)
	}
	in, err := portmidi.NewInputStream(ids[index], streamBuffer)
	if err != nil {
		return fmt.Errorf("open input %q: %w", names[index], err)
	}
	t.in = in
	t.inbox.Reset()
	t.logger.Info("MIDI input opened", t.logger.Field().String("port", names[index]))
	return nil
}

func (t *Transport) CloseOutput() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.out == nil {
		return transport.ErrPortNotOpen
	}
	err := t.out.Close()
	t.out = nil
	return err
}

func (t *Transport) CloseInput() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.in == nil {
		return transport.ErrPortNotOpen
	}
	err := t.in.Close()
	t.in = nil
	t.inbox.ReportDropped(t.logger)
	return err
}

// SendRaw writes a channel message of one to three bytes with WriteShort and
// anything longer as SysEx.
func (t *Transport) SendRaw(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.out == nil {
		return transport.ErrPortNotOpen
	}
	if len(data) > 3 {
		return t.out.WriteSysExBytes(portmidi.Time(), data)
	}
	var status, data1, data2 int64
	switch len(data) {
	case 3:
		data2 = int64(data[2])
		fallthrough
	case 2:
		data1 = int64(data[1])
		fallthrough
	case 1:
		status = int64(data[0])
	default:
		return nil
	}
	return t.out.WriteShort(status, data1, data2)
}

// PollInput drains whatever PortMidi has buffered into the inbox, then pops one message.
func (t *Transport) PollInput() ([]byte, time.Duration, bool) {
	t.mu.Lock()
	in := t.in
	t.mu.Unlock()
	if in == nil {
		return nil, 0, false
	}

	if ready, err := in.Poll(); err != nil {
		t.logger.Warn("portmidi poll failed", t.logger.Field().Error("error", err))
	} else if ready {
		events, err := in.Read(readBatch)
		if err != nil {
			t.logger.Warn("portmidi read failed", t.logger.Field().Error("error", err))
		}
		for _, ev := range events {
			at := time.UnixMilli(int64(ev.Timestamp))
			t.inbox.Push(eventBytes(ev), at)
		}
	}
	return t.inbox.Pop()
}

// eventBytes trims a PortMidi event to the length implied by its status byte.
func eventBytes(ev portmidi.Event) []byte {
	msg := []byte{byte(ev.Status), byte(ev.Data1), byte(ev.Data2)}
	return msg[:1+contracts.CommandOf(msg[0]).DataLength()]
}

// Close closes any open stream and terminates PortMidi.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.in != nil {
		_ = t.in.Close()
		t.in = nil
	}
	if t.out != nil {
		_ = t.out.Close()
		t.out = nil
	}
	if err := portmidi.Terminate(); err != nil {
		return fmt.Errorf("error terminating portmidi: %w", err)
	}
	return nil
}
