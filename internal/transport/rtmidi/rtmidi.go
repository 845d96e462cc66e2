//go:build cgo

// Package rtmidi implements contracts.Transport on the gomidi v2 driver layer
// backed by rtmidi.
package rtmidi

import (
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/synthctl/internal/transport"
	"github.com/leandrodaf/synthctl/sdk/contracts"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register rtmidi driver
)

// Transport talks to ports enumerated by the registered gomidi driver.
type Transport struct {
	logger contracts.Logger
	mu     sync.Mutex
	out    drivers.Out
	in     drivers.In
	stop   func()
	inbox  *transport.Inbox
}

// New creates a transport. No port is opened until OpenOutput/OpenInput.
func New(options *contracts.ClientOptions) (contracts.Transport, error) {
	if drivers.Get() == nil {
		return nil, fmt.Errorf("rtmidi driver not available")
	}
	options.Logger.Debug("rtmidi transport created")
	return &Transport{
		logger: options.Logger,
		inbox:  transport.NewInbox(options.InputBufferSize),
	}, nil
}

func (t *Transport) ListOutputPorts() ([]string, error) {
	outs, err := drivers.Outs()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI outputs: %w", err)
	}
	names := make([]string, len(outs))
	for i, out := range outs {
		names[i] = out.String()
	}
	return names, nil
}

func (t *Transport) ListInputPorts() ([]string, error) {
	ins, err := drivers.Ins()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI inputs: %w", err)
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	return names, nil
}

func (t *Transport) OpenOutput(index int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.out != nil {
		return transport.ErrOutputAlreadyOpen
	}

	outs, err := drivers.Outs()
	if err != nil {
		return fmt.Errorf("error listing MIDI outputs: %w", err)
	}
	if err := transport.CheckIndex(index, len(outs)); err != nil {
		return fmt.Errorf("%w: output %d", err, index)
	}

	out := outs[index]
	if err := out.Open(); err != nil {
		return fmt.Errorf("open output %q: %w", out.String(), err)
	}
	t.out = out
	t.logger.Info("MIDI output opened", t.logger.Field().String("port", out.String()))
	return nil
}

func (t *Transport) OpenInput(index int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.in != nil {
		return transport.ErrInputAlreadyOpen
	}

	ins, err := drivers.Ins()
	if err != nil {
		return fmt.Errorf("error listing MIDI inputs: %w", err)
	}
	if err := transport.CheckIndex(index, len(ins)); err != nil {
		return fmt.Errorf("%w: input %d", err, index)
	}

	in := ins[index]
	if err := in.Open(); err != nil {
		return fmt.Errorf("open input %q: %w", in.String(), err)
	}

	t.inbox.Reset()
	stop, err := in.Listen(func(msg []byte, _ int32) {
		t.inbox.Push(msg, time.Now())
	}, drivers.ListenConfig{
		OnErr: func(err error) {
			t.logger.Warn("MIDI input error", t.logger.Field().Error("error", err))
		},
	})
	if err != nil {
		_ = in.Close()
		return fmt.Errorf("listen on input %q: %w", in.String(), err)
	}

	t.in = in
	t.stop = stop
	t.logger.Info("MIDI input opened", t.logger.Field().String("port", in.String()))
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
	if t.stop != nil {
		t.stop()
		t.stop = nil
	}
	err := t.in.Close()
	t.in = nil
	t.inbox.ReportDropped(t.logger)
	return err
}

func (t *Transport) SendRaw(data []byte) error {
	t.mu.Lock()
	out := t.out
	t.mu.Unlock()
	if out == nil {
		return transport.ErrPortNotOpen
	}
	return out.Send(data)
}

func (t *Transport) PollInput() ([]byte, time.Duration, bool) {
	t.mu.Lock()
	open := t.in != nil
	t.mu.Unlock()
	if !open {
		return nil, 0, false
	}
	return t.inbox.Pop()
}

// Close releases the gomidi driver and every port it still holds.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		t.stop()
		t.stop = nil
	}
	t.in, t.out = nil, nil
	drivers.Close()
	return nil
}
