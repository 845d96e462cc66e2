// Package memory implements an in-process transport. Nothing leaves the host:
// sent messages are recorded and input is whatever the caller injects.
package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/synthctl/internal/transport"
	"github.com/leandrodaf/synthctl/sdk/contracts"
)

// Call records one transport operation, in order.
type Call struct {
	Op    string // "open-output", "open-input", "close-output", "close-input", "send".
	Index int
	Data  []byte
}

// Transport is a scriptable contracts.Transport.
type Transport struct {
	mu      sync.Mutex
	logger  contracts.Logger
	outs    []string
	ins     []string
	out     int
	in      int
	inbox   *transport.Inbox
	calls   []Call
	sendErr error
	echo    bool
}

// Option configures a Transport.
type Option func(*Transport)

// WithOutputs sets the output port names.
func WithOutputs(names ...string) Option {
	return func(t *Transport) { t.outs = names }
}

// WithInputs sets the input port names.
func WithInputs(names ...string) Option {
	return func(t *Transport) { t.ins = names }
}

// WithEcho loops every sent message back into the input, when one is open.
func WithEcho() Option {
	return func(t *Transport) { t.echo = true }
}

// WithLogger logs every sent message at debug level.
func WithLogger(l contracts.Logger) Option {
	return func(t *Transport) { t.logger = l }
}

// WithInputBufferSize sets how many unread input messages are kept.
func WithInputBufferSize(n int) Option {
	return func(t *Transport) { t.inbox = transport.NewInbox(n) }
}

// New creates a transport with one output and one input port unless options say otherwise.
func New(opts ...Option) *Transport {
	t := &Transport{
		outs:  []string{"Memory Out"},
		ins:   []string{"Memory In"},
		out:   -1,
		in:    -1,
		inbox: transport.NewInbox(transport.DefaultInboxSize),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Transport) ListOutputPorts() ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.outs...), nil
}

func (t *Transport) ListInputPorts() ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.ins...), nil
}

func (t *Transport) OpenOutput(index int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := transport.CheckIndex(index, len(t.outs)); err != nil {
		return fmt.Errorf("%w: output %d", err, index)
	}
	if t.out >= 0 {
		return transport.ErrOutputAlreadyOpen
	}
	t.out = index
	t.calls = append(t.calls, Call{Op: "open-output", Index: index})
	return nil
}

func (t *Transport) OpenInput(index int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := transport.CheckIndex(index, len(t.ins)); err != nil {
		return fmt.Errorf("%w: input %d", err, index)
	}
	if t.in >= 0 {
		return transport.ErrInputAlreadyOpen
	}
	t.in = index
	t.inbox.Reset()
	t.calls = append(t.calls, Call{Op: "open-input", Index: index})
	return nil
}

func (t *Transport) CloseOutput() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.out < 0 {
		return transport.ErrPortNotOpen
	}
	t.calls = append(t.calls, Call{Op: "close-output", Index: t.out})
	t.out = -1
	return nil
}

func (t *Transport) CloseInput() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.in < 0 {
		return transport.ErrPortNotOpen
	}
	t.calls = append(t.calls, Call{Op: "close-input", Index: t.in})
	t.in = -1
	t.inbox.ReportDropped(t.logger)
	return nil
}

func (t *Transport) SendRaw(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.out < 0 {
		return transport.ErrPortNotOpen
	}
	if t.sendErr != nil {
		return t.sendErr
	}
	msg := append([]byte(nil), data...)
	t.calls = append(t.calls, Call{Op: "send", Index: t.out, Data: msg})
	if t.logger != nil {
		t.logger.Debug("memory send", t.logger.Field().String("bytes", fmt.Sprintf("% X", msg)))
	}
	if t.echo && t.in >= 0 {
		t.inbox.Push(msg, time.Now())
	}
	return nil
}

func (t *Transport) PollInput() ([]byte, time.Duration, bool) {
	t.mu.Lock()
	open := t.in >= 0
	t.mu.Unlock()
	if !open {
		return nil, 0, false
	}
	return t.inbox.Pop()
}

func (t *Transport) Close() error {
	return nil
}

// Inject queues an input message received at the given time.
func (t *Transport) Inject(data []byte, at time.Time) {
	t.inbox.Push(data, at)
}

// FailSends makes every following SendRaw return err; nil restores normal sends.
func (t *Transport) FailSends(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sendErr = err
}

// Calls returns every recorded operation.
func (t *Transport) Calls() []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Call(nil), t.calls...)
}

// Sent returns the payloads of every successful SendRaw.
func (t *Transport) Sent() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	var sent [][]byte
	for _, c := range t.calls {
		if c.Op == "send" {
			sent = append(sent, c.Data)
		}
	}
	return sent
}

// Reset forgets recorded calls.
func (t *Transport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = nil
}

var _ contracts.Transport = (*Transport)(nil)
