// Package transport holds pieces shared by the transport backends.
package transport

import (
	"errors"
	"sync"
	"time"

	"github.com/leandrodaf/synthctl/sdk/contracts"
)

// Errors shared by the transport backends.
var (
	ErrPortNotOpen       = errors.New("port not open")
	ErrPortIndex         = errors.New("port index out of range")
	ErrOutputAlreadyOpen = errors.New("output port already open")
	ErrInputAlreadyOpen  = errors.New("input port already open")
)

// DefaultInboxSize is used when a backend is configured with a non-positive size.
const DefaultInboxSize = 256

// Inbox buffers messages delivered by a driver callback until they are polled.
// When full, the oldest message is dropped.
type Inbox struct {
	mu      sync.Mutex
	items   []inboxItem
	size    int
	last    time.Time
	dropped uint64
}

type inboxItem struct {
	data []byte
	at   time.Time
}

// NewInbox creates an inbox holding at most size messages.
func NewInbox(size int) *Inbox {
	if size <= 0 {
		size = DefaultInboxSize
	}
	return &Inbox{size: size}
}

// Push stores a copy of data received at the given time. It is safe to call
// from driver callback goroutines.
func (b *Inbox) Push(data []byte, at time.Time) {
	msg := make([]byte, len(data))
	copy(msg, data)

	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.items) == b.size {
		b.items = b.items[1:]
		b.dropped++
	}
	b.items = append(b.items, inboxItem{data: msg, at: at})
}

// Pop returns the oldest message and the time since the previously popped
// one. The first message after Reset reports a zero delta.
func (b *Inbox) Pop() ([]byte, time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.items) == 0 {
		return nil, 0, false
	}
	item := b.items[0]
	b.items = b.items[1:]

	var delta time.Duration
	if !b.last.IsZero() {
		delta = item.at.Sub(b.last)
	}
	b.last = item.at
	return item.data, delta, true
}

// Reset discards pending messages.
func (b *Inbox) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = nil
	b.last = time.Time{}
}

// ReportDropped logs how many messages were discarded because the inbox was
// full, then starts counting again. Nothing is logged when none were.
func (b *Inbox) ReportDropped(l contracts.Logger) {
	b.mu.Lock()
	dropped := b.dropped
	b.dropped = 0
	b.mu.Unlock()
	if dropped == 0 || l == nil {
		return
	}
	l.Warn("MIDI input messages dropped",
		l.Field().Int("dropped", int(dropped)),
		l.Field().Int("capacity", b.size))
}

// CheckIndex reports ErrPortIndex when index is outside [0, count).
func CheckIndex(index, count int) error {
	if index < 0 || index >= count {
		return ErrPortIndex
	}
	return nil
}
