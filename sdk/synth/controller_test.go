package synth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/leandrodaf/synthctl/internal/logger"
	"github.com/leandrodaf/synthctl/internal/transport/memory"
	"github.com/leandrodaf/synthctl/sdk/contracts"
	"github.com/leandrodaf/synthctl/sdk/midi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var fastSweep = contracts.WithSweepTiming(contracts.SweepTiming{Settle: time.Millisecond, Gap: time.Millisecond})

// recorder is an Output that logs calls and can run hooks on note on.
type recorder struct {
	mu       sync.Mutex
	calls    []string
	onNoteOn func()
}

func (r *recorder) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) ProgramChange(program, channel int) error {
	r.add("program %d/%d", program, channel)
	return nil
}

func (r *recorder) ControlChange(controller, value, channel int) error {
	r.add("cc %d=%d/%d", controller, value, channel)
	return nil
}

func (r *recorder) NoteOn(note, velocity, channel int) error {
	r.add("on %d/%d", note, channel)
	if r.onNoteOn != nil {
		r.onNoteOn()
	}
	return nil
}

func (r *recorder) NoteOff(note, channel int) error {
	r.add("off %d/%d", note, channel)
	return nil
}

func (r *recorder) Panic() error {
	r.add("panic")
	return nil
}

// newDeviceController wires a controller to an open Device on a memory transport.
func newDeviceController(t *testing.T, doc string) (*Controller, *memory.Transport, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.New(zap.New(core))

	tr := memory.New()
	dev, err := midi.NewDevice(tr, contracts.WithLogger(log))
	require.NoError(t, err)
	require.NoError(t, dev.Open(0, midi.NoPort))
	t.Cleanup(func() { _ = dev.Close() })
	tr.Reset()

	c, err := NewController(dev, mustParse(t, doc), contracts.WithLogger(log), fastSweep)
	require.NoError(t, err)
	return c, tr, logs
}

func newRecorderController(t *testing.T, out *recorder, doc string) *Controller {
	t.Helper()
	c, err := NewController(out, mustParse(t, doc), contracts.WithLogger(logger.NewNop()), fastSweep)
	require.NoError(t, err)
	return c
}

func TestSelectPatchSendsProgramChange(t *testing.T) {
	c, tr, _ := newDeviceController(t, `{"default_channel":0,"patches":{"single":{"Piano":"0x01"}}}`)

	require.NoError(t, c.SelectPatch("Piano", DefaultPatchType))

	assert.Equal(t, [][]byte{{0xC0, 0x01}}, tr.Sent())
}

func TestSelectPatchUsesDefaultChannel(t *testing.T) {
	c, tr, _ := newDeviceController(t, blofeld)

	require.NoError(t, c.SelectPatch("Split", "multi"))
	require.NoError(t, c.SelectEffect("Hall"))

	assert.Equal(t, [][]byte{{0xC2, 0x00}, {0xC2, 0x05}}, tr.Sent())
}

func TestUnknownNamesSendNothing(t *testing.T) {
	c, tr, logs := newDeviceController(t, blofeld)

	err := c.SelectPatch("Nope", DefaultPatchType)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "patch", notFound.Kind)

	require.ErrorAs(t, c.SelectPatch("Zeta Pad", "drums"), &notFound)
	require.ErrorAs(t, c.SelectEffect("Nope"), &notFound)
	assert.Equal(t, "effect", notFound.Kind)

	_, err = c.SetController("Nope", 10)
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "controller", notFound.Kind)

	assert.Empty(t, tr.Calls())
	assert.Equal(t, err, c.LastError())
	assert.Equal(t, 4, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestSetControllerClamps(t *testing.T) {
	c, tr, _ := newDeviceController(t, `{"controllers":{"Cutoff":{"cc_number":74,"min_value":10,"max_value":100}}}`)

	tests := []struct {
		value int
		want  int
	}{
		{5, 10},
		{200, 100},
		{50, 50},
		{10, 10},
		{100, 100},
	}
	for _, tt := range tests {
		tr.Reset()
		sent, err := c.SetController("Cutoff", tt.value)
		require.NoError(t, err)
		assert.Equal(t, tt.want, sent)
		assert.Equal(t, [][]byte{{0xB0, 74, byte(tt.want)}}, tr.Sent())
	}
}

func TestControllerPanic(t *testing.T) {
	c, tr, _ := newDeviceController(t, blofeld)

	require.NoError(t, c.Panic())

	sent := tr.Sent()
	require.Len(t, sent, 16)
	for ch, msg := range sent {
		assert.Equal(t, []byte{0xB0 + byte(ch), 123, 0}, msg)
	}
}

func TestTestAllPatchesPlaysEveryPatch(t *testing.T) {
	c, tr, _ := newDeviceController(t, `{"patches":{"single":{"B":2,"A":"0x01"},"multi":{"M":9}}}`)

	require.NoError(t, c.TestAllPatches(context.Background(), DefaultPatchType, 60, time.Millisecond))

	assert.Equal(t, [][]byte{
		{0xC0, 2}, {0x90, 60, 100}, {0x90, 60, 0},
		{0xC0, 1}, {0x90, 60, 100}, {0x90, 60, 0},
	}, tr.Sent())
}

func TestTestAllPatchesUnknownType(t *testing.T) {
	out := &recorder{}
	c := newRecorderController(t, out, blofeld)

	require.NoError(t, c.TestAllPatches(context.Background(), "drums", 60, time.Millisecond))
	assert.Empty(t, out.Calls())
}

func TestTestAllPatchesRejectsBadNote(t *testing.T) {
	out := &recorder{}
	c := newRecorderController(t, out, blofeld)

	var rangeErr *midi.RangeError
	assert.ErrorAs(t, c.TestAllPatches(context.Background(), DefaultPatchType, 128, time.Millisecond), &rangeErr)
	assert.ErrorIs(t, c.TestAllPatches(context.Background(), DefaultPatchType, 60, -time.Second), ErrInvalidValue)
	assert.Empty(t, out.Calls())
}

func TestTestAllPatchesReleasesNoteOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	out := &recorder{onNoteOn: cancel}
	c := newRecorderController(t, out, blofeld)

	err := c.TestAllPatches(ctx, DefaultPatchType, 60, time.Hour)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"program 26/2", "on 60/2", "off 60/2"}, out.Calls())
}

func TestTestAllPatchesCancelledBeforeNote(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := &recorder{}
	c := newRecorderController(t, out, blofeld)

	err := c.TestAllPatches(ctx, DefaultPatchType, 60, time.Millisecond)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"program 26/2"}, out.Calls())
}

func TestPanicStopsSweep(t *testing.T) {
	playing := make(chan struct{})
	var once sync.Once
	out := &recorder{onNoteOn: func() { once.Do(func() { close(playing) }) }}
	c := newRecorderController(t, out, blofeld)

	done := make(chan error, 1)
	go func() {
		done <- c.TestAllPatches(context.Background(), DefaultPatchType, 60, time.Hour)
	}()

	<-playing
	assert.ErrorIs(t, c.TestAllPatches(context.Background(), DefaultPatchType, 60, time.Millisecond), ErrSweepRunning)
	require.NoError(t, c.Panic())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("sweep did not stop")
	}
	calls := out.Calls()
	assert.Contains(t, calls, "off 60/2")
	assert.Contains(t, calls, "panic")

	// A new sweep may start once the previous one returned.
	out.onNoteOn = nil
	assert.NoError(t, c.TestAllPatches(context.Background(), "multi", 60, time.Millisecond))
}

type failingOutput struct {
	recorder
}

func (f *failingOutput) ProgramChange(int, int) error {
	return errors.New("program change refused")
}

func TestTransportSideErrorsAreRecorded(t *testing.T) {
	out := &failingOutput{}
	c, err := NewController(out, mustParse(t, blofeld), contracts.WithLogger(logger.NewNop()))
	require.NoError(t, err)

	err = c.SelectPatch("Zeta Pad", DefaultPatchType)
	require.Error(t, err)
	assert.Equal(t, err, c.LastError())
}
