package memory

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/leandrodaf/synthctl/internal/logger"
	"github.com/leandrodaf/synthctl/internal/transport"
)

func TestPortLifecycle(t *testing.T) {
	tr := New(WithOutputs("A", "B"), WithInputs("In"))

	assert.ErrorIs(t, tr.OpenOutput(2), transport.ErrPortIndex)
	assert.ErrorIs(t, tr.SendRaw([]byte{0xC0, 1}), transport.ErrPortNotOpen)
	assert.ErrorIs(t, tr.CloseOutput(), transport.ErrPortNotOpen)

	require.NoError(t, tr.OpenOutput(1))
	assert.ErrorIs(t, tr.OpenOutput(0), transport.ErrOutputAlreadyOpen)
	require.NoError(t, tr.OpenInput(0))
	assert.ErrorIs(t, tr.OpenInput(0), transport.ErrInputAlreadyOpen)

	require.NoError(t, tr.SendRaw([]byte{0xC0, 1}))
	require.NoError(t, tr.CloseOutput())
	require.NoError(t, tr.CloseInput())

	assert.Equal(t, []Call{
		{Op: "open-output", Index: 1},
		{Op: "open-input", Index: 0},
		{Op: "send", Index: 1, Data: []byte{0xC0, 1}},
		{Op: "close-output", Index: 1},
		{Op: "close-input", Index: 0},
	}, tr.Calls())
}

func TestSentIsCopied(t *testing.T) {
	tr := New()
	require.NoError(t, tr.OpenOutput(0))

	msg := []byte{0x90, 60, 100}
	require.NoError(t, tr.SendRaw(msg))
	msg[2] = 0

	assert.Equal(t, [][]byte{{0x90, 60, 100}}, tr.Sent())
}

func TestFailSends(t *testing.T) {
	tr := New()
	require.NoError(t, tr.OpenOutput(0))
	broken := errors.New("cable pulled")

	tr.FailSends(broken)
	assert.ErrorIs(t, tr.SendRaw([]byte{0xC0, 1}), broken)
	tr.FailSends(nil)
	assert.NoError(t, tr.SendRaw([]byte{0xC0, 2}))

	assert.Equal(t, [][]byte{{0xC0, 2}}, tr.Sent())
}

func TestInputNeedsOpenPort(t *testing.T) {
	tr := New(WithEcho())
	require.NoError(t, tr.OpenOutput(0))

	require.NoError(t, tr.SendRaw([]byte{0xC0, 1}))
	_, _, ok := tr.PollInput()
	assert.False(t, ok)

	require.NoError(t, tr.OpenInput(0))
	require.NoError(t, tr.SendRaw([]byte{0xC0, 2}))
	tr.Inject([]byte{0x90, 60, 1}, time.Now())

	data, _, ok := tr.PollInput()
	require.True(t, ok)
	assert.Equal(t, []byte{0xC0, 2}, data)
	data, _, ok = tr.PollInput()
	require.True(t, ok)
	assert.Equal(t, []byte{0x90, 60, 1}, data)
}

func TestInputBufferSizeLimitsPendingInput(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	tr := New(WithInputBufferSize(2), WithLogger(logger.New(zap.New(core))))
	require.NoError(t, tr.OpenInput(0))

	now := time.Now()
	for i := byte(0); i < 3; i++ {
		tr.Inject([]byte{0xC0, i}, now)
	}
	data, _, ok := tr.PollInput()
	require.True(t, ok)
	assert.Equal(t, []byte{0xC0, 1}, data)

	require.NoError(t, tr.CloseInput())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "MIDI input messages dropped", logs.All()[0].Message)
	assert.EqualValues(t, 1, logs.All()[0].ContextMap()["dropped"])
}
