package transport

import (
	"testing"
	"time"

	"github.com/leandrodaf/synthctl/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInboxDeltas(t *testing.T) {
	box := NewInbox(4)
	start := time.Unix(100, 0)
	box.Push([]byte{0x90, 60, 100}, start)
	box.Push([]byte{0x90, 60, 0}, start.Add(250*time.Millisecond))

	data, delta, ok := box.Pop()
	require.True(t, ok)
	assert.Equal(t, []byte{0x90, 60, 100}, data)
	assert.Zero(t, delta)

	data, delta, ok = box.Pop()
	require.True(t, ok)
	assert.Equal(t, []byte{0x90, 60, 0}, data)
	assert.Equal(t, 250*time.Millisecond, delta)

	_, _, ok = box.Pop()
	assert.False(t, ok)
}

func TestInboxDropsOldest(t *testing.T) {
	box := NewInbox(2)
	now := time.Now()
	for i := byte(0); i < 3; i++ {
		box.Push([]byte{0xC0, i}, now)
	}

	data, _, ok := box.Pop()
	require.True(t, ok)
	assert.Equal(t, []byte{0xC0, 1}, data)

	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.New(zap.New(core))
	box.ReportDropped(log)
	box.ReportDropped(log)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "MIDI input messages dropped", entry.Message)
	assert.EqualValues(t, 1, entry.ContextMap()["dropped"])
	assert.EqualValues(t, 2, entry.ContextMap()["capacity"])
}

func TestInboxCopiesInput(t *testing.T) {
	box := NewInbox(1)
	buf := []byte{0xB0, 7, 100}
	box.Push(buf, time.Now())
	buf[2] = 0

	data, _, _ := box.Pop()
	assert.Equal(t, byte(100), data[2])
}

func TestCheckIndex(t *testing.T) {
	assert.NoError(t, CheckIndex(0, 1))
	assert.ErrorIs(t, CheckIndex(1, 1), ErrPortIndex)
	assert.ErrorIs(t, CheckIndex(-1, 3), ErrPortIndex)
}
