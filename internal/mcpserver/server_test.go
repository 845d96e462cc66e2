package mcpserver

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leandrodaf/synthctl/internal/logger"
	"github.com/leandrodaf/synthctl/internal/transport/memory"
	"github.com/leandrodaf/synthctl/sdk/contracts"
	"github.com/leandrodaf/synthctl/sdk/midi"
	"github.com/leandrodaf/synthctl/sdk/synth"
)

const profile = `{
  "manufacturer": "Roland",
  "model": "SC-55",
  "patches": { "single": { "Piano": "0x01", "Organ": 16 } },
  "effects": { "Hall": { "code": 4 } },
  "controllers": { "Reverb": { "cc_number": 91, "min_value": 0, "max_value": 64 } }
}`

func newTestServer(t *testing.T) (*Server, *memory.Transport) {
	t.Helper()
	opts := []contracts.Option{
		contracts.WithLogger(logger.NewNop()),
		contracts.WithSweepTiming(contracts.SweepTiming{Settle: time.Millisecond, Gap: time.Millisecond}),
	}

	tr := memory.New()
	dev, err := midi.NewDevice(tr, opts...)
	require.NoError(t, err)
	require.NoError(t, dev.Open(0, midi.NoPort))
	t.Cleanup(func() { _ = dev.Close() })
	tr.Reset()

	p, err := synth.ParseProfile([]byte(profile))
	require.NoError(t, err)
	c, err := synth.NewController(dev, p, opts...)
	require.NoError(t, err)
	s, err := New(c, dev, opts...)
	require.NoError(t, err)
	return s, tr
}

func call(t *testing.T, s *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	var handler server.ToolHandlerFunc
	for _, tool := range s.tools() {
		if tool.Tool.Name == name {
			handler = tool.Handler
		}
	}
	require.NotNil(t, handler, name)

	request := mcp.CallToolRequest{}
	request.Params.Name = name
	request.Params.Arguments = args
	result, err := handler(context.Background(), request)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func text(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	content, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return content.Text
}

func TestToolNames(t *testing.T) {
	s, _ := newTestServer(t)
	var names []string
	for _, tool := range s.tools() {
		names = append(names, tool.Tool.Name)
	}
	assert.Equal(t, []string{
		"list_patches", "select_patch", "select_effect", "set_controller",
		"panic", "test_patches", "last_error",
	}, names)
}

func TestListPatches(t *testing.T) {
	s, _ := newTestServer(t)

	var got listing
	require.NoError(t, json.Unmarshal([]byte(text(t, call(t, s, "list_patches", nil))), &got))

	assert.Equal(t, listing{
		Types:       []string{"single"},
		Type:        "single",
		Patches:     []string{"Piano", "Organ"},
		Effects:     []string{"Hall"},
		Controllers: []string{"Reverb"},
	}, got)
}

func TestSelectPatchTool(t *testing.T) {
	s, tr := newTestServer(t)

	result := call(t, s, "select_patch", map[string]any{"name": "Organ"})
	assert.False(t, result.IsError)
	assert.Equal(t, [][]byte{{0xC0, 16}}, tr.Sent())

	result = call(t, s, "select_patch", map[string]any{"name": "Nope"})
	assert.True(t, result.IsError)
	assert.Contains(t, text(t, result), "patch not found")
	assert.Len(t, tr.Sent(), 1)

	result = call(t, s, "select_patch", nil)
	assert.True(t, result.IsError)
}

func TestSelectEffectTool(t *testing.T) {
	s, tr := newTestServer(t)

	result := call(t, s, "select_effect", map[string]any{"name": "Hall"})
	assert.False(t, result.IsError)
	assert.Equal(t, [][]byte{{0xC0, 4}}, tr.Sent())
}

func TestSetControllerTool(t *testing.T) {
	s, tr := newTestServer(t)

	result := call(t, s, "set_controller", map[string]any{"name": "Reverb", "value": 100})
	assert.False(t, result.IsError)
	assert.Contains(t, text(t, result), "64")
	assert.Equal(t, [][]byte{{0xB0, 91, 64}}, tr.Sent())
}

func TestPanicTool(t *testing.T) {
	s, tr := newTestServer(t)

	result := call(t, s, "panic", nil)
	assert.False(t, result.IsError)
	assert.Len(t, tr.Sent(), contracts.Channels)
}

func TestTestPatchesTool(t *testing.T) {
	s, tr := newTestServer(t)

	result := call(t, s, "test_patches", map[string]any{"note": 64, "duration_ms": 1})
	assert.False(t, result.IsError)
	assert.Equal(t, "Tested 2 single patches.", text(t, result))
	assert.Equal(t, [][]byte{
		{0xC0, 1}, {0x90, 64, 100}, {0x90, 64, 0},
		{0xC0, 16}, {0x90, 64, 100}, {0x90, 64, 0},
	}, tr.Sent())

	result = call(t, s, "test_patches", map[string]any{"note": 200})
	assert.True(t, result.IsError)
}

func TestLastErrorTool(t *testing.T) {
	s, tr := newTestServer(t)

	assert.Equal(t, "No errors recorded.", text(t, call(t, s, "last_error", nil)))

	call(t, s, "select_effect", map[string]any{"name": "Chorus"})
	tr.FailSends(assert.AnError)
	call(t, s, "select_patch", map[string]any{"name": "Piano"})

	report := text(t, call(t, s, "last_error", nil))
	assert.Contains(t, report, "controller: effect not found: Chorus")
	assert.Contains(t, report, "device: ")
}
