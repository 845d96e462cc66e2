// Package mcpserver exposes a synth.Controller as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/leandrodaf/synthctl/sdk/contracts"
	"github.com/leandrodaf/synthctl/sdk/midi"
	"github.com/leandrodaf/synthctl/sdk/synth"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

const (
	defaultNote     = 60
	defaultDuration = time.Second
)

// ErrorReporter is implemented by midi.Device.
type ErrorReporter interface {
	LastError() error
}

// Server serves the tools of one controller.
type Server struct {
	logger     contracts.Logger
	controller *synth.Controller
	device     ErrorReporter
	mcp        *server.MCPServer
}

// New builds the MCP server. device may be nil.
func New(controller *synth.Controller, device ErrorReporter, opts ...contracts.Option) (*Server, error) {
	options, err := midi.ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}
	s := &Server{
		logger:     options.Logger.Named("mcp"),
		controller: controller,
		device:     device,
	}
	s.mcp = server.NewMCPServer(
		"synthctl "+controller.Profile().DisplayName(),
		Version,
		server.WithToolCapabilities(false),
	)
	s.mcp.AddTools(s.tools()...)
	return s, nil
}

// ServeStdio blocks serving requests on stdin and stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("Starting MCP server", s.logger.Field().String("profile", s.controller.Profile().DisplayName()))
	return server.ServeStdio(s.mcp)
}

func (s *Server) tools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.NewTool("list_patches",
				mcp.WithDescription("Lists patch types, the patches of one type, effects and controllers of the synthesizer profile."),
				mcp.WithString("type", mcp.Description("Patch type (default \"single\").")),
			),
			Handler: s.listPatches,
		},
		{
			Tool: mcp.NewTool("select_patch",
				mcp.WithDescription("Selects a patch by name with a Program Change."),
				mcp.WithString("name", mcp.Required(), mcp.Description("Patch name as listed by list_patches.")),
				mcp.WithString("type", mcp.Description("Patch type (default \"single\").")),
			),
			Handler: s.selectPatch,
		},
		{
			Tool: mcp.NewTool("select_effect",
				mcp.WithDescription("Selects an effect by name with a Program Change."),
				mcp.WithString("name", mcp.Required(), mcp.Description("Effect name as listed by list_patches.")),
			),
			Handler: s.selectEffect,
		},
		{
			Tool: mcp.NewTool("set_controller",
				mcp.WithDescription("Sets a named controller. The value is clamped into the controller's range."),
				mcp.WithString("name", mcp.Required(), mcp.Description("Controller name as listed by list_patches.")),
				mcp.WithNumber("value", mcp.Required(), mcp.Description("Requested value (0-127).")),
			),
			Handler: s.setController,
		},
		{
			Tool: mcp.NewTool("panic",
				mcp.WithDescription("Stops a running patch test and sends All Notes Off on every channel."),
			),
			Handler: s.panicAll,
		},
		{
			Tool: mcp.NewTool("test_patches",
				mcp.WithDescription("Plays a note on every patch of a type, one after another."),
				mcp.WithString("type", mcp.Description("Patch type (default \"single\").")),
				mcp.WithNumber("note", mcp.Description("MIDI note number (default 60).")),
				mcp.WithNumber("duration_ms", mcp.Description("How long each note sounds in milliseconds (default 1000).")),
			),
			Handler: s.testPatches,
		},
		{
			Tool: mcp.NewTool("last_error",
				mcp.WithDescription("Reports the last error recorded by the controller and the MIDI device."),
			),
			Handler: s.lastError,
		},
	}
}

type listing struct {
	Types       []string `json:"types"`
	Type        string   `json:"type"`
	Patches     []string `json:"patches"`
	Effects     []string `json:"effects"`
	Controllers []string `json:"controllers"`
}

func (s *Server) listPatches(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := s.controller.Profile()
	patchType := request.GetString("type", synth.DefaultPatchType)
	out := listing{
		Types:       nonNil(slices.Collect(p.PatchTypes())),
		Type:        patchType,
		Patches:     nonNil(slices.Collect(p.PatchNames(patchType))),
		Effects:     nonNil(slices.Collect(p.EffectNames())),
		Controllers: nonNil(slices.Collect(p.ControllerNames())),
	}
	asJSON, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(asJSON)), nil
}

func nonNil(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}

func (s *Server) selectPatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	patchType := request.GetString("type", synth.DefaultPatchType)
	if err := s.controller.SelectPatch(name, patchType); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Selected %s patch %q.", patchType, name)), nil
}

func (s *Server) selectEffect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.controller.SelectEffect(name); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Selected effect %q.", name)), nil
}

func (s *Server) setController(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := request.RequireInt("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sent, err := s.controller.SetController(name, value)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Controller %q set to %d.", name, sent)), nil
}

func (s *Server) panicAll(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.controller.Panic(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("All notes off sent on every channel."), nil
}

func (s *Server) testPatches(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	patchType := request.GetString("type", synth.DefaultPatchType)
	note := request.GetInt("note", defaultNote)
	duration := time.Duration(request.GetInt("duration_ms", int(defaultDuration/time.Millisecond))) * time.Millisecond

	err := s.controller.TestAllPatches(ctx, patchType, note, duration)
	switch {
	case errors.Is(err, context.Canceled):
		return mcp.NewToolResultText("Patch test stopped."), nil
	case err != nil:
		return mcp.NewToolResultError(err.Error()), nil
	}
	count := s.controller.Profile().PatchCount(patchType)
	return mcp.NewToolResultText(fmt.Sprintf("Tested %d %s patches.", count, patchType)), nil
}

func (s *Server) lastError(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var lines []string
	if err := s.controller.LastError(); err != nil {
		lines = append(lines, "controller: "+err.Error())
	}
	if s.device != nil {
		if err := s.device.LastError(); err != nil {
			lines = append(lines, "device: "+err.Error())
		}
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("No errors recorded."), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}
