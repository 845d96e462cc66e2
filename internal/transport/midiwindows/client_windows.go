//go:build windows
// +build windows

package midiwindows

import (
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/leandrodaf/synthctl/internal/transport"
	"github.com/leandrodaf/synthctl/sdk/contracts"
	"golang.org/x/sys/windows"
)

// Type definitions for MIDI handles
type (
	HMIDIIN  windows.Handle
	HMIDIOUT windows.Handle
)

// Constants for callback flags
const (
	CALLBACK_NULL     = 0x00000000 // No callback, used for output devices
	CALLBACK_FUNCTION = 0x00030000 // Indicates that the callback is a function
	MIDI_IO_STATUS    = 0x00000020 // MIDI input/output status
)

// Constants for MIDI message types
const (
	MIM_OPEN      = 0x3C1 // MIDI device opened
	MIM_CLOSE     = 0x3C2 // MIDI device closed
	MIM_DATA      = 0x3C3 // MIDI data received
	MIM_ERROR     = 0x3C5 // MIDI error
	MIM_LONGERROR = 0x3C6 // Long MIDI error
	MIM_MOREDATA  = 0x3CC // More MIDI data available
)

// Struct representing MIDI input device capabilities
type midiInCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	dwSupport      uint32
}

// Struct representing MIDI output device capabilities
type midiOutCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	wTechnology    uint16
	wVoices        uint16
	wNotes         uint16
	wChannelMask   uint16
	dwSupport      uint32
}

// ClientMid is a contracts.Transport backed by the WinMM MIDI API.
type ClientMid struct {
	logger   contracts.Logger
	mu       sync.Mutex
	out      HMIDIOUT
	outOpen  bool
	in       HMIDIIN
	inOpen   bool
	callback uintptr
	inbox    *transport.Inbox
}

// Load the winmm.dll library and required functions
var (
	winmm                 = windows.NewLazySystemDLL("winmm.dll")
	procMidiInGetNumDevs  = winmm.NewProc("midiInGetNumDevs")
	procMidiInGetDevCaps  = winmm.NewProc("midiInGetDevCapsW")
	procMidiInOpen        = winmm.NewProc("midiInOpen")
	procMidiInStart       = winmm.NewProc("midiInStart")
	procMidiInStop        = winmm.NewProc("midiInStop")
	procMidiInClose       = winmm.NewProc("midiInClose")
	procMidiOutGetNumDevs = winmm.NewProc("midiOutGetNumDevs")
	procMidiOutGetDevCaps = winmm.NewProc("midiOutGetDevCapsW")
	procMidiOutOpen       = winmm.NewProc("midiOutOpen")
	procMidiOutShortMsg   = winmm.NewProc("midiOutShortMsg")
	procMidiOutClose      = winmm.NewProc("midiOutClose")
)

// NewMIDIClient creates a WinMM transport.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.Transport, error) {
	if err := winmm.Load(); err != nil {
		return nil, fmt.Errorf("load winmm.dll: %w", err)
	}
	options.Logger.Info("MIDI client created for Windows")

	return &ClientMid{
		logger: options.Logger,
		inbox:  transport.NewInbox(options.InputBufferSize),
	}, nil
}

func (m *ClientMid) ListOutputPorts() ([]string, error) {
	r0, _, _ := procMidiOutGetNumDevs.Call()
	numDevices := uint32(r0)

	names := make([]string, numDevices)
	for i := uint32(0); i < numDevices; i++ {
		var caps midiOutCaps
		r1, _, _ := procMidiOutGetDevCaps.Call(
			uintptr(i),
			uintptr(unsafe.Pointer(&caps)),
			unsafe.Sizeof(caps),
		)
		if r1 != 0 {
			m.logger.Warn(fmt.Sprintf("Failed to get information for MIDI output %d", i))
			names[i] = fmt.Sprintf("MIDI Out %d", i)
			continue
		}
		names[i] = windows.UTF16ToString(caps.szPname[:])
	}
	return names, nil
}

func (m *ClientMid) ListInputPorts() ([]string, error) {
	r0, _, _ := procMidiInGetNumDevs.Call()
	numDevices := uint32(r0)

	names := make([]string, numDevices)
	for i := uint32(0); i < numDevices; i++ {
		var caps midiInCaps
		r1, _, _ := procMidiInGetDevCaps.Call(
			uintptr(i),
			uintptr(unsafe.Pointer(&caps)),
			unsafe.Sizeof(caps),
		)
		if r1 != 0 {
			m.logger.Warn(fmt.Sprintf("Failed to get information for MIDI input %d", i))
			names[i] = fmt.Sprintf("MIDI In %d", i)
			continue
		}
		names[i] = windows.UTF16ToString(caps.szPname[:])
	}
	return names, nil
}

func (m *ClientMid) OpenOutput(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outOpen {
		return transport.ErrOutputAlreadyOpen
	}
	r0, _, _ := procMidiOutGetNumDevs.Call()
	if err := transport.CheckIndex(index, int(r0)); err != nil {
		return fmt.Errorf("%w: output %d", err, index)
	}

	r1, _, err := procMidiOutOpen.Call(
		uintptr(unsafe.Pointer(&m.out)),
		uintptr(index),
		0,
		0,
		CALLBACK_NULL,
	)
	if r1 != 0 {
		return fmt.Errorf("failed to open MIDI output %d: %v", index, err)
	}
	m.outOpen = true
	m.logger.Info(fmt.Sprintf("MIDI output %d opened", index))
	return nil
}

func (m *ClientMid) OpenInput(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inOpen {
		return transport.ErrInputAlreadyOpen
	}
	r0, _, _ := procMidiInGetNumDevs.Call()
	if err := transport.CheckIndex(index, int(r0)); err != nil {
		return fmt.Errorf("%w: input %d", err, index)
	}

	if m.callback == 0 {
		m.callback = windows.NewCallback(midiInCallback)
	}
	m.inbox.Reset()

	r1, _, err := procMidiInOpen.Call(
		uintptr(unsafe.Pointer(&m.in)),
		uintptr(index),
		m.callback,
		uintptr(unsafe.Pointer(m)),
		uintptr(CALLBACK_FUNCTION|MIDI_IO_STATUS),
	)
	if r1 != 0 {
		return fmt.Errorf("failed to open MIDI input %d: %v", index, err)
	}

	r1, _, err = procMidiInStart.Call(uintptr(m.in))
	if r1 != 0 {
		procMidiInClose.Call(uintptr(m.in))
		m.in = 0
		return fmt.Errorf("failed to start MIDI input %d: %v", index, err)
	}

	m.inOpen = true
	m.logger.Info(fmt.Sprintf("MIDI input %d opened", index))
	return nil
}

// midiInCallback runs on a WinMM thread and only queues short messages.
func midiInCallback(hMidiIn uintptr, wMsg uint32, dwInstance uintptr, dwParam1 uintptr, dwParam2 uintptr) uintptr {
	m := (*ClientMid)(unsafe.Pointer(dwInstance))

	switch wMsg {
	case MIM_DATA:
		status := byte(dwParam1 & 0xFF)
		data1 := byte((dwParam1 >> 8) & 0xFF)
		data2 := byte((dwParam1 >> 16) & 0xFF)
		m.inbox.Push(trim([]byte{status, data1, data2}), time.Now())
	case MIM_ERROR, MIM_LONGERROR:
		m.logger.Error(fmt.Sprintf("MIDI error: msg=0x%X", wMsg))
	case MIM_OPEN, MIM_CLOSE, MIM_MOREDATA:
	default:
		m.logger.Warn(fmt.Sprintf("Unknown MIDI message: 0x%X", wMsg))
	}
	return 0
}

// trim cuts a short message to the length implied by its status byte.
func trim(msg []byte) []byte {
	return msg[:1+contracts.CommandOf(msg[0]).DataLength()]
}

func (m *ClientMid) CloseOutput() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.outOpen {
		return transport.ErrPortNotOpen
	}
	return m.closeOutput()
}

func (m *ClientMid) closeOutput() error {
	r1, _, err := procMidiOutClose.Call(uintptr(m.out))
	m.outOpen = false
	m.out = 0
	if r1 != 0 {
		return fmt.Errorf("failed to close MIDI output: %v", err)
	}
	return nil
}

func (m *ClientMid) CloseInput() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.inOpen {
		return transport.ErrPortNotOpen
	}
	return m.closeInput()
}

func (m *ClientMid) closeInput() error {
	procMidiInStop.Call(uintptr(m.in))
	r1, _, err := procMidiInClose.Call(uintptr(m.in))
	m.inOpen = false
	m.in = 0
	m.inbox.ReportDropped(m.logger)
	if r1 != 0 {
		return fmt.Errorf("failed to close MIDI input: %v", err)
	}
	return nil
}

// SendRaw packs a channel message into a WinMM short message.
func (m *ClientMid) SendRaw(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.outOpen {
		return transport.ErrPortNotOpen
	}
	if len(data) == 0 || len(data) > 3 {
		return fmt.Errorf("short message must be 1-3 bytes, got %d", len(data))
	}
	var packed uint32
	for i, b := range data {
		packed |= uint32(b) << (8 * i)
	}
	r1, _, err := procMidiOutShortMsg.Call(uintptr(m.out), uintptr(packed))
	if r1 != 0 {
		return fmt.Errorf("midiOutShortMsg failed: %v", err)
	}
	return nil
}

func (m *ClientMid) PollInput() ([]byte, time.Duration, bool) {
	m.mu.Lock()
	open := m.inOpen
	m.mu.Unlock()
	if !open {
		return nil, 0, false
	}
	return m.inbox.Pop()
}

// Close releases both handles if they are still open.
func (m *ClientMid) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inOpen {
		_ = m.closeInput()
	}
	if m.outOpen {
		return m.closeOutput()
	}
	return nil
}
