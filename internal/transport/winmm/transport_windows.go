//go:build windows
// +build windows

// Package winmm implements the Transport contract on the Windows multimedia
// MIDI API. winmm has no virtual port facility, so OpenVirtualPort reports
// ErrVirtualPortsUnsupported and callers fall back to real ports.
package winmm

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/leandrodaf/sysex/sdk/contracts"
	"golang.org/x/sys/windows"
)

// Handle types for MIDI devices.
type (
	HMIDIIN  windows.Handle
	HMIDIOUT windows.Handle
)

// Constants for callback flags.
const (
	CALLBACK_FUNCTION = 0x00030000 // Indicates that the callback is a function
	MIDI_IO_STATUS    = 0x00000020 // MIDI input/output status
)

// Constants for MIDI input callback messages.
const (
	MIM_OPEN      = 0x3C1 // MIDI device opened
	MIM_CLOSE     = 0x3C2 // MIDI device closed
	MIM_DATA      = 0x3C3 // MIDI data received
	MIM_LONGDATA  = 0x3C4 // SysEx buffer filled
	MIM_ERROR     = 0x3C5 // MIDI error
	MIM_LONGERROR = 0x3C6 // Long MIDI error
	MIM_MOREDATA  = 0x3CC // More MIDI data available
)

const sysexBufferSize = 1024

// Error definitions for winmm port handling.
var (
	ErrNoPorts                 = errors.New("no MIDI ports found")
	ErrInvalidPort             = errors.New("invalid MIDI port index")
	ErrPortBusy                = errors.New("port already open in this direction")
	ErrPortClosed              = errors.New("no open port in this direction")
	ErrVirtualPortsUnsupported = errors.New("winmm does not support virtual MIDI ports")
)

// midiInCaps mirrors MIDIINCAPSW.
type midiInCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	dwSupport      uint32
}

// midiOutCaps mirrors MIDIOUTCAPSW.
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

// midiHdr mirrors MIDIHDR, used for SysEx buffers in both directions.
type midiHdr struct {
	lpData          uintptr
	dwBufferLength  uint32
	dwBytesRecorded uint32
	dwUser          uintptr
	dwFlags         uint32
	lpNext          uintptr
	reserved        uintptr
	dwOffset        uint32
	dwReserved      [8]uintptr
}

// Load the winmm.dll library and required functions.
var (
	winmm                     = windows.NewLazySystemDLL("winmm.dll")
	procMidiInGetNumDevs      = winmm.NewProc("midiInGetNumDevs")
	procMidiInGetDevCaps      = winmm.NewProc("midiInGetDevCapsW")
	procMidiInOpen            = winmm.NewProc("midiInOpen")
	procMidiInStart           = winmm.NewProc("midiInStart")
	procMidiInStop            = winmm.NewProc("midiInStop")
	procMidiInReset           = winmm.NewProc("midiInReset")
	procMidiInClose           = winmm.NewProc("midiInClose")
	procMidiInPrepareHeader   = winmm.NewProc("midiInPrepareHeader")
	procMidiInUnprepareHeader = winmm.NewProc("midiInUnprepareHeader")
	procMidiInAddBuffer       = winmm.NewProc("midiInAddBuffer")

	procMidiOutGetNumDevs      = winmm.NewProc("midiOutGetNumDevs")
	procMidiOutGetDevCaps      = winmm.NewProc("midiOutGetDevCapsW")
	procMidiOutOpen            = winmm.NewProc("midiOutOpen")
	procMidiOutClose           = winmm.NewProc("midiOutClose")
	procMidiOutShortMsg        = winmm.NewProc("midiOutShortMsg")
	procMidiOutLongMsg         = winmm.NewProc("midiOutLongMsg")
	procMidiOutPrepareHeader   = winmm.NewProc("midiOutPrepareHeader")
	procMidiOutUnprepareHeader = winmm.NewProc("midiOutUnprepareHeader")
)

// Transport manages SysEx byte I/O over winmm.
type Transport struct {
	logger contracts.Logger
	cb     atomic.Value // contracts.ReceiveCallback

	mu        sync.Mutex
	inHandle  HMIDIIN
	outHandle HMIDIOUT
	inOpen    bool
	outOpen   bool
	callback  uintptr
	inHdr     *midiHdr
	inBuf     []byte
	lastRecv  time.Time
}

// New creates a winmm-backed transport. clientName is accepted for parity
// with other backends; winmm has no client registration.
func New(logger contracts.Logger, clientName string) (contracts.Transport, error) {
	logger.Info("winmm transport created")
	return &Transport{logger: logger}, nil
}

// Ports enumerates input (PortIn) or output (PortOut) device names.
func (t *Transport) Ports(dir contracts.PortDirection) ([]string, error) {
	if dir == contracts.PortIn {
		r0, _, _ := procMidiInGetNumDevs.Call()
		numDevices := uint32(r0)
		names := make([]string, 0, numDevices)
		for i := uint32(0); i < numDevices; i++ {
			var caps midiInCaps
			r1, _, _ := procMidiInGetDevCaps.Call(
				uintptr(i),
				uintptr(unsafe.Pointer(&caps)),
				unsafe.Sizeof(caps),
			)
			if r1 != 0 {
				t.logger.Warn(fmt.Sprintf("Failed to get information for MIDI input %d", i))
				names = append(names, "")
				continue
			}
			names = append(names, windows.UTF16ToString(caps.szPname[:]))
		}
		return names, nil
	}

	r0, _, _ := procMidiOutGetNumDevs.Call()
	numDevices := uint32(r0)
	names := make([]string, 0, numDevices)
	for i := uint32(0); i < numDevices; i++ {
		var caps midiOutCaps
		r1, _, _ := procMidiOutGetDevCaps.Call(
			uintptr(i),
			uintptr(unsafe.Pointer(&caps)),
			unsafe.Sizeof(caps),
		)
		if r1 != 0 {
			t.logger.Warn(fmt.Sprintf("Failed to get information for MIDI output %d", i))
			names = append(names, "")
			continue
		}
		names = append(names, windows.UTF16ToString(caps.szPname[:]))
	}
	return names, nil
}

// OpenPort opens the device at the given index.
func (t *Transport) OpenPort(dir contracts.PortDirection, index int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if dir == contracts.PortIn {
		if t.inOpen {
			return ErrPortBusy
		}
		t.callback = windows.NewCallback(midiInCallback)
		fdwOpen := CALLBACK_FUNCTION | MIDI_IO_STATUS

		r1, _, err := procMidiInOpen.Call(
			uintptr(unsafe.Pointer(&t.inHandle)),
			uintptr(index),
			t.callback,
			uintptr(unsafe.Pointer(t)),
			uintptr(fdwOpen),
		)
		if r1 != 0 {
			t.logger.Error(fmt.Sprintf("Failed to open MIDI input %d: %v", index, err))
			return fmt.Errorf("failed to open MIDI input %d: %v", index, err)
		}

		if err := t.queueSysexBuffer(); err != nil {
			procMidiInClose.Call(uintptr(t.inHandle))
			t.inHandle = 0
			return err
		}

		r1, _, err = procMidiInStart.Call(uintptr(t.inHandle))
		if r1 != 0 {
			t.logger.Error(fmt.Sprintf("Failed to start MIDI input: %v", err))
			procMidiInClose.Call(uintptr(t.inHandle))
			t.inHandle = 0
			return fmt.Errorf("failed to start MIDI input: %v", err)
		}

		t.inOpen = true
		t.logger.Info(fmt.Sprintf("MIDI input %d connected", index))
		return nil
	}

	if t.outOpen {
		return ErrPortBusy
	}
	r1, _, err := procMidiOutOpen.Call(
		uintptr(unsafe.Pointer(&t.outHandle)),
		uintptr(index),
		0, 0, 0,
	)
	if r1 != 0 {
		t.logger.Error(fmt.Sprintf("Failed to open MIDI output %d: %v", index, err))
		return fmt.Errorf("failed to open MIDI output %d: %v", index, err)
	}
	t.outOpen = true
	t.logger.Info(fmt.Sprintf("MIDI output %d connected", index))
	return nil
}

// queueSysexBuffer prepares and queues the long-message buffer for SysEx input.
func (t *Transport) queueSysexBuffer() error {
	t.inBuf = make([]byte, sysexBufferSize)
	t.inHdr = &midiHdr{
		lpData:         uintptr(unsafe.Pointer(&t.inBuf[0])),
		dwBufferLength: sysexBufferSize,
	}

	r1, _, err := procMidiInPrepareHeader.Call(
		uintptr(t.inHandle),
		uintptr(unsafe.Pointer(t.inHdr)),
		unsafe.Sizeof(*t.inHdr),
	)
	if r1 != 0 {
		return fmt.Errorf("failed to prepare SysEx buffer: %v", err)
	}
	r1, _, err = procMidiInAddBuffer.Call(
		uintptr(t.inHandle),
		uintptr(unsafe.Pointer(t.inHdr)),
		unsafe.Sizeof(*t.inHdr),
	)
	if r1 != 0 {
		return fmt.Errorf("failed to queue SysEx buffer: %v", err)
	}
	return nil
}

// OpenVirtualPort is not supported by winmm.
func (t *Transport) OpenVirtualPort(dir contracts.PortDirection, name string) error {
	t.logger.Warn("virtual MIDI ports are not supported by winmm",
		t.logger.Field().String("name", name))
	return ErrVirtualPortsUnsupported
}

// ClosePort closes whichever port is open in the given direction. Closing
// the input side drops the receive callback.
func (t *Transport) ClosePort(dir contracts.PortDirection) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closePortLocked(dir)
}

func (t *Transport) closePortLocked(dir contracts.PortDirection) error {
	if dir == contracts.PortIn {
		if !t.inOpen {
			return nil
		}
		procMidiInStop.Call(uintptr(t.inHandle))
		procMidiInReset.Call(uintptr(t.inHandle))
		if t.inHdr != nil {
			procMidiInUnprepareHeader.Call(
				uintptr(t.inHandle),
				uintptr(unsafe.Pointer(t.inHdr)),
				unsafe.Sizeof(*t.inHdr),
			)
			t.inHdr = nil
		}
		r1, _, err := procMidiInClose.Call(uintptr(t.inHandle))
		if r1 != 0 {
			t.logger.Error(fmt.Sprintf("Failed to close MIDI input: %v", err))
			return err
		}
		t.inOpen = false
		t.inHandle = 0
		t.cb.Store(contracts.ReceiveCallback(nil))
		return nil
	}

	if !t.outOpen {
		return nil
	}
	r1, _, err := procMidiOutClose.Call(uintptr(t.outHandle))
	if r1 != 0 {
		t.logger.Error(fmt.Sprintf("Failed to close MIDI output: %v", err))
		return err
	}
	t.outOpen = false
	t.outHandle = 0
	return nil
}

// PortOpen reports whether a port is open in the given direction.
func (t *Transport) PortOpen(dir contracts.PortDirection) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if dir == contracts.PortIn {
		return t.inOpen
	}
	return t.outOpen
}

// SetReceiveCallback registers the inbound delivery callback.
func (t *Transport) SetReceiveCallback(cb contracts.ReceiveCallback) {
	t.cb.Store(cb)
}

// Send writes one message: short messages via midiOutShortMsg, SysEx via a
// prepared long-message header.
func (t *Transport) Send(message []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.outOpen {
		return ErrPortClosed
	}

	if len(message) <= 3 && (len(message) == 0 || message[0] != 0xF0) {
		var dword uint32
		for i := len(message) - 1; i >= 0; i-- {
			dword = dword<<8 | uint32(message[i])
		}
		r1, _, err := procMidiOutShortMsg.Call(uintptr(t.outHandle), uintptr(dword))
		if r1 != 0 {
			return fmt.Errorf("failed to send MIDI message: %v", err)
		}
		return nil
	}

	buf := append([]byte(nil), message...)
	hdr := &midiHdr{
		lpData:          uintptr(unsafe.Pointer(&buf[0])),
		dwBufferLength:  uint32(len(buf)),
		dwBytesRecorded: uint32(len(buf)),
	}
	r1, _, err := procMidiOutPrepareHeader.Call(
		uintptr(t.outHandle),
		uintptr(unsafe.Pointer(hdr)),
		unsafe.Sizeof(*hdr),
	)
	if r1 != 0 {
		return fmt.Errorf("failed to prepare SysEx message: %v", err)
	}
	defer procMidiOutUnprepareHeader.Call(
		uintptr(t.outHandle),
		uintptr(unsafe.Pointer(hdr)),
		unsafe.Sizeof(*hdr),
	)

	r1, _, err = procMidiOutLongMsg.Call(
		uintptr(t.outHandle),
		uintptr(unsafe.Pointer(hdr)),
		unsafe.Sizeof(*hdr),
	)
	if r1 != 0 {
		return fmt.Errorf("failed to send SysEx message: %v", err)
	}
	return nil
}

// deliver forwards one inbound message to the registered callback.
func (t *Transport) deliver(message []byte) {
	cb, _ := t.cb.Load().(contracts.ReceiveCallback)
	if cb == nil {
		return
	}

	t.mu.Lock()
	now := time.Now()
	var delta time.Duration
	if !t.lastRecv.IsZero() {
		delta = now.Sub(t.lastRecv)
	}
	t.lastRecv = now
	t.mu.Unlock()

	cb(message, delta)
}

// midiInCallback processes incoming MIDI messages.
func midiInCallback(hMidiIn uintptr, wMsg uint32, dwInstance uintptr, dwParam1 uintptr, dwParam2 uintptr) uintptr {
	t := (*Transport)(unsafe.Pointer(dwInstance))

	switch wMsg {
	case MIM_OPEN:
		t.logger.Info("MIDI device opened")
	case MIM_CLOSE:
		t.logger.Info("MIDI device closed")
	case MIM_DATA:
		status := byte(dwParam1 & 0xFF)
		data1 := byte((dwParam1 >> 8) & 0xFF)
		data2 := byte((dwParam1 >> 16) & 0xFF)
		t.deliver([]byte{status, data1, data2})
	case MIM_LONGDATA:
		hdr := (*midiHdr)(unsafe.Pointer(dwParam1))
		if hdr.dwBytesRecorded > 0 {
			data := unsafe.Slice((*byte)(unsafe.Pointer(hdr.lpData)), hdr.dwBytesRecorded)
			t.deliver(append([]byte(nil), data...))
		}
		// Re-queue the buffer so the next SysEx message has somewhere to land.
		procMidiInAddBuffer.Call(hMidiIn, dwParam1, unsafe.Sizeof(*hdr))
	case MIM_ERROR, MIM_LONGERROR:
		t.logger.Error(fmt.Sprintf("MIDI error: msg=0x%X", wMsg))
	case MIM_MOREDATA:
		t.logger.Debug("Received MIM_MOREDATA message; ignored")
	default:
		t.logger.Warn(fmt.Sprintf("Unknown MIDI message: 0x%X", wMsg))
	}

	return 0
}

// Close releases both ports.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	inErr := t.closePortLocked(contracts.PortIn)
	outErr := t.closePortLocked(contracts.PortOut)
	if inErr != nil {
		return inErr
	}
	return outErr
}
