//go:build darwin
// +build darwin

// Package coremidi implements the Transport contract on macOS CoreMIDI.
package coremidi

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leandrodaf/sysex/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// Error definitions for CoreMIDI port handling.
var (
	ErrNoPorts         = errors.New("no MIDI ports found")
	ErrInvalidPort     = errors.New("invalid MIDI port index")
	ErrPortBusy        = errors.New("port already open in this direction")
	ErrPortClosed      = errors.New("no open port in this direction")
	ErrCreateInputPort = errors.New("error creating input port")
	ErrConnect         = errors.New("error connecting to MIDI port")
)

// internalPortConnection is an interface for handling disconnection from a MIDI port.
type internalPortConnection interface {
	Disconnect()
}

// Transport manages SysEx byte I/O over CoreMIDI. One input and one output
// port at a time, real or virtual.
type Transport struct {
	logger contracts.Logger
	client coremidi.Client
	cb     atomic.Value // contracts.ReceiveCallback

	mu         sync.Mutex
	inputPort  coremidi.InputPort
	portConn   internalPortConnection
	virtualIn  *coremidi.Destination
	outputPort coremidi.OutputPort
	dest       *coremidi.Destination
	virtualOut *coremidi.Source
	lastRecv   time.Time
}

// New creates a CoreMIDI-backed transport registered under clientName.
func New(logger contracts.Logger, clientName string) (contracts.Transport, error) {
	client, err := coremidi.NewClient(clientName)
	if err != nil {
		return nil, err
	}
	logger.Info("CoreMIDI transport created")

	return &Transport{
		logger: logger,
		client: client,
	}, nil
}

// Ports enumerates CoreMIDI sources (PortIn) or destinations (PortOut).
func (t *Transport) Ports(dir contracts.PortDirection) ([]string, error) {
	if dir == contracts.PortIn {
		sources, err := coremidi.AllSources()
		if err != nil {
			return nil, fmt.Errorf("error listing MIDI sources: %w", err)
		}
		names := make([]string, len(sources))
		for i, source := range sources {
			names[i] = source.Name()
		}
		return names, nil
	}

	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI destinations: %w", err)
	}
	names := make([]string, len(destinations))
	for i, destination := range destinations {
		names[i] = destination.Name()
	}
	return names, nil
}

// OpenPort connects to the source or destination at the given index.
func (t *Transport) OpenPort(dir contracts.PortDirection, index int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.openLocked(dir) {
		return ErrPortBusy
	}

	if dir == contracts.PortIn {
		sources, err := coremidi.AllSources()
		if err != nil {
			return fmt.Errorf("error retrieving MIDI sources: %w", err)
		}
		if index < 0 || index >= len(sources) {
			t.logger.Error(ErrInvalidPort.Error())
			return ErrInvalidPort
		}
		source := sources[index]

		t.inputPort, err = coremidi.NewInputPort(t.client, "Input Port",
			func(_ coremidi.Source, packet coremidi.Packet) { t.handlePacket(packet) })
		if err != nil {
			t.logger.Error(ErrCreateInputPort.Error())
			return fmt.Errorf("%w: %v", ErrCreateInputPort, err)
		}
		t.portConn, err = t.inputPort.Connect(source)
		if err != nil {
			t.logger.Error(ErrConnect.Error())
			return fmt.Errorf("%w: %v", ErrConnect, err)
		}
		t.logger.Info("MIDI input connected",
			t.logger.Field().Int("index", index),
			t.logger.Field().String("name", source.Name()))
		return nil
	}

	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI destinations: %w", err)
	}
	if index < 0 || index >= len(destinations) {
		t.logger.Error(ErrInvalidPort.Error())
		return ErrInvalidPort
	}
	outputPort, err := coremidi.NewOutputPort(t.client, "Output Port")
	if err != nil {
		return fmt.Errorf("error creating output port: %w", err)
	}
	t.outputPort = outputPort
	destination := destinations[index]
	t.dest = &destination
	t.logger.Info("MIDI output connected",
		t.logger.Field().Int("index", index),
		t.logger.Field().String("name", destination.Name()))
	return nil
}

// OpenVirtualPort advertises a virtual endpoint under the given name.
func (t *Transport) OpenVirtualPort(dir contracts.PortDirection, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.openLocked(dir) {
		return ErrPortBusy
	}

	if dir == contracts.PortIn {
		destination, err := coremidi.NewDestination(t.client, name, t.handlePacket)
		if err != nil {
			return fmt.Errorf("error creating virtual destination %q: %w", name, err)
		}
		t.virtualIn = &destination
		t.logger.Info("virtual MIDI input advertised", t.logger.Field().String("name", name))
		return nil
	}

	source, err := coremidi.NewSource(t.client, name)
	if err != nil {
		return fmt.Errorf("error creating virtual source %q: %w", name, err)
	}
	t.virtualOut = &source
	t.logger.Info("virtual MIDI output advertised", t.logger.Field().String("name", name))
	return nil
}

// ClosePort closes whichever port is open in the given direction. Closing
// the input side drops the receive callback; callers re-register after the
// next open, matching the contract.
func (t *Transport) ClosePort(dir contracts.PortDirection) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closePortLocked(dir)
	return nil
}

func (t *Transport) closePortLocked(dir contracts.PortDirection) {
	if dir == contracts.PortIn {
		if t.portConn != nil {
			t.portConn.Disconnect()
			t.portConn = nil
		}
		if t.virtualIn != nil {
			t.virtualIn.Dispose()
			t.virtualIn = nil
		}
		t.cb.Store(contracts.ReceiveCallback(nil))
		return
	}
	// CoreMIDI source endpoints outlive the binding: go-coremidi exposes
	// Dispose only for destinations, so the virtual output is just dropped.
	t.virtualOut = nil
	t.dest = nil
}

// PortOpen reports whether a port is open in the given direction.
func (t *Transport) PortOpen(dir contracts.PortDirection) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.openLocked(dir)
}

func (t *Transport) openLocked(dir contracts.PortDirection) bool {
	if dir == contracts.PortIn {
		return t.portConn != nil || t.virtualIn != nil
	}
	return t.dest != nil || t.virtualOut != nil
}

// SetReceiveCallback registers the inbound delivery callback.
func (t *Transport) SetReceiveCallback(cb contracts.ReceiveCallback) {
	t.cb.Store(cb)
}

// Send writes one message to the connected destination or emits it from the
// advertised virtual source.
func (t *Transport) Send(message []byte) error {
	t.mu.Lock()
	dest, virtualOut := t.dest, t.virtualOut
	outputPort := t.outputPort
	t.mu.Unlock()

	packet := coremidi.NewPacket(message, 0)
	switch {
	case dest != nil:
		if err := packet.Send(&outputPort, dest); err != nil {
			return fmt.Errorf("error sending MIDI message: %w", err)
		}
	case virtualOut != nil:
		if err := packet.Received(virtualOut); err != nil {
			return fmt.Errorf("error emitting MIDI message: %w", err)
		}
	default:
		return ErrPortClosed
	}
	return nil
}

// handlePacket forwards inbound CoreMIDI packets to the registered callback.
// It serves both the input-port read proc and the virtual destination's.
func (t *Transport) handlePacket(packet coremidi.Packet) {
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

	cb(append([]byte(nil), packet.Data...), delta)
}

// Close releases both ports.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closePortLocked(contracts.PortIn)
	t.closePortLocked(contracts.PortOut)
	t.logger.Info("CoreMIDI transport closed")
	return nil
}
