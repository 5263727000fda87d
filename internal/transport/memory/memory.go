// Package memory implements an in-process loopback transport. Virtual ports
// advertised by one transport are visible in every other transport's
// enumeration, so a client and a device sharing a Bus can run the full
// connection handshake without any OS MIDI service.
package memory

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/leandrodaf/sysex/sdk/contracts"
)

// Error definitions for loopback port operations.
var (
	ErrPortBusy    = errors.New("port already open in this direction")
	ErrPortClosed  = errors.New("no open port in this direction")
	ErrPortIndex   = errors.New("port index out of range")
	ErrBusDetached = errors.New("transport is closed")
)

// endpoint is a named attachment point on the bus. A destination receives
// what others send to it; a source fans out what its owner sends.
type endpoint struct {
	name  string
	owner *Transport
	subs  map[*Transport]struct{} // subscribers, sources only
}

// Bus is the shared registry of advertised endpoints.
type Bus struct {
	mu           sync.Mutex
	destinations []*endpoint // advertised input ports, send targets for others
	sources      []*endpoint // advertised output ports, subscribable by others
}

// NewBus creates an empty loopback bus.
func NewBus() *Bus {
	return &Bus{}
}

// NewTransport attaches a new transport to the bus.
func (b *Bus) NewTransport() *Transport {
	return &Transport{bus: b}
}

func (b *Bus) names(list []*endpoint) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.name
	}
	return out
}

func remove(list []*endpoint, e *endpoint) []*endpoint {
	for i, cur := range list {
		if cur == e {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

// Transport is one peer's view of the bus. It satisfies the Transport
// contract, including the rule that the receive callback does not survive
// closing the input port.
type Transport struct {
	bus *Bus

	mu         sync.Mutex
	closed     bool
	cb         contracts.ReceiveCallback
	virtualIn  *endpoint // destination advertised by us
	virtualOut *endpoint // source advertised by us
	boundOut   *endpoint // destination we send to
	boundIn    *endpoint // source we subscribed to
	lastRecv   time.Time
}

// Ports enumerates advertised endpoint names: destinations for PortOut
// (targets this transport could send to), sources for PortIn.
func (t *Transport) Ports(dir contracts.PortDirection) ([]string, error) {
	t.bus.mu.Lock()
	defer t.bus.mu.Unlock()
	if dir == contracts.PortOut {
		return t.bus.names(t.bus.destinations), nil
	}
	return t.bus.names(t.bus.sources), nil
}

// OpenVirtualPort advertises a new endpoint on the bus.
func (t *Transport) OpenVirtualPort(dir contracts.PortDirection, name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrBusDetached
	}
	if t.open(dir) {
		return ErrPortBusy
	}

	e := &endpoint{name: name, owner: t}
	t.bus.mu.Lock()
	if dir == contracts.PortIn {
		t.bus.destinations = append(t.bus.destinations, e)
		t.virtualIn = e
	} else {
		e.subs = make(map[*Transport]struct{})
		t.bus.sources = append(t.bus.sources, e)
		t.virtualOut = e
	}
	t.bus.mu.Unlock()
	return nil
}

// OpenPort binds to the advertised endpoint at the given enumeration index.
func (t *Transport) OpenPort(dir contracts.PortDirection, index int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrBusDetached
	}
	if t.open(dir) {
		return ErrPortBusy
	}

	t.bus.mu.Lock()
	defer t.bus.mu.Unlock()
	if dir == contracts.PortOut {
		if index < 0 || index >= len(t.bus.destinations) {
			return ErrPortIndex
		}
		t.boundOut = t.bus.destinations[index]
		return nil
	}
	if index < 0 || index >= len(t.bus.sources) {
		return ErrPortIndex
	}
	t.boundIn = t.bus.sources[index]
	t.boundIn.subs[t] = struct{}{}
	return nil
}

// ClosePort closes whichever port is open in the given direction. Closing
// the input port also drops the receive callback, as a real backend would.
func (t *Transport) ClosePort(dir contracts.PortDirection) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closePortLocked(dir)
	return nil
}

func (t *Transport) closePortLocked(dir contracts.PortDirection) {
	t.bus.mu.Lock()
	defer t.bus.mu.Unlock()
	if dir == contracts.PortIn {
		if t.virtualIn != nil {
			t.bus.destinations = remove(t.bus.destinations, t.virtualIn)
			t.virtualIn = nil
		}
		if t.boundIn != nil {
			delete(t.boundIn.subs, t)
			t.boundIn = nil
		}
		t.cb = nil
		return
	}
	if t.virtualOut != nil {
		t.bus.sources = remove(t.bus.sources, t.virtualOut)
		t.virtualOut = nil
	}
	t.boundOut = nil
}

// PortOpen reports whether a port is open in the given direction.
func (t *Transport) PortOpen(dir contracts.PortDirection) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.open(dir)
}

func (t *Transport) open(dir contracts.PortDirection) bool {
	if dir == contracts.PortIn {
		return t.virtualIn != nil || t.boundIn != nil
	}
	return t.virtualOut != nil || t.boundOut != nil
}

// SetReceiveCallback registers the inbound delivery callback.
func (t *Transport) SetReceiveCallback(cb contracts.ReceiveCallback) {
	t.mu.Lock()
	t.cb = cb
	t.mu.Unlock()
}

// Send delivers one message: to the bound destination's owner, or to every
// subscriber of this transport's advertised output. Delivery happens on a
// separate goroutine, mirroring a transport-owned delivery thread.
func (t *Transport) Send(message []byte) error {
	t.mu.Lock()
	boundOut, virtualOut := t.boundOut, t.virtualOut
	t.mu.Unlock()

	msg := append([]byte(nil), message...)
	switch {
	case boundOut != nil:
		go boundOut.owner.deliver(msg)
	case virtualOut != nil:
		t.bus.mu.Lock()
		targets := make([]*Transport, 0, len(virtualOut.subs))
		for sub := range virtualOut.subs {
			targets = append(targets, sub)
		}
		t.bus.mu.Unlock()
		for _, sub := range targets {
			go sub.deliver(msg)
		}
	default:
		return ErrPortClosed
	}
	return nil
}

func (t *Transport) deliver(message []byte) {
	t.mu.Lock()
	cb := t.cb
	now := time.Now()
	var delta time.Duration
	if !t.lastRecv.IsZero() {
		delta = now.Sub(t.lastRecv)
	}
	t.lastRecv = now
	t.mu.Unlock()

	if cb != nil {
		cb(message, delta)
	}
}

// Close detaches the transport from the bus.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closePortLocked(contracts.PortIn)
	t.closePortLocked(contracts.PortOut)
	t.closed = true
	return nil
}

// FindPort returns the index of the first advertised name containing substr,
// or -1. Test helper mirroring the handshake's substring match.
func (t *Transport) FindPort(dir contracts.PortDirection, substr string) int {
	names, _ := t.Ports(dir)
	for i, name := range names {
		if strings.Contains(name, substr) {
			return i
		}
	}
	return -1
}
