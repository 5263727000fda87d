package contracts

import "time"

// PortDirection selects which side of a transport a port operation targets.
type PortDirection int

const (
	// PortIn addresses the receiving side of the transport.
	PortIn PortDirection = iota
	// PortOut addresses the sending side of the transport.
	PortOut
)

// String returns the direction name used in log entries.
func (d PortDirection) String() string {
	if d == PortIn {
		return "in"
	}
	return "out"
}

// ReceiveCallback is invoked from the transport's delivery context for every
// inbound message. delta is the time elapsed since the previous message on
// the same port. The callback must not retain message beyond the call.
type ReceiveCallback func(message []byte, delta time.Duration)

// Transport abstracts a MIDI byte transport. Implementations deliver whole,
// message-segmented byte buffers; no sub-message reassembly is expected from
// callers. A transport owns at most one open port per direction.
//
// Callback registration does not survive closing and re-opening the input
// port; callers must re-register after OpenPort.
type Transport interface {
	// Ports enumerates the advertised port names visible in the given
	// direction, in enumeration order.
	Ports(dir PortDirection) ([]string, error)
	// OpenPort opens the port at the given enumeration index.
	OpenPort(dir PortDirection, index int) error
	// OpenVirtualPort advertises a new endpoint under the given name.
	OpenVirtualPort(dir PortDirection, name string) error
	// ClosePort closes whichever port is open in the given direction.
	ClosePort(dir PortDirection) error
	// PortOpen reports whether a port is open in the given direction.
	PortOpen(dir PortDirection) bool
	// Send writes one message to the open output port.
	Send(message []byte) error
	// SetReceiveCallback registers the inbound delivery callback.
	SetReceiveCallback(cb ReceiveCallback)
	// Close releases both ports and any underlying resources.
	Close() error
}

// ActionLogger records device-side action observations, one record per call.
type ActionLogger interface {
	Append(text string) error
}
