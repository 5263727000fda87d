package client

import (
	"errors"
	"sync"

	"github.com/leandrodaf/sysex/sdk/contracts"
)

// fakeTransport is a scripted Transport for handshake and send tests. Port
// enumerations are fixed; open/close/callback interactions are recorded.
type fakeTransport struct {
	mu sync.Mutex

	inPorts  []string
	outPorts []string

	sent [][]byte
	cb   contracts.ReceiveCallback

	virtualInNames  []string
	virtualOutNames []string
	openedIn        []int
	openedOut       []int
	closedIn        int
	closedOut       int
	cbInstalls      int

	inOpen  bool
	outOpen bool

	failOpenOut bool
	failSend    bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{}
}

func (f *fakeTransport) Ports(dir contracts.PortDirection) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if dir == contracts.PortIn {
		return f.inPorts, nil
	}
	return f.outPorts, nil
}

func (f *fakeTransport) OpenPort(dir contracts.PortDirection, index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if dir == contracts.PortOut && f.failOpenOut {
		return errors.New("scripted open failure")
	}
	if dir == contracts.PortIn {
		f.openedIn = append(f.openedIn, index)
		f.inOpen = true
	} else {
		f.openedOut = append(f.openedOut, index)
		f.outOpen = true
	}
	return nil
}

func (f *fakeTransport) OpenVirtualPort(dir contracts.PortDirection, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if dir == contracts.PortIn {
		f.virtualInNames = append(f.virtualInNames, name)
		f.inOpen = true
	} else {
		f.virtualOutNames = append(f.virtualOutNames, name)
		f.outOpen = true
	}
	return nil
}

func (f *fakeTransport) ClosePort(dir contracts.PortDirection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if dir == contracts.PortIn {
		f.closedIn++
		f.inOpen = false
		f.cb = nil
	} else {
		f.closedOut++
		f.outOpen = false
	}
	return nil
}

func (f *fakeTransport) PortOpen(dir contracts.PortDirection) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if dir == contracts.PortIn {
		return f.inOpen
	}
	return f.outOpen
}

func (f *fakeTransport) Send(message []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSend {
		return errors.New("scripted send failure")
	}
	f.sent = append(f.sent, append([]byte(nil), message...))
	return nil
}

func (f *fakeTransport) SetReceiveCallback(cb contracts.ReceiveCallback) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cb = cb
	f.cbInstalls++
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inOpen = false
	f.outOpen = false
	f.cb = nil
	return nil
}

// deliver simulates the transport's delivery thread.
func (f *fakeTransport) deliver(message []byte) {
	f.mu.Lock()
	cb := f.cb
	f.mu.Unlock()
	if cb != nil {
		cb(message, 0)
	}
}

func (f *fakeTransport) sentMessages() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.sent))
	copy(out, f.sent)
	return out
}
