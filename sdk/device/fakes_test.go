package device

import (
	"errors"
	"sync"
	"time"

	"github.com/leandrodaf/sysex/sdk/contracts"
)

// nopLogger keeps test output quiet.
type nopLogger struct{}

func (nopLogger) Info(string, ...contracts.Field)  {}
func (nopLogger) Error(string, ...contracts.Field) {}
func (nopLogger) Debug(string, ...contracts.Field) {}
func (nopLogger) Warn(string, ...contracts.Field)  {}
func (nopLogger) Fatal(string, ...contracts.Field) {}
func (nopLogger) Field() contracts.Field           { return nopField{} }
func (nopLogger) SetLevel(contracts.LogLevel)      {}

type nopField struct{}

func (nopField) Bool(string, bool) contracts.Field       { return nopField{} }
func (nopField) Int(string, int) contracts.Field         { return nopField{} }
func (nopField) Float64(string, float64) contracts.Field { return nopField{} }
func (nopField) String(string, string) contracts.Field   { return nopField{} }
func (nopField) Time(string, time.Time) contracts.Field  { return nopField{} }
func (nopField) Int64(string, int64) contracts.Field     { return nopField{} }
func (nopField) Error(string, error) contracts.Field     { return nopField{} }
func (nopField) Uint64(string, uint64) contracts.Field   { return nopField{} }
func (nopField) Uint8(string, uint8) contracts.Field     { return nopField{} }

// memLog is an in-memory ActionLogger.
type memLog struct {
	mu      sync.Mutex
	records []string
	failErr error
}

func (l *memLog) Append(text string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failErr != nil {
		return l.failErr
	}
	l.records = append(l.records, text)
	return nil
}

func (l *memLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.records...)
}

// fakeTransport records sends and port operations for dispatcher and port
// setup tests.
type fakeTransport struct {
	mu sync.Mutex

	inPorts  []string
	outPorts []string

	sent            [][]byte
	cb              contracts.ReceiveCallback
	virtualNames    []string
	openedIn        []int
	openedOut       []int
	inOpen, outOpen bool

	failVirtual bool
	failSend    bool
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
	if f.failVirtual {
		return errors.New("scripted virtual port failure")
	}
	f.virtualNames = append(f.virtualNames, name)
	if dir == contracts.PortIn {
		f.inOpen = true
	} else {
		f.outOpen = true
	}
	return nil
}

func (f *fakeTransport) ClosePort(dir contracts.PortDirection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if dir == contracts.PortIn {
		f.inOpen = false
		f.cb = nil
	} else {
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
	f.cb = cb
	f.mu.Unlock()
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inOpen = false
	f.outOpen = false
	f.cb = nil
	return nil
}

func (f *fakeTransport) sentMessages() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.sent))
	copy(out, f.sent)
	return out
}
