//go:build !darwin
// +build !darwin

package coremidi

import (
	"fmt"

	"github.com/leandrodaf/sysex/sdk/contracts"
)

type dummyTransport struct {
	logger contracts.Logger
}

// New initializes a dummy transport for non-macOS systems.
func New(logger contracts.Logger, clientName string) (contracts.Transport, error) {
	logger.Info("Using dummy CoreMIDI transport for non-macOS system")
	return &dummyTransport{logger: logger}, nil
}

func (t *dummyTransport) unavailable(op string) error {
	t.logger.Warn(op + " called on dummy CoreMIDI transport")
	return fmt.Errorf("CoreMIDI is not available on this platform")
}

func (t *dummyTransport) Ports(dir contracts.PortDirection) ([]string, error) {
	return nil, t.unavailable("Ports")
}

func (t *dummyTransport) OpenPort(dir contracts.PortDirection, index int) error {
	return t.unavailable("OpenPort")
}

func (t *dummyTransport) OpenVirtualPort(dir contracts.PortDirection, name string) error {
	return t.unavailable("OpenVirtualPort")
}

func (t *dummyTransport) ClosePort(dir contracts.PortDirection) error {
	return t.unavailable("ClosePort")
}

func (t *dummyTransport) PortOpen(dir contracts.PortDirection) bool {
	return false
}

func (t *dummyTransport) Send(message []byte) error {
	return t.unavailable("Send")
}

func (t *dummyTransport) SetReceiveCallback(cb contracts.ReceiveCallback) {
	t.logger.Warn("SetReceiveCallback called on dummy CoreMIDI transport")
}

func (t *dummyTransport) Close() error {
	return nil
}
