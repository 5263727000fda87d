// Package client implements the controller side of the SysEx protocol:
// virtual port setup, command sending, the connection handshake and the
// response inbox.
package client

import (
	"errors"
	"time"

	"github.com/leandrodaf/sysex/internal/logger"
	"github.com/leandrodaf/sysex/internal/metrics"
	"github.com/leandrodaf/sysex/internal/transport"
	"github.com/leandrodaf/sysex/sdk/contracts"
	"github.com/leandrodaf/sysex/sdk/sysex"
)

// DefaultPortName is the base name for the client's virtual ports.
const DefaultPortName = "Go SysEx Client"

// ErrOutputClosed is returned when sending without an open output port.
var ErrOutputClosed = errors.New("output port not open")

// Client is the controller peer. It advertises its own virtual endpoints
// until ConnectToDevice binds it to a device's ports, sends commands, and
// collects inbound frames in its inbox.
type Client struct {
	logger    contracts.Logger
	transport contracts.Transport
	portName  string
	inbox     *Inbox
	metrics   *metrics.Collector
}

// applyDefaultOptions sets default values for ClientOptions if not
// explicitly provided.
func applyDefaultOptions(opts ...contracts.Option) (contracts.ClientOptions, error) {
	options := &contracts.ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.LogLevel == 0 {
		options.LogLevel = contracts.InfoLevel
	}
	if options.PortName == "" {
		options.PortName = DefaultPortName
	}
	options.Logger.SetLevel(options.LogLevel)

	if options.Transport == nil {
		t, err := transport.New(options.Logger, options.PortName)
		if err != nil {
			return contracts.ClientOptions{}, err
		}
		options.Transport = t
	}
	return *options, nil
}

// New creates a client and advertises its virtual ports.
func New(opts ...contracts.Option) (*Client, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	c := &Client{
		logger:    options.Logger,
		transport: options.Transport,
		portName:  options.PortName,
		inbox:     &Inbox{},
		metrics:   metrics.New(options.Registry),
	}
	c.openOwnPorts()
	return c, nil
}

// openOwnPorts advertises the client's virtual endpoints and installs the
// inbox callback. Failures are logged and the client stays usable for
// whichever side did open; it also serves as the handshake's recovery path.
func (c *Client) openOwnPorts() {
	if !c.transport.PortOpen(contracts.PortIn) {
		if err := c.transport.OpenVirtualPort(contracts.PortIn, c.portName+" In"); err != nil {
			c.logger.Error("Error opening virtual input port", c.logger.Field().Error("error", err))
		}
	}
	if !c.transport.PortOpen(contracts.PortOut) {
		if err := c.transport.OpenVirtualPort(contracts.PortOut, c.portName+" Out"); err != nil {
			c.logger.Error("Error opening virtual output port", c.logger.Field().Error("error", err))
		}
	}

	if c.transport.PortOpen(contracts.PortIn) {
		c.transport.SetReceiveCallback(c.onMessage)
	} else {
		c.logger.Warn("Input port not open; cannot set receive callback")
	}
}

// onMessage is the transport delivery callback; it only buffers.
func (c *Client) onMessage(message []byte, delta time.Duration) {
	c.logger.Debug("Raw MIDI received",
		c.logger.Field().Int("bytes", len(message)),
		c.logger.Field().Int64("delta_us", delta.Microseconds()))
	c.inbox.Push(message)
}

// Send writes one raw message over the outbound binding.
func (c *Client) Send(message []byte) error {
	if !c.transport.PortOpen(contracts.PortOut) {
		c.logger.Warn("Output port not open; cannot send message")
		return ErrOutputClosed
	}
	if err := c.transport.Send(message); err != nil {
		c.logger.Error("Error sending MIDI message", c.logger.Field().Error("error", err))
		return err
	}
	c.logger.Debug("MIDI sent", c.logger.Field().Int("bytes", len(message)))
	return nil
}

// SendIdentityRequest sends the all-call identity request.
func (c *Client) SendIdentityRequest() error {
	return c.Send(sysex.IdentityRequest{}.Encode())
}

// SendSetParameter asks the target device to set a parameter.
func (c *Client) SendSetParameter(paramID, value byte) error {
	return c.Send(sysex.EncodeCommand(sysex.DeviceID, sysex.SetParameter{ParamID: paramID, Value: value}))
}

// SendGetParameter asks the target device for a parameter's value.
func (c *Client) SendGetParameter(paramID byte) error {
	return c.Send(sysex.EncodeCommand(sysex.DeviceID, sysex.GetParameter{ParamID: paramID}))
}

// SendTriggerAction asks the target device to run an action.
func (c *Client) SendTriggerAction(actionID byte) error {
	return c.Send(sysex.EncodeCommand(sysex.DeviceID, sysex.TriggerAction{ActionID: actionID}))
}

// Ports enumerates the transport's visible port names in the given direction.
func (c *Client) Ports(dir contracts.PortDirection) ([]string, error) {
	return c.transport.Ports(dir)
}

// Pop returns the oldest buffered inbound frame, waiting up to timeout.
// Returns nil on timeout.
func (c *Client) Pop(timeout time.Duration) []byte {
	return c.inbox.Pop(timeout)
}

// ClearReceived discards all buffered inbound frames.
func (c *Client) ClearReceived() {
	c.inbox.Clear()
}

// Shutdown closes the client's ports and releases the transport.
func (c *Client) Shutdown() error {
	c.logger.Info("Client shutting down")
	if err := c.transport.Close(); err != nil {
		c.logger.Error("Error closing transport", c.logger.Field().Error("error", err))
		return err
	}
	return nil
}
