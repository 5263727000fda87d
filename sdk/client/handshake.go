package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leandrodaf/sysex/sdk/contracts"
)

// ErrPortNotFound is returned when no enumerated port name contains the
// requested substring.
var ErrPortNotFound = errors.New("no matching port name")

// ConnectToDevice binds the client's outbound and inbound channels to the
// device whose advertised port names contain the given substrings. The
// outbound leg runs first; if it finds no match the inbound leg is not
// attempted, since a client that cannot send has no use for a bound input.
// If the inbound leg fails after the outbound leg succeeded, the client
// re-advertises its own virtual endpoints so it stays usable standalone.
// Success requires both legs.
func (c *Client) ConnectToDevice(deviceInSubstr, deviceOutSubstr string) error {
	if err := c.bindOutbound(deviceInSubstr); err != nil {
		c.metrics.HandshakeFailures.Inc()
		return err
	}
	if err := c.bindInbound(deviceOutSubstr); err != nil {
		c.metrics.HandshakeFailures.Inc()
		c.openOwnPorts()
		return err
	}
	c.logger.Info("Connected to device",
		c.logger.Field().String("in", deviceInSubstr),
		c.logger.Field().String("out", deviceOutSubstr))
	return nil
}

// bindOutbound connects the client's output to the device's input port.
// First substring match in enumeration order wins.
func (c *Client) bindOutbound(substr string) error {
	names, err := c.transport.Ports(contracts.PortOut)
	if err != nil {
		return fmt.Errorf("enumerating output ports: %w", err)
	}

	for i, name := range names {
		if !strings.Contains(name, substr) {
			continue
		}
		if err := c.transport.ClosePort(contracts.PortOut); err != nil {
			c.logger.Warn("Error closing virtual output port", c.logger.Field().Error("error", err))
		}
		if err := c.transport.OpenPort(contracts.PortOut, i); err != nil {
			c.logger.Error("Error connecting output port",
				c.logger.Field().String("name", name),
				c.logger.Field().Error("error", err))
			continue
		}
		c.logger.Info("Output connected to device input port", c.logger.Field().String("name", name))
		return nil
	}
	return fmt.Errorf("%w: outbound leg %q, available %v", ErrPortNotFound, substr, names)
}

// bindInbound connects the client's input to the device's output port and
// re-installs the inbox callback, which does not survive the port re-open.
func (c *Client) bindInbound(substr string) error {
	names, err := c.transport.Ports(contracts.PortIn)
	if err != nil {
		return fmt.Errorf("enumerating input ports: %w", err)
	}

	for i, name := range names {
		if !strings.Contains(name, substr) {
			continue
		}
		if err := c.transport.ClosePort(contracts.PortIn); err != nil {
			c.logger.Warn("Error closing virtual input port", c.logger.Field().Error("error", err))
		}
		if err := c.transport.OpenPort(contracts.PortIn, i); err != nil {
			c.logger.Error("Error connecting input port",
				c.logger.Field().String("name", name),
				c.logger.Field().Error("error", err))
			continue
		}
		c.transport.SetReceiveCallback(c.onMessage)
		c.logger.Info("Input connected to device output port", c.logger.Field().String("name", name))
		return nil
	}
	return fmt.Errorf("%w: inbound leg %q, available %v", ErrPortNotFound, substr, names)
}
