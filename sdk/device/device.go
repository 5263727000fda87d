// Package device implements the controlled peer of the SysEx protocol: port
// setup, the command dispatcher and the run loop.
package device

import (
	"context"
	"io"
	"time"

	"github.com/leandrodaf/sysex/internal/actionlog"
	"github.com/leandrodaf/sysex/internal/logger"
	"github.com/leandrodaf/sysex/internal/metrics"
	"github.com/leandrodaf/sysex/internal/transport"
	"github.com/leandrodaf/sysex/sdk/contracts"
)

// Defaults for a device built without explicit options.
const (
	DefaultPortName      = "Go SysEx Device"
	DefaultActionLogPath = "device_actions.log"
)

// Device is the controlled peer. It advertises its ports, dispatches inbound
// frames from the transport's delivery context, and runs until its context
// is cancelled.
type Device struct {
	logger     contracts.Logger
	transport  contracts.Transport
	portName   string
	dispatcher *Dispatcher
	actionLog  contracts.ActionLogger
}

// applyDefaultOptions sets default values for DeviceOptions if not
// explicitly provided.
func applyDefaultOptions(opts ...contracts.DeviceOption) (contracts.DeviceOptions, error) {
	options := &contracts.DeviceOptions{}
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
			return contracts.DeviceOptions{}, err
		}
		options.Transport = t
	}
	if options.ActionLog == nil {
		al, err := actionlog.New(DefaultActionLogPath)
		if err != nil {
			return contracts.DeviceOptions{}, err
		}
		options.ActionLog = al
	}
	return *options, nil
}

// New creates a device, advertises its ports and starts dispatching inbound
// frames.
func New(opts ...contracts.DeviceOption) (*Device, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	d := &Device{
		logger:    options.Logger,
		transport: options.Transport,
		portName:  options.PortName,
		actionLog: options.ActionLog,
	}
	d.dispatcher = NewDispatcher(options.Logger, options.Transport, options.ActionLog, metrics.New(options.Registry))
	d.setupPorts()
	return d, nil
}

// setupPorts advertises the device's virtual endpoints, falling back to the
// first available real port when virtual ports cannot be opened, and
// installs the dispatcher callback.
func (d *Device) setupPorts() {
	if err := d.transport.OpenVirtualPort(contracts.PortIn, d.portName+" In"); err != nil {
		d.logger.Error("Error opening virtual input port", d.logger.Field().Error("error", err))
		d.openFirstAvailable(contracts.PortIn)
	}
	if err := d.transport.OpenVirtualPort(contracts.PortOut, d.portName+" Out"); err != nil {
		d.logger.Error("Error opening virtual output port", d.logger.Field().Error("error", err))
		d.openFirstAvailable(contracts.PortOut)
	}

	if d.transport.PortOpen(contracts.PortIn) {
		d.transport.SetReceiveCallback(d.onMessage)
	} else {
		d.logger.Warn("Input port not open; cannot set receive callback")
	}
}

func (d *Device) openFirstAvailable(dir contracts.PortDirection) {
	names, err := d.transport.Ports(dir)
	if err != nil || len(names) == 0 {
		d.logger.Warn("No MIDI ports available", d.logger.Field().String("direction", dir.String()))
		return
	}
	if err := d.transport.OpenPort(dir, 0); err != nil {
		d.logger.Error("Error opening first available port",
			d.logger.Field().String("name", names[0]),
			d.logger.Field().Error("error", err))
		return
	}
	d.logger.Info("Opened first available port",
		d.logger.Field().String("direction", dir.String()),
		d.logger.Field().String("name", names[0]))
}

// onMessage runs on the transport's delivery context. Dispatch, including
// the action-log append and any reply send, is synchronous here; a slow
// logger or transport stalls subsequent delivery.
func (d *Device) onMessage(message []byte, delta time.Duration) {
	d.dispatcher.Handle(message)
}

// Run blocks until ctx is cancelled, then closes the device.
func (d *Device) Run(ctx context.Context) error {
	d.logger.Info("Device running", d.logger.Field().String("port", d.portName))
	<-ctx.Done()
	return d.Close()
}

// Close releases the transport and the action log.
func (d *Device) Close() error {
	d.logger.Info("Device shutting down")
	err := d.transport.Close()
	if closer, ok := d.actionLog.(io.Closer); ok {
		if cerr := closer.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Dispatch feeds one raw inbound message through the dispatcher. It is the
// same path the transport callback takes.
func (d *Device) Dispatch(message []byte) {
	d.dispatcher.Handle(message)
}
