package contracts

import "github.com/prometheus/client_golang/prometheus"

// ClientOptions defines the configuration options for the SysEx client.
type ClientOptions struct {
	Logger    Logger                // Logger for logging events and errors.
	LogLevel  LogLevel              // Level of logging to use.
	Transport Transport             // Byte transport; defaults to the platform backend.
	PortName  string                // Base name for the client's virtual ports.
	Registry  prometheus.Registerer // Optional registry for client metrics.
}

// Option is a function that modifies ClientOptions.
type Option func(*ClientOptions)

// WithLogger sets the logger for the client.
func WithLogger(l Logger) Option {
	return func(opts *ClientOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level for the client.
func WithLogLevel(level LogLevel) Option {
	return func(opts *ClientOptions) {
		opts.LogLevel = level
	}
}

// WithTransport sets the byte transport for the client.
func WithTransport(t Transport) Option {
	return func(opts *ClientOptions) {
		opts.Transport = t
	}
}

// WithPortName sets the base name the client advertises its virtual ports under.
func WithPortName(name string) Option {
	return func(opts *ClientOptions) {
		opts.PortName = name
	}
}

// WithRegistry sets the metrics registry for the client.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(opts *ClientOptions) {
		opts.Registry = reg
	}
}

// DeviceOptions defines the configuration options for the SysEx device.
type DeviceOptions struct {
	Logger    Logger                // Logger for logging events and errors.
	LogLevel  LogLevel              // Level of logging to use.
	Transport Transport             // Byte transport; defaults to the platform backend.
	PortName  string                // Base name for the device's virtual ports.
	ActionLog ActionLogger          // Destination for triggered action records.
	Registry  prometheus.Registerer // Optional registry for dispatcher metrics.
}

// DeviceOption is a function that modifies DeviceOptions.
type DeviceOption func(*DeviceOptions)

// WithDeviceLogger sets the logger for the device.
func WithDeviceLogger(l Logger) DeviceOption {
	return func(opts *DeviceOptions) {
		opts.Logger = l
	}
}

// WithDeviceLogLevel sets the logging level for the device.
func WithDeviceLogLevel(level LogLevel) DeviceOption {
	return func(opts *DeviceOptions) {
		opts.LogLevel = level
	}
}

// WithDeviceTransport sets the byte transport for the device.
func WithDeviceTransport(t Transport) DeviceOption {
	return func(opts *DeviceOptions) {
		opts.Transport = t
	}
}

// WithDevicePortName sets the base name the device advertises its ports under.
func WithDevicePortName(name string) DeviceOption {
	return func(opts *DeviceOptions) {
		opts.PortName = name
	}
}

// WithActionLogger sets the destination for triggered action records.
func WithActionLogger(l ActionLogger) DeviceOption {
	return func(opts *DeviceOptions) {
		opts.ActionLog = l
	}
}

// WithDeviceRegistry sets the metrics registry for the device.
func WithDeviceRegistry(reg prometheus.Registerer) DeviceOption {
	return func(opts *DeviceOptions) {
		opts.Registry = reg
	}
}
