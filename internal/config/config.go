// Package config loads the yaml configuration consumed by the daemons.
package config

import (
	"fmt"
	"os"

	"github.com/leandrodaf/sysex/sdk/contracts"
	"gopkg.in/yaml.v3"
)

// Config is the file-level configuration for sysexd and sysexctl.
type Config struct {
	PortName    string `yaml:"port_name"`    // base name for advertised ports
	LogFile     string `yaml:"log_file"`     // device action log path
	LogLevel    string `yaml:"log_level"`    // debug, info, warn, error
	MetricsAddr string `yaml:"metrics_addr"` // optional prometheus listen address

	Connect struct {
		In  string `yaml:"in"`  // substring of the device's input port name
		Out string `yaml:"out"` // substring of the device's output port name
	} `yaml:"connect"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{
		PortName: "Go SysEx Device",
		LogFile:  "device_actions.log",
		LogLevel: "info",
	}
	cfg.Connect.In = cfg.PortName + " In"
	cfg.Connect.Out = cfg.PortName + " Out"
	return cfg
}

// Load reads and parses the yaml file at path, filling unset fields with
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Level maps the configured log level name onto the Logger contract's levels.
// Unknown names fall back to info.
func (c *Config) Level() contracts.LogLevel {
	switch c.LogLevel {
	case "debug":
		return contracts.DebugLevel
	case "warn":
		return contracts.WarnLevel
	case "error":
		return contracts.ErrorLevel
	default:
		return contracts.InfoLevel
	}
}
