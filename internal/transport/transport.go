// Package transport selects the platform MIDI transport backend.
package transport

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/leandrodaf/sysex/internal/transport/coremidi"
	"github.com/leandrodaf/sysex/internal/transport/winmm"
	"github.com/leandrodaf/sysex/sdk/contracts"
)

// ErrUnsupportedOS is returned when no transport backend exists for the
// current operating system.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// initializers maps OS names to corresponding transport backends.
var initializers = map[string]func(contracts.Logger, string) (contracts.Transport, error){
	"darwin":  coremidi.New, // macOS CoreMIDI backend.
	"windows": winmm.New,    // Windows winmm backend.
}

// New initializes the transport backend for the current operating system.
// clientName is the name the backend registers itself under with the OS
// MIDI service.
func New(logger contracts.Logger, clientName string) (contracts.Transport, error) {
	if initializer, exists := initializers[runtime.GOOS]; exists {
		return initializer(logger, clientName)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, runtime.GOOS)
}
