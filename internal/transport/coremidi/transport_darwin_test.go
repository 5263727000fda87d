//go:build darwin
// +build darwin

package coremidi

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leandrodaf/sysex/sdk/contracts"
)

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

// collector gathers delivered messages across the CoreMIDI read proc.
type collector struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (c *collector) callback(message []byte, delta time.Duration) {
	c.mu.Lock()
	c.msgs = append(c.msgs, append([]byte(nil), message...))
	c.mu.Unlock()
}

func (c *collector) wait(t *testing.T, n int) [][]byte {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.mu.Lock()
		if len(c.msgs) >= n {
			out := make([][]byte, len(c.msgs))
			copy(out, c.msgs)
			c.mu.Unlock()
			return out
		}
		c.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d messages", n)
	return nil
}

func findPort(t *testing.T, tr contracts.Transport, dir contracts.PortDirection, name string) int {
	t.Helper()
	names, err := tr.Ports(dir)
	require.NoError(t, err)
	for i, n := range names {
		if n == name {
			return i
		}
	}
	t.Fatalf("port %q not found in %v", name, names)
	return -1
}

// A frame emitted from the advertised virtual source must arrive on an input
// bound to that source's enumeration entry.
func TestVirtualSourceRoundTrip(t *testing.T) {
	sender, err := New(nopLogger{}, "roundtrip sender")
	require.NoError(t, err)
	defer sender.Close()
	require.NoError(t, sender.OpenVirtualPort(contracts.PortOut, "RoundTrip Out"))

	receiver, err := New(nopLogger{}, "roundtrip receiver")
	require.NoError(t, err)
	defer receiver.Close()
	require.NoError(t, receiver.OpenPort(contracts.PortIn, findPort(t, receiver, contracts.PortIn, "RoundTrip Out")))

	var got collector
	receiver.SetReceiveCallback(got.callback)

	frame := []byte{0xF0, 0x7E, 0x7F, 0x06, 0x01, 0xF7}
	require.NoError(t, sender.Send(frame))

	assert.Equal(t, frame, got.wait(t, 1)[0])
}

// A frame sent to the advertised virtual destination must reach the
// destination owner's callback.
func TestVirtualDestinationRoundTrip(t *testing.T) {
	receiver, err := New(nopLogger{}, "destination receiver")
	require.NoError(t, err)
	defer receiver.Close()
	require.NoError(t, receiver.OpenVirtualPort(contracts.PortIn, "RoundTrip In"))

	var got collector
	receiver.SetReceiveCallback(got.callback)

	sender, err := New(nopLogger{}, "destination sender")
	require.NoError(t, err)
	defer sender.Close()
	require.NoError(t, sender.OpenPort(contracts.PortOut, findPort(t, sender, contracts.PortOut, "RoundTrip In")))

	frame := []byte{0xF0, 0x7D, 0x01, 0x03, 0x01, 0xF7}
	require.NoError(t, sender.Send(frame))

	assert.Equal(t, frame, got.wait(t, 1)[0])
}

func TestPortLifecycle(t *testing.T) {
	tr, err := New(nopLogger{}, "lifecycle")
	require.NoError(t, err)
	defer tr.Close()

	assert.False(t, tr.PortOpen(contracts.PortIn))
	assert.False(t, tr.PortOpen(contracts.PortOut))
	assert.ErrorIs(t, tr.Send([]byte{0x01}), ErrPortClosed)

	require.NoError(t, tr.OpenVirtualPort(contracts.PortIn, "Lifecycle In"))
	require.NoError(t, tr.OpenVirtualPort(contracts.PortOut, "Lifecycle Out"))
	assert.True(t, tr.PortOpen(contracts.PortIn))
	assert.True(t, tr.PortOpen(contracts.PortOut))
	assert.ErrorIs(t, tr.OpenVirtualPort(contracts.PortOut, "Other"), ErrPortBusy)

	require.NoError(t, tr.ClosePort(contracts.PortIn))
	require.NoError(t, tr.ClosePort(contracts.PortOut))
	assert.False(t, tr.PortOpen(contracts.PortIn))
	assert.False(t, tr.PortOpen(contracts.PortOut))
}
