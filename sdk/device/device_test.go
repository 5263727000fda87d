package device

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leandrodaf/sysex/internal/transport/memory"
	"github.com/leandrodaf/sysex/sdk/client"
	"github.com/leandrodaf/sysex/sdk/contracts"
)

func newBusDevice(t *testing.T, bus *memory.Bus) (*Device, *memLog) {
	t.Helper()
	log := &memLog{}
	dev, err := New(
		contracts.WithDeviceTransport(bus.NewTransport()),
		contracts.WithDeviceLogger(nopLogger{}),
		contracts.WithActionLogger(log),
		contracts.WithDevicePortName("MockDevice"),
	)
	require.NoError(t, err)
	return dev, log
}

func newBusClient(t *testing.T, bus *memory.Bus) *client.Client {
	t.Helper()
	c, err := client.New(
		contracts.WithTransport(bus.NewTransport()),
		contracts.WithLogger(nopLogger{}),
		contracts.WithPortName("Test Client"),
	)
	require.NoError(t, err)
	require.NoError(t, c.ConnectToDevice("MockDevice In", "MockDevice Out"))
	return c
}

func TestDevice_AdvertisesPorts(t *testing.T) {
	bus := memory.NewBus()
	dev, _ := newBusDevice(t, bus)
	defer dev.Close()

	probe := bus.NewTransport()
	require.NotEqual(t, -1, probe.FindPort(contracts.PortOut, "MockDevice In"),
		"device input must be visible as a send target")
	require.NotEqual(t, -1, probe.FindPort(contracts.PortIn, "MockDevice Out"),
		"device output must be visible as a source")
}

func TestDevice_IdentityRoundTrip(t *testing.T) {
	bus := memory.NewBus()
	dev, _ := newBusDevice(t, bus)
	defer dev.Close()
	c := newBusClient(t, bus)
	defer c.Shutdown()

	require.NoError(t, c.SendIdentityRequest())

	got := c.Pop(time.Second)
	require.NotNil(t, got, "no identity reply within the timeout")
	assert.Equal(t, identityReplyFrame, got)
}

func TestDevice_TriggerActionRoundTrip(t *testing.T) {
	bus := memory.NewBus()
	dev, log := newBusDevice(t, bus)
	defer dev.Close()
	c := newBusClient(t, bus)
	defer c.Shutdown()

	require.NoError(t, c.SendTriggerAction(0x01))

	got := c.Pop(time.Second)
	require.NotNil(t, got, "no acknowledgment within the timeout")
	assert.Equal(t, []byte{0xF0, 0x7D, 0x01, 0x03, 0x01, 0xF7}, got,
		"acknowledgment echoes the command frame verbatim")

	records := log.all()
	require.Len(t, records, 1)
	assert.Contains(t, records[0], "TriggerAction: ID=1")
}

func TestDevice_UnhandledCommandsGetNoReply(t *testing.T) {
	bus := memory.NewBus()
	dev, _ := newBusDevice(t, bus)
	defer dev.Close()
	c := newBusClient(t, bus)
	defer c.Shutdown()

	require.NoError(t, c.SendSetParameter(0x10, 0x5A))
	require.NoError(t, c.SendGetParameter(0x10))

	assert.Nil(t, c.Pop(50*time.Millisecond), "parameter commands are dropped without a reply")
}

func TestDevice_RunStopsOnContextCancel(t *testing.T) {
	ft := &fakeTransport{}
	dev, err := New(
		contracts.WithDeviceTransport(ft),
		contracts.WithDeviceLogger(nopLogger{}),
		contracts.WithActionLogger(&memLog{}),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- dev.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.False(t, ft.PortOpen(contracts.PortIn))
	assert.False(t, ft.PortOpen(contracts.PortOut))
}

// When virtual ports are unavailable the device falls back to the first
// enumerated real port in each direction.
func TestDevice_FallsBackToFirstRealPort(t *testing.T) {
	ft := &fakeTransport{
		failVirtual: true,
		inPorts:     []string{"Hardware In"},
		outPorts:    []string{"Hardware Out"},
	}

	_, err := New(
		contracts.WithDeviceTransport(ft),
		contracts.WithDeviceLogger(nopLogger{}),
		contracts.WithActionLogger(&memLog{}),
	)
	require.NoError(t, err)

	assert.Equal(t, []int{0}, ft.openedIn)
	assert.Equal(t, []int{0}, ft.openedOut)
	assert.Empty(t, ft.virtualNames)
	assert.NotNil(t, ft.cb, "callback still installed on the fallback port")
}

func TestDevice_DispatchFeedsTheDispatcher(t *testing.T) {
	ft := &fakeTransport{}
	dev, err := New(
		contracts.WithDeviceTransport(ft),
		contracts.WithDeviceLogger(nopLogger{}),
		contracts.WithActionLogger(&memLog{}),
	)
	require.NoError(t, err)

	dev.Dispatch(identityRequestFrame)

	sent := ft.sentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, identityReplyFrame, sent[0])
}
