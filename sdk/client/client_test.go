package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leandrodaf/sysex/sdk/contracts"
)

func newTestClient(t *testing.T, ft *fakeTransport) *Client {
	t.Helper()
	c, err := New(
		contracts.WithTransport(ft),
		contracts.WithLogLevel(contracts.ErrorLevel),
		contracts.WithPortName("Test Client"),
	)
	require.NoError(t, err)
	return c
}

func TestNew_AdvertisesVirtualPorts(t *testing.T) {
	ft := newFakeTransport()

	newTestClient(t, ft)

	assert.Equal(t, []string{"Test Client In"}, ft.virtualInNames)
	assert.Equal(t, []string{"Test Client Out"}, ft.virtualOutNames)
	assert.NotNil(t, ft.cb, "receive callback should be installed")
}

func TestSendHelpers_WireBytes(t *testing.T) {
	tests := []struct {
		name string
		send func(*Client) error
		want []byte
	}{
		{
			"identity request",
			func(c *Client) error { return c.SendIdentityRequest() },
			[]byte{0xF0, 0x7E, 0x7F, 0x06, 0x01, 0xF7},
		},
		{
			"set parameter",
			func(c *Client) error { return c.SendSetParameter(0x10, 0x5A) },
			[]byte{0xF0, 0x7D, 0x01, 0x01, 0x10, 0x5A, 0xF7},
		},
		{
			"get parameter",
			func(c *Client) error { return c.SendGetParameter(0x12) },
			[]byte{0xF0, 0x7D, 0x01, 0x02, 0x12, 0xF7},
		},
		{
			"trigger action",
			func(c *Client) error { return c.SendTriggerAction(0x05) },
			[]byte{0xF0, 0x7D, 0x01, 0x03, 0x05, 0xF7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := newFakeTransport()
			c := newTestClient(t, ft)

			require.NoError(t, tt.send(c))

			sent := ft.sentMessages()
			require.Len(t, sent, 1)
			assert.Equal(t, tt.want, sent[0])
		})
	}
}

func TestSend_OutputClosed(t *testing.T) {
	ft := newFakeTransport()
	c := newTestClient(t, ft)
	require.NoError(t, ft.ClosePort(contracts.PortOut))

	err := c.Send([]byte{0x90, 0x3C, 0x7F})

	assert.ErrorIs(t, err, ErrOutputClosed)
	assert.Empty(t, ft.sentMessages())
}

func TestReceive_DeliveredToPop(t *testing.T) {
	ft := newFakeTransport()
	c := newTestClient(t, ft)

	ft.deliver([]byte{0xB0, 0x07, 0x7F})

	got := c.Pop(100 * time.Millisecond)
	assert.Equal(t, []byte{0xB0, 0x07, 0x7F}, got)
}

func TestClearReceived(t *testing.T) {
	ft := newFakeTransport()
	c := newTestClient(t, ft)

	ft.deliver([]byte{0x90, 0x40, 0x70})
	c.ClearReceived()

	assert.Nil(t, c.Pop(10*time.Millisecond))
}

func TestShutdown_ClosesTransport(t *testing.T) {
	ft := newFakeTransport()
	c := newTestClient(t, ft)

	require.NoError(t, c.Shutdown())

	assert.False(t, ft.PortOpen(contracts.PortIn))
	assert.False(t, ft.PortOpen(contracts.PortOut))
}
