package main

import (
	"context"
	"fmt"
	"time"

	"github.com/leandrodaf/sysex/internal/actionlog"
	"github.com/leandrodaf/sysex/internal/logger"
	"github.com/leandrodaf/sysex/internal/transport/memory"
	"github.com/leandrodaf/sysex/sdk/client"
	"github.com/leandrodaf/sysex/sdk/contracts"
	"github.com/leandrodaf/sysex/sdk/device"
	"github.com/leandrodaf/sysex/sdk/sysex"
)

// Runs a device and a client over the in-process loopback bus: handshake,
// identity request, then a triggered action with its echoed acknowledgment.
func main() {
	log := logger.NewZapLogger()
	bus := memory.NewBus()

	actions, err := actionlog.New("device_actions.log")
	if err != nil {
		log.Error("Failed to open action log", log.Field().Error("error", err))
		return
	}

	dev, err := device.New(
		contracts.WithDeviceLogger(log),
		contracts.WithDeviceTransport(bus.NewTransport()),
		contracts.WithDevicePortName("Demo Device"),
		contracts.WithActionLogger(actions),
	)
	if err != nil {
		log.Error("Failed to create device", log.Field().Error("error", err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := dev.Run(ctx); err != nil {
			log.Error("Device stopped with error", log.Field().Error("error", err))
		}
	}()

	c, err := client.New(
		contracts.WithLogger(log),
		contracts.WithTransport(bus.NewTransport()),
		contracts.WithPortName("Demo Client"),
	)
	if err != nil {
		log.Error("Failed to create client", log.Field().Error("error", err))
		cancel()
		return
	}
	defer c.Shutdown()

	if err := c.ConnectToDevice("Demo Device In", "Demo Device Out"); err != nil {
		log.Error("Handshake failed", log.Field().Error("error", err))
		cancel()
		return
	}

	if err := c.SendIdentityRequest(); err != nil {
		log.Error("Failed to send identity request", log.Field().Error("error", err))
	}
	if raw := c.Pop(time.Second); raw != nil {
		if reply, ok := sysex.Classify(raw).(sysex.IdentityReply); ok {
			fmt.Printf("Device identity: manufacturer 0x%02X, version % X\n",
				reply.Manufacturer, reply.Version)
		}
	} else {
		fmt.Println("No identity reply within timeout")
	}

	if err := c.SendTriggerAction(sysex.ActionLog); err != nil {
		log.Error("Failed to trigger action", log.Field().Error("error", err))
	}
	if ack := c.Pop(time.Second); ack != nil {
		fmt.Printf("Action acknowledged: % X\n", ack)
	} else {
		fmt.Println("No acknowledgment within timeout")
	}

	cancel()
	<-done
}
