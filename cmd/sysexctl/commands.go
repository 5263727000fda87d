package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/leandrodaf/sysex/internal/logger"
	"github.com/leandrodaf/sysex/sdk/client"
	"github.com/leandrodaf/sysex/sdk/contracts"
	"github.com/leandrodaf/sysex/sdk/sysex"
)

func newPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List visible MIDI port names",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.New(
				contracts.WithLogger(logger.NewZapLogger()),
				contracts.WithLogLevel(contracts.WarnLevel),
				contracts.WithPortName(flagPortName),
			)
			if err != nil {
				return err
			}
			defer c.Shutdown()

			for _, dir := range []contracts.PortDirection{contracts.PortIn, contracts.PortOut} {
				names, err := c.Ports(dir)
				if err != nil {
					return err
				}
				fmt.Printf("%s ports:\n", dir)
				for i, name := range names {
					fmt.Printf("  [%d] %s\n", i, name)
				}
			}
			return nil
		},
	}
}

func newIdentityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "identity",
		Short: "Send an identity request and print the reply",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(true)
			if err != nil {
				return err
			}
			defer c.Shutdown()

			if err := c.SendIdentityRequest(); err != nil {
				return err
			}
			raw := c.Pop(flagTimeout)
			if raw == nil {
				return fmt.Errorf("no reply within %s", flagTimeout)
			}

			reply, ok := sysex.Classify(raw).(sysex.IdentityReply)
			if !ok {
				return fmt.Errorf("unexpected reply: % X", raw)
			}
			fmt.Printf("manufacturer: 0x%02X\n", reply.Manufacturer)
			fmt.Printf("family:       % X\n", reply.Family)
			fmt.Printf("model:        % X\n", reply.Model)
			fmt.Printf("version:      % X\n", reply.Version)
			return nil
		},
	}
}

func newTriggerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trigger <action-id>",
		Short: "Trigger an action and wait for the echoed acknowledgment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actionID, err := parseByte(args[0])
			if err != nil {
				return err
			}

			c, err := newClient(true)
			if err != nil {
				return err
			}
			defer c.Shutdown()

			if err := c.SendTriggerAction(actionID); err != nil {
				return err
			}
			ack := c.Pop(flagTimeout)
			if ack == nil {
				return fmt.Errorf("no acknowledgment within %s (unknown action ids are dropped silently)", flagTimeout)
			}
			fmt.Printf("acknowledged: % X\n", ack)
			return nil
		},
	}
}

func newSetParamCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-param <param-id> <value>",
		Short: "Send a SetParameter command",
		Long: "Send a SetParameter command. The reference device does not handle\n" +
			"this command yet and drops it silently; no reply is expected.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			paramID, err := parseByte(args[0])
			if err != nil {
				return err
			}
			value, err := parseByte(args[1])
			if err != nil {
				return err
			}

			c, err := newClient(true)
			if err != nil {
				return err
			}
			defer c.Shutdown()
			return c.SendSetParameter(paramID, value)
		},
	}
}

func newGetParamCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get-param <param-id>",
		Short: "Send a GetParameter command",
		Long: "Send a GetParameter command. The reference device does not handle\n" +
			"this command yet and drops it silently; a timeout here is expected.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paramID, err := parseByte(args[0])
			if err != nil {
				return err
			}

			c, err := newClient(true)
			if err != nil {
				return err
			}
			defer c.Shutdown()

			if err := c.SendGetParameter(paramID); err != nil {
				return err
			}
			if raw := c.Pop(flagTimeout); raw != nil {
				fmt.Printf("reply: % X\n", raw)
				return nil
			}
			fmt.Println("no reply (GetParameter is not handled by the reference device)")
			return nil
		},
	}
}

func newListenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Print inbound frames until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(flagConnectIn != "" || flagConnectOut != "")
			if err != nil {
				return err
			}
			defer c.Shutdown()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			fmt.Println("listening; press Ctrl+C to exit")

			for {
				select {
				case <-sig:
					return nil
				default:
				}
				if raw := c.Pop(250 * time.Millisecond); raw != nil {
					fmt.Printf("%s  % X\n", time.Now().Format(time.TimeOnly), raw)
				}
			}
		},
	}
}
