// Command sysexctl drives a SysEx device from the command line: it connects
// to the device's ports by name and issues protocol commands.
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leandrodaf/sysex/internal/config"
	"github.com/leandrodaf/sysex/internal/logger"
	"github.com/leandrodaf/sysex/sdk/client"
	"github.com/leandrodaf/sysex/sdk/contracts"
)

var (
	flagConfig     string
	flagPortName   string
	flagConnectIn  string
	flagConnectOut string
	flagTimeout    time.Duration
)

func main() {
	root := &cobra.Command{
		Use:          "sysexctl",
		Short:        "Control a SysEx device over MIDI",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to yaml config file")
	root.PersistentFlags().StringVar(&flagPortName, "port-name", "Go SysEx Client", "base name for the client's virtual ports")
	root.PersistentFlags().StringVar(&flagConnectIn, "connect-in", "", "substring of the device's input port name")
	root.PersistentFlags().StringVar(&flagConnectOut, "connect-out", "", "substring of the device's output port name")
	root.PersistentFlags().DurationVar(&flagTimeout, "timeout", time.Second, "how long to wait for a reply")

	root.AddCommand(
		newPortsCmd(),
		newIdentityCmd(),
		newTriggerCmd(),
		newSetParamCmd(),
		newGetParamCmd(),
		newListenCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig merges the optional config file with command-line flags; flags
// win.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if flagConfig != "" {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if flagConnectIn != "" {
		cfg.Connect.In = flagConnectIn
	}
	if flagConnectOut != "" {
		cfg.Connect.Out = flagConnectOut
	}
	return cfg, nil
}

// newClient builds a client on the platform transport and, when connect
// targets are configured, runs the handshake.
func newClient(connect bool) (*client.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	c, err := client.New(
		contracts.WithLogger(logger.NewZapLogger()),
		contracts.WithLogLevel(cfg.Level()),
		contracts.WithPortName(flagPortName),
	)
	if err != nil {
		return nil, err
	}

	if connect {
		if err := c.ConnectToDevice(cfg.Connect.In, cfg.Connect.Out); err != nil {
			c.Shutdown()
			return nil, err
		}
	}
	return c, nil
}

// parseByte parses a command-line byte argument, accepting decimal and 0x
// hex forms.
func parseByte(arg string) (byte, error) {
	v, err := strconv.ParseUint(arg, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte value %q: %w", arg, err)
	}
	return byte(v), nil
}
