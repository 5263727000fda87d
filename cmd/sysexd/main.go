// Command sysexd runs a SysEx device until interrupted: it advertises its
// MIDI ports, answers identity requests and executes triggered actions.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leandrodaf/sysex/internal/actionlog"
	"github.com/leandrodaf/sysex/internal/config"
	"github.com/leandrodaf/sysex/internal/logger"
	"github.com/leandrodaf/sysex/sdk/contracts"
	"github.com/leandrodaf/sysex/sdk/device"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath  string
		portName    string
		logFile     string
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "sysexd",
		Short: "Run a SysEx-controlled MIDI device",
		Long: "sysexd advertises a pair of MIDI ports and services the SysEx\n" +
			"command protocol on them: identity requests get an identity reply,\n" +
			"triggered actions are appended to the action log and acknowledged.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if portName != "" {
				cfg.PortName = portName
			}
			if logFile != "" {
				cfg.LogFile = logFile
			}
			if metricsAddr != "" {
				cfg.MetricsAddr = metricsAddr
			}
			return run(cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to yaml config file")
	cmd.Flags().StringVar(&portName, "port-name", "", "base name for the advertised MIDI ports")
	cmd.Flags().StringVar(&logFile, "log-file", "", "path of the action log file")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "listen address for prometheus metrics")
	return cmd
}

func run(cfg *config.Config) error {
	log := logger.NewZapLogger()

	actions, err := actionlog.New(cfg.LogFile)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	dev, err := device.New(
		contracts.WithDeviceLogger(log),
		contracts.WithDeviceLogLevel(cfg.Level()),
		contracts.WithDevicePortName(cfg.PortName),
		contracts.WithActionLogger(actions),
		contracts.WithDeviceRegistry(registry),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dev.Run(ctx)
	})

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

		g.Go(func() error {
			log.Info("Metrics listening", log.Field().String("addr", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
