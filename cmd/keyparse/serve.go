package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cosmez/keyparse-go/internal/config"
	"github.com/cosmez/keyparse-go/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		configPath  string
		addr        string
		metricsAddr string
		logLevel    string
		serveKeys   int
		serveSplit  bool
		printConfig bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a RESP server that answers every request with its routing",
		Long: "serve listens for Redis clients and replies to each request with the " +
			"cluster slot and keys it would be routed by. PING and QUIT are answered locally.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Addr = addr
			}
			if flags.Changed("metrics-addr") {
				cfg.MetricsAddr = metricsAddr
			}
			if flags.Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if flags.Changed("max-keys") {
				cfg.MaxKeys = serveKeys
			}
			if flags.Changed("split") {
				cfg.SplitMultiKey = serveSplit
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if printConfig {
				return cfg.Write(cmd.OutOrStdout())
			}

			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.WithFields(logrus.Fields{
				"addr":    cfg.Addr,
				"metrics": cfg.MetricsAddr,
				"version": version,
			}).Info("starting keyparse server")
			return server.New(cfg, logger).Serve(ctx)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "TOML configuration file")
	flags.StringVar(&addr, "addr", "", "listen address (overrides config)")
	flags.StringVar(&metricsAddr, "metrics-addr", "", "Prometheus metrics address (overrides config)")
	flags.StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn or error")
	flags.IntVar(&serveKeys, "max-keys", 0, "fail requests with more keys than this (0 = no limit)")
	flags.BoolVar(&serveSplit, "split", true, "split cross-slot multi-key requests")
	flags.BoolVar(&printConfig, "print-config", false, "print the effective configuration and exit")
	return cmd
}

func newLogger(cfg *config.Config) (*logrus.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger, nil
}
