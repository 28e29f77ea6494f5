// Package main is the entry point for the host network throughput
// collector. It loads configuration, connects to the controller, collects
// per-interface samples for every selected host and renders one chart per
// host, once or on a schedule.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Guliveer/vitalis/hostnet/internal/config"
	"github.com/Guliveer/vitalis/hostnet/internal/metrics"
	"github.com/Guliveer/vitalis/hostnet/internal/render"
	"github.com/Guliveer/vitalis/hostnet/internal/runner"
	"github.com/Guliveer/vitalis/hostnet/internal/scheduler"
	"github.com/Guliveer/vitalis/hostnet/internal/service"
	"github.com/Guliveer/vitalis/hostnet/internal/vsphere"
)

var (
	// version is set at build time via -ldflags.
	version = "dev"

	configPath  = flag.String("config", "", "Path to configuration file (default: search standard locations)")
	showVersion = flag.Bool("version", false, "Show version and exit")
	address     = flag.String("address", "", "Controller address, overrides config")
	username    = flag.String("username", "", "Controller username, overrides config")
	outputDir   = flag.String("output", "", "Chart output directory, overrides config")
	writeConfig = flag.String("write-config", "", "Write the effective configuration to this path and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("hostnet %s\n", version)
		os.Exit(0)
	}

	cli := config.CLIOverrides{
		Address:   *address,
		Username:  *username,
		OutputDir: *outputDir,
	}
	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadLayered(cli, embeddedConfig, *configPath)
	} else {
		cfg, err = config.LoadLayered(cli, embeddedConfig)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *writeConfig != "" {
		if err := config.WriteConfig(cfg, *writeConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration written to %s\n", *writeConfig)
		os.Exit(0)
	}

	logger := initLogger(cfg)
	defer logger.Sync()

	logger.Info("Starting hostnet",
		zap.String("version", version),
		zap.String("controller", cfg.Controller.Address),
		zap.Strings("interfaces", cfg.Collection.Interfaces))

	if err := cfg.Validate(); err != nil {
		fail(logger, "Invalid configuration", err)
	}

	run := func(ctx context.Context) error {
		return schedule(ctx, cfg, logger)
	}

	if service.IsWindowsService() {
		logger.Info("Running as Windows service")
		if err := service.New(logger, run).Run(); err != nil {
			fail(logger, "Service failed", err)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("Received signal, shutting down",
			zap.String("signal", sig.String()))
		cancel()
	}()

	if err := run(ctx); err != nil {
		fail(logger, "Collection failed", err)
	}
	logger.Info("hostnet stopped")
}

// schedule builds the run pipeline and drives it with the configured
// interval. It blocks until the single run finishes or ctx is cancelled.
func schedule(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	connect := func(ctx context.Context, secret string) (runner.Controller, error) {
		s, err := vsphere.Connect(ctx, cfg.Controller, secret, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	r := runner.New(cfg, logger, connect,
		render.New(cfg.Output.Dir, cfg.Collection.IntervalID, logger),
		metrics.NewRecorder())

	job := func(ctx context.Context) error {
		res, err := r.RunOnce(ctx)
		if err != nil {
			return err
		}
		logger.Info("Run complete",
			zap.String("run_id", res.RunID),
			zap.Int("hosts", len(res.Hosts)),
			zap.Int("failed", len(res.Failed)),
			zap.Int("charts", len(res.Charts)))
		return nil
	}

	return scheduler.New(cfg.Schedule.Every.Duration, logger).Start(ctx, job)
}

// fail logs a fatal error and exits. Configuration and empty-discovery
// errors get distinct exit codes so wrappers can tell them apart.
func fail(logger *zap.Logger, msg string, err error) {
	logger.Error(msg, zap.Error(err))
	_ = logger.Sync()
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, runner.ErrConfiguration):
		return 2
	case errors.Is(err, runner.ErrDiscoveryEmpty):
		return 3
	default:
		return 1
	}
}

// initLogger creates a zap logger based on the configuration.
// It outputs to both console (human-readable) and optionally a JSON log file.
func initLogger(cfg *config.Config) *zap.Logger {
	level := parseLevel(cfg.Logging.Level)

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stdout),
		level,
	)

	cores := []zapcore.Core{consoleCore}

	if cfg.Logging.File != "" {
		file, err := os.OpenFile(cfg.Logging.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
		if err == nil {
			cores = append(cores, zapcore.NewCore(
				zapcore.NewJSONEncoder(encoderConfig),
				zapcore.AddSync(file),
				level,
			))
		}
	}

	return zap.New(zapcore.NewTee(cores...))
}

func parseLevel(s string) zapcore.Level {
	switch s {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
