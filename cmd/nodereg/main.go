// Package main implements the entry point for the ARP NodeType registry.
// The registry is a versioned catalogue of NodeType definitions: publishers
// register immutable (id, version) records and consumers resolve them by
// exact version or latest.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/AgentRuntimeProtocol/ARP-Template-NodeRegistry/api"
	"github.com/AgentRuntimeProtocol/ARP-Template-NodeRegistry/config"
	"github.com/AgentRuntimeProtocol/ARP-Template-NodeRegistry/event"
	"github.com/AgentRuntimeProtocol/ARP-Template-NodeRegistry/event/natspub"
	"github.com/AgentRuntimeProtocol/ARP-Template-NodeRegistry/event/wsbroker"
	"github.com/AgentRuntimeProtocol/ARP-Template-NodeRegistry/health"
	"github.com/AgentRuntimeProtocol/ARP-Template-NodeRegistry/metric"
	"github.com/AgentRuntimeProtocol/ARP-Template-NodeRegistry/registry"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "arp-node-registry"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	// Run application with proper error handling
	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	// Parse and validate CLI flags
	cliCfg, logger, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	// Load and validate configuration
	cfg, err := initializeConfiguration(cliCfg)
	if err != nil {
		return err
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	ctx := context.Background()

	store := registry.NewStore()
	monitor := health.NewMonitor()
	metricsRegistry := metric.NewMetricsRegistry()

	// Optional event sinks
	announcer, broker, err := setupEventSinks(ctx, cfg, logger, metricsRegistry.CoreMetrics(), monitor)
	if err != nil {
		return err
	}

	apiServer, err := buildAPIServer(cfg, store, announcer, broker, metricsRegistry.CoreMetrics(), monitor, logger)
	if err != nil {
		return fmt.Errorf("create API server: %w", err)
	}

	var metricsServer *metric.Server
	if cfg.Metrics.Enabled {
		metricsServer = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, metricsRegistry)
	}

	// Run application with signal handling
	return runWithSignalHandling(ctx, cliCfg.ShutdownTimeout, apiServer, metricsServer, announcer, broker)
}

// initializeCLI parses flags and sets up logging
func initializeCLI() (*CLIConfig, *slog.Logger, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting ARP NodeType registry",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, logger, false, nil
}

// initializeConfiguration loads and validates configuration
func initializeConfiguration(cliCfg *CLIConfig) (*config.Config, error) {
	loader := config.NewLoader()
	cfg, err := loader.LoadFile(cliCfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupEventSinks creates the optional NATS announcer and WebSocket broker.
// The announcer only exists when NATS URLs are configured; the broker only
// when the watch endpoint is enabled.
func setupEventSinks(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	metrics *metric.Metrics,
	monitor *health.Monitor,
) (*natspub.Announcer, *wsbroker.Broker, error) {
	var announcer *natspub.Announcer
	if len(cfg.NATS.URLs) > 0 {
		a, err := natspub.NewAnnouncer(natspub.Config{
			URLs:          cfg.NATS.URLs,
			SubjectPrefix: cfg.Events.SubjectPrefix,
			MaxReconnects: cfg.NATS.MaxReconnects,
			ReconnectWait: cfg.NATS.ReconnectWait,
		}, logger, metrics)
		if err != nil {
			return nil, nil, fmt.Errorf("create announcer: %w", err)
		}

		slog.Info("Connecting to NATS", "urls", cfg.NATS.URLs)
		if err := a.Start(ctx); err != nil {
			return nil, nil, fmt.Errorf("connect to NATS: %w", err)
		}
		monitor.UpdateHealthy("announcer", "connected")
		announcer = a
	} else {
		slog.Info("NATS announcer disabled (no URLs configured)")
	}

	var broker *wsbroker.Broker
	if cfg.Events.EnableWatch {
		broker = wsbroker.NewBroker(logger, metrics)
	}

	return announcer, broker, nil
}

// buildAPIServer wires the store, event sinks and observability into the
// HTTP API server
func buildAPIServer(
	cfg *config.Config,
	store *registry.Store,
	announcer *natspub.Announcer,
	broker *wsbroker.Broker,
	metrics *metric.Metrics,
	monitor *health.Monitor,
	logger *slog.Logger,
) (*api.Server, error) {
	notifiers := make([]event.Notifier, 0, 2)
	if announcer != nil {
		notifiers = append(notifiers, announcer)
	}
	if broker != nil {
		notifiers = append(notifiers, broker)
	}

	opts := api.ServerOptions{
		Config: api.ServerConfig{
			Port:           cfg.HTTP.Port,
			EnableCORS:     cfg.HTTP.EnableCORS,
			CORSOrigins:    cfg.HTTP.CORSOrigins,
			MaxRequestSize: cfg.HTTP.MaxRequestSize,
			ServiceName:    cfg.Service.Name,
			ServiceVersion: Version,
		},
		Store:    store,
		Notifier: event.Fanout(notifiers...),
		Metrics:  metrics,
		Monitor:  monitor,
		Logger:   logger,
	}
	if broker != nil {
		opts.WatchHandler = broker
	}

	return api.NewServer(opts)
}

// runWithSignalHandling starts the servers and handles shutdown signals
func runWithSignalHandling(
	ctx context.Context,
	shutdownTimeout time.Duration,
	apiServer *api.Server,
	metricsServer *metric.Server,
	announcer *natspub.Announcer,
	broker *wsbroker.Broker,
) error {
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	errCh := make(chan error, 2)

	go func() {
		if err := apiServer.Start(); err != nil {
			errCh <- fmt.Errorf("API server: %w", err)
		}
	}()

	if metricsServer != nil {
		go func() {
			slog.Info("Metrics server listening", "address", metricsServer.Address())
			if err := metricsServer.Start(); err != nil {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	slog.Info("Registry started successfully")

	select {
	case <-signalCtx.Done():
		slog.Info("Received shutdown signal")
	case err := <-errCh:
		slog.Error("Server failed, shutting down", "error", err)
		shutdown(shutdownTimeout, apiServer, metricsServer, announcer, broker)
		return err
	}

	shutdown(shutdownTimeout, apiServer, metricsServer, announcer, broker)
	slog.Info("Registry shutdown complete")
	return nil
}

// shutdown stops the servers and event sinks in reverse start order
func shutdown(
	timeout time.Duration,
	apiServer *api.Server,
	metricsServer *metric.Server,
	announcer *natspub.Announcer,
	broker *wsbroker.Broker,
) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		slog.Error("Error stopping API server", "error", err)
	}

	if broker != nil {
		broker.Stop()
	}

	if announcer != nil {
		if err := announcer.Stop(timeout); err != nil {
			slog.Error("Error stopping announcer", "error", err)
		}
	}

	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			slog.Error("Error stopping metrics server", "error", err)
		}
	}
}
