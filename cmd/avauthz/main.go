// Package main is the entry point for the session authorizer service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/vyrodovalexey/avauthz/internal/authz"
	"github.com/vyrodovalexey/avauthz/internal/config"
	"github.com/vyrodovalexey/avauthz/internal/health"
	"github.com/vyrodovalexey/avauthz/internal/observability"
	"github.com/vyrodovalexey/avauthz/internal/server"
	"github.com/vyrodovalexey/avauthz/internal/session"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		printVersion()
		return
	}

	logger := initLogger(flags)
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		logger.Fatal("failed to load configuration",
			observability.String("path", flags.configPath),
			observability.Error(err),
		)
	}

	run(cfg, logger)
}

// parseFlags parses command line flags.
func parseFlags() cliFlags {
	configPath := flag.String("config", getEnvOrDefault("AVAUTHZ_CONFIG_PATH", "configs/avauthz.yaml"),
		"Path to configuration file")
	logLevel := flag.String("log-level", getEnvOrDefault("AVAUTHZ_LOG_LEVEL", "info"),
		"Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", getEnvOrDefault("AVAUTHZ_LOG_FORMAT", "json"),
		"Log format (json, console)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	return cliFlags{
		configPath:  *configPath,
		logLevel:    *logLevel,
		logFormat:   *logFormat,
		showVersion: *showVersion,
	}
}

// printVersion prints build information.
func printVersion() {
	fmt.Printf("avauthz %s (commit %s, built %s)\n", version, gitCommit, buildTime)
}

// initLogger creates the process logger from flags.
func initLogger(flags cliFlags) observability.Logger {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  flags.logLevel,
		Format: flags.logFormat,
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

// run wires all components and serves until a termination signal arrives.
func run(cfg *config.Config, logger observability.Logger) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	tracer, err := observability.NewTracer(observability.TracerConfig{
		ServiceName:  "avauthz",
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SamplingRate: cfg.Tracing.SamplingRate,
		Enabled:      cfg.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal("failed to initialize tracing", observability.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:        cfg.SessionStore.Addr,
		Password:    cfg.SessionStore.Password,
		DB:          cfg.SessionStore.DB,
		DialTimeout: cfg.SessionStore.DialTimeout.Duration(),
	})

	storeMetrics := session.NewMetricsWithRegisterer("avauthz", registry)
	storeMetrics.Init()

	var store session.Store = session.NewRedisStore(
		redisClient,
		cfg.SessionStore.KeyPrefix,
		session.WithStoreLogger(logger),
		session.WithStoreMetrics(storeMetrics),
		session.WithLookupTimeout(cfg.SessionStore.LookupTimeout.Duration()),
	)
	if cfg.SessionStore.Breaker.Enabled {
		store = session.NewBreakerStore(
			store,
			cfg.SessionStore.Breaker.MinRequests,
			cfg.SessionStore.Breaker.Timeout.Duration(),
			session.WithBreakerLogger(logger),
			session.WithBreakerMetrics(storeMetrics),
		)
	}

	authzMetrics := authz.NewMetricsWithRegisterer("avauthz", registry)
	authzMetrics.Init()

	authorizer, err := authz.New(
		&authz.Config{
			AccountID:  cfg.Authorizer.AccountID,
			Region:     cfg.Authorizer.Region,
			Stage:      cfg.Authorizer.Stage,
			GatewayID:  cfg.Authorizer.GatewayID,
			CookieName: cfg.Authorizer.CookieName,
		},
		store,
		authz.WithLogger(logger),
		authz.WithMetrics(authzMetrics),
	)
	if err != nil {
		logger.Fatal("failed to create authorizer", observability.Error(err))
	}

	checker := health.NewChecker(version)
	checker.RegisterCheck("session-store", store.Ping)

	srv := server.New(cfg, authorizer, checker, registry, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("termination signal received", observability.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("listener failed", observability.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Listener.ShutdownTimeout.Duration())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown incomplete", observability.Error(err))
	}
	if err := tracer.Shutdown(shutdownCtx); err != nil {
		logger.Error("tracer shutdown failed", observability.Error(err))
	}
	if err := redisClient.Close(); err != nil {
		logger.Error("redis close failed", observability.Error(err))
	}

	logger.Info("shutdown complete")
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return def
}
