package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	werrors "github.com/gxo-labs/weft/pkg/weft/v1/errors"

	"github.com/gxo-labs/weft/internal/config"
	"github.com/gxo-labs/weft/internal/logger"
	"github.com/gxo-labs/weft/internal/metrics"
	"github.com/gxo-labs/weft/internal/provider"

	_ "github.com/gxo-labs/weft/modules/attributes"
	_ "github.com/gxo-labs/weft/modules/logspans"
	_ "github.com/gxo-labs/weft/modules/otlp"
)

const (
	ExitSuccess     = 0
	ExitFailure     = 1
	ExitUsageError  = 2
	ExitSigIntBase  = 128
	ExitSigInt      = ExitSigIntBase + int(syscall.SIGINT)
	ExitSigTerm     = ExitSigIntBase + int(syscall.SIGTERM)
	DefaultLogLevel = "info"
	DefaultLogFmt   = "text"
	ShutdownTimeout = 5 * time.Second
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "validate" {
		runValidateCommand(os.Args[2:])
		return
	}
	if len(os.Args) == 2 && (os.Args[1] == "--version" || os.Args[1] == "-version") {
		printVersion()
		os.Exit(ExitSuccess)
	}
	serveArgs := os.Args[1:]
	// 'run' is the explicit form of the default command.
	if len(serveArgs) > 0 && serveArgs[0] == "run" {
		serveArgs = serveArgs[1:]
	}
	exitCode := runServeCommand(serveArgs)
	os.Exit(exitCode)
}

func printVersion() {
	fmt.Printf("weft version %s\n", version)
	fmt.Printf("commit: %s\n", commit)
	fmt.Printf("built: %s\n", buildDate)
	fmt.Printf("go version: %s\n", runtime.Version())
	fmt.Printf("os/arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

func runValidateCommand(args []string) {
	validateFlags := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := validateFlags.String("config", "", "Path to the tracing configuration YAML file to validate (required)")
	logLevel := validateFlags.String("log-level", DefaultLogLevel, "Log level for validation output (debug, info, warn, error)")

	validateFlags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s validate -config <path> [flags...]\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Validates the structure and schema compatibility of a weft tracing configuration.")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		validateFlags.PrintDefaults()
	}

	if err := validateFlags.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing validate flags: %v\n", err)
		os.Exit(ExitUsageError)
	}

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -config flag is required for validation")
		validateFlags.Usage()
		os.Exit(ExitUsageError)
	}

	log := logger.NewLogger(*logLevel, "text", os.Stderr)
	log.Infof("Validating configuration: %s", *configPath)

	configBytes, err := os.ReadFile(*configPath)
	if err != nil {
		log.Errorf("Failed to read configuration file '%s': %v", *configPath, err)
		os.Exit(ExitFailure)
	}

	_, err = config.LoadConfig(configBytes, *configPath)
	if err != nil {
		var validationErr *werrors.ValidationError
		var configErr *werrors.ConfigError
		if errors.As(err, &validationErr) {
			log.Errorf("Configuration validation failed:\n%s", validationErr.Error())
		} else if errors.As(err, &configErr) {
			log.Errorf("Configuration error:\n%s", configErr.Error())
		} else {
			log.Errorf("Failed to load or validate configuration: %v", err)
		}
		os.Exit(ExitFailure)
	}

	log.Infof("Configuration validation successful: %s", *configPath)
	os.Exit(ExitSuccess)
}

func runServeCommand(args []string) int {
	serveFlags := flag.NewFlagSet("weft", flag.ExitOnError)
	configPath := serveFlags.String("config", "", "Path to the tracing configuration YAML file (required)")
	logLevel := serveFlags.String("log-level", "", "Log level override (debug, info, warn, error)")
	logFormat := serveFlags.String("log-format", "", "Log format override (text, json)")
	versionFlag := serveFlags.Bool("version", false, "Print version information and exit")

	serveFlags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags...] -config <path>\n\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Runs a weft tracer-provider coordinator until interrupted.")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		serveFlags.PrintDefaults()
	}

	if err := serveFlags.Parse(args); err != nil {
		return ExitUsageError
	}

	if *versionFlag {
		printVersion()
		return ExitSuccess
	}

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -config flag is required")
		serveFlags.Usage()
		return ExitUsageError
	}

	configBytes, err := os.ReadFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to read configuration file '%s': %v\n", *configPath, err)
		return ExitFailure
	}

	cfg, err := config.LoadConfig(configBytes, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitFailure
	}

	// CLI flags override the configuration's logging block.
	level := cfg.Logging.Level
	if *logLevel != "" {
		level = *logLevel
	}
	if level == "" {
		level = DefaultLogLevel
	}
	format := cfg.Logging.Format
	if *logFormat != "" {
		format = *logFormat
	}
	if format == "" {
		format = DefaultLogFmt
	}

	var logWriter io.Writer = os.Stderr
	log := logger.NewLogger(level, format, logWriter)
	log = log.With("weft_version", version)

	log.Infof("weft tracer-provider coordinator v%s starting...", version)
	log.Debugf("Configuration: %s", *configPath)

	metricsProvider := metrics.NewPrometheusRegistryProvider()
	coordinatorMetrics := metrics.NewCoordinatorMetrics(metricsProvider)

	coordinator, err := provider.New(context.Background(), provider.Options{
		Config:  cfg,
		Logger:  log,
		Metrics: coordinatorMetrics,
	})
	if err != nil {
		log.Errorf("Failed to create tracer-provider coordinator: %v", err)
		return ExitFailure
	}

	// Publish the coordinator so in-process callers can resolve it by name.
	registry := provider.NewRegistry()
	if err := registry.Register(provider.DefaultProviderName, coordinator); err != nil {
		log.Errorf("Failed to publish coordinator: %v", err)
		return ExitFailure
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	log.Infof("Coordinator ready; waiting for shutdown signal")
	sig := <-sigChan
	log.Warnf("Received signal: %v. Initiating graceful shutdown...", sig)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancelShutdown()

	registry.Deregister(provider.DefaultProviderName)
	if err := coordinator.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Coordinator shutdown reported failures: %v", err)
		return ExitFailure
	}
	log.Infof("Shutdown complete.")

	switch sig {
	case syscall.SIGINT:
		return ExitSigInt
	case syscall.SIGTERM:
		return ExitSigTerm
	default:
		return ExitSuccess
	}
}
