package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/iwvelando/finance-projection/internal/config"
	"github.com/iwvelando/finance-projection/internal/engine"
	"github.com/iwvelando/finance-projection/internal/ledger"
	"github.com/iwvelando/finance-projection/internal/server"
	"github.com/iwvelando/finance-projection/pkg/adapters"
	"github.com/iwvelando/finance-projection/pkg/constants"
	"github.com/iwvelando/finance-projection/pkg/output"
	"github.com/iwvelando/finance-projection/pkg/validation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var logLevels = map[string]zapcore.Level{
	"debug":   zapcore.DebugLevel,
	"info":    zapcore.InfoLevel,
	"warn":    zapcore.WarnLevel,
	"warning": zapcore.WarnLevel,
	"error":   zapcore.ErrorLevel,
}

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info"
	}
	zapLevel, ok := logLevels[level]
	if !ok {
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	var zc zap.Config
	switch loggingConfig.Format {
	case "", "json":
		zc = zap.NewProductionConfig()
	case "console":
		zc = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("invalid log format: %s", loggingConfig.Format)
	}
	zc.Level = zap.NewAtomicLevelAt(zapLevel)

	if path := loggingConfig.OutputFile; path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", path, err)
		}
		_ = file.Close()

		zc.OutputPaths = []string{path}
		zc.ErrorOutputPaths = []string{path}
	}

	return zc.Build()
}

func fatalBootstrap(msg string, err error) {
	fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": %q, \"error\": %q}\n", msg, err.Error())
	os.Exit(1)
}

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	serve := flag.Bool("serve", false, "serve the HTTP API instead of printing a report")
	serverConfig := flag.String("server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	flag.Parse()

	if *serve {
		runServer(*serverConfig, *configLocation, *logLevel)
		return
	}

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fatalBootstrap(fmt.Sprintf("failed to load configuration at %s", *configLocation), err)
	}

	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fatalBootstrap("failed to initialize logger", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI override takes precedence over config
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(), zap.String("op", "main"))
	}

	if err := runReport(logger, conf, outputFormat, os.Stdout); err != nil {
		logger.Fatal("failed to compute report",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}

// runReport validates the configuration, computes the report, seeds the
// ledger with the active scenarios and writes the report in the requested
// format.
func runReport(logger *zap.Logger, conf *config.Configuration, outputFormat string, w io.Writer) error {
	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	report, err := engine.New(logger, conf.Engine).Report(conf)
	if err != nil {
		return err
	}

	if err := registerScenarios(context.Background(), logger, conf); err != nil {
		return err
	}

	switch outputFormat {
	case constants.OutputFormatCSV:
		return output.CsvFormat(w, report)
	default:
		output.PrettyFormat(w, report)
		return nil
	}
}

// registerScenarios opens the configured ledger and registers every active
// scenario that is not yet known to it, so a shared ledger starts from the
// configured positions. An in-process ledger would not outlive the run, so
// only the redis backend is seeded.
func registerScenarios(ctx context.Context, logger *zap.Logger, conf *config.Configuration) error {
	if conf.Ledger.Backend != constants.LedgerBackendRedis {
		logger.Debug("skipping ledger seeding for a non-persistent backend",
			zap.String("op", "main"),
			zap.String("backend", conf.Ledger.Backend),
		)
		return nil
	}

	l, closeLedger, err := ledger.Open(ctx, conf.Ledger, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeLedger(); err != nil {
			logger.Warn("failed to close ledger", zap.String("op", "main"), zap.Error(err))
		}
	}()

	for _, s := range conf.ActiveScenarios() {
		scenario, err := adapters.OpeningScenario(s)
		if err != nil {
			return err
		}
		if _, err := l.Register(ctx, s.Name, scenario); err != nil && !errors.Is(err, ledger.ErrAlreadyRegistered) {
			return err
		}
	}
	return nil
}

func runServer(serverConfigPath, configPath, logLevel string) {
	cfg, err := server.LoadConfig(serverConfigPath)
	if err != nil {
		fatalBootstrap(fmt.Sprintf("failed to load server configuration at %s", serverConfigPath), err)
	}

	logger, err := initializeLogger(cfg.Logging, logLevel)
	if err != nil {
		fatalBootstrap("failed to initialize logger", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Engine tunables come from the main configuration when one is present.
	engineConfig := config.EngineConfig{}
	if conf, err := config.LoadConfiguration(configPath); err == nil {
		engineConfig = conf.Engine
	} else {
		logger.Info("serving with default engine settings",
			zap.String("op", "main"),
			zap.String("config", configPath),
			zap.Error(err),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l, closeLedger, err := ledger.Open(ctx, cfg.Ledger, logger)
	if err != nil {
		logger.Fatal("failed to open ledger",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	defer func() {
		if err := closeLedger(); err != nil {
			logger.Warn("failed to close ledger", zap.String("op", "main"), zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr: cfg.Address,
		Handler: server.NewHandler(logger, cfg.MaxBodySizeBytes(), version,
			server.WithEngine(engine.New(logger, engineConfig)),
			server.WithLedger(l),
		),
		ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("op", "main"),
			zap.String("address", cfg.Address),
			zap.String("ledger", cfg.Ledger.Backend),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			logger.Error("server failed", zap.String("op", "main"), zap.Error(err))
		}
		return
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	logger.Info("shutting down server",
		zap.String("op", "main"),
		zap.Duration("timeout", cfg.ShutdownTimeout),
	)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.String("op", "main"), zap.Error(err))
	}
}
