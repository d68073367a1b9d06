//go:build linux

// vietime-ibus is the IBus engine process for vietime.
//
// IBus starts it from the component XML written by `vietime ibus install`:
//
//	vietime-ibus --ibus
//
// The process claims org.freedesktop.IBus.Vietime, creates one engine per
// input context, and reloads its settings when the config file changes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vietime/internal/config"
	"vietime/internal/ime"
	"vietime/internal/logging"
	"vietime/internal/metrics"
	"vietime/internal/store"
)

func main() {
	ibusFlag := flag.Bool("ibus", false, "Started by the IBus daemon")
	configPath := flag.String("config", "", "Configuration file (default: platform config dir)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("vietime-ibus %s\n", ime.VietimeEngineVersion)
		return
	}

	if err := run(*configPath, *ibusFlag); err != nil {
		fmt.Fprintf(os.Stderr, "vietime-ibus: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, launchedByIBus bool) error {
	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger, err := openLogger(cfg, launchedByIBus)
	if err != nil {
		return err
	}
	defer logger.Close()
	logging.SetDefault(logger)

	crash := logging.NewCrashHandler(&logging.CrashHandlerConfig{
		Version:   ime.VietimeEngineVersion,
		Component: "ibus",
		Logger:    logger,
	})
	defer crash.RecoverGoroutine("main")
	if err := crash.CleanupOld(30 * 24 * time.Hour); err != nil {
		logger.Warn("crash report cleanup failed", "error", err)
	}

	registry := metrics.NewRegistry("vietime", "ibus")
	engineMetrics := metrics.NewEngineMetrics(registry)

	src, err := loadSources(cfg, logger)
	if err != nil {
		return err
	}
	recordSources(engineMetrics, src)

	server, err := ime.NewIBusServer(ime.IBusConfig{
		Settings: cfg,
		Sources:  src,
		Logger:   logger,
		Metrics:  engineMetrics,
		Crash:    crash,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := server.Start(ctx); err != nil {
		return err
	}
	defer server.Stop()

	if cfg.Metrics.Enabled {
		go serveMetrics(ctx, cfg.Metrics.ListenAddr, registry, engineMetrics, logger)
	}

	loader.OnChange(func(next *config.Config) {
		if err := server.ApplyConfig(next); err != nil {
			logger.Error("apply reloaded config", "error", err)
			return
		}
		if src, err := loadSources(next, logger); err == nil {
			server.SetSources(src)
			recordSources(engineMetrics, src)
		}
		engineMetrics.ConfigReloads.Inc()
	})
	if err := loader.Watch(); err != nil {
		logger.Warn("config watch unavailable", "path", loader.Path(), "error", err)
	}
	defer loader.Close()

	go crash.Recover(func() {
		for err := range loader.Errors() {
			logger.Warn("config reload rejected", "error", err)
		}
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("shutting down", "signal", sig.String(), "engines", server.Engines())
	return nil
}

// openLogger builds the process logger. Under IBus stderr goes nowhere, so
// console output is switched to the log file.
func openLogger(cfg *config.Config, launchedByIBus bool) (*logging.Logger, error) {
	logCfg, err := logging.FromSettings(cfg.Logging, "ibus")
	if err != nil {
		return nil, fmt.Errorf("logging settings: %w", err)
	}
	if launchedByIBus && (logCfg.Output == "stdout" || logCfg.Output == "stderr") {
		logCfg.Output = "file"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	return logger, nil
}

// loadSources reads shortcuts and words, opening the database only when a
// source uses it. A broken database is logged and skipped.
func loadSources(cfg *config.Config, logger *logging.Logger) (*ime.Sources, error) {
	var db *store.Store
	if cfg.Shortcuts.UseDatabase || cfg.Foreign.UseDatabase {
		var err error
		db, err = store.Open(config.DatabasePath())
		if err != nil {
			logger.Warn("database unavailable", "path", config.DatabasePath(), "error", err)
			db = nil
		} else {
			defer db.Close()
		}
	}

	src, err := ime.LoadSources(cfg, db)
	if err != nil {
		logger.Error("load shortcuts and words", "error", err)
		return nil, err
	}
	for _, rej := range src.Report.Rejected {
		logger.Warn("source entry skipped", "error", rej)
	}
	logger.Info("sources loaded",
		"shortcuts", src.Shortcuts.Len(),
		"words", src.Words.Len(),
		"db_shortcuts", src.Report.DBShortcuts,
		"defaults", src.Report.Defaults)
	return src, nil
}

func recordSources(m *metrics.EngineMetrics, src *ime.Sources) {
	m.Shortcuts.Set(int64(src.Shortcuts.Len()))
	m.ForeignWords.Set(int64(src.Words.Len()))
	m.ImportRejected.Add(uint64(len(src.Report.Rejected)))
}

func serveMetrics(ctx context.Context, addr string, registry *metrics.Registry, m *metrics.EngineMetrics, logger *logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.UpdateUptime()
		registry.HTTPHandler().ServeHTTP(w, r)
	}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server", "error", err)
	}
}
