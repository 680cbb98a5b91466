package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Guilhem-Bonnet/bookclub/internal/adapters/httpapi"
	"github.com/Guilhem-Bonnet/bookclub/internal/adapters/jsonstore"
	"github.com/Guilhem-Bonnet/bookclub/internal/app"
	"github.com/Guilhem-Bonnet/bookclub/internal/buildinfo"
	"github.com/Guilhem-Bonnet/bookclub/internal/config"
	"github.com/Guilhem-Bonnet/bookclub/internal/logging"
	"github.com/Guilhem-Bonnet/bookclub/internal/wiring"
)

func main() {
	configPath := flag.String("config", os.Getenv("BOOKCLUB_CONFIG"), "YAML配置文件 (可选)")
	addr := flag.String("addr", "", "监听地址 (如 127.0.0.1:8080)")
	dbPath := flag.String("db", "", "SQLite数据库路径 (如 bookclub.db)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	logger, closeLog := logging.New(os.Stdout, logging.Options{
		App:        "bookclub-server",
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	defer func() { _ = closeLog() }()
	log.Logger = logger

	logger.Info().
		Interface("build", buildinfo.Current()).
		Str("db", cfg.DBPath).
		Str("schedule", cfg.Paths.Schedule).
		Bool("remote", cfg.RemoteEnabled()).
		Msg("starting")

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stack, err := wiring.Build(shutdownCtx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build services")
	}
	defer func() { _ = stack.Close() }()

	// Historique: chaque sync.completed publié sur le bus est persisté.
	recorderDone := stack.Runs.Start(shutdownCtx)

	watcher := jsonstore.NewWatcher(logging.Component(logger, "watcher"), stack.Bus, map[string]string{
		"schedule": cfg.Paths.Schedule,
		"leaders":  cfg.Paths.Leaders,
	})
	go func() {
		if err := watcher.Run(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("file watcher disabled")
		}
	}()

	if cfg.DriftCheck != "" && cfg.RemoteEnabled() {
		monitor := app.NewDriftMonitor(logging.Component(logger, "drift"), stack.Sync, stack.Bus)
		monitor.Spec = cfg.DriftCheck
		go func() {
			if err := monitor.Run(shutdownCtx); err != nil {
				logger.Error().Err(err).Str("spec", cfg.DriftCheck).Msg("drift monitor disabled")
			}
		}()
	}

	deps := httpapi.Deps{
		Schedules:      stack.Schedules,
		Leaders:        stack.Leaders,
		Sync:           stack.Sync,
		Invitations:    stack.Invitations,
		Fields:         stack.Fields,
		Settings:       stack.Settings,
		Runs:           stack.Runs,
		Bus:            stack.Bus,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		BatchContext:   shutdownCtx,
	}
	if stack.Notion != nil {
		deps.Pages = stack.Notion
	}
	srv := httpapi.NewServer(logger, deps)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server crashed")
			stop()
		}
	}()

	<-shutdownCtx.Done()
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
	select {
	case <-recorderDone:
	case <-ctx.Done():
	}
	logger.Info().Msg("bye")
}
