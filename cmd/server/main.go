package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/JaimeStill/custodian/internal/config"
	"github.com/JaimeStill/custodian/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, &cfg.Telemetry)
	if err != nil {
		log.Fatal("telemetry setup failed: ", err)
	}

	srv, err := NewServer(ctx, cfg)
	if err != nil {
		log.Fatal("server init failed: ", err)
	}
	logger := srv.infra.Logger

	logger.Info(
		"custodian starting",
		zap.String("version", cfg.Version),
		zap.String("addr", cfg.Server.Addr()),
		zap.String("env", cfg.Env()),
	)

	if err := srv.Start(); err != nil {
		_ = srv.Shutdown(cfg.ShutdownTimeoutDuration())
		logger.Fatal("server start failed", zap.Error(err))
	}

	<-ctx.Done()

	if err := srv.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
		logger.Error("shutdown incomplete", zap.Error(err))
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeoutDuration())
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		logger.Warn("trace flush failed", zap.Error(err))
	}

	logger.Info("custodian stopped")
	_ = logger.Sync()
}
