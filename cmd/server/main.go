package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pich-reamrachna/MyChatApp/internal/chat"
	"github.com/pich-reamrachna/MyChatApp/internal/ops"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	addr := flag.String("addr", "", "chat listen address (overrides config)")
	opsAddr := flag.String("ops-addr", "", "ops/metrics listen address (overrides config)")
	flag.Parse()

	cfg, err := chat.LoadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *opsAddr != "" {
		cfg.OpsAddr = *opsAddr
	}

	level := slog.LevelInfo
	if cfg.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	srv := chat.NewServer(cfg, logger)
	if err := srv.Start(); err != nil {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}

	opsSrv := ops.NewServer(cfg.OpsAddr, srv, logger)
	opsSrv.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := opsSrv.Stop(ctx); err != nil {
		logger.Error("ops shutdown failed", "error", err)
	}
	srv.Stop()
}
