// ====================================
// File: cmd/bot/main.go
// ====================================
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Vixxnu/Pump-Fun-bot/internal/api"
	"github.com/Vixxnu/Pump-Fun-bot/internal/config"
	"github.com/Vixxnu/Pump-Fun-bot/internal/engine"
	"github.com/Vixxnu/Pump-Fun-bot/internal/ledger"
	"github.com/Vixxnu/Pump-Fun-bot/internal/logger"
	"github.com/Vixxnu/Pump-Fun-bot/internal/pumpfun"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		zap.NewExample().Fatal("Failed to load config", zap.Error(err))
	}

	log, err := logger.New(cfg.DebugLogging, cfg.LogFile)
	if err != nil {
		zap.NewExample().Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	log.Info("🚀 Starting Pump.fun trading bot",
		zap.String("rpc_url", cfg.RPCURL),
		zap.String("listen_addr", cfg.ListenAddr))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-shutdownCh
		log.Info("📡 Signal received: " + sig.String())
		cancel()
	}()

	client := pumpfun.NewClient(cfg.RPCURL, log)
	book := ledger.New()
	controller := engine.NewController(cfg, client, book, log)
	server := api.NewServer(controller, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx, cfg.ListenAddr)
	})
	g.Go(func() error {
		<-gctx.Done()
		// Cancel any active run and give it a moment to wind down.
		controller.Stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatal("Bot execution error", zap.Error(err))
	}

	log.Info("👋 Bot shutting down gracefully")
}
