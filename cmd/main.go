// Command ledger runs the Hyperliquid account ledger API. It reconstructs a
// wallet's chronological activity from exchange records and serves PnL
// figures derived from it.
//
// Usage:
//
//	ledger --config config.yaml
//	ledger (uses defaults and environment variables)
//
// Environment variables:
//
//	HYPERLIQUID_INFO_URL  info endpoint (default https://api.hyperliquid.xyz/info)
//	SERVER_HOST           listen host (default 0.0.0.0)
//	SERVER_PORT           listen port (default 8081)
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/goker-dev/ledger/config"
	"github.com/goker-dev/ledger/internal/clients"
	"github.com/goker-dev/ledger/internal/services"
	"github.com/goker-dev/ledger/internal/web"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	source := clients.NewInfoClient(cfg.InfoURL, cfg.RequestTimeout, logger)
	ingestion := services.NewIngestionService(source, logger)
	timeline := services.NewTimelineService(logger)
	calculator := services.NewPnlCalculator()

	server := web.NewServer(cfg.Addr(), ingestion, timeline, calculator, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting ledger API server", zap.String("addr", cfg.Addr()))
	if err := server.Start(ctx); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
