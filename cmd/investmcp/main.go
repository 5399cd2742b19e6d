package main

import (
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"investmcp/internal/broker"
	"investmcp/internal/config"
	"investmcp/internal/instrument"
	"investmcp/internal/service"
	"investmcp/internal/tools"
	"investmcp/internal/util"
)

func main() {
	cfgPath := "config/investmcp.yaml"
	if p := os.Getenv("INVESTMCP_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	target := broker.SandboxTarget
	if cfg.Invest.Mode == config.ModeProduction {
		target = broker.ProductionTarget
	}
	dialer := broker.NewDialer(target, cfg.Invest.Token, cfg.Invest.AppName, cfg.Limits.RequestsPerMinute)

	cache := instrument.NewCache(dialer.Session, logger)
	svc := service.New(cfg.Invest.AccountID, dialer.Session, cache, logger)

	logger.Info("starting MCP server",
		"mode", cfg.Invest.Mode,
		"target", target,
		"account_id", cfg.Invest.AccountID,
	)

	if err := server.ServeStdio(tools.NewServer(svc, logger)); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
