// Command cadence-mcp serves the cadence analysis history to MCP clients
// over stdio.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jwulff/cadence/internal/config"
	"github.com/jwulff/cadence/internal/db"
	"github.com/jwulff/cadence/internal/ingest"
	"github.com/jwulff/cadence/internal/logger"
	"github.com/jwulff/cadence/internal/mcpserver"
	"github.com/mark3labs/mcp-go/server"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "cadence-mcp: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config.LoadEnvFiles(config.DefaultEnvFiles()...)
	cfg := config.Load()

	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "History database path (or CADENCE_DB_PATH)")
	flag.StringVar(&cfg.BackendURL, "backend", cfg.BackendURL, "Backend base URL for analyze_text, empty to disable")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug|info|warn|error")
	flag.Parse()

	// stdout carries the protocol.
	log := logger.NewLogger(cfg.LogLevel, os.Stderr)

	store, err := db.OpenReadOnly(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.DBPath, err)
	}
	defer store.Close()

	var analyzer mcpserver.Analyzer
	if cfg.BackendURL != "" {
		analyzer = ingest.NewClient(cfg.BackendURL, cfg.HTTPTimeout, log)
	}

	s := mcpserver.New(mcpserver.NewHandlers(store, analyzer, log), version)
	log.Infof("serving %s", cfg.DBPath)
	return server.ServeStdio(s)
}
