package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/notepulse-hq/note-pulse/internal/config"
	"github.com/notepulse-hq/note-pulse/internal/dashboard"
	"github.com/notepulse-hq/note-pulse/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "dashboard failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var addr string
	flag.StringVar(&addr, "addr", ":8080", "listen address")
	flag.Parse()

	log, err := logger.Init(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	srv := dashboard.NewServer(
		filepath.Join(cfg.DataDir, "articles.csv"),
		filepath.Join(cfg.DataDir, "daily_summary.csv"),
		log,
	)
	return srv.ListenAndServe(addr)
}
