package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"finrisk/internal/config"
	"finrisk/internal/logger"
	"finrisk/internal/storage"
	"finrisk/internal/watcher"
)

func main() {
	cfg, err := config.Load()
	must(err)
	must(logger.Init(cfg.LogLevel))
	must(cfg.Require("INBOX_DIR", cfg.InboxDir))

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	svc := watcher.NewService(db, cfg)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
