package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/tuannm99/mikedb"
	"github.com/tuannm99/mikedb/internal"
)

func main() {
	configPath := pflag.String("config", "", "Path to a YAML config file")
	dataDir := pflag.String("data-dir", "", "Data directory (overrides config and DATA_DIRECTORY)")
	pflag.Parse()

	cfg, err := internal.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.Storage.DataDirectory = *dataDir
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	db := mikedb.Open(cfg.Storage.DataDirectory, cfg.Storage.PageSize)
	if err := db.LoadAll(); err != nil {
		slog.Error("failed to load catalog", "err", err)
		os.Exit(1)
	}
	for _, ds := range db.Dataspaces() {
		tables, err := db.Tables(ds)
		if err != nil {
			slog.Warn("dataspace unavailable", "dataspace", ds, "err", err)
			continue
		}
		slog.Info("dataspace ready", "dataspace", ds, "tables", len(tables))
	}

	slog.Info(cfg.AppName+" started", "data_dir", cfg.Storage.DataDirectory)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down")
	if err := db.Save(); err != nil {
		slog.Error("save on shutdown", "err", err)
		os.Exit(1)
	}
}
