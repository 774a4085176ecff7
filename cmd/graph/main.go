// Command graph rebuilds the relationship graph artifact from the
// snapshot directory.
package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/karliky/turrero"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (JSON)")
	dbDir := flag.String("db", "", "Snapshot directory (overrides config)")
	strict := flag.Bool("strict", false, "Fail on malformed engagement counters instead of counting zero")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))
	godotenv.Load()

	cfg := loadConfig(*configPath)
	if v := os.Getenv("TURRERO_DB_DIR"); v != "" {
		cfg.DBDir = v
	}
	if *dbDir != "" {
		cfg.DBDir = *dbDir
	}
	if *strict {
		cfg.StrictStats = true
	}

	engine := turrero.New(cfg)
	nodes, err := engine.BuildGraph()
	if err != nil {
		slog.Error("building graph", "error", err)
		os.Exit(1)
	}
	if err := engine.WriteGraph(nodes); err != nil {
		slog.Error("writing graph", "error", err)
		os.Exit(1)
	}
}

func loadConfig(path string) turrero.Config {
	cfg := turrero.DefaultConfig()
	if path == "" {
		return cfg
	}
	f, err := os.Open(path)
	if err != nil {
		slog.Error("opening config", "error", err)
		os.Exit(1)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		slog.Error("parsing config", "error", err)
		os.Exit(1)
	}
	return cfg
}
