// Command backfill adds the default author to every archived tweet that
// lacks one. One-shot data patching; safe to re-run.
package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/karliky/turrero"
	"github.com/karliky/turrero/backfill"
)

func main() {
	dbDir := flag.String("db", "", "Snapshot directory")
	author := flag.String("author", "", "Author profile URL to backfill")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))
	godotenv.Load()

	cfg := turrero.DefaultConfig()
	if v := os.Getenv("TURRERO_DB_DIR"); v != "" {
		cfg.DBDir = v
	}
	if *dbDir != "" {
		cfg.DBDir = *dbDir
	}
	if *author != "" {
		cfg.Author = *author
	}

	path := filepath.Join(cfg.DBDir, cfg.ThreadsFile)
	patched, err := backfill.File(path, cfg.Author)
	if err != nil {
		slog.Error("backfilling author", "path", path, "error", err)
		os.Exit(1)
	}
	slog.Info("author backfill complete", "path", path, "patched", patched)
}
