// Command integrity cross-checks the id sets of the snapshot artifacts
// and prints the consistency report. Divergent data is reported, not an
// error: the exit status only reflects whether the check itself ran.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/karliky/turrero"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (JSON)")
	dbDir := flag.String("db", "", "Snapshot directory (overrides config)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))
	godotenv.Load()

	cfg := turrero.DefaultConfig()
	if *configPath != "" {
		f, err := os.Open(*configPath)
		if err != nil {
			slog.Error("opening config", "error", err)
			os.Exit(1)
		}
		if err := json.NewDecoder(f).Decode(&cfg); err != nil {
			f.Close()
			slog.Error("parsing config", "error", err)
			os.Exit(1)
		}
		f.Close()
	}
	if v := os.Getenv("TURRERO_DB_DIR"); v != "" {
		cfg.DBDir = v
	}
	if *dbDir != "" {
		cfg.DBDir = *dbDir
	}

	report, err := turrero.New(cfg).VerifyIntegrity()
	if err != nil {
		slog.Error("verifying integrity", "error", err)
		os.Exit(1)
	}
	fmt.Print(report)
}
