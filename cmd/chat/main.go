// Command chat is a terminal REPL over the corpus assistant. Run with
// -index to (re)build the passage index before asking questions.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/karliky/turrero"
	"github.com/karliky/turrero/chat"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (JSON)")
	index := flag.String("index", "", "Comma-separated files to (re)index before starting")
	clear := flag.Bool("clear", false, "Drop the passage index and exit")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
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
	if v := os.Getenv("TURRERO_INDEX_PATH"); v != "" {
		cfg.Chat.IndexPath = v
	}
	if v := os.Getenv("TURRERO_CHAT_BASE_URL"); v != "" {
		cfg.Chat.Chat.BaseURL = v
	}
	if v := os.Getenv("TURRERO_CHAT_MODEL"); v != "" {
		cfg.Chat.Chat.Model = v
	}
	if v := os.Getenv("TURRERO_EMBED_BASE_URL"); v != "" {
		cfg.Chat.Embedding.BaseURL = v
	}
	if v := os.Getenv("TURRERO_EMBED_MODEL"); v != "" {
		cfg.Chat.Embedding.Model = v
	}
	if cfg.Chat.Chat.Model == "" {
		cfg.Chat.Chat.Model = "llama3"
	}
	if cfg.Chat.Embedding.Model == "" {
		cfg.Chat.Embedding.Model = "nomic-embed-text"
	}

	assistant, err := chat.New(cfg.Chat)
	if err != nil {
		slog.Error("creating assistant", "error", err)
		os.Exit(1)
	}
	defer assistant.Close()

	ctx := context.Background()

	if *clear {
		if err := assistant.Clear(ctx); err != nil {
			slog.Error("clearing index", "error", err)
			os.Exit(1)
		}
		return
	}

	if *index != "" {
		paths := strings.Split(*index, ",")
		n, err := assistant.Index(ctx, paths...)
		if err != nil {
			slog.Error("building index", "error", err)
			os.Exit(1)
		}
		slog.Info("index ready", "passages", n)
	}

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("Pregunta sobre el corpus (Ctrl-D para salir):")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}

		answer, err := assistant.Ask(ctx, question)
		switch {
		case errors.Is(err, chat.ErrNoPassages):
			fmt.Println("No he encontrado nada relevante en el índice.")
		case err != nil:
			slog.Error("answering", "error", err)
		default:
			fmt.Println(answer)
		}
	}
}
