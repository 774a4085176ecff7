// Package llm abstracts the chat and embedding backends used by the
// archive assistant. Ollama is the default, matching the local setup the
// corpus tooling runs against; any OpenAI-compatible endpoint also works.
package llm

import (
	"context"
	"fmt"
)

// Provider is the interface for LLM interactions.
type Provider interface {
	// Chat sends a chat completion request and returns the answer text.
	Chat(ctx context.Context, messages []Message) (string, error)

	// Embed generates embeddings for a batch of texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config selects and configures a provider endpoint.
type Config struct {
	Provider string `json:"provider" yaml:"provider"` // ollama, openai, lmstudio, custom
	Model    string `json:"model" yaml:"model"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
	APIKey   string `json:"api_key" yaml:"api_key"`
}

// NewProvider creates a provider from config.
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "", "ollama":
		return NewOllama(cfg), nil
	case "openai", "lmstudio", "custom":
		return NewOpenAICompat(cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}
