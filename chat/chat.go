// Package chat is the retrieval-augmented assistant over the archived
// corpus: glossary terms and related material are indexed into a local
// vector store, and questions are answered by a chat model grounded on
// the retrieved passages.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/karliky/turrero/llm"
	"github.com/karliky/turrero/store"
)

var (
	// ErrNoPassages is returned when retrieval finds nothing above the
	// score threshold, typically because the index was never built.
	ErrNoPassages = errors.New("chat: no relevant passages found")
)

// The answering prompt is kept in Spanish: the corpus, its glossary, and
// its readers are Spanish-speaking.
const promptTemplate = `Eres un asistente para tareas de tipo 'pregunta y respuesta'. Utiliza las siguientes piezas de contexto recuperado para responder la pregunta. Si no sabes la respuesta, simplemente di que no la sabes. Usa tres oraciones como máximo y mantén la respuesta concisa.

Pregunta: %s
Contexto: %s
Respuesta:`

// Config configures the assistant.
type Config struct {
	// IndexPath is the SQLite file holding the passage index.
	IndexPath string `json:"index_path" yaml:"index_path"`

	// EmbeddingDim must match the embedding model. Defaults to 768.
	EmbeddingDim int `json:"embedding_dim" yaml:"embedding_dim"`

	// TopK is the number of passages retrieved per question. Defaults to 3.
	TopK int `json:"top_k" yaml:"top_k"`

	// ScoreThreshold discards retrieved passages scoring below it.
	// Defaults to 0.5.
	ScoreThreshold float64 `json:"score_threshold" yaml:"score_threshold"`

	// Splitting for index builds.
	ChunkSize    int `json:"chunk_size" yaml:"chunk_size"`
	ChunkOverlap int `json:"chunk_overlap" yaml:"chunk_overlap"`

	Chat      llm.Config `json:"chat" yaml:"chat"`
	Embedding llm.Config `json:"embedding" yaml:"embedding"`
}

// Assistant answers free-text questions about the corpus.
type Assistant struct {
	store     *store.Store
	chatLLM   llm.Provider
	embedLLM  llm.Provider
	splitter  *Splitter
	topK      int
	threshold float64
}

// New opens the passage index and connects the LLM providers.
func New(cfg Config) (*Assistant, error) {
	if cfg.IndexPath == "" {
		cfg.IndexPath = "glossary.db"
	}
	if cfg.EmbeddingDim == 0 {
		cfg.EmbeddingDim = 768
	}
	if cfg.TopK == 0 {
		cfg.TopK = 3
	}
	if cfg.ScoreThreshold == 0 {
		cfg.ScoreThreshold = 0.5
	}

	s, err := store.New(cfg.IndexPath, cfg.EmbeddingDim)
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}

	chatLLM, err := llm.NewProvider(cfg.Chat)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating chat provider: %w", err)
	}
	embedLLM, err := llm.NewProvider(cfg.Embedding)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating embedding provider: %w", err)
	}

	return &Assistant{
		store:     s,
		chatLLM:   chatLLM,
		embedLLM:  embedLLM,
		splitter:  NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		topK:      cfg.TopK,
		threshold: cfg.ScoreThreshold,
	}, nil
}

// Ask retrieves the passages nearest to question and asks the chat model
// for a grounded answer.
func (a *Assistant) Ask(ctx context.Context, question string) (string, error) {
	embs, err := a.embedLLM.Embed(ctx, []string{question})
	if err != nil {
		return "", fmt.Errorf("embedding question: %w", err)
	}
	if len(embs) == 0 {
		return "", fmt.Errorf("embedding question: empty response")
	}

	results, err := a.store.Search(ctx, embs[0], a.topK)
	if err != nil {
		return "", fmt.Errorf("searching index: %w", err)
	}

	var passages []string
	for _, r := range results {
		if r.Score < a.threshold {
			continue
		}
		passages = append(passages, r.Content)
	}
	if len(passages) == 0 {
		return "", ErrNoPassages
	}
	slog.Debug("chat: retrieved context", "passages", len(passages), "top_score", results[0].Score)

	prompt := fmt.Sprintf(promptTemplate, question, strings.Join(passages, "\n\n"))
	answer, err := a.chatLLM.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// Clear drops the entire passage index.
func (a *Assistant) Clear(ctx context.Context) error {
	return a.store.Clear(ctx)
}

// Close releases the underlying index.
func (a *Assistant) Close() error {
	return a.store.Close()
}
