package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// ollamaProvider implements Provider for Ollama. Chat goes through the
// OpenAI-compatible endpoint; embeddings use the native /api/embed
// endpoint, which supports batched input.
type ollamaProvider struct {
	base httpClient
}

// NewOllama creates a provider for a local Ollama instance.
func NewOllama(cfg Config) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	return &ollamaProvider{base: newHTTPClient(cfg)}
}

func (p *ollamaProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	return p.base.chat(ctx, messages)
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

func (p *ollamaProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := p.base.post(ctx, "/api/embed", ollamaEmbedRequest{
		Model: p.base.cfg.Model,
		Input: texts,
	})
	if err != nil {
		return nil, err
	}

	var resp ollamaEmbedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding ollama embed response: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	result := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		result[i] = float64sToFloat32s(emb)
	}
	return result, nil
}

func float64sToFloat32s(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
