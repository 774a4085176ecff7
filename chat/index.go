package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/karliky/turrero/store"
)

// Index builds or refreshes the passage index from the given files.
// Supported inputs: glossary .json files (array of term/definition
// objects), .pdf exports, and plain .txt/.md files. Files whose content
// hash is unchanged since the last build are skipped. Returns the number
// of passages indexed.
func (a *Assistant) Index(ctx context.Context, paths ...string) (int, error) {
	total := 0
	for _, path := range paths {
		n, err := a.indexFile(ctx, path)
		if err != nil {
			return total, fmt.Errorf("indexing %s: %w", path, err)
		}
		total += n
	}
	return total, nil
}

func (a *Assistant) indexFile(ctx context.Context, path string) (int, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, err
	}
	content, err := os.ReadFile(absPath)
	if err != nil {
		return 0, err
	}
	hash := store.HashBytes(content)

	if existing, err := a.store.GetDocumentByPath(ctx, absPath); err == nil && existing.ContentHash == hash {
		slog.Info("index: unchanged, skipping", "file", filepath.Base(absPath))
		return 0, nil
	}

	var passages []store.Passage
	source := filepath.Base(absPath)
	switch strings.ToLower(filepath.Ext(absPath)) {
	case ".json":
		passages, err = a.glossaryPassages(source, content)
	case ".pdf":
		passages, err = a.pdfPassages(source, absPath)
	default:
		passages = a.textPassages(source, string(content))
	}
	if err != nil {
		return 0, err
	}
	if len(passages) == 0 {
		return 0, fmt.Errorf("no indexable text")
	}

	docID, err := a.store.UpsertDocument(ctx, absPath, hash)
	if err != nil {
		return 0, err
	}

	const batchSize = 32
	for i := 0; i < len(passages); i += batchSize {
		end := min(i+batchSize, len(passages))

		texts := make([]string, end-i)
		for j := i; j < end; j++ {
			passages[j].DocumentID = docID
			text := passages[j].Content
			if passages[j].Heading != "" {
				text = passages[j].Heading + ": " + text
			}
			texts[j-i] = text
		}

		embeddings, err := a.embedLLM.Embed(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("embedding batch: %w", err)
		}
		if len(embeddings) != len(texts) {
			return 0, fmt.Errorf("got %d embeddings for %d texts", len(embeddings), len(texts))
		}
		for j, emb := range embeddings {
			if _, err := a.store.InsertPassage(ctx, passages[i+j], emb); err != nil {
				return 0, err
			}
		}
	}

	slog.Info("index: file indexed", "file", source, "passages", len(passages))
	return len(passages), nil
}

// glossaryPassages turns a glossary snapshot into one passage per entry.
// Field names vary across snapshot generations, so both naming schemes
// are accepted.
func (a *Assistant) glossaryPassages(source string, content []byte) ([]store.Passage, error) {
	var entries []map[string]any
	if err := json.Unmarshal(content, &entries); err != nil {
		return nil, fmt.Errorf("glossary is not a JSON array of objects: %w", err)
	}

	pick := func(entry map[string]any, keys ...string) string {
		for _, k := range keys {
			if v, ok := entry[k].(string); ok && v != "" {
				return v
			}
		}
		return ""
	}

	var passages []store.Passage
	for _, entry := range entries {
		term := pick(entry, "term", "title", "name", "id")
		def := pick(entry, "definition", "description", "summary", "text")
		if def == "" {
			continue
		}
		for _, chunk := range a.splitter.Split(def) {
			passages = append(passages, store.Passage{
				Source:   source,
				Heading:  term,
				Content:  chunk,
				Position: len(passages),
			})
		}
	}
	return passages, nil
}

// pdfPassages extracts page text from a PDF export and splits it. Pages
// that fail to extract are skipped.
func (a *Assistant) pdfPassages(source, path string) ([]store.Passage, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	var text strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text.WriteString(pageText)
		text.WriteString("\n\n")
	}
	return a.textPassages(source, text.String()), nil
}

func (a *Assistant) textPassages(source, text string) []store.Passage {
	var passages []store.Passage
	for i, chunk := range a.splitter.Split(text) {
		passages = append(passages, store.Passage{
			Source:   source,
			Content:  chunk,
			Position: i,
		})
	}
	return passages
}
