// Package turrero derives a relationship graph from the archived thread
// snapshots of the corpus and verifies referential integrity across the
// sibling artifacts that feed it.
package turrero

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/karliky/turrero/graph"
	"github.com/karliky/turrero/integrity"
	"github.com/karliky/turrero/source"
	"github.com/karliky/turrero/stats"
)

// Engine runs the batch pipelines over the configured snapshot directory.
// Every run recomputes its artifact from scratch; nothing is incremental.
type Engine struct {
	cfg     Config
	builder *graph.Builder
}

// New creates an Engine from cfg. Zero-value fields fall back to the
// defaults of DefaultConfig.
func New(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.DBDir == "" {
		cfg.DBDir = def.DBDir
	}
	if cfg.ThreadsFile == "" {
		cfg.ThreadsFile = def.ThreadsFile
	}
	if cfg.SummariesFile == "" {
		cfg.SummariesFile = def.SummariesFile
	}
	if cfg.CategoriesFile == "" {
		cfg.CategoriesFile = def.CategoriesFile
	}
	if cfg.GraphFile == "" {
		cfg.GraphFile = def.GraphFile
	}
	if cfg.IntegrityFiles == nil {
		cfg.IntegrityFiles = def.IntegrityFiles
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Author == "" {
		cfg.Author = def.Author
	}

	return &Engine{
		cfg: cfg,
		builder: graph.NewBuilder(
			graph.WithBaseURL(cfg.BaseURL),
			graph.WithStatsParser(stats.Parser{Strict: cfg.StrictStats}),
		),
	}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// BuildGraph loads the three snapshot sources and assembles the graph
// nodes. A snapshot that classifies as the wrong kind aborts the build.
func (e *Engine) BuildGraph() ([]graph.Node, error) {
	threadsDoc, err := e.loadKind(e.cfg.ThreadsFile, source.KindThread)
	if err != nil {
		return nil, err
	}
	if len(threadsDoc.Threads) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoThreads, e.cfg.ThreadsFile)
	}

	summariesDoc, err := e.loadKind(e.cfg.SummariesFile, source.KindSummary)
	if err != nil {
		return nil, err
	}
	categoriesDoc, err := e.loadKind(e.cfg.CategoriesFile, source.KindCategory)
	if err != nil {
		return nil, err
	}

	slog.Info("graph: snapshots loaded",
		"threads", len(threadsDoc.Threads),
		"summaries", len(summariesDoc.Summaries),
		"categories", len(categoriesDoc.Categories))

	nodes, err := e.builder.Assemble(threadsDoc.Threads, summariesDoc.Summaries, categoriesDoc.Categories)
	if err != nil {
		return nil, fmt.Errorf("assembling graph: %w", err)
	}
	return nodes, nil
}

// WriteGraph serializes nodes to the configured output artifact: a JSON
// array with 4-space indentation and non-ASCII characters preserved
// literally.
func (e *Engine) WriteGraph(nodes []graph.Node) error {
	path := e.cfg.path(e.cfg.GraphFile)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(nodes); err != nil {
		return fmt.Errorf("encoding graph: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	slog.Info("graph: artifact written", "path", path, "nodes", len(nodes))
	return nil
}

// VerifyIntegrity extracts the id set of every configured artifact and
// cross-checks them. Divergent data is reported in the result, not as an
// error; errors mean the verification itself could not run.
func (e *Engine) VerifyIntegrity() (*integrity.Report, error) {
	sets := make(map[string]integrity.Set, len(e.cfg.IntegrityFiles))
	for _, name := range e.cfg.IntegrityFiles {
		path := e.cfg.path(name)

		var (
			ids integrity.Set
			err error
		)
		switch strings.ToLower(filepath.Ext(name)) {
		case ".csv":
			ids, err = integrity.IDsFromCSV(path)
		case ".xlsx":
			ids, err = integrity.IDsFromXLSX(path)
		default:
			ids, err = integrity.IDsFromJSON(path)
		}
		if err != nil {
			return nil, fmt.Errorf("extracting ids: %w", err)
		}
		sets[name] = ids
	}

	report, err := integrity.Check(sets)
	if err != nil {
		return nil, err
	}
	slog.Info("integrity: check complete",
		"artifacts", len(sets), "consistent", report.Consistent)
	return report, nil
}

// loadKind loads one snapshot and enforces its expected kind.
func (e *Engine) loadKind(name string, want source.Kind) (*source.Document, error) {
	doc, err := source.Load(e.cfg.path(name))
	if err != nil {
		return nil, err
	}
	if doc.Kind != want {
		return nil, fmt.Errorf("%w: %s classified as %s, expected %s",
			ErrKindMismatch, name, doc.Kind, want)
	}
	return doc, nil
}
