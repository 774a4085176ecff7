package turrero

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/karliky/turrero/source"
)

// writeSnapshots lays out a minimal snapshot directory and returns a
// Config pointing at it.
func writeSnapshots(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"tweets.json": `[
			[
				{"id": "100", "stats": {"replies": "1,234", "likes": "1.5K", "views": "2M"}},
				{"id": "101", "stats": {"replies": 6}, "metadata": {"embed": {"type": "embed", "id": "200"}}}
			],
			[
				{"id": "200", "stats": {"replies": 1}}
			]
		]`,
		"tweets_summary.json": `[
			{"id": "100", "summary": "sobre el diseño y la artesanía"}
		]`,
		"tweets_map.json": `[
			{"id": "100", "categories": "diseño, cultura"},
			{"id": "200", "categories": ["sistemas"]}
		]`,
		"turras.csv":       "id,title\n100,primera\n200,segunda\n",
		"tweets_exam.json": `[{"id": "100"}, {"id": "200"}]`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	return Config{
		DBDir:          dir,
		IntegrityFiles: []string{"turras.csv", "tweets_exam.json", "tweets_map.json"},
	}
}

func TestBuildGraph(t *testing.T) {
	e := New(writeSnapshots(t))

	nodes, err := e.BuildGraph()
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(nodes))
	}

	n100 := nodes[0]
	if n100.ID != "100" {
		t.Fatalf("first node = %s, want 100 (sorted by id)", n100.ID)
	}
	if n100.Replies != 1240 || n100.Likes != 1500 || n100.Views != 2000000 {
		t.Errorf("node 100 stats = %+v", n100)
	}
	if n100.URL != "https://twitter.com/Recuenco/status/100" {
		t.Errorf("node 100 url = %q", n100.URL)
	}
	if n100.Summary != "sobre el diseño y la artesanía" {
		t.Errorf("node 100 summary = %q", n100.Summary)
	}
	if len(n100.Categories) != 2 || n100.Categories[0] != "diseño" {
		t.Errorf("node 100 categories = %v", n100.Categories)
	}

	n200 := nodes[1]
	if n200.Summary != "" {
		t.Errorf("node 200 summary = %q, want empty default", n200.Summary)
	}
	if len(n200.RelatedThreads) != 1 || n200.RelatedThreads[0] != "100" {
		t.Errorf("node 200 related = %v, want [100]", n200.RelatedThreads)
	}
}

func TestBuildGraphKindMismatch(t *testing.T) {
	cfg := writeSnapshots(t)
	// Point the thread source at a summary-shaped snapshot.
	cfg.ThreadsFile = "tweets_summary.json"

	if _, err := New(cfg).BuildGraph(); !errors.Is(err, ErrKindMismatch) {
		t.Errorf("BuildGraph error = %v, want ErrKindMismatch", err)
	}
}

func TestBuildGraphUnknownFormatIsFatal(t *testing.T) {
	cfg := writeSnapshots(t)
	if err := os.WriteFile(filepath.Join(cfg.DBDir, "tweets.json"), []byte(`{"not": "an array"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := New(cfg).BuildGraph(); !errors.Is(err, source.ErrUnknownFormat) {
		t.Errorf("BuildGraph error = %v, want source.ErrUnknownFormat", err)
	}
}

func TestWriteGraphDeterministic(t *testing.T) {
	cfg := writeSnapshots(t)
	e := New(cfg)

	var outputs [][]byte
	for i := 0; i < 2; i++ {
		nodes, err := e.BuildGraph()
		if err != nil {
			t.Fatalf("BuildGraph: %v", err)
		}
		if err := e.WriteGraph(nodes); err != nil {
			t.Fatalf("WriteGraph: %v", err)
		}
		out, err := os.ReadFile(filepath.Join(cfg.DBDir, "processed_graph_data.json"))
		if err != nil {
			t.Fatal(err)
		}
		outputs = append(outputs, out)
	}

	if !bytes.Equal(outputs[0], outputs[1]) {
		t.Error("two runs over identical inputs produced different bytes")
	}

	// Non-ASCII stays literal in the artifact.
	if !strings.Contains(string(outputs[0]), "sobre el diseño y la artesanía") {
		t.Errorf("output escaped non-ASCII characters:\n%s", outputs[0])
	}

	// The artifact decodes back into the documented node shape.
	var decoded []map[string]any
	if err := json.Unmarshal(outputs[0], &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	for _, key := range []string{"id", "url", "replies", "likes", "bookmarks", "views", "summary", "categories", "related_threads"} {
		if _, ok := decoded[0][key]; !ok {
			t.Errorf("output node missing %q field", key)
		}
	}
}

func TestVerifyIntegrityConsistent(t *testing.T) {
	report, err := New(writeSnapshots(t)).VerifyIntegrity()
	if err != nil {
		t.Fatalf("VerifyIntegrity: %v", err)
	}
	if !report.Consistent {
		t.Errorf("report = %+v, want consistent", report)
	}
}

func TestVerifyIntegrityReportsDivergence(t *testing.T) {
	cfg := writeSnapshots(t)
	// Drop id 200 from the exam artifact.
	if err := os.WriteFile(filepath.Join(cfg.DBDir, "tweets_exam.json"), []byte(`[{"id": "100"}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := New(cfg).VerifyIntegrity()
	if err != nil {
		t.Fatalf("VerifyIntegrity: %v", err)
	}
	if report.Consistent {
		t.Fatal("report consistent, want divergence")
	}
	if got := report.Missing["tweets_exam.json"]; len(got) != 1 || got[0] != "200" {
		t.Errorf("missing from exam = %v, want [200]", got)
	}
	if _, ok := report.Missing["turras.csv"]; ok {
		t.Error("turras.csv reported missing ids, want none")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.DBDir != "db" || cfg.ThreadsFile != "tweets.json" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.IntegrityFiles) != 4 {
		t.Errorf("integrity files = %v", cfg.IntegrityFiles)
	}
	if !strings.HasSuffix(cfg.BaseURL, "/status/") {
		t.Errorf("base url = %q", cfg.BaseURL)
	}
}
