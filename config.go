package turrero

import (
	"path/filepath"

	"github.com/karliky/turrero/chat"
	"github.com/karliky/turrero/graph"
)

// Config holds all configuration for the archive tooling.
type Config struct {
	// DBDir is the directory holding the snapshot artifacts.
	DBDir string `json:"db_dir" yaml:"db_dir"`

	// Snapshot file names, relative to DBDir.
	ThreadsFile    string `json:"threads_file" yaml:"threads_file"`
	SummariesFile  string `json:"summaries_file" yaml:"summaries_file"`
	CategoriesFile string `json:"categories_file" yaml:"categories_file"`

	// GraphFile is the output artifact, relative to DBDir.
	GraphFile string `json:"graph_file" yaml:"graph_file"`

	// IntegrityFiles are the artifacts cross-checked by the verifier,
	// relative to DBDir. CSV, JSON, and XLSX artifacts are supported.
	IntegrityFiles []string `json:"integrity_files" yaml:"integrity_files"`

	// BaseURL is the canonical thread URL prefix.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Author is the profile URL backfilled into tweets that lack one.
	Author string `json:"author" yaml:"author"`

	// StrictStats makes malformed engagement counters fail the build
	// instead of counting as zero.
	StrictStats bool `json:"strict_stats" yaml:"strict_stats"`

	// Chat configures the retrieval-augmented assistant.
	Chat chat.Config `json:"chat" yaml:"chat"`
}

// DefaultConfig returns a Config matching the layout of the archived
// corpus repository.
func DefaultConfig() Config {
	return Config{
		DBDir:          "db",
		ThreadsFile:    "tweets.json",
		SummariesFile:  "tweets_summary.json",
		CategoriesFile: "tweets_map.json",
		GraphFile:      "processed_graph_data.json",
		IntegrityFiles: []string{
			"turras.csv",
			"tweets_exam.json",
			"tweets_map.json",
			"tweets_summary.json",
		},
		BaseURL: graph.DefaultBaseURL,
		Author:  "https://x.com/Recuenco",
		Chat: chat.Config{
			IndexPath: filepath.Join("db", "glossary.db"),
		},
	}
}

// path resolves a snapshot file name against DBDir.
func (c *Config) path(name string) string {
	return filepath.Join(c.DBDir, name)
}
