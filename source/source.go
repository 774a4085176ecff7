// Package source loads the archive's JSON snapshot files and classifies
// them into one of the known source kinds. The snapshots share no schema
// marker, so the kind is decided once per document by inspecting the first
// element, then carried as an explicit tag for downstream dispatch.
package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrUnknownFormat is returned when a document does not match any known
// snapshot shape. This is fatal to the pipeline: nothing downstream can
// safely guess a schema.
var ErrUnknownFormat = errors.New("source: unrecognized document format")

// Kind identifies the shape of a loaded snapshot.
type Kind int

const (
	// KindThread is an array of tweet arrays, one per thread.
	KindThread Kind = iota
	// KindCategory maps thread ids to category labels.
	KindCategory
	// KindSummary maps thread ids to free-text summaries.
	KindSummary
)

// String returns the snapshot kind name for logs and errors.
func (k Kind) String() string {
	switch k {
	case KindThread:
		return "thread"
	case KindCategory:
		return "category"
	case KindSummary:
		return "summary"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Embed is a reference from a tweet to another tweet or thread.
type Embed struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Metadata holds the optional scrape metadata attached to a tweet.
type Metadata struct {
	Embed *Embed `json:"embed,omitempty"`
}

// TweetStats carries the raw engagement counters as scraped. Values may be
// numbers or abbreviated strings; package stats normalizes them.
type TweetStats struct {
	Replies   any `json:"replies,omitempty"`
	Likes     any `json:"likes,omitempty"`
	Bookmarks any `json:"bookmarks,omitempty"`
	Views     any `json:"views,omitempty"`
}

// Tweet is one archived tweet within a thread.
type Tweet struct {
	ID       string     `json:"id"`
	Author   string     `json:"author,omitempty"`
	Stats    TweetStats `json:"stats,omitempty"`
	Metadata *Metadata  `json:"metadata,omitempty"`
}

// Thread is an ordered tweet sequence. Its id is the first tweet's id.
type Thread []Tweet

// ID returns the thread identifier, or "" for an empty thread.
func (t Thread) ID() string {
	if len(t) == 0 {
		return ""
	}
	return t[0].ID
}

// Document is a classified snapshot. Exactly one of the mapping fields is
// populated, selected by Kind.
type Document struct {
	Kind       Kind
	Threads    map[string]Thread
	Categories map[string][]string
	Summaries  map[string]string
}

// Load reads and classifies a snapshot file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse classifies a decoded snapshot document. The top level must be a
// JSON array; the kind is decided by probing the first element:
// a "categories" field marks a category source, a "summary" field a
// summary source, anything else is treated as a thread source.
func Parse(data []byte) (*Document, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, fmt.Errorf("%w: top level is not an array", ErrUnknownFormat)
	}
	if len(elems) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrUnknownFormat)
	}

	var probe map[string]json.RawMessage
	// Thread sources have arrays as elements; the probe only succeeds for
	// the two object-shaped kinds.
	if err := json.Unmarshal(elems[0], &probe); err == nil {
		if _, ok := probe["categories"]; ok {
			return parseCategories(elems)
		}
		if _, ok := probe["summary"]; ok {
			return parseSummaries(elems)
		}
		return nil, fmt.Errorf("%w: object element with neither categories nor summary", ErrUnknownFormat)
	}

	return parseThreads(elems)
}

func parseThreads(elems []json.RawMessage) (*Document, error) {
	threads := make(map[string]Thread, len(elems))
	for i, raw := range elems {
		var thread Thread
		if err := json.Unmarshal(raw, &thread); err != nil {
			return nil, fmt.Errorf("%w: element %d is neither an object nor a tweet array", ErrUnknownFormat, i)
		}
		// An empty thread has no identity; skip it.
		if len(thread) == 0 {
			continue
		}
		threads[thread.ID()] = thread
	}
	return &Document{Kind: KindThread, Threads: threads}, nil
}

func parseCategories(elems []json.RawMessage) (*Document, error) {
	type entry struct {
		ID         string          `json:"id"`
		Categories json.RawMessage `json:"categories"`
	}

	categories := make(map[string][]string, len(elems))
	for i, raw := range elems {
		var e entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("%w: category element %d: %v", ErrUnknownFormat, i, err)
		}
		labels, err := NormalizeCategories(e.Categories)
		if err != nil {
			return nil, fmt.Errorf("%w: category element %d: %v", ErrUnknownFormat, i, err)
		}
		categories[e.ID] = labels
	}
	return &Document{Kind: KindCategory, Categories: categories}, nil
}

func parseSummaries(elems []json.RawMessage) (*Document, error) {
	type entry struct {
		ID      string `json:"id"`
		Summary string `json:"summary"`
	}

	summaries := make(map[string]string, len(elems))
	for i, raw := range elems {
		var e entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("%w: summary element %d: %v", ErrUnknownFormat, i, err)
		}
		summaries[e.ID] = e.Summary
	}
	return &Document{Kind: KindSummary, Summaries: summaries}, nil
}

// NormalizeCategories accepts either representation of a category value:
// a comma-joined string, which is split and trimmed, or an already-split
// list, which passes through unchanged.
func NormalizeCategories(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var joined string
	if err := json.Unmarshal(raw, &joined); err == nil {
		return SplitLabels(joined), nil
	}

	var labels []string
	if err := json.Unmarshal(raw, &labels); err != nil {
		return nil, fmt.Errorf("categories is neither a string nor a list")
	}
	return labels, nil
}

// SplitLabels splits a comma-joined label string into trimmed labels.
func SplitLabels(joined string) []string {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		labels = append(labels, strings.TrimSpace(p))
	}
	return labels
}
