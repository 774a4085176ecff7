// Package backfill patches archived snapshots in place. Its one job today
// is adding the author field to tweets scraped before the field existed.
// It works on generic JSON so fields it does not know about survive the
// rewrite untouched.
package backfill

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// DefaultAuthor is the canonical author profile URL for the corpus.
const DefaultAuthor = "https://x.com/Recuenco"

// AddAuthor sets author on every tweet that lacks one and returns the
// number of tweets patched. Tweets that already carry an author, with any
// value, are left alone.
func AddAuthor(threads [][]map[string]any, author string) int {
	patched := 0
	for _, thread := range threads {
		for _, tweet := range thread {
			if _, ok := tweet["author"]; ok {
				continue
			}
			tweet["author"] = author
			patched++
		}
	}
	return patched
}

// File rewrites the thread snapshot at path with the author backfill
// applied, preserving the snapshot's 2-space indentation and literal
// non-ASCII characters. Returns the number of tweets patched.
func File(path, author string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}

	var threads [][]map[string]any
	if err := json.Unmarshal(data, &threads); err != nil {
		return 0, fmt.Errorf("decoding %s: %w", path, err)
	}

	patched := AddAuthor(threads, author)
	if patched == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(threads); err != nil {
		return 0, fmt.Errorf("encoding %s: %w", path, err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return 0, fmt.Errorf("writing %s: %w", path, err)
	}
	return patched, nil
}
