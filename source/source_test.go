package source

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestParseThreads(t *testing.T) {
	data := []byte(`[
		[
			{"id": "100", "stats": {"replies": "1,234", "likes": 5}},
			{"id": "101", "metadata": {"embed": {"type": "embed", "id": "200"}}}
		],
		[],
		[
			{"id": "200", "author": "https://x.com/Recuenco"}
		]
	]`)

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Kind != KindThread {
		t.Fatalf("kind = %v, want thread", doc.Kind)
	}
	if len(doc.Threads) != 2 {
		t.Fatalf("threads = %d, want 2 (empty thread skipped)", len(doc.Threads))
	}

	thread, ok := doc.Threads["100"]
	if !ok {
		t.Fatal("thread 100 missing; threads must be keyed by first tweet id")
	}
	if thread.ID() != "100" {
		t.Errorf("thread.ID() = %q, want %q", thread.ID(), "100")
	}
	if thread[1].Metadata == nil || thread[1].Metadata.Embed == nil {
		t.Fatal("embed metadata not decoded")
	}
	if got := thread[1].Metadata.Embed.ID; got != "200" {
		t.Errorf("embed id = %q, want %q", got, "200")
	}
	if got := thread[0].Stats.Replies; got != "1,234" {
		t.Errorf("raw replies = %v, want the untouched scraped string", got)
	}
}

func TestParseCategories(t *testing.T) {
	data := []byte(`[
		{"id": "1", "categories": "a, b"},
		{"id": "2", "categories": ["c", "d"]},
		{"id": "3", "categories": ""}
	]`)

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Kind != KindCategory {
		t.Fatalf("kind = %v, want category", doc.Kind)
	}

	want := map[string][]string{
		"1": {"a", "b"},
		"2": {"c", "d"},
		"3": nil,
	}
	if !reflect.DeepEqual(doc.Categories, want) {
		t.Errorf("categories = %v, want %v", doc.Categories, want)
	}
}

func TestParseSummaries(t *testing.T) {
	data := []byte(`[
		{"id": "1", "summary": "sobre la resolución de problemas complejos"},
		{"id": "2", "summary": ""}
	]`)

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Kind != KindSummary {
		t.Fatalf("kind = %v, want summary", doc.Kind)
	}
	if got := doc.Summaries["1"]; got != "sobre la resolución de problemas complejos" {
		t.Errorf("summary 1 = %q", got)
	}
	if got, ok := doc.Summaries["2"]; !ok || got != "" {
		t.Errorf("summary 2 = %q, %v; want empty string present", got, ok)
	}
}

func TestParseUnknownFormat(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"top level object", `{"id": "1"}`},
		{"top level scalar", `42`},
		{"empty array", `[]`},
		{"object without marker fields", `[{"id": "1", "name": "x"}]`},
		{"scalar elements", `[1, 2, 3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if !errors.Is(err, ErrUnknownFormat) {
				t.Errorf("Parse(%s) error = %v, want ErrUnknownFormat", tt.data, err)
			}
		})
	}
}

func TestNormalizeCategories(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"comma string is split and trimmed", `"a, b"`, []string{"a", "b"}},
		{"list passes through", `["a","b"]`, []string{"a", "b"}},
		{"single label", `"cultura"`, []string{"cultura"}},
		{"empty string", `""`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeCategories(json.RawMessage(tt.raw))
			if err != nil {
				t.Fatalf("NormalizeCategories(%s): %v", tt.raw, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeCategories(%s) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}

	if _, err := NormalizeCategories(json.RawMessage(`42`)); err == nil {
		t.Error("NormalizeCategories(42) succeeded, want error")
	}
}
