package graph

import (
	"errors"
	"reflect"
	"testing"

	"github.com/karliky/turrero/source"
	"github.com/karliky/turrero/stats"
)

func tweet(id string, replies any) source.Tweet {
	return source.Tweet{ID: id, Stats: source.TweetStats{Replies: replies}}
}

func embedTweet(id, targetID string) source.Tweet {
	return source.Tweet{ID: id, Metadata: &source.Metadata{
		Embed: &source.Embed{Type: "embed", ID: targetID},
	}}
}

func TestAggregate(t *testing.T) {
	threads := map[string]source.Thread{
		"1": {
			tweet("1", 1),
			tweet("2", float64(2)),
			tweet("3", "3"),
		},
		"10": {
			{ID: "10", Stats: source.TweetStats{
				Replies:   "1.5K",
				Likes:     "2M",
				Bookmarks: "1,234",
				Views:     nil,
			}},
		},
	}

	totals, err := NewBuilder().Aggregate(threads)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	if got := totals["1"].Replies; got != 6 {
		t.Errorf("thread 1 replies = %d, want 6", got)
	}
	want := Stats{Replies: 1500, Likes: 2000000, Bookmarks: 1234, Views: 0}
	if totals["10"] != want {
		t.Errorf("thread 10 totals = %+v, want %+v", totals["10"], want)
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	forward := map[string]source.Thread{
		"1": {tweet("1", 1), tweet("2", 2), tweet("3", 3)},
	}
	reversed := map[string]source.Thread{
		"1": {tweet("3", 3), tweet("2", 2), tweet("1", 1)},
	}

	b := NewBuilder()
	a1, err := b.Aggregate(forward)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	a2, err := b.Aggregate(reversed)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if a1["1"] != a2["1"] {
		t.Errorf("ordering changed totals: %+v vs %+v", a1["1"], a2["1"])
	}
}

func TestAggregateStrictSurfacesBadStats(t *testing.T) {
	threads := map[string]source.Thread{
		"1": {tweet("1", "N/A")},
	}

	b := NewBuilder(WithStatsParser(stats.Parser{Strict: true}))
	if _, err := b.Aggregate(threads); !errors.Is(err, stats.ErrMalformed) {
		t.Errorf("strict Aggregate error = %v, want stats.ErrMalformed", err)
	}

	// The default builder tolerates the same input.
	totals, err := NewBuilder().Aggregate(threads)
	if err != nil {
		t.Fatalf("lenient Aggregate: %v", err)
	}
	if totals["1"].Replies != 0 {
		t.Errorf("lenient replies = %d, want 0", totals["1"].Replies)
	}
}

func TestResolveRelations(t *testing.T) {
	threads := map[string]source.Thread{
		"1": {tweet("1", 0), embedTweet("2", "100")},
		"5": {embedTweet("5", "100"), embedTweet("6", "200")},
		"9": {
			// Non-embed metadata types are ignored.
			{ID: "9", Metadata: &source.Metadata{Embed: &source.Embed{Type: "card", ID: "100"}}},
		},
	}

	related := NewBuilder().ResolveRelations(threads)

	got := related["100"]
	if len(got) != 2 {
		t.Fatalf("references to 100 = %v, want two thread ids", got)
	}
	seen := map[string]bool{}
	for _, id := range got {
		seen[id] = true
	}
	if !seen["1"] || !seen["5"] {
		t.Errorf("references to 100 = %v, want thread ids 1 and 5", got)
	}
	if want := []string{"5"}; !reflect.DeepEqual(related["200"], want) {
		t.Errorf("references to 200 = %v, want %v", related["200"], want)
	}
}

func TestResolveRelationsUsesThreadID(t *testing.T) {
	// The embed sits on the second tweet; the edge must still point at the
	// thread's id (its first tweet), not the embedding tweet's own id.
	threads := map[string]source.Thread{
		"42": {tweet("42", 0), embedTweet("43", "7")},
	}

	related := NewBuilder().ResolveRelations(threads)
	if want := []string{"42"}; !reflect.DeepEqual(related["7"], want) {
		t.Errorf("references to 7 = %v, want %v", related["7"], want)
	}
}

func TestResolveRelationsKeepsDuplicates(t *testing.T) {
	threads := map[string]source.Thread{
		"1": {embedTweet("1", "100"), embedTweet("2", "100")},
	}

	related := NewBuilder().ResolveRelations(threads)
	if want := []string{"1", "1"}; !reflect.DeepEqual(related["100"], want) {
		t.Errorf("references to 100 = %v, want duplicate edges preserved %v", related["100"], want)
	}
}

func TestAssemble(t *testing.T) {
	threads := map[string]source.Thread{
		"2": {tweet("2", "2"), embedTweet("3", "1")},
		"1": {tweet("1", 1)},
	}
	summaries := map[string]string{"1": "resumen uno"}
	categories := map[string][]string{"1": {"a", "b"}}

	nodes, err := NewBuilder().Assemble(threads, summaries, categories)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(nodes))
	}

	// Sorted by id.
	if nodes[0].ID != "1" || nodes[1].ID != "2" {
		t.Fatalf("node order = [%s %s], want sorted ids", nodes[0].ID, nodes[1].ID)
	}

	n1 := nodes[0]
	if n1.URL != DefaultBaseURL+"1" {
		t.Errorf("url = %q, want base URL + id", n1.URL)
	}
	if n1.Summary != "resumen uno" {
		t.Errorf("summary = %q", n1.Summary)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(n1.Categories, want) {
		t.Errorf("categories = %v, want %v", n1.Categories, want)
	}
	if want := []string{"2"}; !reflect.DeepEqual(n1.RelatedThreads, want) {
		t.Errorf("related = %v, want %v", n1.RelatedThreads, want)
	}

	// Thread 2 has no summary or categories: defaults, never nil.
	n2 := nodes[1]
	if n2.Summary != "" {
		t.Errorf("missing summary = %q, want empty", n2.Summary)
	}
	if n2.Categories == nil || len(n2.Categories) != 0 {
		t.Errorf("missing categories = %#v, want empty non-nil list", n2.Categories)
	}
	if n2.RelatedThreads == nil || len(n2.RelatedThreads) != 0 {
		t.Errorf("related = %#v, want empty non-nil list", n2.RelatedThreads)
	}
}

func TestAssembleExcludesSelfLoops(t *testing.T) {
	threads := map[string]source.Thread{
		"1": {embedTweet("1", "1")},
	}

	nodes, err := NewBuilder().Assemble(threads, nil, nil)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(nodes[0].RelatedThreads) != 0 {
		t.Errorf("related = %v, want self-reference excluded", nodes[0].RelatedThreads)
	}
}

func TestAssembleDeterministic(t *testing.T) {
	threads := map[string]source.Thread{
		"3": {tweet("3", 3), embedTweet("4", "1")},
		"1": {tweet("1", 1)},
		"2": {tweet("2", 2), embedTweet("5", "1")},
	}

	b := NewBuilder()
	first, err := b.Assemble(threads, nil, nil)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := b.Assemble(threads, nil, nil)
		if err != nil {
			t.Fatalf("Assemble: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differed:\n%+v\nvs\n%+v", i, first, again)
		}
	}
}
